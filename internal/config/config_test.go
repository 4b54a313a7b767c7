package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if name == "PORT" || strings.HasPrefix(name, "HACKPACK_") || strings.HasPrefix(name, "TWILIO_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 5000 {
			t.Errorf("Load() port = %v, want 5000", cfg.Server.Port)
		}
		if cfg.Client.Name != "hackpack" {
			t.Errorf("Load() client name = %q, want hackpack", cfg.Client.Name)
		}
		if cfg.Client.TokenTTL != time.Hour {
			t.Errorf("Load() token ttl = %v, want 1h", cfg.Client.TokenTTL)
		}
		if cfg.Telemetry.Enabled {
			t.Error("Load() telemetry enabled by default")
		}
		if got := cfg.MissingTwilio(); len(got) != 3 {
			t.Errorf("MissingTwilio() = %v, want all three", got)
		}
	})

	t.Run("PORT override", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "9000")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != 9000 {
			t.Errorf("Load() port = %v, want 9000", cfg.Server.Port)
		}
	})

	t.Run("hackpack env override", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HACKPACK_SERVER__PORT", "7000")
		t.Setenv("HACKPACK_LOG__LEVEL", "debug")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != 7000 {
			t.Errorf("Load() port = %v, want 7000", cfg.Server.Port)
		}
		if cfg.Log.SlogLevel() != slog.LevelDebug {
			t.Errorf("Load() log level = %v, want debug", cfg.Log.SlogLevel())
		}
	})

	t.Run("twilio env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TWILIO_ACCOUNT_SID", "ACxxxxxx")
		t.Setenv("TWILIO_AUTH_TOKEN", "yyyyyyyyy")
		t.Setenv("TWILIO_APP_SID", "APzzzzzzzzz")
		t.Setenv("TWILIO_CALLER_ID", "+15558675309")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := TwilioConfig{
			AccountSID: "ACxxxxxx",
			AuthToken:  "yyyyyyyyy",
			AppSID:     "APzzzzzzzzz",
			CallerID:   "+15558675309",
		}
		if cfg.Twilio != want {
			t.Errorf("Load() twilio = %+v, want %+v", cfg.Twilio, want)
		}
		if got := cfg.MissingTwilio(); len(got) != 0 {
			t.Errorf("MissingTwilio() = %v, want none", got)
		}
	})

	t.Run("yaml file with substitution", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HACKPACK_TEST_TOKEN", "from-env")

		path := filepath.Join(t.TempDir(), "hackpack.yaml")
		content := "server:\n  port: 8081\n  public_url: https://hackpack.example.com\n" +
			"twilio:\n  account_sid: ACfromfile\n  auth_token: ${HACKPACK_TEST_TOKEN}\n" +
			"client:\n  token_ttl: 30m\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != 8081 || cfg.Server.PublicURL != "https://hackpack.example.com" {
			t.Errorf("Load() server = %+v", cfg.Server)
		}
		if cfg.Twilio.AccountSID != "ACfromfile" || cfg.Twilio.AuthToken != "from-env" {
			t.Errorf("Load() twilio = %+v", cfg.Twilio)
		}
		if cfg.Client.TokenTTL != 30*time.Minute {
			t.Errorf("Load() token ttl = %v, want 30m", cfg.Client.TokenTTL)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TWILIO_ACCOUNT_SID", "ACfromenv")

		path := filepath.Join(t.TempDir(), "hackpack.yaml")
		if err := os.WriteFile(path, []byte("twilio:\n  account_sid: ACfromfile\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Twilio.AccountSID != "ACfromenv" {
			t.Errorf("Load() account sid = %q, want ACfromenv", cfg.Twilio.AccountSID)
		}
	})
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"account sid prefix", map[string]string{"TWILIO_ACCOUNT_SID": "XX123"}},
		{"log level", map[string]string{"HACKPACK_LOG__LEVEL": "loud"}},
		{"public url", map[string]string{"HACKPACK_SERVER__PUBLIC_URL": "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("Load() expected validation error")
			}
		})
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple substitution", "${TEST_VAR}", "test-value"},
		{"embedded", "prefix-${TEST_VAR}-suffix", "prefix-test-value-suffix"},
		{"unset", "${HACKPACK_DOES_NOT_EXIST}", ""},
		{"no pattern", "plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := substituteEnvVars(tt.input); got != tt.want {
				t.Errorf("substituteEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
