package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is the optional settings file read by both binaries.
const DefaultPath = "hackpack.yaml"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Twilio    TwilioConfig    `koanf:"twilio"`
	Client    ClientConfig    `koanf:"client"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Port int `koanf:"port" validate:"min=1,max=65535"`
	// PublicURL overrides the scheme and host used to check webhook signatures.
	PublicURL string `koanf:"public_url" validate:"omitempty,url"`
}

// TwilioConfig holds the account settings. Every field is optional at load
// time; the components that need one report its absence themselves.
type TwilioConfig struct {
	AccountSID string `koanf:"account_sid" validate:"omitempty,startswith=AC"`
	AuthToken  string `koanf:"auth_token"`
	AppSID     string `koanf:"app_sid" validate:"omitempty,startswith=AP"`
	CallerID   string `koanf:"caller_id"`
}

// ClientConfig configures the browser calling page.
type ClientConfig struct {
	Name     string        `koanf:"name" validate:"required,alphanum"`
	TokenTTL time.Duration `koanf:"token_ttl" validate:"gt=0"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name" validate:"required"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// SlogLevel maps Level to a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads settings from the YAML file at path (missing is fine), then
// HACKPACK_* variables (HACKPACK_SERVER__PORT -> server.port), then TWILIO_*
// variables, then PORT.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// File not found is OK, we'll use env vars
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("HACKPACK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "HACKPACK_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("TWILIO_", ".", func(s string) string {
		return "twilio." + strings.ToLower(strings.TrimPrefix(s, "TWILIO_"))
	}), nil); err != nil {
		return nil, err
	}

	if port := os.Getenv("PORT"); port != "" {
		k.Set("server.port", port)
	}

	// Default values
	defaults := map[string]any{
		"server.port":            5000,
		"client.name":            "hackpack",
		"client.token_ttl":       "1h",
		"telemetry.service_name": "hackpack",
		"log.level":              "info",
		"log.format":             "json",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Twilio.AccountSID = substituteEnvVars(cfg.Twilio.AccountSID)
	cfg.Twilio.AuthToken = substituteEnvVars(cfg.Twilio.AuthToken)
	cfg.Twilio.AppSID = substituteEnvVars(cfg.Twilio.AppSID)
	cfg.Twilio.CallerID = substituteEnvVars(cfg.Twilio.CallerID)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// MissingTwilio lists the environment variable names of unset account settings
// required by the browser calling page.
func (c *Config) MissingTwilio() []string {
	var missing []string
	if c.Twilio.AccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.Twilio.AuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if c.Twilio.AppSID == "" {
		missing = append(missing, "TWILIO_APP_SID")
	}
	return missing
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
