package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tjfontaine/hackpack/internal/config"
	"github.com/tjfontaine/hackpack/internal/provision"
	"github.com/tjfontaine/hackpack/internal/telemetry"
)

type flags struct {
	configPath    string
	accountSID    string
	authToken     string
	appSID        string
	phoneNumber   string
	voiceURL      string
	smsURL        string
	domain        string
	gitConfigPath string
	areaCode      string
	newNumber     bool
	newApp        bool
	skipHeroku    bool
	debug         bool
}

func newRootCommand(factory provision.ProviderFactory) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure a Twilio account for the hackpack",
		Long: `configure registers a TwiML application pointing at the deployed hackpack,
obtains a phone number, links the two and publishes the resulting settings
to the Heroku app.

Credentials, the application SID and the phone number default to the
TWILIO_* environment variables, hackpack.yaml and .env.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, factory)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", config.DefaultPath, "settings file path")
	fl.StringVarP(&f.accountSID, "account-sid", "S", "", "Twilio account SID (default $TWILIO_ACCOUNT_SID)")
	fl.StringVarP(&f.authToken, "auth-token", "K", "", "Twilio auth token (default $TWILIO_AUTH_TOKEN)")
	fl.StringVarP(&f.appSID, "app-sid", "a", "", "TwiML application SID to update (default $TWILIO_APP_SID)")
	fl.StringVarP(&f.phoneNumber, "phone-number", "p", "", "phone number to link (default $TWILIO_CALLER_ID)")
	fl.StringVarP(&f.voiceURL, "voice-url", "v", provision.DefaultVoicePath, "voice webhook path or URL")
	fl.StringVarP(&f.smsURL, "sms-url", "s", provision.DefaultSMSPath, "SMS webhook path or URL")
	fl.StringVarP(&f.domain, "domain", "d", "", "host serving the hackpack (default from the heroku git remote)")
	fl.BoolVarP(&f.newNumber, "new", "n", false, "purchase a new phone number")
	fl.BoolVarP(&f.newApp, "new-app", "N", false, "create a new TwiML application")
	fl.BoolVarP(&f.debug, "debug", "D", false, "enable debug logging")
	fl.StringVar(&f.gitConfigPath, "git-config", provision.DefaultGitConfigPath, "git config used to find the Heroku app")
	fl.StringVar(&f.areaCode, "area-code", provision.DefaultAreaCode, "area code for purchased numbers")
	fl.BoolVar(&f.skipHeroku, "skip-heroku", false, "do not run heroku config:set")

	return cmd
}

func run(cmd *cobra.Command, f flags, factory provision.ProviderFactory) error {
	level := slog.LevelInfo
	if f.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(telemetry.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		Writer:      cmd.ErrOrStderr(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer shutdown(cmd.Context())

	opts := provision.Options{
		AccountSID:    firstNonEmpty(f.accountSID, cfg.Twilio.AccountSID),
		AuthToken:     firstNonEmpty(f.authToken, cfg.Twilio.AuthToken),
		AppSID:        firstNonEmpty(f.appSID, cfg.Twilio.AppSID),
		PhoneNumber:   firstNonEmpty(f.phoneNumber, cfg.Twilio.CallerID),
		Host:          f.domain,
		VoiceURL:      f.voiceURL,
		SMSURL:        f.smsURL,
		GitConfigPath: f.gitConfigPath,
		AreaCode:      f.areaCode,
	}
	if f.newApp {
		opts.AppSID = ""
	}
	if f.newNumber {
		opts.PhoneNumber = ""
	}

	var env provision.EnvironmentSetter
	if !f.skipHeroku {
		env = &provision.HerokuCLI{
			Runner: provision.ExecRunner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()},
		}
	}

	c := provision.New(opts,
		provision.WithProviderFactory(factory),
		provision.WithAsker(provision.NewLineAsker(cmd.InOrStdin(), cmd.OutOrStdout())),
		provision.WithEnvironmentSetter(env),
		provision.WithOutput(cmd.OutOrStdout()),
		provision.WithLogger(logger),
	)

	_, err = c.Start(cmd.Context())
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
