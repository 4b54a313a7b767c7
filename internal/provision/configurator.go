// Package provision configures the telephony account for the hackpack: it
// registers a TwiML application pointing at the deployed web application,
// obtains a phone number, links the two, and reports the resulting settings.
package provision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultVoicePath     = "/voice"
	DefaultSMSPath       = "/sms"
	DefaultAreaCode      = "646"
	DefaultFriendlyName  = "Hackpack for Heroku and Go"
	DefaultGitConfigPath = ".git/config"
)

// Options are the operator supplied inputs of a provisioning run.
// Empty AppSID or PhoneNumber means a new one is created.
type Options struct {
	AccountSID    string
	AuthToken     string
	AppSID        string
	PhoneNumber   string
	Host          string
	VoiceURL      string
	SMSURL        string
	GitConfigPath string
	AreaCode      string
	FriendlyName  string
}

// Result describes what a successful run left behind.
type Result struct {
	Host        string
	VoiceURL    string
	SMSURL      string
	Application *Application
	PhoneNumber *PhoneNumber
	Environment []EnvVar
}

// Option configures a Configurator.
type Option func(*Configurator)

// WithProviderFactory overrides how the Provider is built from credentials.
func WithProviderFactory(f ProviderFactory) Option {
	return func(c *Configurator) {
		c.newProvider = f
	}
}

// WithAsker sets the source of operator answers.
func WithAsker(a Asker) Option {
	return func(c *Configurator) {
		c.asker = a
	}
}

// WithEnvironmentSetter sets where the resulting variables are published.
// A nil setter skips publishing.
func WithEnvironmentSetter(s EnvironmentSetter) Option {
	return func(c *Configurator) {
		c.env = s
	}
}

// WithOutput sets the writer for operator facing messages.
func WithOutput(w io.Writer) Option {
	return func(c *Configurator) {
		c.out = w
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Configurator) {
		c.logger = l
	}
}

// Configurator runs the provisioning workflow. It is not safe for concurrent use.
type Configurator struct {
	opts        Options
	newProvider ProviderFactory
	provider    Provider
	asker       Asker
	env         EnvironmentSetter
	out         io.Writer
	logger      *slog.Logger
	tracer      trace.Tracer
}

// New creates a Configurator. A ProviderFactory must be supplied with
// WithProviderFactory before Start is called.
func New(opts Options, options ...Option) *Configurator {
	if opts.VoiceURL == "" {
		opts.VoiceURL = DefaultVoicePath
	}
	if opts.SMSURL == "" {
		opts.SMSURL = DefaultSMSPath
	}
	if opts.GitConfigPath == "" {
		opts.GitConfigPath = DefaultGitConfigPath
	}
	if opts.AreaCode == "" {
		opts.AreaCode = DefaultAreaCode
	}
	if opts.FriendlyName == "" {
		opts.FriendlyName = DefaultFriendlyName
	}

	c := &Configurator{
		opts:   opts,
		out:    os.Stdout,
		logger: slog.Default(),
		tracer: otel.Tracer("github.com/tjfontaine/hackpack/internal/provision"),
	}
	for _, o := range options {
		o(c)
	}
	if c.asker == nil {
		c.asker = NewLineAsker(os.Stdin, c.out)
	}
	return c
}

// Start runs the whole workflow: check credentials, resolve the host, configure
// the application and number, then publish and print the resulting settings.
func (c *Configurator) Start(ctx context.Context) (*Result, error) {
	runID := uuid.New().String()
	c.logger = c.logger.With(slog.String("run_id", runID))

	ctx, span := c.tracer.Start(ctx, "provision.Start", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	res, err := c.start(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (c *Configurator) start(ctx context.Context) (*Result, error) {
	fmt.Fprintln(c.out, "Configuring your Twilio hackpack...")

	c.logger.Debug("checking credentials")
	if c.opts.AccountSID == "" {
		return nil, newError(KindMissingCredential, nil,
			"TWILIO_ACCOUNT_SID is not set; pass --account-sid or set it in the environment")
	}
	if c.opts.AuthToken == "" {
		return nil, newError(KindMissingCredential, nil,
			"TWILIO_AUTH_TOKEN is not set; pass --auth-token or set it in the environment")
	}
	if c.newProvider == nil {
		return nil, fmt.Errorf("provision: no provider factory configured")
	}

	host := c.opts.Host
	if host == "" {
		c.logger.Debug("resolving host from git config", slog.String("path", c.opts.GitConfigPath))
		resolved, err := ResolveHost(c.opts.GitConfigPath)
		if err != nil {
			return nil, err
		}
		host = resolved
	}
	host = normalizeHost(host)

	voiceURL := callbackURL(host, c.opts.VoiceURL)
	smsURL := callbackURL(host, c.opts.SMSURL)
	c.logger.Info("using callback urls", slog.String("voice_url", voiceURL), slog.String("sms_url", smsURL))

	app, number, err := c.ConfigureHackpack(ctx, voiceURL, smsURL, c.opts.AppSID, c.opts.PhoneNumber)
	if err != nil {
		return nil, err
	}

	vars := []EnvVar{
		{Name: "TWILIO_ACCOUNT_SID", Value: c.opts.AccountSID},
		{Name: "TWILIO_AUTH_TOKEN", Value: c.opts.AuthToken},
		{Name: "TWILIO_APP_SID", Value: app.SID},
		{Name: "TWILIO_CALLER_ID", Value: number.Number},
	}

	if c.env != nil {
		fmt.Fprintln(c.out, "Setting Heroku environment variables...")
		if err := c.env.SetEnvironment(ctx, vars); err != nil {
			c.logger.Warn("could not set hosting environment", slog.String("error", err.Error()))
			fmt.Fprintf(c.out, "Warning: could not set Heroku environment variables: %v\n", err)
		}
	}

	fmt.Fprintln(c.out)
	PrintExports(c.out, vars)

	name := number.FriendlyName
	if name == "" {
		name = number.Number
	}
	fmt.Fprintf(c.out, "\nHackpack is now configured. Call %s to test!\n", name)

	return &Result{
		Host:        host,
		VoiceURL:    voiceURL,
		SMSURL:      smsURL,
		Application: app,
		PhoneNumber: number,
		Environment: vars,
	}, nil
}

// ConfigureHackpack creates or updates the application, purchases or retrieves
// the phone number, and points the number at the application.
func (c *Configurator) ConfigureHackpack(ctx context.Context, voiceURL, smsURL, appSID, phoneNumber string) (*Application, *PhoneNumber, error) {
	var (
		app *Application
		err error
	)
	if appSID == "" {
		app, err = c.createApplication(ctx, voiceURL, smsURL)
	} else {
		app, err = c.updateApplication(ctx, appSID, voiceURL, smsURL)
	}
	if err != nil {
		return nil, nil, err
	}

	var number *PhoneNumber
	if phoneNumber == "" {
		number, err = c.purchasePhoneNumber(ctx)
	} else {
		number, err = c.retrievePhoneNumber(ctx, phoneNumber)
	}
	if err != nil {
		return nil, nil, err
	}

	linked, err := c.linkPhoneNumber(ctx, number, app)
	if err != nil {
		return nil, nil, err
	}
	return app, linked, nil
}

func (c *Configurator) client() Provider {
	if c.provider == nil {
		c.provider = c.newProvider(c.opts.AccountSID, c.opts.AuthToken)
	}
	return c.provider
}

func (c *Configurator) createApplication(ctx context.Context, voiceURL, smsURL string) (*Application, error) {
	if err := c.confirm(
		"Your APP_SID is not configured in your environment. Create a new one? [y/n]",
		"not creating a TwiML application; pass an existing one with --app-sid",
	); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "provision.CreateApplication")
	defer span.End()

	fmt.Fprintln(c.out, "Creating new application...")
	app, err := c.client().CreateApplication(ctx, ApplicationParams{
		FriendlyName: c.opts.FriendlyName,
		VoiceURL:     voiceURL,
		SMSURL:       smsURL,
	})
	if err != nil {
		span.RecordError(err)
		return nil, remoteError(err, "unable to create TwiML application")
	}
	c.logger.Info("created application", slog.String("app_sid", app.SID))
	fmt.Fprintf(c.out, "Application created: %s\n", app.SID)
	return app, nil
}

func (c *Configurator) updateApplication(ctx context.Context, appSID, voiceURL, smsURL string) (*Application, error) {
	ctx, span := c.tracer.Start(ctx, "provision.UpdateApplication", trace.WithAttributes(attribute.String("app_sid", appSID)))
	defer span.End()

	fmt.Fprintf(c.out, "Setting request urls for application %s...\n", appSID)
	app, err := c.client().UpdateApplication(ctx, appSID, ApplicationParams{
		VoiceURL: voiceURL,
		SMSURL:   smsURL,
	})
	if err != nil {
		span.RecordError(err)
		return nil, remoteError(err, "unable to update request urls for application %s", appSID)
	}
	c.logger.Info("updated application", slog.String("app_sid", app.SID))
	return app, nil
}

func (c *Configurator) purchasePhoneNumber(ctx context.Context) (*PhoneNumber, error) {
	const abort = "not purchasing a phone number; pass an existing one with --phone-number"
	if err := c.confirm("Your CALLER_ID is not configured in your environment. Purchase a new one? [y/n]", abort); err != nil {
		return nil, err
	}
	if err := c.confirm("Are you sure you want to purchase? Your Twilio account will be charged $1. [y/n]", abort); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "provision.PurchasePhoneNumber", trace.WithAttributes(attribute.String("area_code", c.opts.AreaCode)))
	defer span.End()

	fmt.Fprintln(c.out, "Purchasing phone number...")
	number, err := c.client().PurchasePhoneNumber(ctx, c.opts.AreaCode)
	if err != nil {
		span.RecordError(err)
		return nil, remoteError(err, "unable to purchase a phone number in area code %s", c.opts.AreaCode)
	}
	c.logger.Info("purchased phone number", slog.String("number", number.Number), slog.String("number_sid", number.SID))
	fmt.Fprintf(c.out, "Phone number purchased: %s\n", number.Number)
	return number, nil
}

func (c *Configurator) retrievePhoneNumber(ctx context.Context, phoneNumber string) (*PhoneNumber, error) {
	ctx, span := c.tracer.Start(ctx, "provision.RetrievePhoneNumber")
	defer span.End()

	fmt.Fprintf(c.out, "Retrieving phone number %s...\n", phoneNumber)
	number, err := c.client().FindPhoneNumber(ctx, phoneNumber)
	if err != nil {
		span.RecordError(err)
		return nil, remoteError(err, "unable to retrieve phone number %s", phoneNumber)
	}
	c.logger.Debug("retrieved phone number", slog.String("number_sid", number.SID))
	return number, nil
}

func (c *Configurator) linkPhoneNumber(ctx context.Context, number *PhoneNumber, app *Application) (*PhoneNumber, error) {
	ctx, span := c.tracer.Start(ctx, "provision.LinkPhoneNumber", trace.WithAttributes(
		attribute.String("number_sid", number.SID),
		attribute.String("app_sid", app.SID),
	))
	defer span.End()

	fmt.Fprintf(c.out, "Setting %s to use application %s...\n", number.Number, app.SID)
	updated, err := c.client().UpdatePhoneNumber(ctx, number.SID, PhoneNumberParams{
		VoiceApplicationSID: app.SID,
		SMSApplicationSID:   app.SID,
	})
	if err != nil {
		span.RecordError(err)
		return nil, remoteError(err, "unable to link %s to application %s", number.Number, app.SID)
	}
	if updated == nil {
		updated = number
		updated.VoiceApplicationSID = app.SID
		updated.SMSApplicationSID = app.SID
	}
	return updated, nil
}
