package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tjfontaine/hackpack/internal/auth"
	"github.com/tjfontaine/hackpack/internal/config"
	"github.com/tjfontaine/hackpack/internal/frontdoor"
	"github.com/tjfontaine/hackpack/internal/server"
	"github.com/tjfontaine/hackpack/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	shutdown, err := telemetry.Setup(telemetry.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	if missing := cfg.MissingTwilio(); len(missing) > 0 {
		logger.Warn("twilio settings incomplete; run configure", slog.Any("missing", missing))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := server.NewMetrics(reg)

	srv := server.New(cfg.Server.Port, logger, metrics)
	srv.Router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	validator := auth.NewValidator(cfg.Twilio.AuthToken, auth.WithPublicURL(cfg.Server.PublicURL))
	frontdoor.NewHandler(cfg, logger).Mount(srv.Router, server.SignatureMiddleware(validator, metrics, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
