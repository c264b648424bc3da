package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aussiebroadwan/authkit/pkg/authsdk"
	"github.com/aussiebroadwan/authkit/pkg/identitytoolkit"
	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

// BuildVersion is set at build time via
// -ldflags "-X github.com/aussiebroadwan/authkit/internal/app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application wires the identity backend, the session coordinator and the
// optional metrics endpoint for the demo CLI.
type Application struct {
	cfg    Config
	logger *slog.Logger

	backend     *identitytoolkit.Client
	coordinator *authsdk.Coordinator
	registry    *prometheus.Registry

	metricsServer *http.Server
}

// Option customizes an Application.
type Option func(*options)

type options struct {
	google    authsdk.GoogleSignIn
	apple     authsdk.AppleSignIn
	callbacks authsdk.Callbacks
	logger    *slog.Logger
}

// WithGoogleSignIn supplies the Google SDK used for federated sign-in.
func WithGoogleSignIn(sdk authsdk.GoogleSignIn) Option {
	return func(o *options) { o.google = sdk }
}

// WithAppleSignIn supplies the Apple SDK used for federated sign-in.
func WithAppleSignIn(sdk authsdk.AppleSignIn) Option {
	return func(o *options) { o.apple = sdk }
}

// WithCallbacks sets the coordinator callbacks, replacing any in Config.
func WithCallbacks(cb authsdk.Callbacks) Option {
	return func(o *options) { o.callbacks = cb }
}

// WithLogger replaces the logger built from Config.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates an Application. Nothing talks to the network until a
// coordinator operation is called.
func New(cfg Config, opts ...Option) *Application {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slogx.New(slogx.Config{
			Service: "authdemo",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}

	app := &Application{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	app.backend = identitytoolkit.NewClient(identitytoolkit.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		TokenURL:  cfg.TokenURL,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})

	authCfg := cfg.Auth
	authCfg.Callbacks = o.callbacks

	coordOpts := []authsdk.Option{
		authsdk.WithLogger(logger),
		authsdk.WithMetrics(authsdk.NewPrometheusMetrics(app.registry)),
		authsdk.WithRefreshInterval(cfg.RefreshInterval),
	}
	if o.google != nil {
		coordOpts = append(coordOpts, authsdk.WithGoogleSignIn(o.google))
	}
	if o.apple != nil {
		coordOpts = append(coordOpts, authsdk.WithAppleSignIn(o.apple))
	}
	app.coordinator = authsdk.NewCoordinator(app.backend, authCfg, coordOpts...)

	return app
}

func (app *Application) Coordinator() *authsdk.Coordinator { return app.coordinator }

func (app *Application) Logger() *slog.Logger { return app.logger }

// Start subscribes the coordinator to the backend and, when MetricsAddr is
// set, starts serving /metrics.
func (app *Application) Start() error {
	app.coordinator.Start()

	if app.cfg.MetricsAddr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              app.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	app.metricsServer = srv

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("metrics server failed", "error", err)
		}
	}()
	app.logger.Info("metrics server started", "addr", app.cfg.MetricsAddr)
	return nil
}

// Shutdown stops the refresh timer and the metrics server. The backend
// session is in memory only and ends with the process.
func (app *Application) Shutdown() error {
	app.coordinator.Close()

	if app.metricsServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.metricsServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown failed: %w", err)
	}
	app.metricsServer = nil
	return nil
}
