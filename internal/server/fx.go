// Package server builds the application's dependencies and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/index-submitter/internal/api"
	"github.com/JakeFAU/index-submitter/internal/audit"
	gcsaudit "github.com/JakeFAU/index-submitter/internal/audit/gcs"
	memoryaudit "github.com/JakeFAU/index-submitter/internal/audit/memory"
	pgaudit "github.com/JakeFAU/index-submitter/internal/audit/postgres"
	pubsubaudit "github.com/JakeFAU/index-submitter/internal/audit/pubsub"
	"github.com/JakeFAU/index-submitter/internal/clock/system"
	"github.com/JakeFAU/index-submitter/internal/config"
	"github.com/JakeFAU/index-submitter/internal/googleauth"
	"github.com/JakeFAU/index-submitter/internal/googleindex"
	"github.com/JakeFAU/index-submitter/internal/id/uuid"
	"github.com/JakeFAU/index-submitter/internal/indexnow"
	"github.com/JakeFAU/index-submitter/internal/logging"
	"github.com/JakeFAU/index-submitter/internal/policy/ratelimit"
	"github.com/JakeFAU/index-submitter/internal/submission"
	"github.com/JakeFAU/index-submitter/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	apiServer    *api.Server
	history      *memoryaudit.Store
	pubsubClient *pubsub.Client
	pubsubSink   *pubsubaudit.Sink
	storage      *storage.Client
	pgSink       *pgaudit.Sink
	telemetry    *telemetry.Providers
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// Only non-sensitive fields are logged.
	logger.Info("creating application",
		zap.Int("server_port", cfg.Server.Port),
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.Int("timeout_seconds", cfg.HTTP.TimeoutSeconds),
		zap.String("indexnow_endpoint", cfg.IndexNow.Endpoint),
		zap.String("batch_endpoint", cfg.Google.BatchEndpoint),
	)
	return &App{cfg: cfg, logger: logger}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run serves HTTP until ctx is canceled or SIGINT/SIGTERM arrives, then shuts down.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           telemetry.Handler(a.apiServer.Handler(), logging.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	closeErr := a.Close(shutdownCtx)

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
		return closeErr
	}
}

// Close releases audit backends, flushes telemetry, and syncs the logger.
func (a *App) Close(ctx context.Context) error {
	if a.pubsubSink != nil {
		a.pubsubSink.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.pgSink != nil {
		a.pgSink.Close()
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
	if err := a.logger.Sync(); err != nil {
		a.logger.Warn("logger sync failed", zap.Error(err))
	}
	return nil
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return BuildWithLogger(ctx, cfg, logger)
}

// BuildWithLogger is Build with a caller-supplied logger.
func BuildWithLogger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app, err := NewApp(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app init failed: %w", err)
	}

	defaultCred, err := cfg.DefaultCredential()
	if err != nil {
		return nil, err
	}
	if defaultCred != "" {
		app.logger.Info("default google credential configured")
	}

	if cfg.Tracing.Enabled {
		app.telemetry, err = telemetry.Init(ctx, telemetry.Config{
			ServiceName:   logging.ServiceName,
			ProjectID:     cfg.Tracing.ProjectID,
			SampleRatio:   cfg.Tracing.SampleRatio,
			ExportMetrics: cfg.Tracing.ExportMetrics,
		})
		if err != nil {
			return nil, fmt.Errorf("telemetry init failed: %w", err)
		}
		app.logger.Info("tracing enabled",
			zap.String("project", cfg.Tracing.ProjectID),
			zap.Float64("sample_ratio", cfg.Tracing.SampleRatio),
		)
	}

	recorder, err := setupAudit(ctx, app)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	httpClient := &http.Client{
		Timeout:   cfg.StepTimeout(),
		Transport: telemetry.Transport(nil),
	}
	svc := submission.NewService(
		googleauth.NewJWTProvider(httpClient, cfg.Google.TokenURL, app.logger.Named("googleauth")),
		indexnow.New(cfg.IndexNow.Endpoint, httpClient, app.logger.Named("indexnow")),
		googleindex.New(cfg.Google.BatchEndpoint, httpClient, app.logger.Named("googleindex")),
		recorder,
		system.New(),
		uuid.New(),
		submission.Config{
			Scope:       cfg.Google.Scope,
			StepTimeout: cfg.StepTimeout(),
		},
		app.logger.Named("submission"),
	)

	limiter := ratelimit.New(ratelimit.Config{
		PerHostRPS: cfg.RateLimit.PerHostRPS,
		Burst:      cfg.RateLimit.Burst,
		MaxHosts:   cfg.RateLimit.MaxHosts,
	})
	app.logger.Info("rate limiter configured",
		zap.Float64("per_host_rps", cfg.RateLimit.PerHostRPS),
		zap.Int("burst", cfg.RateLimit.Burst),
		zap.Int("max_hosts", cfg.RateLimit.MaxHosts),
	)

	app.apiServer = api.NewServer(
		svc,
		app.history,
		limiter,
		defaultCred,
		*cfg,
		app.logger.Named("api"),
	)
	return app, nil
}

func setupAudit(ctx context.Context, app *App) (*audit.Multi, error) {
	cfg := app.cfg.Audit
	app.history = memoryaudit.NewStore(cfg.MemoryCapacity)
	sinks := []audit.NamedSink{{Name: "memory", Sink: app.history}}

	if cfg.GCSBucket != "" {
		var err error
		app.storage, err = storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		sink, err := gcsaudit.New(app.storage, gcsaudit.Config{Bucket: cfg.GCSBucket, Prefix: cfg.GCSPrefix})
		if err != nil {
			return nil, fmt.Errorf("gcs audit sink init failed: %w", err)
		}
		sinks = append(sinks, audit.NamedSink{Name: "gcs", Sink: sink})
		app.logger.Info("gcs audit sink enabled", zap.String("bucket", cfg.GCSBucket), zap.String("prefix", cfg.GCSPrefix))
	}

	if cfg.PubSubProjectID != "" && cfg.PubSubTopic != "" {
		var err error
		app.pubsubClient, err = pubsub.NewClient(ctx, cfg.PubSubProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client init failed: %w", err)
		}
		app.pubsubSink = pubsubaudit.New(app.pubsubClient.Topic(cfg.PubSubTopic))
		sinks = append(sinks, audit.NamedSink{Name: "pubsub", Sink: app.pubsubSink})
		app.logger.Info("pubsub audit sink enabled",
			zap.String("project", cfg.PubSubProjectID),
			zap.String("topic", cfg.PubSubTopic),
		)
	}

	if cfg.PostgresDSN != "" {
		var err error
		app.pgSink, err = pgaudit.New(ctx, pgaudit.Config{DSN: cfg.PostgresDSN, Table: cfg.PostgresTable})
		if err != nil {
			return nil, fmt.Errorf("postgres audit sink init failed: %w", err)
		}
		sinks = append(sinks, audit.NamedSink{Name: "postgres", Sink: app.pgSink})
		app.logger.Info("postgres audit sink enabled", zap.String("table", cfg.PostgresTable))
	}

	multi := audit.NewMulti(sinks...)
	app.logger.Info("audit trail configured", zap.Int("sinks", multi.Len()))
	return multi, nil
}
