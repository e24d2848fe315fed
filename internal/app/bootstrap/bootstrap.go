package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	wordpipeline "ccdemo/contexts/streaming/word-pipeline"
	postgresadapter "ccdemo/contexts/streaming/word-pipeline/adapters/postgres"
	"ccdemo/contexts/streaming/word-pipeline/adapters/system"
	"ccdemo/contexts/streaming/word-pipeline/application/workers"
	"ccdemo/contexts/streaming/word-pipeline/domain/services"
	"ccdemo/contexts/streaming/word-pipeline/ports"
	"ccdemo/internal/platform/config"
	"ccdemo/internal/platform/db"
	"ccdemo/internal/platform/httpserver"
	"ccdemo/internal/platform/messaging"
	"ccdemo/internal/platform/metrics"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

// webUIDefaultDatabaseURL is used by the web UI when DATABASE_URL is unset.
const webUIDefaultDatabaseURL = "postgres://127.0.0.1:5432/wordsdb"

type PublisherApp struct {
	transport   messaging.Transport
	publisher   workers.WordPublisher
	source      services.WordSource
	metrics     *metrics.Registry
	metricsAddr string
	logger      *slog.Logger
}

type SubscriberApp struct {
	postgres       *db.Postgres
	transport      messaging.Transport
	schema         ports.SchemaBootstrapper
	consumer       workers.WordConsumer
	subscriptionID string
	metrics        *metrics.Registry
	metricsAddr    string
	logger         *slog.Logger
}

type WebUIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	schema   ports.SchemaBootstrapper
	logger   *slog.Logger
}

// NewLogger builds the process logger: JSON to stderr at the configured level.
func NewLogger(cfg config.Config, process string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler).With("service", cfg.ServiceName, "process", process)
	slog.SetDefault(logger)
	return logger
}

// LoadWordSource reads the publisher input file.
func LoadWordSource(path string) (services.WordSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return services.WordSource{}, fmt.Errorf("read input file %s: %w", path, err)
	}
	return services.NewWordSource(string(raw)), nil
}

func BuildPublisher(ctx context.Context, cfg config.Config, logger *slog.Logger) (*PublisherApp, error) {
	logEffectiveConfig(logger, cfg)

	source, err := LoadWordSource(cfg.InputFile)
	if err != nil {
		return nil, err
	}
	transport, err := messaging.Open(ctx, transportOptions(cfg, logger))
	if err != nil {
		return nil, err
	}
	return newPublisherApp(cfg, transport, source, metrics.NewRegistry(), logger), nil
}

func newPublisherApp(
	cfg config.Config,
	transport messaging.Transport,
	source services.WordSource,
	registry *metrics.Registry,
	logger *slog.Logger,
) *PublisherApp {
	module := wordpipeline.NewModule(wordpipeline.Dependencies{
		Publisher:    transport,
		IDGenerator:  system.UUIDGenerator{},
		Metrics:      registry,
		Topic:        cfg.TopicID,
		OrderingKey:  cfg.OrderingKey,
		PublishDelay: cfg.PublishDelay,
		Logger:       logger,
	})
	return &PublisherApp{
		transport:   transport,
		publisher:   module.Publisher,
		source:      source,
		metrics:     registry,
		metricsAddr: cfg.MetricsAddr,
		logger:      logger,
	}
}

func BuildSubscriber(ctx context.Context, cfg config.Config, logger *slog.Logger) (*SubscriberApp, error) {
	logEffectiveConfig(logger, cfg)
	if err := cfg.RequireSubscription(); err != nil {
		return nil, err
	}

	pg, err := db.Connect(ctx, connectOptions(cfg, cfg.DatabaseURL, logger))
	if err != nil {
		return nil, err
	}
	transport, err := messaging.Open(ctx, transportOptions(cfg, logger))
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	app := newSubscriberApp(cfg, transport, postgresadapter.NewRepository(pg.DB, logger), metrics.NewRegistry(), logger)
	app.postgres = pg
	return app, nil
}

// WordStore is a repository that can also create its own schema.
type WordStore interface {
	ports.WordRepository
	ports.SchemaBootstrapper
}

func newSubscriberApp(
	cfg config.Config,
	transport messaging.Transport,
	words WordStore,
	registry *metrics.Registry,
	logger *slog.Logger,
) *SubscriberApp {
	module := wordpipeline.NewModule(wordpipeline.Dependencies{
		Words:   words,
		Metrics: registry,
		Logger:  logger,
	})
	return &SubscriberApp{
		transport:      transport,
		schema:         words,
		consumer:       module.Consumer,
		subscriptionID: cfg.SubscriptionID,
		metrics:        registry,
		metricsAddr:    cfg.MetricsAddr,
		logger:         logger,
	}
}

func BuildWebUI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WebUIApp, error) {
	logEffectiveConfig(logger, cfg)

	pg, err := db.Connect(ctx, connectOptions(cfg, webUIDatabaseURL(cfg), logger))
	if err != nil {
		return nil, err
	}

	app := newWebUIApp(cfg, postgresadapter.NewRepository(pg.DB, logger), metrics.NewRegistry(), logger)
	app.postgres = pg
	return app, nil
}

func webUIDatabaseURL(cfg config.Config) string {
	if cfg.DatabaseURL == "" {
		return webUIDefaultDatabaseURL
	}
	return cfg.DatabaseURL
}

func newWebUIApp(cfg config.Config, words WordStore, registry *metrics.Registry, logger *slog.Logger) *WebUIApp {
	module := wordpipeline.NewModule(wordpipeline.Dependencies{
		Words:   words,
		Metrics: registry,
		Logger:  logger,
	})
	server := httpserver.New(module, httpserver.Options{
		Addr:     ":" + strconv.Itoa(cfg.HTTPPort),
		Metrics:  registry.Handler(),
		Observer: registry,
		Logger:   logger,
	})
	return &WebUIApp{
		server: server,
		schema: words,
		logger: logger,
	}
}

// Run publishes every word of the input once and then idles until ctx is
// cancelled. A failed publish ends the run with an error.
func (a *PublisherApp) Run(ctx context.Context) error {
	serveMetrics(ctx, a.metrics, a.metricsAddr, a.logger)

	if a.source.IsEmpty() {
		a.logger.Warn("input contains no words",
			"event", "publisher_input_empty",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	count, err := a.publisher.PublishAll(ctx, a.source.Words())
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	a.logger.Info("publisher idle",
		"event", "publisher_idle",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"published_count", count,
	)
	<-ctx.Done()
	return nil
}

func (a *PublisherApp) Close() error {
	if a.transport != nil {
		return a.transport.Close()
	}
	return nil
}

// Run makes sure the schema exists, then consumes the subscription until
// the stream ends, ctx is cancelled or a message cannot be persisted.
func (a *SubscriberApp) Run(ctx context.Context) error {
	if err := a.schema.EnsureSchema(ctx); err != nil {
		return err
	}
	serveMetrics(ctx, a.metrics, a.metricsAddr, a.logger)

	sub, err := a.transport.Subscribe(ctx, a.subscriptionID)
	if err != nil {
		return err
	}
	defer func() {
		if err := sub.Close(); err != nil {
			a.logger.Warn("subscription close failed",
				"event", "subscriber_close_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}()

	a.logger.Info("subscriber app started",
		"event", "bootstrap_subscriber_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"subscription_id", a.subscriptionID,
	)

	err = a.consumer.Run(ctx, sub)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}

func (a *SubscriberApp) Close() error {
	var errs []error
	if a.transport != nil {
		errs = append(errs, a.transport.Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

func (a *WebUIApp) Run(ctx context.Context) error {
	if err := a.schema.EnsureSchema(ctx); err != nil {
		return err
	}
	a.logger.Info("webui app started",
		"event", "bootstrap_webui_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Run(ctx)
}

func (a *WebUIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func serveMetrics(ctx context.Context, registry *metrics.Registry, addr string, logger *slog.Logger) {
	if addr == "" || registry == nil {
		return
	}
	go func() {
		if err := registry.Serve(ctx, addr, logger); err != nil {
			logger.Error("metrics server failed",
				"event", "metrics_server_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}()
}

func transportOptions(cfg config.Config, logger *slog.Logger) messaging.Options {
	return messaging.Options{
		Kind:         cfg.Transport,
		Topic:        cfg.TopicID,
		ProjectID:    cfg.ProjectID,
		KafkaBrokers: cfg.KafkaBrokers,
		NATSURL:      cfg.NATSURL,
		AMQPURL:      cfg.AMQPURL,
		Logger:       logger,
	}
}

func connectOptions(cfg config.Config, databaseURL string, logger *slog.Logger) db.ConnectOptions {
	return db.ConnectOptions{
		DatabaseURL:     databaseURL,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: 30 * time.Minute,
		Logger:          logger,
	}
}

func logEffectiveConfig(logger *slog.Logger, cfg config.Config) {
	logger.Info("effective configuration",
		"event", "bootstrap_effective_config",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"config", cfg,
	)
}
