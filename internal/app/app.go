// Package app assembles the identifier service from configuration. The
// server and the CLI share it so both see the same store and audit trail.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"

	"pidstore/internal/audit"
	"pidstore/internal/crossref"
	"pidstore/internal/pid/metrics"
	"pidstore/internal/pid/provider"
	"pidstore/internal/pid/service"
	"pidstore/internal/pid/store"
	"pidstore/internal/platform/config"
	"pidstore/internal/platform/postgres"
	"pidstore/internal/platform/redis"
)

const (
	tracerName     = "pidstore"
	auditQueueSize = 256
)

// App holds the assembled service and the resources it owns.
type App struct {
	Service *service.Service
	Audit   *audit.Publisher
	// Worker drains queued audit events; nil when events are written inline.
	Worker *audit.Worker

	db    *sql.DB
	redis *redis.Client
	kafka *kgo.Client
	queue chan audit.Event
}

// Option tunes assembly.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	inline     bool
}

// WithRegisterer registers metrics on reg instead of the default registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithInlineAudit writes audit events synchronously. Used by short-lived
// processes that never run the worker.
func WithInlineAudit() Option {
	return func(o *options) { o.inline = true }
}

// CrossrefConfig converts the config section to the client config.
func CrossrefConfig(c config.Crossref) crossref.Config {
	return crossref.Config{
		Username: c.Username,
		Password: c.Password,
		Prefixes: c.Prefixes,
		TestMode: c.TestMode,
		URL:      c.URL,
		Timeout:  c.Timeout,

		BreakerThreshold: c.BreakerThreshold,
		BreakerCooldown:  c.BreakerCooldown,
	}
}

// New connects the configured backends and builds the service. Backends
// without a URL fall back to in-memory implementations.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (_ *App, err error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	records, err := a.openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	cache, err := a.openSyncCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	sink, err := a.openAuditSink(cfg, logger)
	if err != nil {
		return nil, err
	}

	local, err := a.openAuditStore(ctx, logger)
	if err != nil {
		return nil, err
	}
	if sink != nil {
		sink = audit.FanOut(local, sink)
	} else {
		sink = local
	}
	pubOpts := []audit.PublisherOption{audit.WithPublisherLogger(logger)}
	if !o.inline {
		a.queue = make(chan audit.Event, auditQueueSize)
		a.Worker = audit.NewWorker(sink, a.queue, logger)
		pubOpts = append(pubOpts, audit.WithQueue(a.queue))
	}
	a.Audit = audit.NewPublisher(sinkStore{Sink: sink, local: local}, pubOpts...)

	m := metrics.New(o.registerer)
	tracer := otel.Tracer(tracerName)
	factory, err := service.NewProviderFactory(CrossrefConfig(cfg.Crossref),
		provider.WithLogger(logger),
		provider.WithMetrics(m),
		provider.WithTracer(tracer),
	)
	if err != nil {
		return nil, fmt.Errorf("build crossref client: %w", err)
	}

	a.Service, err = service.New(records, factory,
		service.WithSyncCache(cache),
		service.WithAuditPublisher(a.Audit),
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithTracer(tracer),
		service.WithPrefixes(cfg.Crossref.Prefixes),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Store, error) {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db == nil {
		logger.Info("using in-memory pid store")
		return store.NewInMemoryStore(), nil
	}
	a.db = db
	s := store.NewPostgresStore(db)
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("using postgres pid store")
	return s, nil
}

func (a *App) openSyncCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.SyncCache, error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		logger.Info("using in-memory sync cache")
		return store.NewInMemorySyncCache(cfg.Sync.CacheTTL), nil
	}
	a.redis = client
	logger.Info("using redis sync cache")
	return store.NewRedisSyncCache(client.Client, cfg.Sync.CacheTTL), nil
}

// openAuditStore keeps the queryable audit trail in the record database when
// one is configured.
func (a *App) openAuditStore(ctx context.Context, logger *slog.Logger) (audit.Store, error) {
	if a.db == nil {
		return audit.NewMemoryStore(), nil
	}
	s := audit.NewPostgresStore(a.db)
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	logger.Info("using postgres audit store")
	return s, nil
}

func (a *App) openAuditSink(cfg *config.Config, logger *slog.Logger) (audit.Sink, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	client, err := audit.NewKafkaClient(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	a.kafka = client
	logger.Info("publishing audit events to kafka", "topic", cfg.Kafka.Topic)
	return audit.NewKafkaSink(client, cfg.Kafka.Topic), nil
}

// Health reports whether the configured backends are reachable.
func (a *App) Health(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases backend connections. The audit queue is closed first so a
// running worker drains and exits.
func (a *App) Close() error {
	if a.queue != nil {
		close(a.queue)
		a.queue = nil
	}
	var errs []error
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// sinkStore writes to every sink and answers reads from the local store.
type sinkStore struct {
	audit.Sink
	local audit.Store
}

func (s sinkStore) ListByPID(ctx context.Context, pidValue string) ([]audit.Event, error) {
	return s.local.ListByPID(ctx, pidValue)
}
