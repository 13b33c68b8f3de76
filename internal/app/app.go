// Package app assembles the assistant from configuration: store, answer
// tiers, intake engine, router and HTTP server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"morvo-assistant/internal/api"
	"morvo-assistant/internal/common/aws"
	"morvo-assistant/internal/common/config"
	"morvo-assistant/internal/common/database"
	"morvo-assistant/internal/common/logger"
	"morvo-assistant/internal/common/observability"
	"morvo-assistant/internal/intake"
	"morvo-assistant/internal/router"
	"morvo-assistant/internal/store"
	classifymessage "morvo-assistant/internal/workers/ai-conversation/classify-message"
	generatereply "morvo-assistant/internal/workers/ai-conversation/generate-reply"
	querymarketingdata "morvo-assistant/internal/workers/ai-conversation/query-marketing-data"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Config *config.Config
	Store  store.Store
	Engine *intake.Engine
	Router *router.Router
	Server *api.Server
	Obs    *observability.Observability

	log     logger.Logger
	closers []func() error
}

type options struct {
	store           store.Store
	notifier        intake.CompletionNotifier
	registerer      prometheus.Registerer
	gatherer        prometheus.Gatherer
	connectAttempts int
	connectDelay    time.Duration
}

type Option func(*options)

// WithStore bypasses the configured driver.
func WithStore(st store.Store) Option {
	return func(o *options) { o.store = st }
}

// WithNotifier replaces the SNS completion notifier.
func WithNotifier(n intake.CompletionNotifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithRegistry registers the OpenTelemetry exporter on reg instead of the
// default prometheus registry. /metrics serves both.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registerer = reg
		o.gatherer = prometheus.Gatherers{reg, prometheus.DefaultGatherer}
	}
}

// WithConnectRetry sets how often backing services are dialled before giving up.
func WithConnectRetry(attempts int, delay time.Duration) Option {
	return func(o *options) {
		o.connectAttempts = attempts
		o.connectDelay = delay
	}
}

func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	o := options{connectAttempts: 10, connectDelay: 2 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, log: log}
	if err := a.build(ctx, o); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, o options) error {
	cfg := a.Config

	a.Obs = observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.App.Version,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		Registerer:     o.registerer,
	})
	a.onClose(func() error { a.Obs.Shutdown(); return nil })

	// --- Store ---
	var pgDB *sql.DB
	st := o.store
	if st == nil {
		var err error
		st, pgDB, err = a.openStore(ctx, o)
		if err != nil {
			return err
		}
	}
	a.onClose(st.Close)

	// --- Redis ---
	var redisClient *redis.Client
	if cfg.Database.Redis.Address != "" {
		var rc *database.RedisClient
		err := retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, o.connectAttempts, o.connectDelay, a.log, "Redis connection")
		if err != nil {
			return err
		}
		a.onClose(rc.Close)
		redisClient = rc.Client
		a.log.Info("Redis connected successfully", nil)
	}
	if cfg.Store.SessionCache && redisClient != nil {
		st = store.NewRedisSessionCache(st, redisClient, config.GetDuration(cfg.Store.SessionTTL), a.log)
	}
	a.Store = st

	// --- Elasticsearch ---
	var esClient *elasticsearch.Client
	if cfg.Database.Elasticsearch.Enabled {
		var ec *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			ec, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return ec.Ping(ctx)
		}, o.connectAttempts, o.connectDelay, a.log, "Elasticsearch connection")
		if err != nil {
			return err
		}
		esClient = ec.Client
		a.log.Info("Elasticsearch connected successfully", nil)
	}

	// --- Intake ---
	notifier := o.notifier
	if notifier == nil && cfg.Notifications.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region, cfg.Notifications.SNS.TopicARN)
		if err != nil {
			return fmt.Errorf("sns client: %w", err)
		}
		notifier = sns
	}
	engineOpts := []intake.Option{intake.WithObservability(a.Obs)}
	if notifier != nil {
		engineOpts = append(engineOpts, intake.WithNotifier(notifier))
	}
	a.Engine = intake.NewEngine(st, a.log, engineOpts...)

	// --- Answer tiers ---
	deps := router.Deps{
		Store:         st,
		Intake:        a.Engine,
		Observability: a.Obs,
	}

	classifyCfg, err := classifymessage.LoadConfigFromFile(cfg.Routing.KeywordRegistryPath)
	if err != nil {
		a.log.Warn("keyword registry unreadable, using built-in table", map[string]interface{}{
			"path": cfg.Routing.KeywordRegistryPath, "error": err.Error(),
		})
		classifyCfg = classifymessage.LoadConfig()
	}
	deps.Classifier = classifymessage.NewHandler(classifyCfg, &classifyMessageLoggerAdapter{a.log})

	if config.IsWorkerEnabled(cfg, querymarketingdata.TaskType) {
		deps.Lookup = querymarketingdata.NewHandler(
			&querymarketingdata.Config{
				Timeout:    config.GetDuration(cfg.Routing.LookupTimeout),
				CacheTTL:   config.GetDuration(cfg.Routing.LookupCacheTTL),
				MaxResults: cfg.Routing.LookupRowLimit,
			},
			pgDB, esClient, redisClient, &queryMarketingDataLoggerAdapter{a.log},
		)
	} else {
		a.log.Info("worker disabled", map[string]interface{}{"taskType": querymarketingdata.TaskType})
	}

	if config.IsWorkerEnabled(cfg, generatereply.TaskType) {
		deps.Generator = generatereply.NewHandler(
			&generatereply.Config{
				GenAIBaseURL: cfg.APIs.GenAI.BaseURL,
				APIKey:       cfg.APIs.GenAI.APIKey,
				Model:        cfg.APIs.GenAI.Model,
				Timeout:      config.GetDuration(cfg.APIs.GenAI.Timeout),
				MaxTokens:    cfg.APIs.GenAI.MaxTokens,
				Temperature:  cfg.APIs.GenAI.Temperature,
			},
			&generateReplyLoggerAdapter{a.log},
		)
	} else {
		a.log.Info("worker disabled", map[string]interface{}{"taskType": generatereply.TaskType})
	}

	a.Router = router.New(router.Config{
		HistoryLimit:  cfg.Routing.HistoryLimit,
		LookupTimeout: config.GetDuration(cfg.Routing.LookupTimeout),
	}, deps, a.log)

	// --- HTTP ---
	a.Server = api.NewServer(api.Config{
		RateLimit: api.RateLimit{
			Enabled:      cfg.Server.RateLimit.Enabled,
			RequestLimit: cfg.Server.RateLimit.RequestLimit,
			Window:       config.GetDuration(cfg.Server.RateLimit.Window),
		},
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
		Gatherer:          o.gatherer,
	}, a.Router, a.Engine, st, a.log)

	return nil
}

// openStore dials the configured driver. For postgres the handle is also
// returned so the lookup tier can read the marketing tables from it.
func (a *App) openStore(ctx context.Context, o options) (store.Store, *sql.DB, error) {
	cfg := a.Config
	switch cfg.Store.Driver {
	case "postgres":
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, o.connectAttempts, o.connectDelay, a.log, "PostgreSQL connection")
		if err != nil {
			return nil, nil, err
		}
		st := store.NewPostgresStore(pg.DB)
		if err := st.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, fmt.Errorf("migrate postgres store: %w", err)
		}
		a.log.Info("PostgreSQL connected successfully", nil)
		return st, pg.DB, nil

	case "sqlite":
		st, err := store.OpenSQLiteStore(cfg.Database.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		a.log.Info("SQLite store opened", map[string]interface{}{"path": cfg.Database.SQLite.Path})
		return st, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	cfg := a.Config.Server
	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      a.Server.Handler(),
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server listening", map[string]interface{}{"address": cfg.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("Shutdown signal received, draining requests...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	<-errCh
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
