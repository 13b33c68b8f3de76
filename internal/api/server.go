// Package api exposes handle_message and the intake operations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	apperrors "morvo-assistant/internal/common/errors"
	"morvo-assistant/internal/common/logger"
	"morvo-assistant/internal/common/validation"
	"morvo-assistant/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MessageRouter interface {
	Route(ctx context.Context, userID, text string) (*models.Reply, error)
}

type IntakeService interface {
	Start(ctx context.Context, userID string) (*models.Prompt, error)
	Resume(ctx context.Context, userID, answer string) (*models.IntakeResult, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type RateLimit struct {
	Enabled      bool
	RequestLimit int
	Window       time.Duration
}

type Config struct {
	RateLimit         RateLimit
	// TrustProxyHeaders rewrites the remote address from proxy headers
	// before rate limiting.
	TrustProxyHeaders bool
	// Gatherer serves /metrics; nil means the default registry.
	Gatherer          prometheus.Gatherer
}

type Server struct {
	cfg      Config
	router   MessageRouter
	intake   IntakeService
	store    Pinger
	errors   *apperrors.ErrorHandler
	log      logger.Logger
	chat     *validation.Validator
	begin    *validation.Validator
	advance  *validation.Validator
	started  time.Time
}

func NewServer(cfg Config, router MessageRouter, intake IntakeService, store Pinger, log logger.Logger) *Server {
	log = log.With(map[string]interface{}{"component": "api"})
	return &Server{
		cfg:     cfg,
		router:  router,
		intake:  intake,
		store:   store,
		errors:  apperrors.NewErrorHandler(log),
		log:     log,
		chat:    validation.MustValidator(validation.ChatRequestSchema),
		begin:   validation.MustValidator(validation.BeginIntakeRequestSchema),
		advance: validation.MustValidator(validation.AdvanceIntakeRequestSchema),
		started: time.Now(),
	}
}

// Handler builds the chi router with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	if s.cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(s.accessLog)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	gatherer := s.cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		if s.cfg.RateLimit.Enabled {
			r.Use(s.rateLimit())
		}
		r.Post("/chat", s.handleChat)
		r.Post("/intake/begin", s.handleBeginIntake)
		r.Post("/intake/advance", s.handleAdvanceIntake)
	})
	return r
}
