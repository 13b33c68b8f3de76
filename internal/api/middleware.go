package api

import (
	"net/http"
	"time"

	apperrors "morvo-assistant/internal/common/errors"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		fields := map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  middleware.GetReqID(r.Context()),
		}
		switch {
		case ww.Status() >= http.StatusInternalServerError:
			s.log.Error("http request", fields)
		case r.URL.Path == "/health" || r.URL.Path == "/metrics":
			s.log.Debug("http request", fields)
		default:
			s.log.Info("http request", fields)
		}
	})
}

func (s *Server) rateLimit() func(http.Handler) http.Handler {
	cfg := s.cfg.RateLimit
	if cfg.RequestLimit <= 0 {
		cfg.RequestLimit = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.Window,
		// Keyed by client address only; request headers and body user ids are
		// caller-controlled.
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			err := apperrors.NewRateLimitedError("request limit reached").
				WithMetadata("retryAfterSeconds", int(cfg.Window.Seconds()))
			s.errors.Write(w, r, err)
		}),
	)
}
