package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/index-submitter/internal/audit"
	"github.com/JakeFAU/index-submitter/internal/config"
	"github.com/JakeFAU/index-submitter/internal/metrics"
	"github.com/JakeFAU/index-submitter/internal/submission"
)

// Submitter runs one submission.
type Submitter interface {
	Submit(ctx context.Context, req submission.Request) submission.Result
}

// History lists recent submission outcomes, newest first.
type History interface {
	Recent(limit int) []audit.Record
}

// Limiter admits or rejects a submission for a host.
type Limiter interface {
	Allow(host string) bool
}

// Server wires HTTP handlers to the submission service.
type Server struct {
	router            chi.Router
	submitter         Submitter
	history           History
	limiter           Limiter
	defaultCredential string
	authRequired      bool
	logger            *zap.Logger
}

// NewServer constructs a Server with middleware and routes. history and limiter may be nil.
// defaultCredential is used when a request carries no service-account JSON.
func NewServer(
	submitter Submitter,
	history History,
	limiter Limiter,
	defaultCredential string,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		submitter:         submitter,
		history:           history,
		limiter:           limiter,
		defaultCredential: defaultCredential,
		authRequired:      cfg.Auth.Enabled,
		logger:            logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	// Token, IndexNow and batch each get a full step timeout.
	r.Use(timeoutMiddleware(3*cfg.StepTimeout() + 10*time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/", s.form)
	r.Group(func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Post("/submit", s.submitForm)
	})

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Post("/submissions", s.createSubmission)
		r.Get("/submissions", s.listSubmissions)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if s.submitter == nil {
		writeError(w, http.StatusServiceUnavailable, "submission service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// admit applies the per-host limiter. It reports false when the host is throttled.
func (s *Server) admit(host string) bool {
	if s.limiter == nil {
		return true
	}
	return s.limiter.Allow(submission.ParseSite(host).Host)
}

func (s *Server) credential(supplied string) string {
	if supplied != "" {
		return supplied
	}
	return s.defaultCredential
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
