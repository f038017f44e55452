// Package server exposes the RegulAIte REST API: ask, chat history, and
// the login gate.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"regulaite/internal/answer"
	"regulaite/internal/auth"
	"regulaite/internal/history"
	"regulaite/internal/pipeline"
)

// Asker runs one question through the pipeline. Satisfied by
// *pipeline.Pipeline; tests substitute a stub.
type Asker interface {
	Ask(ctx context.Context, req pipeline.Request) answer.Answer
}

// Options wires the server's collaborators and request defaults.
type Options struct {
	Pipeline Asker
	History  *history.Store
	Auth     *auth.Store
	Logger   *zap.Logger

	// Defaults applied to /api/ask requests that omit the fields.
	DefaultMode     string
	DefaultKHint    int
	EvidenceEnabled bool
	WebEnabled      bool
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	pipeline Asker
	history  *history.Store
	auth     *auth.Store
	logger   *zap.Logger
	opts     Options
}

// New builds a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		pipeline: opts.Pipeline,
		history:  opts.History,
		auth:     opts.Auth,
		logger:   opts.Logger,
		opts:     opts,
	}
}

// Router assembles the chi router with the standard middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/signup", s.handleSignup)
		r.Post("/ask", s.handleAsk)
		r.Get("/history/{userID}", s.handleGetHistory)
		r.Delete("/history/{userID}", s.handleClearHistory)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic recovered",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.String("request_id", requestIDFromContext(r.Context())))
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestIDFromContext(r.Context())))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
