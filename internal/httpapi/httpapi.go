// Package httpapi is the operator surface of a running bomb: health, metrics,
// state inspection and signal injection over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/xtding233/defuse-backend/internal/session"
)

const (
	DefaultAddr = "127.0.0.1:8080"

	readTimeout = 10 * time.Second
	maxBody     = 1 << 16
)

// Handler serves the API for one session.
type Handler struct {
	sess      *session.Session
	metrics   http.Handler
	scenarios func() ([]string, error)
	log       zerolog.Logger
	router    chi.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option { return func(a *Handler) { a.metrics = h } }

// WithScenarios lists scenario names at /v1/scenarios.
func WithScenarios(fn func() ([]string, error)) Option {
	return func(a *Handler) { a.scenarios = fn }
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option { return func(a *Handler) { a.log = l } }

func New(sess *session.Session, opts ...Option) *Handler {
	h := &Handler{sess: sess, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	h.setupRouter()
	return h
}

func (h *Handler) setupRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/session", h.handleSnapshot)
		r.Post("/session/arm", h.handleArm)
		r.Post("/signals", h.handleSignal)
		if h.scenarios != nil {
			r.Get("/scenarios", h.handleScenarios)
		}
	})
	h.router = r
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.router.ServeHTTP(w, r) }

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"session": h.sess.ID(),
		"outcome": h.sess.Outcome().String(),
	})
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

func (h *Handler) handleArm(w http.ResponseWriter, r *http.Request) {
	if !h.sess.Arm() {
		writeError(w, http.StatusConflict, "bomb is not idle")
		return
	}
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

func (h *Handler) handleSignal(w http.ResponseWriter, r *http.Request) {
	var sig session.Signal
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sig); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := h.sess.Submit(sig); err != nil {
		if errors.Is(err, session.ErrBadSignal) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handler) handleScenarios(w http.ResponseWriter, r *http.Request) {
	names, err := h.scenarios()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"scenarios": names})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: readTimeout}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("http stopped")
	return nil
}
