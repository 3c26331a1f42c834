// Package api serves the habit store over HTTP.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/habitlit/internal/achievements"
	"github.com/julianstephens/habitlit/internal/constants"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/habits"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/observability"
	"github.com/julianstephens/habitlit/internal/storage"
)

// Server wires the services into a chi router
type Server struct {
	store    *habits.Store
	engine   *achievements.Engine
	provider storage.Provider
	writer   *storage.Writer
	metrics  *observability.Metrics
	token    string
	clock    func() time.Time
}

func NewServer(store *habits.Store, engine *achievements.Engine, p storage.Provider, w *storage.Writer) *Server {
	return &Server{
		store:    store,
		engine:   engine,
		provider: p,
		writer:   w,
		clock:    time.Now,
	}
}

// EnableMetrics serves /metrics and records request metrics
func (s *Server) EnableMetrics(m *observability.Metrics) { s.metrics = m }

// RequireToken protects the sync endpoints with a bearer token
func (s *Server) RequireToken(token string) { s.token = token }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(requestLogger(logger.Component("http")))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"version": constants.Version,
			"habits":  len(s.store.Habits()),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/habits", func(r chi.Router) {
			r.Get("/", s.handleListHabits)
			r.Post("/", s.handleAddHabit)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetHabit)
				r.Patch("/", s.handleUpdateHabit)
				r.Delete("/", s.handleDeleteHabit)
				r.Post("/archive", s.handleArchive)
				r.Post("/restore", s.handleRestore)
				r.Post("/toggle", s.handleToggle)
				r.Get("/stats", s.handleStats)
			})
		})
		r.Get("/achievements", s.handleAchievements)
		r.Get("/progress", s.handleProgress)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/sync", s.handleSyncPush)
			r.Get("/sync", s.handleSyncPull)
		})
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	return r
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			l.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"status":  status,
		},
	})
}

// writeErr maps domain errors to status codes
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrParse):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads a JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 8<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid request body: %v", apperrors.ErrValidation, err)
	}
	return nil
}
