// Package observability exposes Prometheus metrics for the store, the
// achievement engine and the HTTP API.
package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/habitlit/internal/habits"
	"github.com/julianstephens/habitlit/internal/models"
)

// Metrics owns its registry so tests and multiple servers do not collide
type Metrics struct {
	registry *prometheus.Registry

	Mutations     *prometheus.CounterVec
	Toggles       prometheus.Counter
	Unlocks       *prometheus.CounterVec
	WriteFailures *prometheus.CounterVec
	Habits        *prometheus.GaugeVec
	XP            prometheus.Gauge
	Level         prometheus.Gauge
	Requests      *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "habitlit_store_mutations_total",
			Help: "Habit store mutations by kind",
		}, []string{"kind"}),
		Toggles: f.NewCounter(prometheus.CounterOpts{
			Name: "habitlit_completion_toggles_total",
			Help: "Completion toggles",
		}),
		Unlocks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "habitlit_achievement_unlocks_total",
			Help: "Achievements unlocked by category",
		}, []string{"category"}),
		WriteFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "habitlit_storage_write_failures_total",
			Help: "Failed storage writes by key",
		}, []string{"key"}),
		Habits: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "habitlit_habits",
			Help: "Habits in the collection by state",
		}, []string{"state"}),
		XP: f.NewGauge(prometheus.GaugeOpts{
			Name: "habitlit_xp",
			Help: "Accumulated XP",
		}),
		Level: f.NewGauge(prometheus.GaugeOpts{
			Name: "habitlit_level",
			Help: "Current level",
		}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "habitlit_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "habitlit_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFailed matches storage.WithErrorHook
func (m *Metrics) WriteFailed(keys []string, _ error) {
	for _, k := range keys {
		m.WriteFailures.WithLabelValues(k).Inc()
	}
}

// Unlocked matches achievements.WithUnlockHook
func (m *Metrics) Unlocked(a models.Achievement) {
	m.Unlocks.WithLabelValues(string(a.Category)).Inc()
}

// SetProgress records XP and level
func (m *Metrics) SetProgress(p models.Progression) {
	m.XP.Set(float64(p.XP))
	m.Level.Set(float64(p.Level))
}

// Observe subscribes to store changes. The returned func unsubscribes.
func (m *Metrics) Observe(store *habits.Store) func() {
	var mu sync.Mutex
	update := func() {
		// One snapshot per update keeps the two gauges consistent
		mu.Lock()
		defer mu.Unlock()
		active, archived := countHabits(store.Habits())
		m.Habits.WithLabelValues("active").Set(float64(active))
		m.Habits.WithLabelValues("archived").Set(float64(archived))
	}
	update()
	return store.Subscribe(func(c habits.Change) {
		m.Mutations.WithLabelValues(string(c.Kind)).Inc()
		if c.Kind == habits.ChangeToggled {
			m.Toggles.Inc()
		}
		update()
	})
}

func countHabits(list []models.Habit) (active, archived int) {
	for _, h := range list {
		if h.Archived {
			archived++
		} else {
			active++
		}
	}
	return active, archived
}

// Middleware records request counts and latency keyed by chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.Latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
