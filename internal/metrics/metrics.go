package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doridoridoriand/inetwatch/internal/state"
)

var (
	upDesc = prometheus.NewDesc("inetwatch_up",
		"Whether the target is reachable (1) or not (0).", []string{"target"}, nil)
	outagesDesc = prometheus.NewDesc("inetwatch_outages_total",
		"Number of Up to Down transitions.", []string{"target"}, nil)
	probesDesc = prometheus.NewDesc("inetwatch_probes_total",
		"Number of probes sent.", []string{"target"}, nil)
	probeFailuresDesc = prometheus.NewDesc("inetwatch_probe_failures_total",
		"Number of probes that failed.", []string{"target"}, nil)
	logWriteErrorsDesc = prometheus.NewDesc("inetwatch_log_write_errors_total",
		"Number of failed outage log writes.", []string{"target"}, nil)
	lastRTTDesc = prometheus.NewDesc("inetwatch_last_rtt_ms",
		"Round trip time of the last successful probe in milliseconds.", []string{"target"}, nil)
	stateSinceDesc = prometheus.NewDesc("inetwatch_state_since_seconds",
		"Seconds since the last state change.", []string{"target"}, nil)
)

// collector turns the latest snapshot into metrics at scrape time.
type collector struct {
	store state.Store
	now   func() time.Time
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- outagesDesc
	ch <- probesDesc
	ch <- probeFailuresDesc
	ch <- logWriteErrorsDesc
	ch <- lastRTTDesc
	ch <- stateSinceDesc
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.store.GetSnapshot()
	target := snap.Target

	up := 0.0
	if snap.Status == state.StatusUp {
		up = 1
	}
	ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, up, target)
	ch <- prometheus.MustNewConstMetric(outagesDesc, prometheus.CounterValue, float64(snap.Outages), target)
	ch <- prometheus.MustNewConstMetric(probesDesc, prometheus.CounterValue, float64(snap.TotalProbes), target)
	ch <- prometheus.MustNewConstMetric(probeFailuresDesc, prometheus.CounterValue, float64(snap.FailedProbes), target)
	ch <- prometheus.MustNewConstMetric(logWriteErrorsDesc, prometheus.CounterValue, float64(snap.LogWriteErrors), target)
	if snap.LastRTT > 0 {
		ch <- prometheus.MustNewConstMetric(lastRTTDesc, prometheus.GaugeValue, float64(snap.LastRTT.Milliseconds()), target)
	}
	if !snap.Since.IsZero() {
		since := float64(int64(c.now().Sub(snap.Since).Seconds()))
		ch <- prometheus.MustNewConstMetric(stateSinceDesc, prometheus.GaugeValue, since, target)
	}
}

// Server exposes Prometheus metrics and a JSON status for the target.
type Server struct {
	store    state.Store
	registry *prometheus.Registry
}

// NewServer constructs a metrics server with its own registry.
func NewServer(store state.Store) *Server {
	return newServer(store, time.Now)
}

func newServer(store state.Store, now func() time.Time) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(&collector{store: store, now: now})
	return &Server{store: store, registry: reg}
}

// Registry returns the registry holding the inetwatch collectors.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Handler returns the router serving /metrics and /status.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newStatus(s.store.GetSnapshot()))
	})
	return r
}

type status struct {
	Target         string    `json:"target"`
	Status         string    `json:"status"`
	Since          time.Time `json:"since,omitempty"`
	LastCheckedAt  time.Time `json:"last_checked_at,omitempty"`
	LastRTTMs      int64     `json:"last_rtt_ms"`
	LastError      string    `json:"last_error,omitempty"`
	Outages        int       `json:"outages"`
	TotalProbes    int       `json:"total_probes"`
	FailedProbes   int       `json:"failed_probes"`
	LogWriteErrors int       `json:"log_write_errors"`
}

func newStatus(snap state.Snapshot) status {
	return status{
		Target:         snap.Target,
		Status:         string(snap.Status),
		Since:          snap.Since,
		LastCheckedAt:  snap.LastCheckedAt,
		LastRTTMs:      snap.LastRTT.Milliseconds(),
		LastError:      snap.LastError,
		Outages:        snap.Outages,
		TotalProbes:    snap.TotalProbes,
		FailedProbes:   snap.FailedProbes,
		LogWriteErrors: snap.LogWriteErrors,
	}
}

// Serve starts an HTTP server and blocks until context cancellation.
func Serve(ctx context.Context, addr string, store state.Store) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           NewServer(store).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return context.Canceled
		}
		return err
	}
}
