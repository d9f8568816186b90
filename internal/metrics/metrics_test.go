package metrics

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doridoridoriand/inetwatch/internal/state"
)

type fakeStore struct {
	snapshot state.Snapshot
}

func (f *fakeStore) Publish(snapshot state.Snapshot) { f.snapshot = snapshot }

func (f *fakeStore) GetSnapshot() state.Snapshot { return f.snapshot }

func TestCollectorDown(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store := &fakeStore{snapshot: state.Snapshot{
		Target:         "www.google.com:80",
		Status:         state.StatusDown,
		Since:          now.Add(-90 * time.Second),
		Outages:        2,
		TotalProbes:    10,
		FailedProbes:   4,
		LogWriteErrors: 1,
	}}
	s := newServer(store, func() time.Time { return now })

	expected := `
# HELP inetwatch_up Whether the target is reachable (1) or not (0).
# TYPE inetwatch_up gauge
inetwatch_up{target="www.google.com:80"} 0
# HELP inetwatch_outages_total Number of Up to Down transitions.
# TYPE inetwatch_outages_total counter
inetwatch_outages_total{target="www.google.com:80"} 2
# HELP inetwatch_probes_total Number of probes sent.
# TYPE inetwatch_probes_total counter
inetwatch_probes_total{target="www.google.com:80"} 10
# HELP inetwatch_probe_failures_total Number of probes that failed.
# TYPE inetwatch_probe_failures_total counter
inetwatch_probe_failures_total{target="www.google.com:80"} 4
# HELP inetwatch_log_write_errors_total Number of failed outage log writes.
# TYPE inetwatch_log_write_errors_total counter
inetwatch_log_write_errors_total{target="www.google.com:80"} 1
# HELP inetwatch_state_since_seconds Seconds since the last state change.
# TYPE inetwatch_state_since_seconds gauge
inetwatch_state_since_seconds{target="www.google.com:80"} 90
`
	require.NoError(t, testutil.GatherAndCompare(s.Registry(), strings.NewReader(expected)))
}

func TestCollectorUpWithRTT(t *testing.T) {
	store := &fakeStore{snapshot: state.Snapshot{Target: "example", Status: state.StatusUp, LastRTT: 15 * time.Millisecond}}
	s := NewServer(store)

	expected := `
# HELP inetwatch_last_rtt_ms Round trip time of the last successful probe in milliseconds.
# TYPE inetwatch_last_rtt_ms gauge
inetwatch_last_rtt_ms{target="example"} 15
# HELP inetwatch_up Whether the target is reachable (1) or not (0).
# TYPE inetwatch_up gauge
inetwatch_up{target="example"} 1
`
	require.NoError(t, testutil.GatherAndCompare(s.Registry(), strings.NewReader(expected), "inetwatch_up", "inetwatch_last_rtt_ms"))

	count, err := testutil.GatherAndCount(s.Registry(), "inetwatch_state_since_seconds")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHandlerMetrics(t *testing.T) {
	store := &fakeStore{snapshot: state.Snapshot{Target: "example", Status: state.StatusUp}}
	rec := httptest.NewRecorder()
	NewServer(store).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	body := rec.Body.String()
	assert.Contains(t, body, "# TYPE inetwatch_outages_total counter")
	assert.Contains(t, body, `inetwatch_up{target="example"} 1`)
}

func TestHandlerEscapesTargetLabel(t *testing.T) {
	store := &fakeStore{snapshot: state.Snapshot{Target: "evil\nhost\"q\\", Status: state.StatusDown}}
	rec := httptest.NewRecorder()
	NewServer(store).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `inetwatch_up{target="evil\nhost\"q\\"} 0`)
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		assert.True(t, strings.HasPrefix(line, "#") || strings.HasPrefix(line, "inetwatch_"), "unexpected line %q", line)
	}
}

func TestHandlerStatus(t *testing.T) {
	since := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store := &fakeStore{snapshot: state.Snapshot{
		Target:    "example",
		Status:    state.StatusDown,
		Since:     since,
		LastError: "probe: ping 192.0.2.2: ping timeout",
		Outages:   1,
	}}
	rec := httptest.NewRecorder()
	NewServer(store).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DOWN", body["status"])
	assert.Equal(t, "example", body["target"])
	assert.Equal(t, float64(1), body["outages"])
	assert.Equal(t, "2024-01-02T03:04:05Z", body["since"])
}

func TestHandlerRejectsNonGet(t *testing.T) {
	store := &fakeStore{}
	for _, path := range []string{"/metrics", "/status"} {
		rec := httptest.NewRecorder()
		NewServer(store).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}

func TestHandlerUnknownPath(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(&fakeStore{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, &fakeStore{}) }()

	var resp *http.Response
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err = http.Get("http://" + addr + "/metrics")
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatalf("Serve did not return after cancel")
	}
}
