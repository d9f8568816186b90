package monitor

import (
	"context"
	"time"

	"github.com/doridoridoriand/inetwatch/internal/fault"
	"github.com/doridoridoriand/inetwatch/internal/log"
	"github.com/doridoridoriand/inetwatch/internal/ping"
	"github.com/doridoridoriand/inetwatch/internal/state"
)

// State is the connectivity state of the monitored target.
type State int

const (
	Up State = iota
	Down
)

func (s State) String() string {
	if s == Down {
		return string(state.StatusDown)
	}
	return string(state.StatusUp)
}

// Sink receives outage records. *outage.Log implements it.
type Sink interface {
	WriteHeader() error
	WriteStart(at time.Time) error
	WriteEnd(elapsed time.Duration) error
}

// Prober performs one reachability check. *ping.Prober implements it.
type Prober interface {
	Probe(ctx context.Context, target string, timeout time.Duration) ping.Result
}

// Monitor tracks Up/Down connectivity and records each outage once.
// It is driven by a single loop; Tick calls must not overlap.
type Monitor struct {
	sink    Sink
	logger  *log.Logger
	store   state.Store
	now     func() time.Time
	timeout time.Duration

	state          State
	lastTransition time.Time

	outages        int
	totalProbes    int
	failedProbes   int
	logWriteErrors int
	lastCheckedAt  time.Time
	lastRTT        time.Duration
	lastError      string
	lastLogError   string
	target         string
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithLogger sets the operational logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithStore publishes a snapshot to store after construction and every tick.
func WithStore(store state.Store) Option {
	return func(m *Monitor) { m.store = store }
}

// WithTimeout sets the per-probe timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Monitor) { m.timeout = timeout }
}

// New writes the outage log header and returns a monitor in the Up state.
func New(sink Sink, opts ...Option) (*Monitor, error) {
	m := &Monitor{
		sink:    sink,
		logger:  log.NewNop(),
		now:     time.Now,
		timeout: ping.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := sink.WriteHeader(); err != nil {
		return nil, fault.StartupFatal("write outage log header", err)
	}
	m.state = Up
	m.lastTransition = m.now()
	m.publish()
	return m, nil
}

// State returns the current connectivity state.
func (m *Monitor) State() State {
	return m.state
}

// LastTransition returns when the state last changed, or construction time.
func (m *Monitor) LastTransition() time.Time {
	return m.lastTransition
}

// Tick probes target once and applies the result. Probe and log failures
// are reported to the logger and never stop the monitor.
func (m *Monitor) Tick(ctx context.Context, prober Prober, target string) {
	result := prober.Probe(ctx, target, m.timeout)
	now := m.now()

	m.target = target
	m.totalProbes++
	m.lastCheckedAt = now
	if result.Success {
		m.lastRTT = result.RTT
		m.lastError = ""
	} else {
		m.failedProbes++
		if result.Error != nil {
			m.lastError = result.Error.Error()
		}
	}
	m.logger.LogProbeResult(target, result.Success, result.RTT, result.Error)

	m.apply(result.Success, now)
	m.publish()
}

func (m *Monitor) apply(reachable bool, now time.Time) {
	switch {
	case m.state == Up && !reachable:
		m.state = Down
		m.lastTransition = now
		m.outages++
		m.logger.LogTransition(m.target, Up.String(), Down.String(), now, 0)
		m.record(m.sink.WriteStart(now))

	case m.state == Down && reachable:
		elapsed := now.Sub(m.lastTransition)
		if elapsed < 0 {
			elapsed = 0
		}
		m.state = Up
		m.lastTransition = now
		m.logger.LogTransition(m.target, Down.String(), Up.String(), now, elapsed)
		m.record(m.sink.WriteEnd(elapsed))
	}
}

func (m *Monitor) record(err error) {
	if err == nil {
		return
	}
	m.logWriteErrors++
	m.lastLogError = err.Error()
	m.logger.LogError("outage-log", err, map[string]interface{}{"kind": fault.KindOf(err).String()})
}

// Snapshot returns the monitor's current view for status readers.
func (m *Monitor) Snapshot() state.Snapshot {
	status := state.StatusUp
	if m.state == Down {
		status = state.StatusDown
	}
	return state.Snapshot{
		Target:         m.target,
		Status:         status,
		Since:          m.lastTransition,
		LastCheckedAt:  m.lastCheckedAt,
		LastRTT:        m.lastRTT,
		LastError:      m.lastError,
		Outages:        m.outages,
		TotalProbes:    m.totalProbes,
		FailedProbes:   m.failedProbes,
		LogWriteErrors: m.logWriteErrors,
		LastLogError:   m.lastLogError,
	}
}

func (m *Monitor) publish() {
	if m.store == nil {
		return
	}
	snap := m.Snapshot()
	if snap.Target == "" {
		snap.Target = m.store.GetSnapshot().Target
	}
	m.store.Publish(snap)
}
