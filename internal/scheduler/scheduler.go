package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultInterval is the pause before each tick.
const DefaultInterval = 1 * time.Second

// TickFunc runs one check. It must return before the next interval starts.
type TickFunc func(ctx context.Context)

// Scheduler runs a TickFunc in a sleep-then-tick loop. Ticks never overlap.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	tick     TickFunc
	cancel   context.CancelFunc
	ticks    uint64
}

// New returns a scheduler for tick. Non-positive intervals use DefaultInterval.
func New(interval time.Duration, tick TickFunc) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{interval: interval, tick: tick}
}

// Run blocks, ticking once per interval, until ctx is cancelled or Stop is called.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
	}()

	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	for {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case <-timer.C:
		}

		s.tick(runCtx)
		s.mu.Lock()
		s.ticks++
		s.mu.Unlock()

		timer.Reset(s.interval)
	}
}

// Stop cancels a running loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Ticks returns how many ticks have completed.
func (s *Scheduler) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}
