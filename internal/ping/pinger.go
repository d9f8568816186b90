package ping

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 1 * time.Second

// Echo request parameters shared by every pinger implementation.
const (
	EchoTTL         = 166
	EchoID          = 3
	EchoFirstSeq    = 5
	EchoPayloadSize = 24
	EchoAttempts    = 3
)

// Result captures a single probe outcome. Success false is the Unreachable
// outcome and Error holds its reason.
type Result struct {
	RTT     time.Duration
	Success bool
	Error   error
}

// Pinger sends echo requests to an IP literal and reports the outcome.
type Pinger interface {
	Ping(ctx context.Context, addr string, timeout time.Duration) Result
}
