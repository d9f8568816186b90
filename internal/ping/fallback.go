package ping

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"time"
)

// FallbackPinger uses primary until it reports a permission error, then
// switches to secondary for the rest of the process lifetime.
type FallbackPinger struct {
	primary    Pinger
	secondary  Pinger
	degraded   bool
	onFallback func(error)
}

// NewFallbackPinger wraps primary with a secondary fallback. onFallback, when
// non-nil, is called once with the error that caused the switch.
func NewFallbackPinger(primary, secondary Pinger, onFallback func(error)) *FallbackPinger {
	return &FallbackPinger{primary: primary, secondary: secondary, onFallback: onFallback}
}

// Degraded reports whether the secondary pinger is in use.
func (p *FallbackPinger) Degraded() bool {
	return p.degraded
}

// Ping probes with the active pinger. Calls must not overlap.
func (p *FallbackPinger) Ping(ctx context.Context, addr string, timeout time.Duration) Result {
	if p.degraded {
		return p.secondary.Ping(ctx, addr, timeout)
	}
	result := p.primary.Ping(ctx, addr, timeout)
	if result.Success || !IsPermissionError(result.Error) {
		return result
	}
	p.degraded = true
	if p.onFallback != nil {
		p.onFallback(result.Error)
	}
	return p.secondary.Ping(ctx, addr, timeout)
}

// IsPermissionError reports whether err comes from missing raw socket privileges.
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "operation not permitted") || strings.Contains(msg, "permission denied")
}
