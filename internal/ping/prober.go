package ping

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/doridoridoriand/inetwatch/internal/fault"
)

// Prober resolves a host name, selects one address and pings it once.
type Prober struct {
	resolver     Resolver
	pinger       Pinger
	addressIndex int
}

// ProberOption customizes a Prober.
type ProberOption func(*Prober)

// WithResolver replaces the system resolver.
func WithResolver(r Resolver) ProberOption {
	return func(p *Prober) { p.resolver = r }
}

// WithAddressIndex selects which resolved answer is probed.
func WithAddressIndex(index int) ProberOption {
	return func(p *Prober) { p.addressIndex = index }
}

// NewProber returns a Prober that pings with pinger.
func NewProber(pinger Pinger, opts ...ProberOption) *Prober {
	p := &Prober{
		resolver:     net.DefaultResolver,
		pinger:       pinger,
		addressIndex: DefaultAddressIndex,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe checks target once. Failures carry a *fault.Error of kind
// KindResolution or KindProbe.
func (p *Prober) Probe(ctx context.Context, target string, timeout time.Duration) Result {
	host := splitTarget(target)

	resolveCtx, cancel := context.WithTimeout(ctx, timeout)
	addrs, err := p.resolver.LookupIPAddr(resolveCtx, host)
	cancel()
	if err != nil {
		return Result{Success: false, Error: fault.Resolution("resolve "+host, err)}
	}
	addr, err := SelectAddress(addrs, p.addressIndex)
	if err != nil {
		return Result{Success: false, Error: fault.Resolution("select address for "+host, err)}
	}

	result := p.pinger.Ping(ctx, addr.String(), timeout)
	if !result.Success {
		cause := result.Error
		if cause == nil {
			cause = errors.New("no reply")
		}
		result.Error = fault.Probe("ping "+addr.String(), cause)
	}
	return result
}
