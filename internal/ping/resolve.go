package ping

import (
	"context"
	"fmt"
	"net"
)

// DefaultAddressIndex skips the first resolved answer and uses the second.
const DefaultAddressIndex = 1

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// SelectAddress returns addrs[index] or an error when too few addresses resolved.
func SelectAddress(addrs []net.IPAddr, index int) (net.IPAddr, error) {
	if index < 0 {
		return net.IPAddr{}, fmt.Errorf("invalid address index %d", index)
	}
	if len(addrs) <= index {
		return net.IPAddr{}, fmt.Errorf("need at least %d resolved addresses, got %d", index+1, len(addrs))
	}
	return addrs[index], nil
}

// splitTarget strips an optional ":port" suffix. The port is informational
// for ICMP and never used on the wire.
func splitTarget(target string) string {
	if host, _, err := net.SplitHostPort(target); err == nil {
		return host
	}
	return target
}
