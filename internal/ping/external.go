package ping

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"
)

var timePattern = regexp.MustCompile(`time[=<]([0-9.]+)\s*ms`)

// ExternalPinger invokes the system ping command for environments without
// raw socket access.
type ExternalPinger struct {
	command string
}

// NewExternalPinger returns a pinger that shells out to ping.
func NewExternalPinger() *ExternalPinger {
	return &ExternalPinger{command: "ping"}
}

// Available reports whether the ping command can be found on PATH.
func (p *ExternalPinger) Available() bool {
	_, err := exec.LookPath(p.command)
	return err == nil
}

// Ping runs one bounded ping and parses the RTT from its output.
func (p *ExternalPinger) Ping(ctx context.Context, addr string, timeout time.Duration) Result {
	ctx, cancel := context.WithDeadline(ctx, effectiveDeadline(ctx, timeout))
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, p.command, pingArgs(runtime.GOOS, addr, timeout)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return Result{Success: false, Error: fmt.Errorf("external ping timeout: %w", ctx.Err())}
		}
		return Result{Success: false, Error: fmt.Errorf("external ping failed: %w", err)}
	}
	rtt := parseRTT(out)
	if rtt == 0 {
		rtt = time.Since(start)
	}
	return Result{Success: true, RTT: rtt}
}

func pingArgs(goos, addr string, timeout time.Duration) []string {
	size := strconv.Itoa(EchoPayloadSize)
	ttl := strconv.Itoa(EchoTTL)
	switch goos {
	case "darwin":
		timeoutMs := maxInt(100, int(timeout.Milliseconds()))
		return []string{"-n", "-c", "1", "-W", strconv.Itoa(timeoutMs), "-m", ttl, "-s", size, addr}
	default:
		timeoutSec := maxInt(1, int(timeout.Seconds()+0.5))
		return []string{"-n", "-c", "1", "-W", strconv.Itoa(timeoutSec), "-t", ttl, "-s", size, addr}
	}
}

func parseRTT(output []byte) time.Duration {
	matches := timePattern.FindSubmatch(output)
	if len(matches) < 2 {
		return 0
	}
	value, err := strconv.ParseFloat(string(matches[1]), 64)
	if err != nil {
		return 0
	}
	return time.Duration(value * float64(time.Millisecond))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
