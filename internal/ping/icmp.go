package ping

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// ICMPPinger sends ICMP echo requests using raw sockets. Up to EchoAttempts
// requests are spread across one timeout window; any matching reply counts.
type ICMPPinger struct {
	id       int
	ttl      int
	attempts int
	seq      uint32
}

// NewICMPPinger returns a pinger using the fixed echo parameters.
func NewICMPPinger() *ICMPPinger {
	return &ICMPPinger{id: EchoID, ttl: EchoTTL, attempts: EchoAttempts}
}

// Ping sends echo requests to addr and waits for a reply until the timeout.
func (p *ICMPPinger) Ping(ctx context.Context, addr string, timeout time.Duration) Result {
	if err := ctx.Err(); err != nil {
		return Result{Success: false, Error: err}
	}

	ip, ipNet, err := resolveIP(addr)
	if err != nil {
		return Result{Success: false, Error: err}
	}

	network, protocol, requestType, replyType := icmpSettings(ipNet)
	conn, err := icmp.ListenPacket(network, "")
	if err != nil {
		return Result{Success: false, Error: err}
	}
	defer conn.Close()

	if err := setTTL(conn, ipNet, p.ttl); err != nil {
		return Result{Success: false, Error: err}
	}

	data := make([]byte, EchoPayloadSize)
	if _, err := rand.Read(data); err != nil {
		return Result{Success: false, Error: fmt.Errorf("echo payload: %w", err)}
	}

	deadline := effectiveDeadline(ctx, timeout)
	attempts := p.attempts
	if attempts < 1 {
		attempts = 1
	}
	window := time.Until(deadline) / time.Duration(attempts)

	sent := make(map[int]time.Time, attempts)
	buf := make([]byte, 1500)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		seq := p.nextSeq()
		msg := icmp.Message{
			Type: requestType,
			Code: 0,
			Body: &icmp.Echo{ID: p.id, Seq: seq, Data: data},
		}
		payload, err := msg.Marshal(nil)
		if err != nil {
			return Result{Success: false, Error: err}
		}

		sent[seq] = time.Now()
		if _, err := conn.WriteTo(payload, ip); err != nil {
			return Result{Success: false, Error: err}
		}

		waitUntil := deadline
		if attempt < attempts-1 {
			if next := time.Now().Add(window); next.Before(deadline) {
				waitUntil = next
			}
		}
		if err := conn.SetReadDeadline(waitUntil); err != nil {
			return Result{Success: false, Error: err}
		}

		rtt, err := p.awaitReply(ctx, conn, protocol, replyType, sent, data, buf)
		if err == nil {
			return Result{Success: true, RTT: rtt}
		}
		if !isTimeout(err) {
			return Result{Success: false, Error: err}
		}
		lastErr = err
		if !time.Now().Before(deadline) {
			break
		}
	}

	return Result{Success: false, Error: fmt.Errorf("ping timeout after %d requests: %w", len(sent), lastErr)}
}

func (p *ICMPPinger) awaitReply(
	ctx context.Context,
	conn *icmp.PacketConn,
	protocol int,
	replyType icmp.Type,
	sent map[int]time.Time,
	data []byte,
	buf []byte,
) (time.Duration, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			return 0, err
		}
		if peer == nil {
			continue
		}

		reply, err := icmp.ParseMessage(protocol, buf[:n])
		if err != nil || reply.Type != replyType {
			continue
		}
		body, ok := reply.Body.(*icmp.Echo)
		if !ok || body.ID != p.id || !bytes.Equal(body.Data, data) {
			continue
		}
		sentAt, ok := sent[body.Seq]
		if !ok {
			continue
		}
		return time.Since(sentAt), nil
	}
}

func (p *ICMPPinger) nextSeq() int {
	n := atomic.AddUint32(&p.seq, 1) - 1
	return int((uint32(EchoFirstSeq) + n) & 0xffff)
}

func resolveIP(addr string) (*net.IPAddr, net.IP, error) {
	ipAddr, err := net.ResolveIPAddr("ip", addr)
	if err != nil {
		return nil, nil, err
	}
	if ipAddr.IP == nil {
		return nil, nil, fmt.Errorf("invalid IP address: %s", addr)
	}
	return ipAddr, ipAddr.IP, nil
}

func icmpSettings(ip net.IP) (network string, protocol int, requestType icmp.Type, replyType icmp.Type) {
	if ip.To4() != nil {
		return "ip4:icmp", ipv4.ICMPTypeEcho.Protocol(), ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	}
	return "ip6:ipv6-icmp", ipv6.ICMPTypeEchoRequest.Protocol(), ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
}

func setTTL(conn *icmp.PacketConn, ip net.IP, ttl int) error {
	if ip.To4() != nil {
		if pc := conn.IPv4PacketConn(); pc != nil {
			return pc.SetTTL(ttl)
		}
		return nil
	}
	if pc := conn.IPv6PacketConn(); pc != nil {
		return pc.SetHopLimit(ttl)
	}
	return nil
}

func effectiveDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// CheckRawSocket opens and closes an IPv4 raw ICMP socket to confirm the
// process holds the needed privilege.
func CheckRawSocket() error {
	conn, err := icmp.ListenPacket("ip4:icmp", "")
	if err != nil {
		return err
	}
	return conn.Close()
}
