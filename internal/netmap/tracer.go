// Package netmap maps the network path toward crawled domains with ICMP
// traceroute and turns the hops into node records for the page store.
package netmap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	protocolICMP     = 1
	protocolIPv6ICMP = 58
)

// Hop is one router on the path to a destination.
type Hop struct {
	TTL  int
	Addr string
	Name string
	RTT  time.Duration
}

// Tracer runs ICMP traceroutes. Requires raw socket privileges.
type Tracer struct {
	// MaxHops bounds the TTL sweep. Defaults to 30.
	MaxHops int
	// Timeout is the per-probe read deadline. Defaults to 3s.
	Timeout time.Duration
}

func (t *Tracer) maxHops() int {
	if t.MaxHops > 0 {
		return t.MaxHops
	}
	return 30
}

func (t *Tracer) timeout() time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return 3 * time.Second
}

// Trace probes dst with increasing TTLs and returns the responding hops.
// Hops that time out are omitted rather than recorded as unknowns. The
// trace stops at the destination or at MaxHops.
func (t *Tracer) Trace(ctx context.Context, dst net.IP) ([]Hop, error) {
	if dst == nil {
		return nil, errors.New("nil destination")
	}
	if dst.To4() != nil {
		return t.trace4(ctx, dst)
	}
	return t.trace6(ctx, dst)
}

func (t *Tracer) trace4(ctx context.Context, dst net.IP) ([]Hop, error) {
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return nil, fmt.Errorf("listen icmp: %w", err)
	}
	defer conn.Close()
	pc := conn.IPv4PacketConn()

	var hops []Hop
	id := os.Getpid() & 0xffff
	buf := make([]byte, 1500)

	for ttl := 1; ttl <= t.maxHops(); ttl++ {
		if err := ctx.Err(); err != nil {
			return hops, err
		}
		if err := pc.SetTTL(ttl); err != nil {
			return hops, fmt.Errorf("set ttl %d: %w", ttl, err)
		}

		msg := icmp.Message{
			Type: ipv4.ICMPTypeEcho,
			Body: &icmp.Echo{ID: id, Seq: ttl, Data: []byte("semvec-trace")},
		}
		wire, err := msg.Marshal(nil)
		if err != nil {
			return hops, fmt.Errorf("marshal probe: %w", err)
		}

		sent := time.Now()
		if _, err := conn.WriteTo(wire, &net.IPAddr{IP: dst}); err != nil {
			return hops, fmt.Errorf("send probe ttl %d: %w", ttl, err)
		}
		if err := conn.SetReadDeadline(time.Now().Add(t.timeout())); err != nil {
			return hops, err
		}

		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			continue // timed out, silent hop
		}
		reply, err := icmp.ParseMessage(protocolICMP, buf[:n])
		if err != nil {
			continue
		}

		hop := Hop{TTL: ttl, Addr: peer.String(), RTT: time.Since(sent)}
		switch reply.Type {
		case ipv4.ICMPTypeTimeExceeded:
			hops = append(hops, hop)
		case ipv4.ICMPTypeEchoReply:
			hops = append(hops, hop)
			return hops, nil
		}
	}
	return hops, nil
}

func (t *Tracer) trace6(ctx context.Context, dst net.IP) ([]Hop, error) {
	conn, err := icmp.ListenPacket("ip6:ipv6-icmp", "::")
	if err != nil {
		return nil, fmt.Errorf("listen icmp6: %w", err)
	}
	defer conn.Close()
	pc := conn.IPv6PacketConn()

	var hops []Hop
	id := os.Getpid() & 0xffff
	buf := make([]byte, 1500)

	for ttl := 1; ttl <= t.maxHops(); ttl++ {
		if err := ctx.Err(); err != nil {
			return hops, err
		}
		if err := pc.SetHopLimit(ttl); err != nil {
			return hops, fmt.Errorf("set hop limit %d: %w", ttl, err)
		}

		msg := icmp.Message{
			Type: ipv6.ICMPTypeEchoRequest,
			Body: &icmp.Echo{ID: id, Seq: ttl, Data: []byte("semvec-trace")},
		}
		wire, err := msg.Marshal(nil)
		if err != nil {
			return hops, fmt.Errorf("marshal probe: %w", err)
		}

		sent := time.Now()
		if _, err := conn.WriteTo(wire, &net.IPAddr{IP: dst}); err != nil {
			return hops, fmt.Errorf("send probe ttl %d: %w", ttl, err)
		}
		if err := conn.SetReadDeadline(time.Now().Add(t.timeout())); err != nil {
			return hops, err
		}

		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			continue
		}
		reply, err := icmp.ParseMessage(protocolIPv6ICMP, buf[:n])
		if err != nil {
			continue
		}

		hop := Hop{TTL: ttl, Addr: peer.String(), RTT: time.Since(sent)}
		switch reply.Type {
		case ipv6.ICMPTypeTimeExceeded:
			hops = append(hops, hop)
		case ipv6.ICMPTypeEchoReply:
			hops = append(hops, hop)
			return hops, nil
		}
	}
	return hops, nil
}
