package netmap

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/cch137/semvec/internal/pagestore"
)

// IsLocalIP reports whether an address is private, loopback or link-local.
// Such hops carry no information about the public network graph.
func IsLocalIP(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// Resolver looks up forward and reverse DNS with a bounded timeout.
type Resolver struct {
	Timeout time.Duration
	res     *net.Resolver
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return 3 * time.Second
}

func (r *Resolver) resolver() *net.Resolver {
	if r.res != nil {
		return r.res
	}
	return net.DefaultResolver
}

// Lookup resolves a domain to its IP addresses.
func (r *Resolver) Lookup(ctx context.Context, domain string) ([]net.IP, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()
	addrs, err := r.resolver().LookupIP(ctx, "ip", domain)
	if err != nil {
		return nil, err
	}
	return addrs, nil
}

// ReverseName returns the first PTR name of an address, or "" if none.
func (r *Resolver) ReverseName(ctx context.Context, addr string) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()
	names, err := r.resolver().LookupAddr(ctx, addr)
	if err != nil || len(names) == 0 {
		return ""
	}
	return names[0]
}

// BuildNodes converts a hop path toward a domain into node records. Every
// public hop becomes a node whose neighbours are the adjacent public hops;
// the final hop additionally carries the domain.
func BuildNodes(domain string, hops []Hop) []pagestore.Node {
	var public []Hop
	for _, hop := range hops {
		if !IsLocalIP(hop.Addr) {
			public = append(public, hop)
		}
	}

	nodes := make([]pagestore.Node, 0, len(public))
	for i, hop := range public {
		node := pagestore.Node{
			IPAddr:     hop.Addr,
			Name:       hop.Name,
			Domains:    []string{},
			Neighbours: []string{},
		}
		if i > 0 {
			node.Neighbours = append(node.Neighbours, public[i-1].Addr)
		}
		if i < len(public)-1 {
			node.Neighbours = append(node.Neighbours, public[i+1].Addr)
		}
		if i == len(public)-1 {
			node.Domains = append(node.Domains, domain)
		}
		nodes = append(nodes, node)
	}
	return nodes
}
