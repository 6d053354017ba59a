package netmap

import "testing"

func TestIsLocalIP(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"10.0.0.1", true},
		{"172.16.5.5", true},
		{"192.168.1.1", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"fd00::1", true},
		{"fe80::1", true},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
		{"not-an-ip", false},
	}
	for _, tt := range tests {
		if got := IsLocalIP(tt.addr); got != tt.want {
			t.Errorf("IsLocalIP(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestBuildNodes(t *testing.T) {
	hops := []Hop{
		{TTL: 1, Addr: "192.168.1.1"}, // local, dropped
		{TTL: 2, Addr: "203.0.113.1"},
		{TTL: 3, Addr: "203.0.113.2"},
		{TTL: 4, Addr: "203.0.113.3"},
	}
	nodes := BuildNodes("example.com", hops)
	if len(nodes) != 3 {
		t.Fatalf("expected 3 public nodes, got %d", len(nodes))
	}

	if len(nodes[0].Neighbours) != 1 || nodes[0].Neighbours[0] != "203.0.113.2" {
		t.Errorf("first node neighbours = %v", nodes[0].Neighbours)
	}
	if len(nodes[1].Neighbours) != 2 {
		t.Errorf("middle node neighbours = %v", nodes[1].Neighbours)
	}
	last := nodes[2]
	if len(last.Domains) != 1 || last.Domains[0] != "example.com" {
		t.Errorf("last node domains = %v", last.Domains)
	}
	if len(last.Neighbours) != 1 || last.Neighbours[0] != "203.0.113.2" {
		t.Errorf("last node neighbours = %v", last.Neighbours)
	}

	for i, node := range nodes[:2] {
		if len(node.Domains) != 0 {
			t.Errorf("node %d should carry no domains, got %v", i, node.Domains)
		}
	}
}

func TestBuildNodes_AllLocal(t *testing.T) {
	hops := []Hop{{TTL: 1, Addr: "192.168.1.1"}, {TTL: 2, Addr: "10.0.0.1"}}
	if nodes := BuildNodes("example.com", hops); len(nodes) != 0 {
		t.Errorf("expected no nodes, got %v", nodes)
	}
}
