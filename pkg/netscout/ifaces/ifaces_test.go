package ifaces

import (
	"net"
	"testing"

	"github.com/marcuoli/go-netscout/pkg/netscout/network"
)

func rec(name, addr, mask string, flags net.Flags) Record {
	a := network.MustParseAddr(addr)
	return Record{
		Name:   name,
		Family: a.Family(),
		Addr:   a,
		Mask:   network.MustParseAddr(mask),
		Flags:  flags,
	}
}

func TestRecord_IsLoopback(t *testing.T) {
	tests := []struct {
		name string
		r    Record
		want bool
	}{
		{"by name", rec("lo", "127.0.0.1", "255.0.0.0", 0), true},
		{"by flag", rec("lo0", "127.0.0.1", "255.0.0.0", net.FlagLoopback|net.FlagUp), true},
		{"ethernet", rec("eth0", "192.168.1.10", "255.255.255.0", net.FlagUp), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.IsLoopback(); got != tt.want {
				t.Errorf("IsLoopback() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecord_Range(t *testing.T) {
	r := rec("eth0", "192.168.1.10", "255.255.255.0", net.FlagUp)
	rg, err := r.Range()
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if rg.Network.String() != "192.168.1.0" || rg.Broadcast.String() != "192.168.1.255" {
		t.Errorf("unexpected range %s", rg)
	}
	if r.String() != "eth0 192.168.1.10/24" {
		t.Errorf("String() = %q", r.String())
	}
}

func TestSnapshot_Immutable(t *testing.T) {
	in := []Record{
		rec("eth0", "192.168.1.10", "255.255.255.0", net.FlagUp),
		rec("wlan0", "10.0.0.5", "255.0.0.0", net.FlagUp),
	}
	s := NewSnapshot(in...)

	in[0].Name = "mutated"
	got := s.Records()
	if got[0].Name != "eth0" {
		t.Error("snapshot shares the caller's slice")
	}

	got[1].Name = "mutated"
	if s.Records()[1].Name != "wlan0" {
		t.Error("Records() exposes internal storage")
	}

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if len(s.Lookup("wlan0")) != 1 || len(s.Lookup("missing")) != 0 {
		t.Error("Lookup returned unexpected records")
	}
}

func TestSnapshot_Nil(t *testing.T) {
	var s *Snapshot
	if s.Len() != 0 || s.Records() != nil {
		t.Error("nil snapshot should be empty")
	}
}

func TestFromAddr(t *testing.T) {
	ifi := net.Interface{Name: "eth0", Flags: net.FlagUp}

	r, ok := fromAddr(ifi, &net.IPNet{IP: net.ParseIP("172.16.5.20"), Mask: net.CIDRMask(28, 32)})
	if !ok {
		t.Fatal("expected IPv4 address to convert")
	}
	if r.Family != network.IPv4 || r.Addr.String() != "172.16.5.20" || r.Mask.String() != "255.255.255.240" {
		t.Errorf("unexpected record %+v", r)
	}

	r, ok = fromAddr(ifi, &net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)})
	if !ok || r.Family != network.IPv6 {
		t.Errorf("expected IPv6 record, got %+v ok=%v", r, ok)
	}

	for _, cidr := range []string{"fd7a:115c:a1e0::1/128", "2001:db8::5/112", "2001:db8::5/96"} {
		ip, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			t.Fatalf("ParseCIDR(%s): %v", cidr, err)
		}
		r, ok := fromAddr(ifi, &net.IPNet{IP: ip, Mask: ipnet.Mask})
		if !ok || r.Family != network.IPv6 || r.Mask.Family() != network.IPv6 {
			t.Errorf("%s: expected IPv6 record, got %+v ok=%v", cidr, r, ok)
		}
	}

	// IPv4 address with the 16-byte mask form
	r, ok = fromAddr(ifi, &net.IPNet{IP: net.ParseIP("10.1.2.3"), Mask: net.CIDRMask(120, 128)})
	if !ok || r.Family != network.IPv4 || r.Mask.String() != "255.255.255.0" {
		t.Errorf("expected IPv4 record from 16-byte mask, got %+v ok=%v", r, ok)
	}

	if _, ok := fromAddr(ifi, &net.IPAddr{IP: net.ParseIP("10.0.0.1")}); ok {
		t.Error("non-IPNet address should be skipped")
	}
	if _, ok := fromAddr(ifi, &net.IPNet{IP: net.ParseIP("10.0.0.1"), Mask: net.CIDRMask(64, 128)}); ok {
		t.Error("family-mismatched mask should be skipped")
	}
}

func TestLoad(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Skipf("interface table unavailable: %v", err)
	}
	for _, r := range s.Records() {
		if !r.Addr.IsValid() || !r.Mask.IsValid() {
			t.Errorf("record %s has invalid address", r.Name)
		}
		if r.Addr.Family() != r.Family {
			t.Errorf("record %s family tag mismatch", r.Name)
		}
	}
}
