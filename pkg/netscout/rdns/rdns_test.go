// Package rdns tests for PTR lookups.
package rdns

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcuoli/go-netscout/pkg/netscout/network"
	"github.com/miekg/dns"
)

// startServer runs an in-process DNS server answering PTR queries from names.
func startServer(t *testing.T, names map[string]string) (addr string, queries *atomic.Int32) {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}

	queries = new(atomic.Int32)
	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		queries.Add(1)
		m := new(dns.Msg)
		m.SetReply(req)
		q := req.Question[0]
		if ptr, ok := names[q.Name]; ok && q.Qtype == dns.TypePTR {
			m.Answer = append(m.Answer, &dns.PTR{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypePTR, Class: dns.ClassINET, Ttl: 60},
				Ptr: ptr,
			})
		} else {
			m.Rcode = dns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("dns server did not start")
	}
	return pc.LocalAddr().String(), queries
}

func TestNewResolver(t *testing.T) {
	r := NewResolver()
	if r.Timeout != DefaultTimeout {
		t.Errorf("Expected timeout %v, got %v", DefaultTimeout, r.Timeout)
	}
	if r.Workers != DefaultWorkers {
		t.Errorf("Expected workers %d, got %d", DefaultWorkers, r.Workers)
	}
}

func TestLookupAddr_FoundAndCached(t *testing.T) {
	server, queries := startServer(t, map[string]string{
		"20.1.168.192.in-addr.arpa.": "printer.lan.",
	})
	r := &Resolver{Timeout: time.Second, Servers: []string{server}}
	addr := network.MustParseAddr("192.168.1.20")

	res, err := r.LookupAddr(context.Background(), addr)
	if err != nil {
		t.Fatalf("LookupAddr failed: %v", err)
	}
	if res.Hostname != "printer.lan" || res.Cached {
		t.Errorf("unexpected result %+v", res)
	}

	res, err = r.LookupAddr(context.Background(), addr)
	if err != nil {
		t.Fatalf("second LookupAddr failed: %v", err)
	}
	if !res.Cached || res.Hostname != "printer.lan" {
		t.Errorf("expected cached answer, got %+v", res)
	}
	if n := queries.Load(); n != 1 {
		t.Errorf("server saw %d queries, want 1", n)
	}

	r.Purge()
	if _, err := r.LookupAddr(context.Background(), addr); err != nil {
		t.Fatalf("LookupAddr after purge failed: %v", err)
	}
	if n := queries.Load(); n != 2 {
		t.Errorf("server saw %d queries after purge, want 2", n)
	}
}

func TestLookupAddr_NXDomainCachedAsNegative(t *testing.T) {
	server, queries := startServer(t, nil)
	r := &Resolver{Timeout: time.Second, Servers: []string{server}}
	addr := network.MustParseAddr("10.9.9.9")

	for i := 0; i < 2; i++ {
		res, err := r.LookupAddr(context.Background(), addr)
		if !errors.Is(err, ErrNoPTR) {
			t.Fatalf("attempt %d: expected ErrNoPTR, got %v", i, err)
		}
		if res.Hostname != "" {
			t.Errorf("unexpected hostname %q", res.Hostname)
		}
	}
	if n := queries.Load(); n != 1 {
		t.Errorf("server saw %d queries, want 1", n)
	}
}

func TestLookupAddr_IPv6(t *testing.T) {
	r := NewResolver()
	res, err := r.LookupAddr(context.Background(), network.MustParseAddr("fe80::1"))
	if !errors.Is(err, ErrIPv6NotSupported) {
		t.Fatalf("expected ErrIPv6NotSupported, got %v", err)
	}
	if res.Addr.String() != "fe80::1" {
		t.Errorf("result address = %s", res.Addr)
	}
}

func TestLookupAddr_ServerUnreachable(t *testing.T) {
	// nothing listens on the discard port of a TEST-NET-1 address
	r := &Resolver{Timeout: 50 * time.Millisecond, Servers: []string{"192.0.2.1:53"}}
	_, err := r.LookupAddr(context.Background(), network.MustParseAddr("192.0.2.10"))
	if err == nil || errors.Is(err, ErrNoPTR) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestLookupMultiple(t *testing.T) {
	server, _ := startServer(t, map[string]string{
		"1.0.0.10.in-addr.arpa.": "gw.lan.",
		"2.0.0.10.in-addr.arpa.": "nas.lan.",
	})
	r := &Resolver{Timeout: time.Second, Workers: 2, Servers: []string{server}}
	addrs := []network.Addr{
		network.MustParseAddr("10.0.0.1"),
		network.MustParseAddr("10.0.0.2"),
		network.MustParseAddr("10.0.0.3"),
	}

	results := r.LookupMultiple(context.Background(), addrs)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	want := []string{"gw.lan", "nas.lan", ""}
	for i, res := range results {
		if res.Addr != addrs[i] || res.Hostname != want[i] {
			t.Errorf("result %d = %s %q, want %s %q", i, res.Addr, res.Hostname, addrs[i], want[i])
		}
	}
}

func TestLookupMultiple_Empty(t *testing.T) {
	if results := NewResolver().LookupMultiple(context.Background(), nil); results != nil {
		t.Errorf("Expected nil for empty input, got %v", results)
	}
}

func TestLookupMultiple_ContextCancellation(t *testing.T) {
	r := &Resolver{Timeout: 50 * time.Millisecond, Servers: []string{"192.0.2.1:53"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := r.LookupMultiple(ctx, []network.Addr{
		network.MustParseAddr("192.0.2.1"),
		network.MustParseAddr("192.0.2.2"),
	})
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	for i, res := range results {
		if res == nil || res.Error == nil {
			t.Errorf("result %d should carry an error, got %+v", i, res)
		}
	}
}

func TestDebugLogger_Nil(t *testing.T) {
	originalLogger := DebugLogger
	DebugLogger = nil
	defer func() { DebugLogger = originalLogger }()

	// Should not panic when DebugLogger is nil
	debugLog("test message %s", "arg")
}
