package arp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcuoli/go-netscout/pkg/netscout/network"
)

func TestNewResolver(t *testing.T) {
	r := NewResolver()
	if r.Timeout != DefaultTimeout || r.Workers != DefaultWorkers {
		t.Errorf("unexpected defaults: %+v", r)
	}
}

func TestLookup_RejectsBadAddresses(t *testing.T) {
	if !IsSupported() {
		t.Skip("ARP not supported on this platform")
	}
	r := NewResolver()

	tests := []struct {
		name string
		addr network.Addr
		want error
	}{
		{"zero", network.Addr{}, ErrInvalidAddr},
		{"ipv6", network.MustParseAddr("fe80::1"), ErrIPv6NotSupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Lookup(context.Background(), Target{Addr: tt.addr})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if res == nil || res.Error == nil || res.Resolved() {
				t.Errorf("unexpected result %+v", res)
			}
		})
	}
}

func TestLookupMultiple_PreservesOrder(t *testing.T) {
	r := &Resolver{Timeout: 10 * time.Millisecond, Workers: 2}
	targets := []Target{
		{Addr: network.Addr{}},
		{Addr: network.MustParseAddr("fe80::1")},
		{Addr: network.Addr{}, Interface: "eth9"},
	}

	results := r.LookupMultiple(context.Background(), targets)
	if len(results) != len(targets) {
		t.Fatalf("expected %d results, got %d", len(targets), len(results))
	}
	for i, res := range results {
		if res == nil {
			t.Fatalf("result %d is nil", i)
		}
		if res.Interface != targets[i].Interface {
			t.Errorf("result %d interface = %q, want %q", i, res.Interface, targets[i].Interface)
		}
		if res.Resolved() {
			t.Errorf("result %d unexpectedly resolved", i)
		}
	}
}

func TestResult_ResolvedNil(t *testing.T) {
	var r *Result
	if r.Resolved() {
		t.Error("nil result should not be resolved")
	}
}

func TestDebugLogger_Nil(t *testing.T) {
	originalLogger := DebugLogger
	DebugLogger = nil
	defer func() { DebugLogger = originalLogger }()

	// must not panic
	_, _ = NewResolver().Lookup(context.Background(), Target{})
}
