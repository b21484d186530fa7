//go:build !(linux || darwin || freebsd || netbsd || openbsd)

// Package arp resolves the hardware address of hosts that answered a probe.
// This file provides stubs for platforms arping does not support.
package arp

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/marcuoli/go-netscout/pkg/netscout/network"
)

const (
	// DefaultTimeout is the default timeout for ARP lookups.
	DefaultTimeout = 1 * time.Second
	// DefaultWorkers bounds concurrent lookups in LookupMultiple.
	DefaultWorkers = 32
)

// Errors
var (
	// ErrNotSupported is returned when ARP is called on unsupported platforms.
	ErrNotSupported = errors.New("ARP lookup is not supported on this platform")
	// ErrInvalidAddr is returned for the zero network.Addr.
	ErrInvalidAddr = errors.New("invalid address")
	// ErrIPv6NotSupported is returned when attempting ARP on an IPv6 address.
	ErrIPv6NotSupported = errors.New("ARP is not supported for IPv6 addresses")
)

// DebugLogger is a callback for debug logging.
var DebugLogger func(format string, args ...interface{})

// Target is a host to resolve and, optionally, the interface to ask on.
type Target struct {
	Addr      network.Addr
	Interface string
}

// Result contains the result of an ARP lookup.
type Result struct {
	Addr      network.Addr
	Interface string
	MAC       net.HardwareAddr
	Duration  time.Duration
	Error     error
}

// Resolved reports whether a hardware address was found.
func (r *Result) Resolved() bool {
	return r != nil && len(r.MAC) > 0
}

// Resolver performs ARP lookups.
type Resolver struct {
	Timeout time.Duration
	Workers int
}

// NewResolver creates a new ARP resolver.
// On this platform every lookup returns ErrNotSupported.
func NewResolver() *Resolver {
	return &Resolver{Timeout: DefaultTimeout, Workers: DefaultWorkers}
}

// Lookup always returns ErrNotSupported.
func (a *Resolver) Lookup(ctx context.Context, t Target) (*Result, error) {
	return &Result{Addr: t.Addr, Interface: t.Interface, Error: ErrNotSupported}, ErrNotSupported
}

// LookupMultiple returns an error result per target.
func (a *Resolver) LookupMultiple(ctx context.Context, targets []Target) []*Result {
	results := make([]*Result, len(targets))
	for i, t := range targets {
		results[i] = &Result{Addr: t.Addr, Interface: t.Interface, Error: ErrNotSupported}
	}
	return results
}

// IsSupported returns true if ARP is supported on this platform.
func IsSupported() bool {
	return false
}
