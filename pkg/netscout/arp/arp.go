//go:build linux || darwin || freebsd || netbsd || openbsd

// Package arp resolves the hardware address of hosts that answered a probe.
// Lookups send an ARP request, preferably on the interface the host was
// found on. On some systems ARP operations require elevated privileges.
// Platform support: Linux and BSD only (not Windows).
package arp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/j-keck/arping"
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
// Set this to receive debug messages from ARP operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

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

// NewResolver creates a new ARP resolver with defaults.
func NewResolver() *Resolver {
	return &Resolver{Timeout: DefaultTimeout, Workers: DefaultWorkers}
}

// Lookup sends an ARP request for t.Addr and returns the answering MAC.
func (a *Resolver) Lookup(ctx context.Context, t Target) (*Result, error) {
	result := &Result{Addr: t.Addr, Interface: t.Interface}

	switch {
	case !t.Addr.IsValid():
		result.Error = ErrInvalidAddr
		return result, ErrInvalidAddr
	case !t.Addr.Is4():
		result.Error = ErrIPv6NotSupported
		return result, ErrIPv6NotSupported
	}

	debugLog("Looking up ARP for %s (iface=%q)", t.Addr, t.Interface)

	// arping keeps its timeout in package state
	arping.SetTimeout(a.Timeout)

	start := time.Now()

	type arpResponse struct {
		mac net.HardwareAddr
		dur time.Duration
		err error
	}
	responseChan := make(chan arpResponse, 1)

	go func() {
		var resp arpResponse
		if t.Interface != "" {
			resp.mac, resp.dur, resp.err = arping.PingOverIfaceByName(t.Addr.IP(), t.Interface)
		} else {
			resp.mac, resp.dur, resp.err = arping.Ping(t.Addr.IP())
		}
		responseChan <- resp
	}()

	select {
	case <-ctx.Done():
		result.Duration = time.Since(start)
		result.Error = ctx.Err()
		debugLog("%s: context cancelled", t.Addr)
		return result, ctx.Err()
	case resp := <-responseChan:
		result.Duration = resp.dur
		if resp.err != nil {
			result.Error = resp.err
			debugLog("%s: error: %v", t.Addr, resp.err)
			return result, resp.err
		}
		result.MAC = resp.mac
		debugLog("%s -> MAC: %s (%.2fms)", t.Addr, resp.mac, float64(resp.dur.Microseconds())/1000)
		return result, nil
	}
}

// LookupMultiple resolves many targets concurrently.
// Results are returned in the same order as the input.
func (a *Resolver) LookupMultiple(ctx context.Context, targets []Target) []*Result {
	results := make([]*Result, len(targets))
	var wg sync.WaitGroup

	workers := a.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	// ARP can be rate-limited by the OS
	sem := make(chan struct{}, workers)

	for i, t := range targets {
		wg.Add(1)
		go func(idx int, t Target) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx], _ = a.Lookup(ctx, t)
		}(i, t)
	}

	wg.Wait()
	return results
}

// IsSupported returns true if ARP is supported on this platform.
func IsSupported() bool {
	return true
}
