// Package rdns resolves PTR names for hosts that answered a probe.
//
// Queries go straight to the configured (or resolv.conf) name servers with
// github.com/miekg/dns. Answers, including negative ones, are kept in a small
// LRU so a host seen on several interfaces or in repeated sweeps is looked up
// once.
package rdns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/marcuoli/go-netscout/pkg/netscout/network"
	"github.com/miekg/dns"
	"github.com/projectdiscovery/gcache"
)

const (
	// DefaultTimeout is the default timeout for one PTR query.
	DefaultTimeout = 2 * time.Second
	// DefaultWorkers is the default number of concurrent lookups.
	DefaultWorkers = 32
	// DefaultCacheSize bounds the number of cached addresses.
	DefaultCacheSize = 1024
	// DefaultCacheTTL is how long an answer stays cached.
	DefaultCacheTTL = 10 * time.Minute
	// ResolvConf is read when no servers are configured.
	ResolvConf = "/etc/resolv.conf"
)

// Errors
var (
	// ErrNoPTR is returned when the server has no PTR record for the address.
	ErrNoPTR = errors.New("no PTR record")
	// ErrIPv6NotSupported is returned for non-IPv4 addresses.
	ErrIPv6NotSupported = errors.New("reverse lookup supports IPv4 only")
)

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from DNS operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Result contains the result of a reverse DNS lookup.
type Result struct {
	Addr     network.Addr
	Hostname string   // first answer
	All      []string // every answer, trailing dot removed
	Cached   bool
	Error    error
}

// Resolver performs PTR lookups.
type Resolver struct {
	Timeout time.Duration
	Workers int
	// Servers are "host:port" name servers. When empty, the servers in
	// ResolvConf are used, and failing that the system resolver.
	Servers []string

	cacheOnce sync.Once
	cache     gcache.Cache[string, []string]
}

// NewResolver creates a resolver with defaults.
func NewResolver() *Resolver {
	return &Resolver{
		Timeout: DefaultTimeout,
		Workers: DefaultWorkers,
	}
}

func (r *Resolver) answers() gcache.Cache[string, []string] {
	r.cacheOnce.Do(func() {
		r.cache = gcache.New[string, []string](DefaultCacheSize).
			LRU().
			Expiration(DefaultCacheTTL).
			Build()
	})
	return r.cache
}

func (r *Resolver) servers() []string {
	if len(r.Servers) > 0 {
		return r.Servers
	}
	cfg, err := dns.ClientConfigFromFile(ResolvConf)
	if err != nil || len(cfg.Servers) == 0 {
		return nil
	}
	out := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		out = append(out, net.JoinHostPort(s, cfg.Port))
	}
	return out
}

// LookupAddr performs a PTR lookup for addr.
func (r *Resolver) LookupAddr(ctx context.Context, addr network.Addr) (*Result, error) {
	res := &Result{Addr: addr}
	if !addr.Is4() {
		res.Error = ErrIPv6NotSupported
		return res, ErrIPv6NotSupported
	}
	key := addr.String()

	if names, err := r.answers().Get(key); err == nil {
		res.Cached = true
		return finish(res, names)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var names []string
	var err error
	if servers := r.servers(); len(servers) > 0 {
		names, err = queryPTR(lookupCtx, key, servers, timeout)
	} else {
		names, err = systemPTR(lookupCtx, key)
	}
	if err != nil && !errors.Is(err, ErrNoPTR) {
		res.Error = err
		debugLog("%s: lookup failed: %v", key, err)
		return res, err
	}

	_ = r.answers().Set(key, names)
	return finish(res, names)
}

func finish(res *Result, names []string) (*Result, error) {
	if len(names) == 0 {
		res.Error = ErrNoPTR
		return res, ErrNoPTR
	}
	res.All = names
	res.Hostname = names[0]
	debugLog("%s -> %s (cached=%v)", res.Addr, res.Hostname, res.Cached)
	return res, nil
}

// queryPTR asks each server in turn until one answers.
func queryPTR(ctx context.Context, ip string, servers []string, timeout time.Duration) ([]string, error) {
	name, err := dns.ReverseAddr(ip)
	if err != nil {
		return nil, fmt.Errorf("reverse name for %s: %w", ip, err)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(name, dns.TypePTR)
	msg.RecursionDesired = true

	client := &dns.Client{Timeout: timeout}

	var lastErr error
	for _, server := range servers {
		in, _, err := client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = fmt.Errorf("query %s: %w", server, err)
			debugLog("%s: %v", ip, lastErr)
			continue
		}
		switch in.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			return nil, ErrNoPTR
		default:
			lastErr = fmt.Errorf("query %s: %s", server, dns.RcodeToString[in.Rcode])
			continue
		}

		var names []string
		for _, rr := range in.Answer {
			if ptr, ok := rr.(*dns.PTR); ok {
				names = append(names, strings.TrimSuffix(ptr.Ptr, "."))
			}
		}
		return names, nil
	}
	return nil, lastErr
}

// systemPTR falls back to the platform resolver.
func systemPTR(ctx context.Context, ip string) ([]string, error) {
	names, err := (&net.Resolver{}).LookupAddr(ctx, ip)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, ErrNoPTR
		}
		return nil, err
	}
	for i, n := range names {
		names[i] = strings.TrimSuffix(n, ".")
	}
	return names, nil
}

// LookupMultiple performs PTR lookups concurrently. Results are in input order.
func (r *Resolver) LookupMultiple(ctx context.Context, addrs []network.Addr) []*Result {
	if len(addrs) == 0 {
		return nil
	}

	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]*Result, len(addrs))
	jobs := make(chan int, len(addrs))
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range jobs {
			results[idx], _ = r.LookupAddr(ctx, addrs[idx])
		}
	}

	for i := 0; i < workers && i < len(addrs); i++ {
		wg.Add(1)
		go worker()
	}

enqueue:
	for i := range addrs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()

	for i, res := range results {
		if res == nil {
			results[i] = &Result{Addr: addrs[i], Error: ctx.Err()}
		}
	}
	return results
}

// Purge drops every cached answer.
func (r *Resolver) Purge() {
	r.answers().Purge()
}
