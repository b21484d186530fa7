// Package netscout: Subnet sweep driver.
package netscout

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/marcuoli/go-netscout/internal/scanner"
	"github.com/marcuoli/go-netscout/pkg/netscout/icmp"
	"github.com/marcuoli/go-netscout/pkg/netscout/ifaces"
	"github.com/marcuoli/go-netscout/pkg/netscout/network"
	mapsutil "github.com/projectdiscovery/utils/maps"
)

// Pinger sends one probe and waits for its verdict. *icmp.Prober implements it.
type Pinger interface {
	Probe(ctx context.Context, src, dst network.Addr) (*icmp.Result, error)
	Close() error
}

// ProberFactory opens a Pinger. Each sequential scan opens one; a worker pool
// opens one per worker.
type ProberFactory func(icmp.Options) (Pinger, error)

// OpenICMP is the default ProberFactory. It opens a raw ICMP socket.
func OpenICMP(opts icmp.Options) (Pinger, error) {
	p, err := icmp.Open(opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Options configures a Scanner.
type Options struct {
	// Timeout bounds the wait for each reply. Zero waits indefinitely.
	Timeout time.Duration
	// Workers caps concurrent probes. 1 probes strictly in address order.
	Workers int
	// Correlate only accepts echo replies that match the probe. It is
	// always on when Workers > 1: every raw ICMP socket sees every reply.
	Correlate bool
	// Checksum selects the ICMP checksum mode
	Checksum icmp.ChecksumMode
	// EchoID is the ICMP echo identifier
	EchoID int

	// Interfaces restricts the scan to these interface names when non-empty.
	Interfaces []string
	// Exclude skips these interface names.
	Exclude []string

	// Open overrides how probers are opened. Nil uses OpenICMP.
	Open ProberFactory
}

// DefaultOptions returns options that reproduce a plain sequential sweep:
// one worker, blocking receive, standard checksum, no correlation.
func DefaultOptions() Options {
	return Options{
		Workers:  DefaultWorkers,
		Checksum: icmp.ChecksumStandard,
	}
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Workers > 1 {
		o.Correlate = true
	}
	if o.Open == nil {
		o.Open = OpenICMP
	}
	return o
}

func (o Options) validate() error {
	if o.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", o.Timeout)
	}
	if o.EchoID < 0 || o.EchoID > 0xffff {
		return fmt.Errorf("echo id %d out of range", o.EchoID)
	}
	return nil
}

func (o Options) probeOptions() icmp.Options {
	return icmp.Options{
		Timeout:   o.Timeout,
		Correlate: o.Correlate,
		Checksum:  o.Checksum,
		ID:        o.EchoID,
	}
}

func (o Options) selected(name string) bool {
	if len(o.Interfaces) > 0 && !slices.Contains(o.Interfaces, name) {
		return false
	}
	return !slices.Contains(o.Exclude, name)
}

// Scanner sweeps every subnet in an interface snapshot.
type Scanner struct {
	Options Options

	statsOnce sync.Once
	stats     *mapsutil.SyncLockMap[string, InterfaceStats]
}

// NewScanner creates a new scanner with default options.
func NewScanner() *Scanner {
	return &Scanner{Options: DefaultOptions()}
}

// target is one record selected for probing.
type target struct {
	key string
	rec ifaces.Record
	rng network.Range
}

type job struct {
	t    *target
	addr network.Addr
}

// Scan probes every host address of every eligible record in snap and calls
// handler once per candidate, on the calling goroutine.
//
// Loopback records, records filtered by Interfaces or Exclude, and non-IPv4
// records are skipped. A failure to open the socket aborts the scan before
// anything is sent and is returned as a *ScanError of KindConfig. A failed
// send is reported on that candidate's result and the sweep continues.
// Cancelling ctx stops the sweep between candidates and Scan returns
// ctx.Err().
func (s *Scanner) Scan(ctx context.Context, snap *ifaces.Snapshot, handler func(ProbeResult)) error {
	if snap == nil {
		return configError(ErrNilSnapshot)
	}
	opts := s.Options.withDefaults()
	if err := opts.validate(); err != nil {
		return configError(err)
	}
	if handler == nil {
		handler = func(ProbeResult) {}
	}

	s.resetStats()
	targets, total := s.plan(snap, opts)
	if total == 0 {
		debugLog(ComponentScan, "nothing to probe (%d records)", snap.Len())
		return ctx.Err()
	}
	debugLog(ComponentScan, "probing %d hosts on %d subnets (workers=%d timeout=%s correlate=%v)",
		total, len(targets), opts.Workers, opts.Timeout, opts.Correlate)

	if opts.Workers == 1 {
		return s.sweepSequential(ctx, opts, targets, handler)
	}
	return s.sweepPool(ctx, opts, targets, total, handler)
}

// ScanAll runs Scan and collects every result. On error the results gathered
// so far are returned alongside it.
func (s *Scanner) ScanAll(ctx context.Context, snap *ifaces.Snapshot) ([]ProbeResult, error) {
	var results []ProbeResult
	err := s.Scan(ctx, snap, func(r ProbeResult) {
		results = append(results, r)
	})
	return results, err
}

// Stats returns the per-record counters of the current or last scan, ordered
// by interface name and network address. It is safe to call while a scan is
// running.
func (s *Scanner) Stats() []InterfaceStats {
	var out []InterfaceStats
	_ = s.statsMap().Iterate(func(_ string, st InterfaceStats) error {
		out = append(out, st)
		return nil
	})
	slices.SortFunc(out, func(a, b InterfaceStats) int {
		if c := cmp.Compare(a.Interface, b.Interface); c != 0 {
			return c
		}
		c, _ := network.Compare(a.Range.Network, b.Range.Network)
		return c
	})
	return out
}

func (s *Scanner) statsMap() *mapsutil.SyncLockMap[string, InterfaceStats] {
	s.statsOnce.Do(func() {
		s.stats = mapsutil.NewSyncLockMap[string, InterfaceStats]()
	})
	return s.stats
}

func (s *Scanner) resetStats() {
	m := s.statsMap()
	var keys []string
	_ = m.Iterate(func(k string, _ InterfaceStats) error {
		keys = append(keys, k)
		return nil
	})
	for _, k := range keys {
		m.Delete(k)
	}
}

func (s *Scanner) record(key string, r ProbeResult) {
	m := s.statsMap()
	st, _ := m.Get(key)
	st.Probed++
	switch r.Verdict {
	case VerdictReply:
		st.Replies++
	case VerdictNoReply:
		st.NoReply++
	default:
		st.Errors++
	}
	_ = m.Set(key, st)
}

// plan selects the records to probe and counts their host addresses.
func (s *Scanner) plan(snap *ifaces.Snapshot, opts Options) ([]*target, int) {
	var targets []*target
	total := 0
	for _, rec := range snap.Records() {
		if rec.IsLoopback() {
			debugLogVerbose(ComponentScan, "skipping loopback %s", rec)
			continue
		}
		if !opts.selected(rec.Name) {
			debugLogVerbose(ComponentScan, "skipping %s: not selected", rec)
			continue
		}
		switch rec.Family {
		case network.IPv4:
		case network.IPv6:
			debugLog(ComponentScan, "skipping %v", &ScanError{Kind: KindFamily, Interface: rec.Name, Addr: rec.Addr, Err: ErrFamilyNotSupported})
			continue
		default:
			debugLog(ComponentScan, "skipping %s: unknown address family", rec.Name)
			continue
		}

		rng, err := rec.Range()
		if err != nil {
			debugLog(ComponentScan, "skipping %s: %v", rec, err)
			continue
		}
		t := &target{key: rec.String(), rec: rec, rng: rng}
		_ = s.statsMap().Set(t.key, InterfaceStats{Interface: rec.Name, Range: rng})
		debugLog(ComponentScan, "%s: range %s, %d hosts", rec, rng, rng.Size())
		targets = append(targets, t)
		total += rng.Size()
	}
	return targets, total
}

// probe runs one candidate. A non-nil error ends the scan.
func (s *Scanner) probe(ctx context.Context, p Pinger, t *target, dst network.Addr) (ProbeResult, error) {
	pr := ProbeResult{Interface: t.rec.Name, Src: t.rec.Addr, Addr: dst}
	res, err := p.Probe(ctx, t.rec.Addr, dst)
	if res != nil {
		pr.Verdict = res.Verdict
		pr.From = res.From
		pr.RTT = res.RTT
	}
	switch {
	case err == nil:
		debugLogVerbose(ComponentICMP, "%s %s: %s %s", t.rec.Name, dst, pr.Verdict, pr.RTT)
		return pr, nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return pr, err
	case icmp.IsSetupError(err), errors.Is(err, icmp.ErrClosed):
		return pr, &ScanError{Kind: KindConfig, Interface: t.rec.Name, Addr: dst, Err: err}
	default:
		pr.Verdict = VerdictError
		pr.Err = &ScanError{Kind: KindSend, Interface: t.rec.Name, Addr: dst, Err: err}
		debugLog(ComponentICMP, "%v", pr.Err)
		return pr, nil
	}
}

func (s *Scanner) open(opts Options) (Pinger, error) {
	p, err := opts.Open(opts.probeOptions())
	if err != nil {
		debugLog(ComponentICMP, "open prober: %v", err)
		return nil, configError(err)
	}
	return p, nil
}

func (s *Scanner) sweepSequential(ctx context.Context, opts Options, targets []*target, handler func(ProbeResult)) error {
	p, err := s.open(opts)
	if err != nil {
		return err
	}
	defer p.Close()

	for _, t := range targets {
		for dst := range t.rng.Hosts() {
			if err := ctx.Err(); err != nil {
				return err
			}
			pr, err := s.probe(ctx, p, t, dst)
			if err != nil {
				return err
			}
			s.record(t.key, pr)
			handler(pr)
		}
	}
	return ctx.Err()
}

type outcome struct {
	key string
	pr  ProbeResult
	err error
}

func (s *Scanner) sweepPool(ctx context.Context, opts Options, targets []*target, total int, handler func(ProbeResult)) error {
	workers := min(opts.Workers, total)

	probers := make([]Pinger, 0, workers)
	defer func() {
		for _, p := range probers {
			_ = p.Close()
		}
	}()
	for range workers {
		p, err := s.open(opts)
		if err != nil {
			return err
		}
		probers = append(probers, p)
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := func(yield func(job) bool) {
		for _, t := range targets {
			for dst := range t.rng.Hosts() {
				if !yield(job{t: t, addr: dst}) {
					return
				}
			}
		}
	}

	var fatal error
	scanner.Sweep(sweepCtx, workers, iter.Seq[job](jobs),
		func(worker int, j job) outcome {
			if err := sweepCtx.Err(); err != nil {
				return outcome{err: err}
			}
			pr, err := s.probe(sweepCtx, probers[worker], j.t, j.addr)
			return outcome{key: j.t.key, pr: pr, err: err}
		},
		func(o outcome) {
			if o.err != nil {
				if fatal == nil {
					fatal = o.err
					cancel()
				}
				return
			}
			if fatal != nil {
				return
			}
			s.record(o.key, o.pr)
			handler(o.pr)
		})

	if err := ctx.Err(); err != nil {
		return err
	}
	return fatal
}
