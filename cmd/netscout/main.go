package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/marcuoli/go-netscout/internal/config"
	"github.com/marcuoli/go-netscout/pkg/netscout"
	"github.com/marcuoli/go-netscout/pkg/netscout/ifaces"
	"github.com/marcuoli/go-netscout/pkg/netscout/network"
	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	"github.com/rs/xid"
)

// Options holds the command line flags.
type Options struct {
	Config     string
	Timeout    time.Duration
	Workers    int
	Correlate  bool
	Checksum   string
	EchoID     int
	Interfaces goflags.StringSlice
	Exclude    goflags.StringSlice
	Enrich     bool
	DNSServers goflags.StringSlice
	OUIFile    string
	AliveOnly  bool
	Verbose    bool
	Debug      bool
	Silent     bool
	Version    bool

	// flags given explicitly on the command line
	set map[string]bool
}

func parseOptions() *Options {
	options := &Options{}
	defaults := config.Default()

	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`netscout probes every host on the directly-connected IPv4 subnets with ICMP echo requests`)

	flagSet.CreateGroup("scan", "Scan",
		flagSet.DurationVarP(&options.Timeout, "timeout", "t", netscout.DefaultTimeout, "time to wait for each reply (0 waits forever)"),
		flagSet.IntVarP(&options.Workers, "workers", "w", defaults.Scan.Workers, "number of concurrent probes (1 probes in address order)"),
		flagSet.BoolVar(&options.Correlate, "correlate", false, "only accept echo replies matching the probe (always on with more than one worker)"),
		flagSet.StringVar(&options.Checksum, "checksum", defaults.Scan.Checksum, "icmp checksum mode (standard, legacy)"),
		flagSet.IntVar(&options.EchoID, "echo-id", 0, "icmp echo identifier"),
		flagSet.StringSliceVarP(&options.Interfaces, "interface", "i", nil, "interfaces to scan", goflags.CommaSeparatedStringSliceOptions),
		flagSet.StringSliceVarP(&options.Exclude, "exclude", "e", nil, "interfaces to skip", goflags.CommaSeparatedStringSliceOptions),
	)
	flagSet.CreateGroup("enrich", "Enrichment",
		flagSet.BoolVar(&options.Enrich, "enrich", false, "resolve MAC, vendor and PTR name of responders"),
		flagSet.StringSliceVar(&options.DNSServers, "dns-server", nil, "dns servers for PTR lookups (host:port)", goflags.CommaSeparatedStringSliceOptions),
		flagSet.StringVar(&options.OUIFile, "oui-file", "", "OUI database file for vendor lookups"),
	)
	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&options.Config, "config", "c", "", "yaml scan configuration file"),
		flagSet.BoolVarP(&options.AliveOnly, "alive", "a", false, "only print hosts that replied"),
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "show verbose output"),
		flagSet.BoolVar(&options.Debug, "debug", false, "show library debug output"),
		flagSet.BoolVar(&options.Silent, "silent", false, "only print results"),
		flagSet.BoolVar(&options.Version, "version", false, "show version and exit"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("%s\n", err)
	}

	options.set = make(map[string]bool)
	flagSet.CommandLine.Visit(func(f *flag.Flag) {
		options.set[f.Name] = true
	})

	configureLogging(options)
	return options
}

func configureLogging(options *Options) {
	switch {
	case options.Silent:
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	case options.Debug:
		gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
		netscout.SetDebugLevel(netscout.DebugVerbose)
		netscout.SetDebugLogger(func(c netscout.Component, format string, args ...interface{}) {
			gologger.Debug().Msgf(netscout.LogPrefixDebug+netscout.ComponentToPrefix(c)+" "+format, args...)
		})
	case options.Verbose:
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
}

func (o *Options) given(names ...string) bool {
	for _, n := range names {
		if o.set[n] {
			return true
		}
	}
	return false
}

// buildConfig loads the config file, if any, and applies flags on top.
func buildConfig(o *Options) (config.Config, error) {
	cfg := config.Default()
	if o.Config != "" {
		loaded, err := config.Load(o.Config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if o.Config == "" || o.given("timeout", "t") {
		cfg.Scan.Timeout = o.Timeout.String()
	}
	if o.given("workers", "w") {
		cfg.Scan.Workers = o.Workers
	}
	if o.given("correlate") {
		cfg.Scan.Correlate = o.Correlate
	}
	if o.given("checksum") {
		cfg.Scan.Checksum = o.Checksum
	}
	if o.given("echo-id") {
		cfg.Scan.EchoID = o.EchoID
	}
	if o.given("interface", "i") {
		cfg.Scan.Interfaces = o.Interfaces
	}
	if o.given("exclude", "e") {
		cfg.Scan.Exclude = o.Exclude
	}
	if o.given("enrich") {
		cfg.Enrich.Enabled = o.Enrich
	}
	if o.given("dns-server") {
		cfg.Enrich.DNSServers = o.DNSServers
	}
	if o.given("oui-file") {
		cfg.Enrich.OUIFile = o.OUIFile
	}
	if o.given("alive", "a") {
		cfg.Output.AliveOnly = o.AliveOnly
	}
	return cfg, cfg.Validate()
}

func main() {
	options := parseOptions()
	if options.Version {
		fmt.Println(netscout.VersionInfo())
		return
	}

	runID := xid.New().String()

	cfg, err := buildConfig(options)
	if err != nil {
		gologger.Fatal().Msgf("[%s] configuration: %v", runID, err)
	}
	scanOpts, err := cfg.ScanOptions()
	if err != nil {
		gologger.Fatal().Msgf("[%s] configuration: %v", runID, err)
	}

	snap, err := ifaces.Load()
	if err != nil {
		gologger.Fatal().Msgf("[%s] could not read network interfaces: %v", runID, err)
	}
	for _, rec := range snap.Records() {
		gologger.Verbose().Msgf("[%s] interface %s", runID, describeRecord(rec))
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-c
		gologger.Info().Msgf("[%s] interrupted, stopping scan", runID)
		cancel()
	}()

	scanner := &netscout.Scanner{Options: scanOpts}
	gologger.Info().Msgf("[%s] %s scanning %d interface addresses (timeout=%s workers=%d)",
		runID, netscout.VersionInfo(), snap.Len(), scanOpts.Timeout, scanOpts.Workers)

	// Sequential results are already in address order and stream as they
	// arrive; anything else is collected and sorted first.
	stream := scanOpts.Workers <= 1 && !cfg.Enrich.Enabled
	var results []netscout.ProbeResult
	start := time.Now()
	err = scanner.Scan(ctx, snap, func(r netscout.ProbeResult) {
		if stream {
			printResult(r, nil, cfg.Output.AliveOnly)
			return
		}
		results = append(results, r)
	})
	switch {
	case err == nil:
	case errors.Is(err, netscout.ErrPrivilege):
		gologger.Fatal().Msgf("[%s] %v (raw sockets need root or CAP_NET_RAW)", runID, err)
	case errors.Is(err, netscout.ErrNotSupported):
		gologger.Fatal().Msgf("[%s] %v", runID, err)
	case errors.Is(err, context.Canceled):
		gologger.Warning().Msgf("[%s] scan cancelled, results are partial", runID)
	default:
		gologger.Fatal().Msgf("[%s] scan failed: %v", runID, err)
	}

	if !stream {
		slices.SortFunc(results, func(a, b netscout.ProbeResult) int {
			n, _ := network.Compare(a.Addr, b.Addr)
			return n
		})

		infos := map[network.Addr]*netscout.HostInfo{}
		if cfg.Enrich.Enabled && ctx.Err() == nil {
			infos = enrich(ctx, runID, cfg, results)
		}
		for _, r := range results {
			printResult(r, infos[r.Addr], cfg.Output.AliveOnly)
		}
	}

	for _, st := range scanner.Stats() {
		gologger.Info().Msgf("[%s] %s %s: %d probed, %d replied, %d silent, %d errors",
			runID, st.Interface, st.Range, st.Probed, st.Replies, st.NoReply, st.Errors)
	}
	gologger.Info().Msgf("[%s] done in %s", runID, time.Since(start).Round(time.Millisecond))
}

func enrich(ctx context.Context, runID string, cfg config.Config, results []netscout.ProbeResult) map[network.Addr]*netscout.HostInfo {
	opts, err := cfg.EnrichOptions()
	if err != nil {
		gologger.Warning().Msgf("[%s] enrichment disabled: %v", runID, err)
		return nil
	}
	hosts, err := (&netscout.Enricher{Options: opts}).Enrich(ctx, results)
	if err != nil {
		gologger.Warning().Msgf("[%s] enrichment: %v", runID, err)
	}
	out := make(map[network.Addr]*netscout.HostInfo, len(hosts))
	for _, h := range hosts {
		out[h.Addr] = h
		for component, lerr := range h.Errors {
			gologger.Verbose().Msgf("[%s] %s %s: %v", runID, h.Addr, component, lerr)
		}
	}
	return out
}

// describeRecord reports an interface address with its netmask, network and
// broadcast. Families without subnet arithmetic are marked as not scanned.
func describeRecord(rec ifaces.Record) string {
	rng, err := rec.Range()
	if err != nil {
		return fmt.Sprintf("%s (%s not scanned)", rec, rec.Family)
	}
	return fmt.Sprintf("%s netmask %s network %s broadcast %s", rec, rec.Mask, rng.Network, rng.Broadcast)
}

func printResult(r netscout.ProbeResult, info *netscout.HostInfo, aliveOnly bool) {
	if aliveOnly && !r.Alive() {
		return
	}
	line := fmt.Sprintf("%-10s %-15s %-8s", r.Interface, r.Addr, r.Verdict)
	switch {
	case r.Alive():
		line += " " + r.RTT.Round(time.Microsecond).String()
		if r.From.IsValid() && r.From != r.Addr {
			line += " from " + r.From.String()
		}
	case r.Err != nil:
		line += " " + r.Err.Error()
	}
	if info != nil {
		if info.MAC != nil {
			line += " " + info.MAC.String()
		}
		if info.Vendor != "" {
			line += " (" + info.Vendor + ")"
		}
		if info.Hostname != "" {
			line += " " + info.Hostname
		}
	}
	fmt.Println(line)
}
