// Package netscout: Responder enrichment (MAC, vendor, PTR name).
package netscout

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/marcuoli/go-netscout/pkg/netscout/arp"
	"github.com/marcuoli/go-netscout/pkg/netscout/network"
	"github.com/marcuoli/go-netscout/pkg/netscout/oui"
	"github.com/marcuoli/go-netscout/pkg/netscout/rdns"
)

// EnrichOptions selects which lookups run for hosts that replied.
type EnrichOptions struct {
	// EnableARP resolves the MAC address on the interface the host was found on
	EnableARP bool
	// EnableVendor maps resolved MACs to a manufacturer; needs EnableARP
	EnableVendor bool
	// EnableDNS performs PTR lookups
	EnableDNS bool

	// Timeout per lookup
	Timeout time.Duration
	// Workers for concurrent lookups of each kind
	Workers int
	// DNSServers are "host:port" servers for PTR queries. Empty uses the
	// system configuration.
	DNSServers []string
	// OUIPath is an OUI database file. Empty uses the package default.
	OUIPath string
}

// DefaultEnrichOptions returns options with every lookup enabled.
func DefaultEnrichOptions() EnrichOptions {
	return EnrichOptions{
		EnableARP:    true,
		EnableVendor: true,
		EnableDNS:    true,
		Timeout:      2 * time.Second,
		Workers:      32,
	}
}

// HostInfo is a responder with whatever the enabled lookups found.
type HostInfo struct {
	Interface string
	Addr      network.Addr
	RTT       time.Duration
	MAC       net.HardwareAddr
	Vendor    string
	Hostname  string
	Errors    map[Component]error
}

// Enricher resolves extra details for hosts found by a scan.
type Enricher struct {
	Options EnrichOptions
}

// NewEnricher creates an enricher with defaults.
func NewEnricher() *Enricher {
	return &Enricher{Options: DefaultEnrichOptions()}
}

// Enrich looks up the hosts in results that replied. Hosts that did not
// reply are left out. The returned slice follows the order of results.
func (e *Enricher) Enrich(ctx context.Context, results []ProbeResult) ([]*HostInfo, error) {
	var vendors *oui.Database
	if e.Options.EnableVendor {
		if e.Options.OUIPath != "" {
			db, err := oui.NewDatabase(e.Options.OUIPath)
			if err != nil {
				return nil, err
			}
			vendors = db
		} else {
			vendors = oui.Default()
		}
	}

	var hosts []*HostInfo
	for _, r := range results {
		if !r.Alive() {
			continue
		}
		hosts = append(hosts, &HostInfo{
			Interface: r.Interface,
			Addr:      r.Addr,
			RTT:       r.RTT,
			Errors:    make(map[Component]error),
		})
	}
	if len(hosts) == 0 {
		return nil, nil
	}
	debugLog(ComponentScan, "enriching %d responders (arp=%v vendor=%v dns=%v)",
		len(hosts), e.Options.EnableARP, e.Options.EnableVendor, e.Options.EnableDNS)

	// Each lookup kind writes to its own fields and map key, but the
	// Errors map is shared.
	var mu sync.Mutex
	var wg sync.WaitGroup

	if e.Options.EnableARP {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolver := arp.NewResolver()
			if e.Options.Timeout > 0 {
				resolver.Timeout = e.Options.Timeout
			}
			if e.Options.Workers > 0 {
				resolver.Workers = e.Options.Workers
			}
			targets := make([]arp.Target, len(hosts))
			for i, h := range hosts {
				targets[i] = arp.Target{Addr: h.Addr, Interface: h.Interface}
			}
			for i, r := range resolver.LookupMultiple(ctx, targets) {
				if r == nil {
					continue
				}
				if r.Resolved() {
					hosts[i].MAC = r.MAC
					if vendors != nil {
						hosts[i].Vendor = vendors.LookupName(r.MAC)
					}
				}
				if r.Error != nil {
					mu.Lock()
					hosts[i].Errors[ComponentARP] = r.Error
					mu.Unlock()
				}
			}
		}()
	}

	if e.Options.EnableDNS {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolver := rdns.NewResolver()
			if e.Options.Timeout > 0 {
				resolver.Timeout = e.Options.Timeout
			}
			if e.Options.Workers > 0 {
				resolver.Workers = e.Options.Workers
			}
			resolver.Servers = e.Options.DNSServers
			addrs := make([]network.Addr, len(hosts))
			for i, h := range hosts {
				addrs[i] = h.Addr
			}
			for i, r := range resolver.LookupMultiple(ctx, addrs) {
				if r == nil {
					continue
				}
				hosts[i].Hostname = r.Hostname
				if r.Error != nil {
					mu.Lock()
					hosts[i].Errors[ComponentDNS] = r.Error
					mu.Unlock()
				}
			}
		}()
	}

	wg.Wait()
	return hosts, ctx.Err()
}

// Enrich resolves details for responders using default enrichment options.
func Enrich(ctx context.Context, results []ProbeResult) ([]*HostInfo, error) {
	return NewEnricher().Enrich(ctx, results)
}
