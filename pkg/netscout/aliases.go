// Package netscout: Re-exports of subpackage types.
// Callers that only import netscout can name the interface, range and
// enrichment types without importing the subpackages.
package netscout

import (
	"github.com/marcuoli/go-netscout/pkg/netscout/arp"
	"github.com/marcuoli/go-netscout/pkg/netscout/icmp"
	"github.com/marcuoli/go-netscout/pkg/netscout/ifaces"
	"github.com/marcuoli/go-netscout/pkg/netscout/network"
	"github.com/marcuoli/go-netscout/pkg/netscout/oui"
	"github.com/marcuoli/go-netscout/pkg/netscout/rdns"
)

// =============================================================================
// Addresses and ranges
// =============================================================================

// Addr is an alias for network.Addr.
type Addr = network.Addr

// Range is an alias for network.Range.
type Range = network.Range

// ParseAddr parses a dotted-quad IPv4 or an IPv6 address.
func ParseAddr(s string) (Addr, error) {
	return network.ParseAddr(s)
}

// ParseCIDR returns the host range of a CIDR string.
func ParseCIDR(cidr string) (Range, error) {
	return network.ParseCIDR(cidr)
}

// =============================================================================
// Interfaces
// =============================================================================

// InterfaceRecord is an alias for ifaces.Record.
type InterfaceRecord = ifaces.Record

// Snapshot is an alias for ifaces.Snapshot.
type Snapshot = ifaces.Snapshot

// LoadInterfaces reads the OS interface table once.
func LoadInterfaces() (*Snapshot, error) {
	return ifaces.Load()
}

// =============================================================================
// ICMP
// =============================================================================

// ChecksumMode is an alias for icmp.ChecksumMode.
type ChecksumMode = icmp.ChecksumMode

const (
	ChecksumStandard = icmp.ChecksumStandard
	ChecksumLegacy   = icmp.ChecksumLegacy
)

// =============================================================================
// Enrichment
// =============================================================================

// VendorInfo is an alias for oui.VendorInfo.
type VendorInfo = oui.VendorInfo

// LookupVendor returns the manufacturer for a MAC address string, or "".
func LookupVendor(mac string) string {
	return oui.LookupName(mac)
}

// ErrARPNotSupported is returned by ARP lookups on unsupported platforms.
var ErrARPNotSupported = arp.ErrNotSupported

// ErrNoPTR is returned by PTR lookups with no answer.
var ErrNoPTR = rdns.ErrNoPTR

func init() {
	// Route subpackage debug output through the library logger.
	ifaces.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentIfaces, format, args...)
	}
	icmp.DebugLogger = func(format string, args ...interface{}) {
		debugLogVerbose(ComponentICMP, format, args...)
	}
	arp.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentARP, format, args...)
	}
	oui.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentVendor, format, args...)
	}
	rdns.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentDNS, format, args...)
	}
}
