// Package netscout discovers live hosts on directly-connected IPv4 subnets.
//
// For every interface address in a snapshot, the subnet's network and
// broadcast addresses are derived from the address and netmask, every usable
// host address in between is enumerated, and each one is probed with a
// hand-built ICMP echo request over a raw socket. One ProbeResult is reported
// per candidate.
//
// Raw sockets need root or CAP_NET_RAW. Without them Scan fails with an error
// matching ErrPrivilege before anything is sent.
package netscout

import (
	"time"

	"github.com/marcuoli/go-netscout/pkg/netscout/icmp"
	"github.com/marcuoli/go-netscout/pkg/netscout/network"
)

// Component identifies the part of the library that produced a log line.
type Component string

const (
	ComponentScan   Component = "scan"
	ComponentICMP   Component = "icmp"
	ComponentIfaces Component = "ifaces"
	ComponentARP    Component = "arp"    // MAC address lookup
	ComponentVendor Component = "vendor" // MAC vendor lookup (OUI)
	ComponentDNS    Component = "dns"    // PTR lookup
)

// Verdict is the reachability outcome of one probe.
type Verdict = icmp.Verdict

const (
	VerdictNoReply = icmp.VerdictNoReply
	VerdictReply   = icmp.VerdictReply
	VerdictError   = icmp.VerdictError
)

// ProbeResult is reported once per probed candidate.
type ProbeResult struct {
	Interface string
	Src       network.Addr
	Addr      network.Addr
	Verdict   Verdict
	// From is where the accepted datagram came from. Without correlation it
	// need not be Addr.
	From network.Addr
	RTT  time.Duration
	// Err is set when Verdict is VerdictError. It is a *ScanError of KindSend.
	Err error
}

// Alive reports whether the candidate answered.
func (r ProbeResult) Alive() bool {
	return r.Verdict == VerdictReply
}

// InterfaceStats counts probe outcomes for one interface.
type InterfaceStats struct {
	Interface string
	Range     network.Range
	Probed    int
	Replies   int
	NoReply   int
	Errors    int
}

// DefaultTimeout is used by the CLI when no timeout is specified. The
// library default is zero: wait for a reply indefinitely.
const DefaultTimeout = 1 * time.Second

// DefaultWorkers probes strictly in address order.
const DefaultWorkers = 1
