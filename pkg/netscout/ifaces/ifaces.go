// Package ifaces captures the host's network interface addresses once per run.
//
// The OS interface table is read a single time by Load and frozen into a
// Snapshot. Every address and netmask is converted to a typed network.Addr at
// this boundary, so nothing downstream touches raw sockaddr bytes.
package ifaces

import (
	"fmt"
	"net"

	"github.com/marcuoli/go-netscout/pkg/netscout/network"
)

// DebugLogger is called for debug messages if set.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// LoopbackName is the interface name treated as loopback regardless of flags.
const LoopbackName = "lo"

// Record is one address assigned to one interface.
type Record struct {
	Name   string
	Family network.Family
	Addr   network.Addr
	Mask   network.Addr
	Flags  net.Flags
}

// IsLoopback reports whether the record belongs to a loopback interface,
// either by its well-known name or by the interface flag.
func (r Record) IsLoopback() bool {
	return r.Name == LoopbackName || r.Flags&net.FlagLoopback != 0
}

// IsUp reports whether the interface was administratively up when captured.
func (r Record) IsUp() bool {
	return r.Flags&net.FlagUp != 0
}

// Range derives the subnet range for the record.
func (r Record) Range() (network.Range, error) {
	return network.RangeOf(r.Addr, r.Mask)
}

func (r Record) String() string {
	if bits, ok := network.MaskBits(r.Mask); ok {
		return fmt.Sprintf("%s %s/%d", r.Name, r.Addr, bits)
	}
	return fmt.Sprintf("%s %s mask %s", r.Name, r.Addr, r.Mask)
}

// Snapshot is an immutable list of interface records.
type Snapshot struct {
	records []Record
}

// NewSnapshot builds a snapshot from caller-supplied records.
func NewSnapshot(records ...Record) *Snapshot {
	s := &Snapshot{records: make([]Record, len(records))}
	copy(s.records, records)
	return s
}

// Records returns a copy of the records in OS order.
func (s *Snapshot) Records() []Record {
	if s == nil {
		return nil
	}
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Lookup returns the records belonging to the named interface.
func (s *Snapshot) Lookup(name string) []Record {
	var out []Record
	for _, r := range s.Records() {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

// Load queries the OS interface table once and returns the snapshot.
// Addresses that are not IP networks are skipped.
func Load() (*Snapshot, error) {
	ifs, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	var records []Record
	for _, ifi := range ifs {
		addrs, err := ifi.Addrs()
		if err != nil {
			debugLog("interface %s: addrs failed: %v", ifi.Name, err)
			continue
		}
		for _, a := range addrs {
			rec, ok := fromAddr(ifi, a)
			if !ok {
				debugLog("interface %s: skipping address %v", ifi.Name, a)
				continue
			}
			records = append(records, rec)
		}
	}

	debugLog("captured %d interface addresses from %d interfaces", len(records), len(ifs))
	return &Snapshot{records: records}, nil
}

func fromAddr(ifi net.Interface, a net.Addr) (Record, bool) {
	ipnet, ok := a.(*net.IPNet)
	if !ok || ipnet.IP == nil || ipnet.Mask == nil {
		return Record{}, false
	}
	addr, err := network.AddrFromIP(ipnet.IP)
	if err != nil {
		return Record{}, false
	}
	mask, err := network.MaskFor(addr, ipnet.Mask)
	if err != nil {
		return Record{}, false
	}
	if mask.Family() != addr.Family() {
		return Record{}, false
	}
	return Record{
		Name:   ifi.Name,
		Family: addr.Family(),
		Addr:   addr,
		Mask:   mask,
		Flags:  ifi.Flags,
	}, true
}
