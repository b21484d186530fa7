// Package network provides fixed-width address arithmetic, subnet range
// derivation and host enumeration for directly-connected networks.
//
// Only IPv4 arithmetic is implemented. IPv6 values can be represented and
// carried around, but every arithmetic operation on them returns
// ErrFamilyNotSupported so callers never mistake an inert result for a real
// (empty) subnet.
package network

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// Family identifies the address family of an Addr.
type Family uint8

const (
	// FamilyUnknown is the zero value and marks an invalid Addr.
	FamilyUnknown Family = iota
	// IPv4 addresses are 4 bytes wide and fully supported.
	IPv4
	// IPv6 addresses are 16 bytes wide; arithmetic is not supported.
	IPv6
)

// Errors
var (
	// ErrFamilyNotSupported is returned for arithmetic on a family without an implementation.
	ErrFamilyNotSupported = errors.New("address family not supported")
	// ErrFamilyMismatch is returned when two operands belong to different families.
	ErrFamilyMismatch = errors.New("address family mismatch")
	// ErrUnknownFamily is returned for the zero Addr or an unrecognized family.
	ErrUnknownFamily = errors.New("unknown address family")
	// ErrInvalidAddr is returned by constructors for malformed input.
	ErrInvalidAddr = errors.New("invalid address")
)

// Len returns the byte width of addresses in the family.
func (f Family) Len() int {
	switch f {
	case IPv4:
		return net.IPv4len
	case IPv6:
		return net.IPv6len
	default:
		return 0
	}
}

func (f Family) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// Addr is an immutable network address tagged with its family.
// Only the first Family.Len() bytes of the backing array are meaningful.
type Addr struct {
	fam Family
	b   [net.IPv6len]byte
}

// AddrFrom4 returns the IPv4 address a.b.c.d.
func AddrFrom4(b [4]byte) Addr {
	a := Addr{fam: IPv4}
	copy(a.b[:], b[:])
	return a
}

// AddrFrom16 returns an IPv6 address. It is never unmapped to IPv4.
func AddrFrom16(b [16]byte) Addr {
	return Addr{fam: IPv6, b: b}
}

// AddrFromUint32 returns the IPv4 address whose big-endian value is u.
func AddrFromUint32(u uint32) Addr {
	return AddrFrom4([4]byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)})
}

// AddrFromIP converts a net.IP. IPv4-mapped IPv6 values become IPv4.
func AddrFromIP(ip net.IP) (Addr, error) {
	if ip4 := ip.To4(); ip4 != nil {
		return AddrFrom4([4]byte(ip4)), nil
	}
	if len(ip) == net.IPv6len {
		return AddrFrom16([16]byte(ip)), nil
	}
	return Addr{}, fmt.Errorf("%w: %v", ErrInvalidAddr, ip)
}

// AddrFromMask converts a net.IPMask. A 4-byte mask is IPv4 and a 16-byte
// mask is IPv6; use MaskFor when the address family is known.
func AddrFromMask(m net.IPMask) (Addr, error) {
	switch len(m) {
	case net.IPv4len:
		return AddrFrom4([4]byte(m)), nil
	case net.IPv6len:
		return AddrFrom16([16]byte(m)), nil
	default:
		return Addr{}, fmt.Errorf("%w: mask length %d", ErrInvalidAddr, len(m))
	}
}

// MaskFor converts m into a mask of addr's family. net.Interface masks for
// IPv4 addresses can be 16 bytes long; those are taken from the last four.
func MaskFor(addr Addr, m net.IPMask) (Addr, error) {
	if addr.Is4() && len(m) == net.IPv6len && isV4InV6Mask(m) {
		return AddrFrom4([4]byte(m[12:])), nil
	}
	return AddrFromMask(m)
}

func isV4InV6Mask(m net.IPMask) bool {
	for _, b := range m[:12] {
		if b != 0xff {
			return false
		}
	}
	return true
}

// ParseAddr parses a dotted-quad IPv4 or textual IPv6 address.
func ParseAddr(s string) (Addr, error) {
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return Addr{}, fmt.Errorf("%w: %q", ErrInvalidAddr, s)
	}
	if ip.Is4() || ip.Is4In6() {
		return AddrFrom4(ip.Unmap().As4()), nil
	}
	return AddrFrom16(ip.As16()), nil
}

// MustParseAddr is like ParseAddr but panics on error. Intended for tests and constants.
func MustParseAddr(s string) Addr {
	a, err := ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Family returns the address family.
func (a Addr) Family() Family { return a.fam }

// IsValid reports whether a was produced by a constructor.
func (a Addr) IsValid() bool { return a.fam != FamilyUnknown }

// Is4 reports whether a is an IPv4 address.
func (a Addr) Is4() bool { return a.fam == IPv4 }

// Bytes returns a copy of the meaningful address bytes.
func (a Addr) Bytes() []byte {
	out := make([]byte, a.fam.Len())
	copy(out, a.b[:])
	return out
}

// As4 returns the IPv4 octets. It panics if a is not IPv4.
func (a Addr) As4() [4]byte {
	if a.fam != IPv4 {
		panic("network: As4 called on " + a.fam.String() + " address")
	}
	return [4]byte(a.b[:4])
}

// Uint32 returns the big-endian value of an IPv4 address. It panics if a is not IPv4.
func (a Addr) Uint32() uint32 {
	b := a.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// IP returns the address as a net.IP (nil for the zero Addr).
func (a Addr) IP() net.IP {
	switch a.fam {
	case IPv4:
		return net.IPv4(a.b[0], a.b[1], a.b[2], a.b[3]).To4()
	case IPv6:
		return net.IP(a.Bytes())
	default:
		return nil
	}
}

func (a Addr) String() string {
	switch a.fam {
	case IPv4:
		return netip.AddrFrom4(a.As4()).String()
	case IPv6:
		return netip.AddrFrom16(a.b).String()
	default:
		return "invalid"
	}
}
