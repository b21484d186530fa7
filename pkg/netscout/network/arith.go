package network

import (
	"cmp"
	"fmt"
)

// Arithmetic is the per-family address arithmetic capability.
type Arithmetic interface {
	// Network returns addr AND mask.
	Network(addr, mask Addr) (Addr, error)
	// Broadcast returns (addr AND mask) OR (NOT mask).
	Broadcast(addr, mask Addr) (Addr, error)
	// Compare orders a and b by unsigned big-endian value: -1, 0 or +1 when
	// a is less than, equal to or greater than b.
	Compare(a, b Addr) (int, error)
	// Increment adds delta to addr. Carry out of the top octet is dropped.
	Increment(addr Addr, delta uint32) (Addr, error)
}

// Arithmetic returns the implementation for f.
func (f Family) Arithmetic() Arithmetic {
	switch f {
	case IPv4:
		return ipv4Arith{}
	case IPv6:
		return unsupportedArith{fam: IPv6}
	default:
		return unsupportedArith{fam: f}
	}
}

type ipv4Arith struct{}

func (ipv4Arith) Network(addr, mask Addr) (Addr, error) {
	if err := sameFamily(IPv4, addr, mask); err != nil {
		return Addr{}, err
	}
	return AddrFromUint32(addr.Uint32() & mask.Uint32()), nil
}

func (ipv4Arith) Broadcast(addr, mask Addr) (Addr, error) {
	if err := sameFamily(IPv4, addr, mask); err != nil {
		return Addr{}, err
	}
	m := mask.Uint32()
	return AddrFromUint32(addr.Uint32()&m | ^m), nil
}

func (ipv4Arith) Compare(a, b Addr) (int, error) {
	if err := sameFamily(IPv4, a, b); err != nil {
		return 0, err
	}
	return cmp.Compare(a.Uint32(), b.Uint32()), nil
}

func (ipv4Arith) Increment(addr Addr, delta uint32) (Addr, error) {
	if err := sameFamily(IPv4, addr); err != nil {
		return Addr{}, err
	}
	// uint32 addition carries across octets and wraps at 2^32
	return AddrFromUint32(addr.Uint32() + delta), nil
}

type unsupportedArith struct {
	fam Family
}

func (u unsupportedArith) err() error {
	if u.fam == IPv6 {
		return fmt.Errorf("%w: %s", ErrFamilyNotSupported, u.fam)
	}
	return ErrUnknownFamily
}

func (u unsupportedArith) Network(Addr, Addr) (Addr, error)   { return Addr{}, u.err() }
func (u unsupportedArith) Broadcast(Addr, Addr) (Addr, error) { return Addr{}, u.err() }
func (u unsupportedArith) Compare(Addr, Addr) (int, error)    { return 0, u.err() }
func (u unsupportedArith) Increment(Addr, uint32) (Addr, error) {
	return Addr{}, u.err()
}

func sameFamily(want Family, addrs ...Addr) error {
	for _, a := range addrs {
		if a.fam != want {
			return fmt.Errorf("%w: want %s, got %s", ErrFamilyMismatch, want, a.fam)
		}
	}
	return nil
}

// DeriveNetwork returns the network address of addr under mask.
func DeriveNetwork(addr, mask Addr) (Addr, error) {
	return addr.fam.Arithmetic().Network(addr, mask)
}

// DeriveBroadcast returns the broadcast address of addr under mask.
func DeriveBroadcast(addr, mask Addr) (Addr, error) {
	return addr.fam.Arithmetic().Broadcast(addr, mask)
}

// Compare orders a and b by value. See Arithmetic.Compare.
func Compare(a, b Addr) (int, error) {
	return a.fam.Arithmetic().Compare(a, b)
}

// Increment returns addr + delta. See Arithmetic.Increment.
func Increment(addr Addr, delta uint32) (Addr, error) {
	return addr.fam.Arithmetic().Increment(addr, delta)
}

// MaskBits returns the prefix length of a contiguous IPv4 mask.
// ok is false for non-contiguous masks or non-IPv4 values.
func MaskBits(mask Addr) (bits int, ok bool) {
	if !mask.Is4() {
		return 0, false
	}
	m := mask.Uint32()
	for m&0x80000000 != 0 {
		bits++
		m <<= 1
	}
	return bits, m == 0
}
