package network

import (
	"fmt"
	"iter"
)

// Range is the (network, broadcast) pair of a subnet. Network <= Broadcast.
type Range struct {
	Network   Addr
	Broadcast Addr
}

// RangeOf derives the subnet range containing addr under mask.
func RangeOf(addr, mask Addr) (Range, error) {
	arith := addr.fam.Arithmetic()
	nw, err := arith.Network(addr, mask)
	if err != nil {
		return Range{}, err
	}
	bc, err := arith.Broadcast(addr, mask)
	if err != nil {
		return Range{}, err
	}
	return Range{Network: nw, Broadcast: bc}, nil
}

// Size returns the number of usable host addresses, excluding network and
// broadcast. /31 and /32 ranges have none.
func (r Range) Size() int {
	if !r.Network.Is4() || !r.Broadcast.Is4() {
		return 0
	}
	n, b := r.Network.Uint32(), r.Broadcast.Uint32()
	if b <= n+1 || n+1 == 0 {
		return 0
	}
	return int(b - n - 1)
}

// Contains reports whether a lies strictly between network and broadcast.
func (r Range) Contains(a Addr) bool {
	lo, err := Compare(a, r.Network)
	if err != nil || lo <= 0 {
		return false
	}
	hi, err := Compare(a, r.Broadcast)
	return err == nil && hi < 0
}

// Hosts returns a lazy sequence of every host address in the range, in
// ascending order. It starts at network+1 and stops before broadcast, so
// neither endpoint is ever yielded. The sequence can be ranged over any
// number of times.
func (r Range) Hosts() iter.Seq[Addr] {
	return func(yield func(Addr) bool) {
		cand, err := Increment(r.Network, 1)
		if err != nil {
			return
		}
		for {
			c, err := Compare(cand, r.Broadcast)
			if err != nil || c >= 0 {
				return
			}
			// network+1 wrapped past the top of the address space
			if cand.Uint32() == 0 {
				return
			}
			if !yield(cand) {
				return
			}
			if cand, err = Increment(cand, 1); err != nil {
				return
			}
		}
	}
}

// HostList collects Hosts into a slice.
func (r Range) HostList() []Addr {
	out := make([]Addr, 0, r.Size())
	for a := range r.Hosts() {
		out = append(out, a)
	}
	return out
}

// String formats the range as network/prefix when the mask is contiguous,
// otherwise as network-broadcast.
func (r Range) String() string {
	if r.Network.Is4() && r.Broadcast.Is4() {
		mask := AddrFromUint32(^(r.Broadcast.Uint32() ^ r.Network.Uint32()))
		if bits, ok := MaskBits(mask); ok {
			return fmt.Sprintf("%s/%d", r.Network, bits)
		}
	}
	return r.Network.String() + "-" + r.Broadcast.String()
}
