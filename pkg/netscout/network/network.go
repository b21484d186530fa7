package network

import (
	"net"
)

// EnumerateIPs returns all usable host IPs in a CIDR (excludes network and broadcast).
func EnumerateIPs(cidr string) ([]net.IP, error) {
	r, err := ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	res := make([]net.IP, 0, r.Size())
	for a := range r.Hosts() {
		res = append(res, a.IP())
	}
	return res, nil
}

// EnumerateIPStrings returns all usable host IPs in a CIDR as strings.
func EnumerateIPStrings(cidr string) ([]string, error) {
	r, err := ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, r.Size())
	for a := range r.Hosts() {
		res = append(res, a.String())
	}
	return res, nil
}

// ParseCIDR parses a CIDR string into its subnet range.
// IPv6 prefixes parse but yield ErrFamilyNotSupported.
func ParseCIDR(cidr string) (Range, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return Range{}, err
	}
	addr, err := AddrFromIP(ip)
	if err != nil {
		return Range{}, err
	}
	mask, err := MaskFor(addr, ipnet.Mask)
	if err != nil {
		return Range{}, err
	}
	return RangeOf(addr, mask)
}

// IsPrivateIP checks if an address is in private (RFC 1918) address space.
func IsPrivateIP(a Addr) bool {
	if !a.Is4() {
		return false
	}
	b := a.As4()
	return b[0] == 10 || // 10.0.0.0/8
		(b[0] == 172 && b[1] >= 16 && b[1] <= 31) || // 172.16.0.0/12
		(b[0] == 192 && b[1] == 168) // 192.168.0.0/16
}

// IsLoopback checks if an address is a loopback address.
func IsLoopback(a Addr) bool {
	return a.IP().IsLoopback()
}
