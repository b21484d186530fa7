// Package icmp builds and sends hand-crafted IPv4 ICMP echo requests over a
// raw socket with header inclusion, and waits for a reply.
package icmp

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/marcuoli/go-netscout/pkg/netscout/network"
	xicmp "golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// Wire constants for every probe datagram.
const (
	// PacketSize is the total datagram length, IP header included.
	PacketSize = 400
	// EchoHeaderLen is the ICMP echo header length (type, code, checksum, id, seq).
	EchoHeaderLen = 8
	// PayloadLen is the zero padding carried after the echo header.
	PayloadLen = PacketSize - ipv4.HeaderLen - EchoHeaderLen

	// TTL of every probe.
	TTL = 255
	// Identification is the fixed IP identification field.
	Identification = 54321
	// ProtocolICMP is the IANA protocol number placed in the IP header.
	ProtocolICMP = 1
)

// ChecksumMode selects how the ICMP checksum field is filled.
type ChecksumMode int

const (
	// ChecksumStandard is the RFC 1071 one's-complement checksum over the
	// whole ICMP message.
	ChecksumStandard ChecksumMode = iota
	// ChecksumLegacy writes the complement of the message type shifted into
	// the high byte, ignoring the rest of the message. It matches the real
	// checksum only for an all-zero echo body; any other packet carries a bad
	// checksum and may be dropped by the receiver.
	ChecksumLegacy
)

func (m ChecksumMode) String() string {
	switch m {
	case ChecksumStandard:
		return "standard"
	case ChecksumLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("ChecksumMode(%d)", int(m))
	}
}

// ParseChecksumMode parses "standard" or "legacy" (case-insensitive).
// The empty string selects ChecksumStandard.
func ParseChecksumMode(s string) (ChecksumMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "rfc1071":
		return ChecksumStandard, nil
	case "legacy", "fixed":
		return ChecksumLegacy, nil
	default:
		return 0, fmt.Errorf("unknown checksum mode %q", s)
	}
}

// PacketOptions are the per-probe fields of the echo request.
type PacketOptions struct {
	ID       int
	Seq      int
	Checksum ChecksumMode
}

// Packet is a built probe: the IPv4 header and the ICMP message that follows it.
type Packet struct {
	Header *ipv4.Header
	ICMP   []byte
}

// Bytes returns the full wire datagram, header first.
func (p *Packet) Bytes() ([]byte, error) {
	hb, err := p.Header.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal ip header: %w", err)
	}
	return append(hb, p.ICMP...), nil
}

// Checksum returns the RFC 1071 Internet checksum of data.
func Checksum(data []byte) uint16 {
	sum := uint32(0)

	for len(data) > 1 {
		sum += uint32(binary.BigEndian.Uint16(data))
		data = data[2:]
	}

	if len(data) > 0 {
		sum += uint32(data[0]) << 8
	}

	for (sum >> 16) > 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}

	return ^uint16(sum)
}

// LegacyChecksum is the fixed checksum value written in ChecksumLegacy mode.
func LegacyChecksum() uint16 {
	return ^(uint16(ipv4.ICMPTypeEcho) << 8)
}

// BuildPacket builds the echo request datagram from src to dst.
func BuildPacket(src, dst network.Addr, opts PacketOptions) (*Packet, error) {
	if !src.Is4() || !dst.Is4() {
		return nil, fmt.Errorf("%w: build packet %s -> %s", network.ErrFamilyNotSupported, src, dst)
	}
	if opts.ID < 0 || opts.ID > 0xffff || opts.Seq < 0 || opts.Seq > 0xffff {
		return nil, fmt.Errorf("echo id %d / seq %d out of range", opts.ID, opts.Seq)
	}

	msg := xicmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &xicmp.Echo{
			ID:   opts.ID,
			Seq:  opts.Seq,
			Data: make([]byte, PayloadLen),
		},
	}
	// Marshal fills in the standard checksum
	b, err := msg.Marshal(nil)
	if err != nil {
		return nil, fmt.Errorf("marshal icmp message: %w", err)
	}

	switch opts.Checksum {
	case ChecksumStandard:
	case ChecksumLegacy:
		binary.BigEndian.PutUint16(b[2:4], LegacyChecksum())
	default:
		return nil, fmt.Errorf("unknown checksum mode %d", opts.Checksum)
	}

	// Checksum stays zero: with IP_HDRINCL the kernel fills it in.
	h := &ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4.HeaderLen,
		TOS:      0,
		TotalLen: PacketSize,
		ID:       Identification,
		TTL:      TTL,
		Protocol: ProtocolICMP,
		Src:      src.IP(),
		Dst:      dst.IP(),
	}

	return &Packet{Header: h, ICMP: b}, nil
}
