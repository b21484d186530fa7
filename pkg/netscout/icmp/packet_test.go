package icmp

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"

	"github.com/marcuoli/go-netscout/pkg/netscout/network"
	xicmp "golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

var (
	testSrc = network.MustParseAddr("192.168.1.10")
	testDst = network.MustParseAddr("192.168.1.20")
)

func TestBuildPacket_Layout(t *testing.T) {
	p, err := BuildPacket(testSrc, testDst, PacketOptions{ID: 0x1234, Seq: 7})
	if err != nil {
		t.Fatalf("BuildPacket failed: %v", err)
	}

	b, err := p.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if len(b) != PacketSize {
		t.Fatalf("datagram length = %d, want %d", len(b), PacketSize)
	}

	h, err := ipv4.ParseHeader(b[:ipv4.HeaderLen])
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if h.Version != 4 || h.Len != 20 {
		t.Errorf("version/IHL = %d/%d, want 4/20", h.Version, h.Len)
	}
	// some BSDs keep TotalLen in host order on the wire, so check the header value
	if p.Header.TotalLen != 400 {
		t.Errorf("TotalLen = %d, want 400", p.Header.TotalLen)
	}
	if h.ID != 54321 {
		t.Errorf("ID = %d, want 54321", h.ID)
	}
	if h.TTL != 255 {
		t.Errorf("TTL = %d, want 255", h.TTL)
	}
	if p.Header.Checksum != 0 || h.Checksum != 0 {
		t.Errorf("IP header checksum = %#x, want 0 for the kernel to fill in", h.Checksum)
	}
	if h.Protocol != 1 {
		t.Errorf("Protocol = %d, want 1", h.Protocol)
	}
	if !h.Src.Equal(net.ParseIP("192.168.1.10")) || !h.Dst.Equal(net.ParseIP("192.168.1.20")) {
		t.Errorf("src/dst = %v/%v", h.Src, h.Dst)
	}

	m := b[ipv4.HeaderLen:]
	if len(m) != EchoHeaderLen+PayloadLen {
		t.Fatalf("icmp length = %d, want %d", len(m), EchoHeaderLen+PayloadLen)
	}
	if m[0] != 8 || m[1] != 0 {
		t.Errorf("type/code = %d/%d, want 8/0", m[0], m[1])
	}
	if id := binary.BigEndian.Uint16(m[4:6]); id != 0x1234 {
		t.Errorf("identifier = %#x, want 0x1234", id)
	}
	if seq := binary.BigEndian.Uint16(m[6:8]); seq != 7 {
		t.Errorf("sequence = %d, want 7", seq)
	}
	for i, c := range m[EchoHeaderLen:] {
		if c != 0 {
			t.Fatalf("padding byte %d = %#x, want 0", i, c)
		}
	}
}

func TestBuildPacket_ParsesAsEcho(t *testing.T) {
	p, err := BuildPacket(testSrc, testDst, PacketOptions{ID: 42, Seq: 3})
	if err != nil {
		t.Fatalf("BuildPacket failed: %v", err)
	}
	msg, err := xicmp.ParseMessage(ProtocolICMP, p.ICMP)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if msg.Type != ipv4.ICMPTypeEcho {
		t.Fatalf("type = %v, want echo", msg.Type)
	}
	echo, ok := msg.Body.(*xicmp.Echo)
	if !ok {
		t.Fatalf("body is %T, want *icmp.Echo", msg.Body)
	}
	if echo.ID != 42 || echo.Seq != 3 || len(echo.Data) != PayloadLen {
		t.Errorf("echo = id %d seq %d data %d bytes", echo.ID, echo.Seq, len(echo.Data))
	}
}

func TestBuildPacket_StandardChecksumVerifies(t *testing.T) {
	opts := []PacketOptions{
		{},
		{ID: 1},
		{ID: 0xffff, Seq: 0xffff},
		{ID: 54321, Seq: 1000},
	}

	for _, o := range opts {
		p, err := BuildPacket(testSrc, testDst, o)
		if err != nil {
			t.Fatalf("BuildPacket(%+v) failed: %v", o, err)
		}
		// summing a message with a correct checksum in place yields zero
		if c := Checksum(p.ICMP); c != 0 {
			t.Errorf("opts %+v: checksum over message = %#x, want 0", o, c)
		}
	}
}

func TestBuildPacket_LegacyChecksum(t *testing.T) {
	if LegacyChecksum() != 0xF7FF {
		t.Fatalf("LegacyChecksum() = %#x, want 0xf7ff", LegacyChecksum())
	}

	// zero id and seq: the fixed value happens to be correct
	zero, err := BuildPacket(testSrc, testDst, PacketOptions{Checksum: ChecksumLegacy})
	if err != nil {
		t.Fatalf("BuildPacket failed: %v", err)
	}
	std, _ := BuildPacket(testSrc, testDst, PacketOptions{})
	if got := binary.BigEndian.Uint16(zero.ICMP[2:4]); got != 0xF7FF {
		t.Errorf("legacy checksum field = %#x, want 0xf7ff", got)
	}
	if binary.BigEndian.Uint16(std.ICMP[2:4]) != 0xF7FF {
		t.Errorf("standard checksum of an all-zero echo should equal the legacy value")
	}

	// anything else carries a wrong checksum
	p, err := BuildPacket(testSrc, testDst, PacketOptions{ID: 1, Seq: 1, Checksum: ChecksumLegacy})
	if err != nil {
		t.Fatalf("BuildPacket failed: %v", err)
	}
	if got := binary.BigEndian.Uint16(p.ICMP[2:4]); got != 0xF7FF {
		t.Errorf("legacy checksum field = %#x, want 0xf7ff", got)
	}
	if Checksum(p.ICMP) == 0 {
		t.Error("legacy checksum unexpectedly verifies for non-zero id/seq")
	}
}

func TestBuildPacket_Errors(t *testing.T) {
	v6 := network.MustParseAddr("fe80::1")

	if _, err := BuildPacket(testSrc, v6, PacketOptions{}); !errors.Is(err, network.ErrFamilyNotSupported) {
		t.Errorf("IPv6 dst: expected ErrFamilyNotSupported, got %v", err)
	}
	if _, err := BuildPacket(testSrc, testDst, PacketOptions{ID: 0x10000}); err == nil {
		t.Error("expected error for out-of-range id")
	}
	if _, err := BuildPacket(testSrc, testDst, PacketOptions{Seq: -1}); err == nil {
		t.Error("expected error for negative seq")
	}
	if _, err := BuildPacket(testSrc, testDst, PacketOptions{Checksum: ChecksumMode(9)}); err == nil {
		t.Error("expected error for unknown checksum mode")
	}
}

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"rfc1071 example", []byte{0x00, 0x01, 0xf2, 0x03, 0xf4, 0xf5, 0xf6, 0xf7}, 0x220d},
		{"odd length", []byte{0x01}, 0xfeff},
		{"empty", nil, 0xffff},
		{"echo header only", []byte{8, 0, 0, 0, 0, 0, 0, 0}, 0xf7ff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestParseChecksumMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ChecksumMode
		wantErr bool
	}{
		{"", ChecksumStandard, false},
		{"standard", ChecksumStandard, false},
		{"RFC1071", ChecksumStandard, false},
		{"Legacy", ChecksumLegacy, false},
		{"fixed", ChecksumLegacy, false},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChecksumMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChecksumMode(%q) error = %v", tt.in, err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseChecksumMode(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func BenchmarkBuildPacket(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = BuildPacket(testSrc, testDst, PacketOptions{Seq: i & 0xffff})
	}
}
