//go:build unix

package icmp

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// openRaw opens an ip4:icmp socket with SO_BROADCAST set and wraps it in an
// ipv4.RawConn, which turns on IP_HDRINCL.
func openRaw(ctx context.Context) (*ipv4.RawConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var serr error
			if err := c.Control(func(fd uintptr) {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
			}); err != nil {
				return err
			}
			if serr != nil {
				return fmt.Errorf("SO_BROADCAST: %w", serr)
			}
			return nil
		},
	}

	pc, err := lc.ListenPacket(ctx, "ip4:icmp", "0.0.0.0")
	if err != nil {
		return nil, &SetupError{Op: "open raw socket", Err: err}
	}

	rc, err := ipv4.NewRawConn(pc)
	if err != nil {
		pc.Close()
		return nil, &SetupError{Op: "enable IP_HDRINCL", Err: err}
	}
	return rc, nil
}
