//go:build !unix

package icmp

import (
	"context"

	"golang.org/x/net/ipv4"
)

// openRaw is not supported outside unix: raw sockets there cannot carry a
// caller-built IP header.
func openRaw(ctx context.Context) (*ipv4.RawConn, error) {
	return nil, &SetupError{Op: "open raw socket", Err: ErrNotSupported}
}
