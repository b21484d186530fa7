package icmp

import (
	"errors"
	"os"

	"github.com/marcuoli/go-netscout/pkg/netscout/network"
)

// Errors
var (
	// ErrPrivilege means the raw socket could not be opened or configured for
	// lack of privilege (root or CAP_NET_RAW).
	ErrPrivilege = errors.New("raw ICMP socket requires elevated privileges")
	// ErrNotSupported is returned by Open on platforms without raw IPv4 sockets.
	ErrNotSupported = errors.New("raw ICMP probing not supported on this platform")
	// ErrClosed is returned by Probe after Close.
	ErrClosed = errors.New("prober is closed")
)

// SetupError reports a failure to open or configure the raw socket.
// It is a configuration error: no probe can succeed after it.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return "icmp setup: " + e.Op + ": " + e.Err.Error()
}

func (e *SetupError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPrivilege) match permission failures.
func (e *SetupError) Is(target error) bool {
	return target == ErrPrivilege && errors.Is(e.Err, os.ErrPermission)
}

// SendError reports a failed transmission to one destination. The sweep
// can continue with the next candidate.
type SendError struct {
	Dst network.Addr
	Err error
}

func (e *SendError) Error() string {
	return "icmp send to " + e.Dst.String() + ": " + e.Err.Error()
}

func (e *SendError) Unwrap() error { return e.Err }

// IsSetupError reports whether err came from socket setup.
func IsSetupError(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}
