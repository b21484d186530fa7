// Package netscout: Scan error taxonomy.
package netscout

import (
	"errors"
	"fmt"

	"github.com/marcuoli/go-netscout/pkg/netscout/icmp"
	"github.com/marcuoli/go-netscout/pkg/netscout/network"
)

// Kind classifies a ScanError.
type Kind int

const (
	// KindConfig aborts the whole scan: the socket could not be set up, or
	// the options are invalid.
	KindConfig Kind = iota + 1
	// KindSend affects a single candidate; the sweep continues.
	KindSend
	// KindFamily marks a record skipped because its address family has no
	// arithmetic.
	KindFamily
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindSend:
		return "send"
	case KindFamily:
		return "family"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Errors
var (
	// ErrPrivilege matches setup failures caused by missing privileges.
	ErrPrivilege = icmp.ErrPrivilege
	// ErrNotSupported matches setup failures on platforms without raw sockets.
	ErrNotSupported = icmp.ErrNotSupported
	// ErrFamilyNotSupported matches records and probes for IPv6.
	ErrFamilyNotSupported = network.ErrFamilyNotSupported
	// ErrNilSnapshot is returned by Scan when no snapshot is given.
	ErrNilSnapshot = errors.New("nil interface snapshot")
)

// ScanError carries the context of a failure during a scan.
type ScanError struct {
	Kind      Kind
	Interface string
	Addr      network.Addr
	Err       error
}

func (e *ScanError) Error() string {
	msg := e.Kind.String()
	if e.Interface != "" {
		msg += " " + e.Interface
	}
	if e.Addr.IsValid() {
		msg += " " + e.Addr.String()
	}
	return msg + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error { return e.Err }

// IsConfigError reports whether err aborted a scan.
func IsConfigError(err error) bool {
	var se *ScanError
	return errors.As(err, &se) && se.Kind == KindConfig
}

func configError(err error) *ScanError {
	return &ScanError{Kind: KindConfig, Err: err}
}
