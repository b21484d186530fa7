package icmp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/marcuoli/go-netscout/pkg/netscout/network"
	xicmp "golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// DebugLogger is called for debug messages if set.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// maxDatagram bounds a single read from the raw socket.
const maxDatagram = 1500

// Verdict is the outcome of one probe.
type Verdict int

const (
	// VerdictNoReply means nothing arrived before the deadline.
	VerdictNoReply Verdict = iota
	// VerdictReply means an inbound datagram was accepted as the reply.
	VerdictReply
	// VerdictError means the probe could not be sent or the receive failed.
	VerdictError
)

func (v Verdict) String() string {
	switch v {
	case VerdictReply:
		return "reply"
	case VerdictNoReply:
		return "no-reply"
	case VerdictError:
		return "error"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Result is the outcome of probing one destination.
type Result struct {
	Src     network.Addr
	Dst     network.Addr
	Verdict Verdict
	// From is the source of the accepted datagram. Without Correlate it can
	// differ from Dst.
	From  network.Addr
	RTT   time.Duration
	Error error
}

// Options configures a Prober.
type Options struct {
	// Timeout bounds the wait for a reply. Zero blocks until a datagram
	// arrives or the context is cancelled.
	Timeout time.Duration
	// Correlate accepts only an echo reply from the destination that carries
	// this prober's identifier and sequence. Other datagrams are discarded
	// until the deadline. Without it the first datagram of any kind counts.
	Correlate bool
	// Checksum selects the ICMP checksum mode.
	Checksum ChecksumMode
	// ID is the echo identifier.
	ID int
}

// DefaultOptions returns the defaults: blocking receive, no correlation,
// standard checksum, identifier zero.
func DefaultOptions() Options {
	return Options{Checksum: ChecksumStandard}
}

// rawConn is the subset of *ipv4.RawConn used by Prober.
type rawConn interface {
	WriteTo(h *ipv4.Header, p []byte, cm *ipv4.ControlMessage) error
	ReadFrom(b []byte) (*ipv4.Header, []byte, *ipv4.ControlMessage, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Prober owns one raw ICMP socket. Probes on the same Prober are serialized:
// a send and its receive always run as a pair.
type Prober struct {
	mu   sync.Mutex
	conn rawConn
	opts Options
	seq  int
	buf  []byte
}

// Open opens the raw socket with SO_BROADCAST and header inclusion enabled.
// Failures are returned as *SetupError; permission failures also match
// ErrPrivilege.
func Open(opts Options) (*Prober, error) {
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("negative timeout %s", opts.Timeout)
	}
	if opts.ID < 0 || opts.ID > 0xffff {
		return nil, fmt.Errorf("echo id %d out of range", opts.ID)
	}
	conn, err := openRaw(context.Background())
	if err != nil {
		return nil, err
	}
	debugLog("opened raw socket (timeout=%s correlate=%v checksum=%s)", opts.Timeout, opts.Correlate, opts.Checksum)
	return newProber(conn, opts), nil
}

func newProber(conn rawConn, opts Options) *Prober {
	return &Prober{conn: conn, opts: opts, buf: make([]byte, maxDatagram)}
}

// Options returns the options the prober was opened with.
func (p *Prober) Options() Options {
	return p.opts
}

// Close releases the socket. It is safe to call more than once.
func (p *Prober) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

// nextSeq returns the sequence number for the next probe. Uncorrelated probes
// always carry zero.
func (p *Prober) nextSeq() int {
	if !p.opts.Correlate {
		return 0
	}
	p.seq = (p.seq + 1) & 0xffff
	return p.seq
}

// Probe sends one echo request from src to dst and waits for one inbound
// datagram.
//
// A timeout yields VerdictNoReply with a nil error. A failed send yields
// VerdictError together with a *SendError. Context cancellation interrupts a
// pending receive and returns the context's error.
func (p *Prober) Probe(ctx context.Context, src, dst network.Addr) (*Result, error) {
	if !src.Is4() || !dst.Is4() {
		return nil, fmt.Errorf("%w: probe %s -> %s", network.ErrFamilyNotSupported, src, dst)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seq := p.nextSeq()
	pkt, err := BuildPacket(src, dst, PacketOptions{ID: p.opts.ID, Seq: seq, Checksum: p.opts.Checksum})
	if err != nil {
		return nil, err
	}

	res := &Result{Src: src, Dst: dst}

	var deadline time.Time
	if p.opts.Timeout > 0 {
		deadline = time.Now().Add(p.opts.Timeout)
	}
	if err := p.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	start := time.Now()
	if err := p.conn.WriteTo(pkt.Header, pkt.ICMP, nil); err != nil {
		serr := &SendError{Dst: dst, Err: err}
		res.Verdict = VerdictError
		res.Error = serr
		debugLog("send %s -> %s failed: %v", src, dst, err)
		return res, serr
	}
	debugLog("sent echo %s -> %s id=%d seq=%d", src, dst, p.opts.ID, seq)

	// Cancellation pulls the deadline into the past to unblock ReadFrom.
	conn := p.conn
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	for {
		h, payload, _, err := p.conn.ReadFrom(p.buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				res.Verdict = VerdictNoReply
				debugLog("no reply from %s within %s", dst, p.opts.Timeout)
				return res, nil
			}
			rerr := fmt.Errorf("receive: %w", err)
			res.Verdict = VerdictError
			res.Error = rerr
			return res, rerr
		}

		if p.opts.Correlate && !p.matches(h, payload, dst, seq) {
			debugLog("discarding unrelated datagram while waiting for %s", dst)
			continue
		}

		res.Verdict = VerdictReply
		res.RTT = time.Since(start)
		if h != nil {
			res.From, _ = network.AddrFromIP(h.Src)
		}
		debugLog("reply for %s from %s in %s", dst, res.From, res.RTT)
		return res, nil
	}
}

// matches reports whether a datagram is the echo reply to our probe.
func (p *Prober) matches(h *ipv4.Header, payload []byte, dst network.Addr, seq int) bool {
	if h == nil || !h.Src.Equal(dst.IP()) {
		return false
	}
	m, err := xicmp.ParseMessage(ProtocolICMP, payload)
	if err != nil || m.Type != ipv4.ICMPTypeEchoReply {
		return false
	}
	echo, ok := m.Body.(*xicmp.Echo)
	if !ok {
		return false
	}
	return echo.ID == p.opts.ID&0xffff && echo.Seq == seq
}
