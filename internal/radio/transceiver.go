package radio

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

var (
	// ErrNotPresent is returned by Begin when no modem answers.
	ErrNotPresent = errors.New("radio: module not present")
	// ErrNotReady is returned when the transceiver was never initialized.
	ErrNotReady = errors.New("radio: not initialized")
	ErrClosed   = errors.New("radio: closed")
)

// Params are the modem settings applied at Begin.
type Params struct {
	FrequencyHz     int64
	TxPowerDBm      int
	SpreadingFactor int
	BandwidthHz     int64
	CodingRate      int
}

func (p Params) String() string {
	return fmt.Sprintf("%.1fMHz SF%d BW%.0fkHz CR4/%d %ddBm",
		float64(p.FrequencyHz)/1e6, p.SpreadingFactor, float64(p.BandwidthHz)/1e3, p.CodingRate, p.TxPowerDBm)
}

// Transceiver is a LoRa modem driver. Poll never blocks for long: it returns
// ok=false when nothing is pending.
type Transceiver interface {
	Begin(ctx context.Context, p Params) error
	Send(ctx context.Context, frame []byte) error
	Poll() (frame []byte, ok bool, err error)
	Close() error
}

// Null is the driver for a gateway without a modem.
type Null struct{}

func (Null) Begin(context.Context, Params) error { return ErrNotPresent }
func (Null) Send(context.Context, []byte) error  { return ErrNotReady }
func (Null) Poll() ([]byte, bool, error)         { return nil, false, nil }
func (Null) Close() error                        { return nil }

// Loopback is an in-memory modem. Frames passed to Inject are received by
// Poll; sent frames are recorded and, with Echo set, received back.
type Loopback struct {
	Echo bool

	mu      sync.Mutex
	begun   bool
	params  Params
	pending [][]byte
	sent    [][]byte
}

func NewLoopback() *Loopback { return &Loopback{} }

func (l *Loopback) Begin(_ context.Context, p Params) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.begun = true
	l.params = p
	return nil
}

func (l *Loopback) Send(_ context.Context, frame []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.begun {
		return ErrNotReady
	}
	cp := append([]byte(nil), frame...)
	l.sent = append(l.sent, cp)
	if l.Echo {
		l.pending = append(l.pending, cp)
	}
	return nil
}

func (l *Loopback) Poll() ([]byte, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil, false, nil
	}
	f := l.pending[0]
	l.pending = l.pending[1:]
	return f, true, nil
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.begun = false
	return nil
}

// Inject queues a frame as if it had been received over the air.
func (l *Loopback) Inject(frame []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, append([]byte(nil), frame...))
}

// Sent returns copies of every transmitted frame.
func (l *Loopback) Sent() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.sent))
	copy(out, l.sent)
	return out
}

// Params returns the parameters passed to Begin.
func (l *Loopback) Params() Params {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params
}

const maxFrame = 255

// UDPTransceiver talks to a modem or packet forwarder over UDP: every
// datagram is one LoRa frame. Frames are sent to RemoteAddr, or to the last
// peer heard from when RemoteAddr is empty.
type UDPTransceiver struct {
	ListenAddr string
	RemoteAddr string

	mu     sync.Mutex
	conn   *net.UDPConn
	remote *net.UDPAddr
	buf    [maxFrame + 1]byte
}

func NewUDPTransceiver(listen, remote string) *UDPTransceiver {
	return &UDPTransceiver{ListenAddr: listen, RemoteAddr: remote}
}

func (u *UDPTransceiver) Begin(ctx context.Context, _ Params) error {
	laddr, err := net.ResolveUDPAddr("udp", u.ListenAddr)
	if err != nil {
		return fmt.Errorf("radio: listen address: %w", err)
	}
	var raddr *net.UDPAddr
	if u.RemoteAddr != "" {
		if raddr, err = net.ResolveUDPAddr("udp", u.RemoteAddr); err != nil {
			return fmt.Errorf("radio: remote address: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotPresent, err)
	}
	u.mu.Lock()
	u.conn, u.remote = conn, raddr
	u.mu.Unlock()
	return nil
}

// LocalAddr returns the bound address once Begin succeeded.
func (u *UDPTransceiver) LocalAddr() net.Addr {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil
	}
	return u.conn.LocalAddr()
}

func (u *UDPTransceiver) Send(ctx context.Context, frame []byte) error {
	if len(frame) > maxFrame {
		return fmt.Errorf("radio: frame of %d bytes exceeds %d", len(frame), maxFrame)
	}
	u.mu.Lock()
	conn, remote := u.conn, u.remote
	u.mu.Unlock()
	if conn == nil {
		return ErrNotReady
	}
	if remote == nil {
		return errors.New("radio: no peer to send to")
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(dl)
		defer conn.SetWriteDeadline(time.Time{})
	}
	_, err := conn.WriteToUDP(frame, remote)
	return err
}

func (u *UDPTransceiver) Poll() ([]byte, bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil, false, ErrNotReady
	}
	if err := u.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return nil, false, err
	}
	n, from, err := u.conn.ReadFromUDP(u.buf[:])
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, false, nil
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, false, ErrClosed
		}
		return nil, false, err
	}
	if u.RemoteAddr == "" {
		u.remote = from
	}
	return append([]byte(nil), u.buf[:n]...), true, nil
}

func (u *UDPTransceiver) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	return err
}
