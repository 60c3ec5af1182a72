package radio

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/lorabridge/internal/eventlog"
)

type identity struct {
	site string
	num  int
}

func (i identity) SiteID() string    { return i.site }
func (i identity) DeviceNumber() int { return i.num }

type hub struct {
	mu   sync.Mutex
	msgs []string
}

func (h *hub) Broadcast(p []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, string(p))
	return 1
}

func (h *hub) all() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.msgs...)
}

func newService(t *testing.T, dev Transceiver) (*Service, *eventlog.Log, *hub) {
	t.Helper()
	events := eventlog.New(eventlog.Options{Capacity: 20})
	h := &hub{}
	s := NewService(ServiceOptions{
		Device:       dev,
		Identity:     identity{site: "north", num: 4},
		Events:       events,
		Hub:          h,
		PollInterval: 2 * time.Millisecond,
	})
	return s, events, h
}

func messages(l *eventlog.Log) []string {
	var out []string
	for _, r := range l.Snapshot() {
		out = append(out, r.Category.String()+" "+r.Message)
	}
	return out
}

func TestInitFailureWithNullDevice(t *testing.T) {
	s, events, _ := newService(t, Null{})
	assert.ErrorIs(t, s.Init(context.Background()), ErrNotPresent)
	assert.False(t, s.Ready())
	assert.Equal(t, []string{"SYSTEM " + MsgInitFailed}, messages(events))

	_, err := s.Send(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotReady)

	// Run returns straight away without a radio
	done := make(chan struct{})
	go func() { s.Run(context.Background()); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run blocked without a radio")
	}
}

func TestInitPassesParams(t *testing.T) {
	dev := NewLoopback()
	p := Params{FrequencyHz: 915_000_000, TxPowerDBm: 20, SpreadingFactor: 12, BandwidthHz: 125_000, CodingRate: 5}
	s := NewService(ServiceOptions{Device: dev, Params: p, Identity: identity{site: "s"}})
	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, p, dev.Params())
	assert.Equal(t, "915.0MHz SF12 BW125kHz CR4/5 20dBm", p.String())
}

func TestSendPrefixesSite(t *testing.T) {
	dev := NewLoopback()
	s, events, _ := newService(t, dev)
	require.NoError(t, s.Init(context.Background()))

	frame, err := s.Send(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "north:ping", frame)

	frame, err = s.Send(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "north:Hello from Device 4!", frame)

	sent := dev.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "north:ping", string(sent[0]))
	assert.Equal(t, []string{
		"SYSTEM " + MsgInitOK,
		"LoRa LoRa message sent: north:ping",
		"LoRa LoRa message sent: north:Hello from Device 4!",
	}, messages(events))
	assert.Equal(t, uint64(2), s.Stats().Sent)
}

func TestHandleFrame(t *testing.T) {
	s, events, h := newService(t, NewLoopback())

	s.HandleFrame([]byte("north:hello <b>"))
	s.HandleFrame([]byte("south:not for us"))
	s.HandleFrame([]byte("northern:nope"))

	assert.Equal(t, []string{"LoRa Received LoRa message: hello <b>"}, messages(events))
	assert.Equal(t, []string{`{"type":"loraMessage","message":"hello <b>"}`}, h.all())
	st := s.Stats()
	assert.Equal(t, uint64(1), st.Received)
	assert.Equal(t, uint64(2), st.Mismatched)
}

func TestHandleFrameLatin1(t *testing.T) {
	s, events, _ := newService(t, NewLoopback())
	s.HandleFrame([]byte("north:caf\xe9"))
	assert.Equal(t, []string{"LoRa Received LoRa message: café"}, messages(events))
}

func TestRunDispatchesReceivedFrames(t *testing.T) {
	dev := NewLoopback()
	s, _, h := newService(t, dev)
	require.NoError(t, s.Init(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	dev.Inject([]byte("north:one"))
	dev.Inject([]byte("north:two"))
	require.Eventually(t, func() bool { return len(h.all()) == 2 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, `{"type":"loraMessage","message":"two"}`, h.all()[1])

	cancel()
	<-done
}

func TestUDPTransceiverRoundTrip(t *testing.T) {
	peer, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer peer.Close()

	u := NewUDPTransceiver("127.0.0.1:0", peer.LocalAddr().String())
	require.NoError(t, u.Begin(context.Background(), Params{}))
	defer u.Close()

	_, ok, err := u.Poll()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, u.Send(context.Background(), []byte("north:up")))
	buf := make([]byte, 64)
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(time.Second)))
	n, _, err := peer.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, "north:up", string(buf[:n]))

	_, err = peer.WriteToUDP([]byte("north:down"), u.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	var frame []byte
	require.Eventually(t, func() bool {
		f, ok, err := u.Poll()
		if err != nil || !ok {
			return false
		}
		frame = f
		return true
	}, time.Second, time.Millisecond)
	assert.Equal(t, "north:down", string(frame))

	assert.Error(t, u.Send(context.Background(), make([]byte, 300)))
}

func TestUDPTransceiverRepliesToLastPeer(t *testing.T) {
	u := NewUDPTransceiver("127.0.0.1:0", "")
	require.NoError(t, u.Begin(context.Background(), Params{}))
	defer u.Close()
	assert.Error(t, u.Send(context.Background(), []byte("x")), "no peer yet")

	peer, err := net.DialUDP("udp", nil, u.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer peer.Close()
	_, err = peer.Write([]byte("hello"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, ok, _ := u.Poll()
		return ok
	}, time.Second, time.Millisecond)

	require.NoError(t, u.Send(context.Background(), []byte("back")))
	buf := make([]byte, 16)
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(time.Second)))
	n, err := peer.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "back", string(buf[:n]))
}
