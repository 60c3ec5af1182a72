package radio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/rzbill/lorabridge/internal/notify"
	"github.com/rzbill/lorabridge/pkg/log"
)

const (
	MsgInitOK     = "LoRa initialized successfully."
	MsgInitFailed = "LoRa initialization failed or module not present."

	DefaultPollInterval = 50 * time.Millisecond
)

// Identity supplies the live site ID and device number.
type Identity interface {
	SiteID() string
	DeviceNumber() int
}

// EventSink receives System and Radio events.
type EventSink interface {
	System(message string)
	Radio(message string)
}

// Broadcaster pushes payloads to connected clients.
type Broadcaster interface {
	Broadcast(payload []byte) int
}

type ServiceOptions struct {
	Device       Transceiver
	Params       Params
	Identity     Identity
	Events       EventSink
	Hub          Broadcaster
	PollInterval time.Duration
	Logger       log.Logger
}

// Stats counts radio traffic since start.
type Stats struct {
	Ready      bool   `json:"ready"`
	Sent       uint64 `json:"sent"`
	Received   uint64 `json:"received"`
	Mismatched uint64 `json:"mismatched"`
	Errors     uint64 `json:"errors"`
}

// Service owns a Transceiver.
type Service struct {
	opts  ServiceOptions
	log   log.Logger
	ready atomic.Bool

	sent, received, mismatched, errs atomic.Uint64
}

func NewService(opts ServiceOptions) *Service {
	if opts.Device == nil {
		opts.Device = Null{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Service{opts: opts, log: opts.Logger.WithComponent("radio")}
}

// Init brings the modem up. Failure is reported as a System event and
// returned, but the gateway keeps running without the radio.
func (s *Service) Init(ctx context.Context) error {
	s.log.Info("initializing LoRa", log.Str("params", s.opts.Params.String()))
	if err := s.opts.Device.Begin(ctx, s.opts.Params); err != nil {
		s.log.Warn(MsgInitFailed, log.Err(err))
		s.system(MsgInitFailed)
		return err
	}
	s.ready.Store(true)
	s.log.Info(MsgInitOK)
	s.system(MsgInitOK)
	return nil
}

func (s *Service) Ready() bool { return s.ready.Load() }

func (s *Service) Params() Params { return s.opts.Params }

func (s *Service) Stats() Stats {
	return Stats{
		Ready:      s.Ready(),
		Sent:       s.sent.Load(),
		Received:   s.received.Load(),
		Mismatched: s.mismatched.Load(),
		Errors:     s.errs.Load(),
	}
}

// Run polls the modem every PollInterval and dispatches received frames,
// draining everything pending on each tick. It returns when ctx is done or
// immediately if Init did not succeed.
func (s *Service) Run(ctx context.Context) {
	if !s.Ready() {
		return
	}
	t := time.NewTicker(s.opts.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		for {
			frame, ok, err := s.opts.Device.Poll()
			if errors.Is(err, ErrClosed) || errors.Is(err, ErrNotReady) {
				return
			}
			if err != nil {
				s.errs.Add(1)
				s.log.Warn("radio poll failed", log.Err(err))
				break
			}
			if !ok {
				break
			}
			s.HandleFrame(frame)
		}
	}
}

// HandleFrame dispatches one received frame. Frames without this site's
// prefix are dropped.
func (s *Service) HandleFrame(frame []byte) {
	text := decode(frame)
	prefix := s.opts.Identity.SiteID() + ":"
	if !strings.HasPrefix(text, prefix) {
		s.mismatched.Add(1)
		s.log.Debug("Received LoRa message with mismatched site ID.", log.Int("bytes", len(frame)))
		return
	}
	s.received.Add(1)
	msg := "Received LoRa message: " + text[len(prefix):]
	s.log.Info(msg)
	if s.opts.Events != nil {
		s.opts.Events.Radio(msg)
	}
	if s.opts.Hub != nil {
		payload := notify.LoRaMessage(text[len(prefix):])
		n := s.opts.Hub.Broadcast(payload)
		s.log.Debug("push notification sent", log.Int("subscribers", n))
	}
}

// Frame builds the on-air frame for message. An empty message becomes the
// device's greeting.
func (s *Service) Frame(message string) string {
	if message == "" {
		message = fmt.Sprintf("Hello from Device %d!", s.opts.Identity.DeviceNumber())
	}
	return s.opts.Identity.SiteID() + ":" + message
}

// Send transmits message scoped to this site and returns the frame sent.
func (s *Service) Send(ctx context.Context, message string) (string, error) {
	if !s.Ready() {
		return "", ErrNotReady
	}
	frame := s.Frame(message)
	if err := s.opts.Device.Send(ctx, []byte(frame)); err != nil {
		s.errs.Add(1)
		return "", fmt.Errorf("radio send: %w", err)
	}
	s.sent.Add(1)
	msg := "LoRa message sent: " + frame
	s.log.Info(msg)
	if s.opts.Events != nil {
		s.opts.Events.Radio(msg)
	}
	return frame, nil
}

// Close shuts the modem down.
func (s *Service) Close() error {
	s.ready.Store(false)
	return s.opts.Device.Close()
}

func (s *Service) system(msg string) {
	if s.opts.Events != nil {
		s.opts.Events.System(msg)
	}
}

// decode reads frames as UTF-8, falling back to Latin-1 for byte strings
// that are not valid UTF-8.
func decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}
