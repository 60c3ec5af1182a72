package timesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beevik/ntp"

	"github.com/rzbill/lorabridge/pkg/log"
)

const (
	MsgSyncOK     = "NTP synchronization successful."
	MsgSyncFailed = "NTP synchronization failed or took too long."
)

var ErrNoServer = errors.New("timesync: no NTP server configured")

// QueryFunc asks server for the offset between the host clock and true time.
type QueryFunc func(ctx context.Context, server string) (time.Duration, error)

// NTPQuery queries over SNTP with the given per-request timeout.
func NTPQuery(timeout time.Duration) QueryFunc {
	return func(ctx context.Context, server string) (time.Duration, error) {
		opts := ntp.QueryOptions{Timeout: timeout}
		if dl, ok := ctx.Deadline(); ok {
			if left := time.Until(dl); left < opts.Timeout || opts.Timeout <= 0 {
				opts.Timeout = left
			}
		}
		resp, err := ntp.QueryWithOptions(server, opts)
		if err != nil {
			return 0, err
		}
		if err := resp.Validate(); err != nil {
			return 0, fmt.Errorf("invalid response from %s: %w", server, err)
		}
		return resp.ClockOffset, nil
	}
}

// EventSink receives the sync outcome as a System event.
type EventSink interface {
	System(message string)
}

// SyncerOptions configures a Syncer.
type SyncerOptions struct {
	Server string
	// Attempts bounds the initial sync; defaults to 10.
	Attempts int
	// RetryDelay separates initial attempts; defaults to one second.
	RetryDelay time.Duration
	// Interval between background refreshes. Zero disables refresh.
	Interval time.Duration
	// Query defaults to NTPQuery(5s).
	Query  QueryFunc
	Events EventSink
	Logger log.Logger
}

// Syncer keeps a Clock aligned with an NTP server.
type Syncer struct {
	clock *Clock
	opts  SyncerOptions
	log   log.Logger
}

func NewSyncer(clock *Clock, opts SyncerOptions) *Syncer {
	if opts.Attempts <= 0 {
		opts.Attempts = 10
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.Query == nil {
		opts.Query = NTPQuery(5 * time.Second)
	}
	lg := opts.Logger
	if lg == nil {
		lg = log.Nop()
	}
	return &Syncer{clock: clock, opts: opts, log: lg.WithComponent("timesync")}
}

// Sync performs the initial synchronization: up to Attempts queries spaced by
// RetryDelay. The outcome is recorded as a System event.
func (s *Syncer) Sync(ctx context.Context) error {
	err := s.sync(ctx)
	if err != nil {
		s.log.Warn(MsgSyncFailed, log.Str("server", s.opts.Server), log.Err(err))
		s.emit(MsgSyncFailed)
		return err
	}
	s.log.Info(MsgSyncOK, log.Str("server", s.opts.Server), log.Duration("offset", s.clock.Offset()))
	s.emit(MsgSyncOK)
	return nil
}

func (s *Syncer) sync(ctx context.Context) error {
	if s.opts.Server == "" {
		return ErrNoServer
	}
	var lastErr error
	for i := 0; i < s.opts.Attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.opts.RetryDelay):
			}
		}
		off, err := s.opts.Query(ctx, s.opts.Server)
		if err == nil {
			s.clock.SetOffset(off)
			return nil
		}
		lastErr = err
		s.log.Debug("ntp attempt failed", log.Int("attempt", i+1), log.Err(err))
	}
	return fmt.Errorf("%d attempts: %w", s.opts.Attempts, lastErr)
}

func (s *Syncer) emit(msg string) {
	if s.opts.Events != nil {
		s.opts.Events.System(msg)
	}
}

// Run syncs once and then refreshes every Interval until ctx is done.
// Refresh failures keep the previous offset and are only logged.
func (s *Syncer) Run(ctx context.Context) {
	_ = s.Sync(ctx)
	if s.opts.Interval <= 0 || s.opts.Server == "" {
		return
	}
	t := time.NewTicker(s.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			off, err := s.opts.Query(ctx, s.opts.Server)
			if err != nil {
				s.log.Debug("ntp refresh failed", log.Err(err))
				continue
			}
			s.clock.SetOffset(off)
		}
	}
}
