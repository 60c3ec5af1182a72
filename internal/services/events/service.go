package eventsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rzbill/lorabridge/internal/eventlog"
	logpkg "github.com/rzbill/lorabridge/pkg/log"
)

var (
	// ErrInvalidFilter wraps CEL compile errors so transports can map them to 400.
	ErrInvalidFilter = errors.New("invalid filter")
	errFilterNotBool = errors.New("filter must evaluate to a bool")
)

const defaultWait = time.Second

// Service is the events facade.
type Service struct {
	log    *eventlog.Log
	logger logpkg.Logger
	wait   time.Duration
}

func New(l *eventlog.Log, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.Nop()
	}
	return &Service{log: l, logger: logger.WithComponent("eventsvc"), wait: defaultWait}
}

// ListOptions selects records from the current snapshot.
type ListOptions struct {
	// Filter is an optional CEL expression over seq, type, message, src_ip,
	// dest_ip and timestamp.
	Filter string
	// Since keeps only records with Seq > Since.
	Since uint64
	// Limit keeps the newest Limit matches. Zero means no limit.
	Limit int
	// Types restricts categories. Empty means all.
	Types []eventlog.Category
}

type matcher struct {
	cel   celFilter
	types [4]bool
	any   bool
}

func newMatcher(filter string, types []eventlog.Category) (matcher, error) {
	f, err := newCELFilter(filter)
	if err != nil {
		return matcher{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	m := matcher{cel: f, any: len(types) == 0}
	for _, c := range types {
		if c.Valid() {
			m.types[c] = true
		}
	}
	return m, nil
}

func (m matcher) match(r eventlog.Record) bool {
	if !m.any && !m.types[r.Category] {
		return false
	}
	return m.cel.Eval(r)
}

// ValidateFilter reports whether expr compiles to a boolean CEL program.
func ValidateFilter(expr string) error {
	if _, err := newCELFilter(expr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return nil
}

// List returns matching records oldest first. The result is never nil.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]eventlog.Record, error) {
	m, err := newMatcher(opts.Filter, opts.Types)
	if err != nil {
		return nil, err
	}
	recs := s.log.SnapshotSince(opts.Since)
	out := recs[:0]
	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if m.match(r) {
			out = append(out, r)
		}
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[len(out)-opts.Limit:]
	}
	return out, nil
}

// Append offers a record to the log. It reports whether the category's gate
// was open at the time of the call.
func (s *Service) Append(c eventlog.Category, message, src, dst string) (bool, error) {
	if !c.Valid() {
		return false, eventlog.ErrUnknownCategory
	}
	open := s.log.Gate().Enabled(c)
	s.log.Append(c, message, src, dst)
	return open, nil
}

// Stats returns the log counters.
func (s *Service) Stats() eventlog.Stats { return s.log.Stats() }

// Document renders the full snapshot in its wire shape.
func (s *Service) Document() eventlog.Document { return eventlog.Render(s.log.Snapshot()) }

// Sink is implemented by transports to receive streamed records.
type Sink interface {
	Send(eventlog.Record) error
	Flush() error
}

// StreamOptions controls a tail.
type StreamOptions struct {
	ListOptions
	// From is "earliest" (replay the snapshot first) or "latest" (default).
	// Ignored when Since is set.
	From string
}

// Stream delivers matching records to sink as they are appended until ctx is
// done, the sink fails or Limit records have been sent. Records evicted
// before the tail reads them are skipped.
func (s *Service) Stream(ctx context.Context, opts StreamOptions, sink Sink) error {
	m, err := newMatcher(opts.Filter, opts.Types)
	if err != nil {
		return err
	}
	cursor := opts.Since
	if cursor == 0 && opts.From != "earliest" {
		cursor = s.log.LastSeq()
	}
	sent := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		recs := s.log.SnapshotSince(cursor)
		if len(recs) == 0 {
			s.log.WaitForAppend(ctx, cursor, s.wait)
			continue
		}
		if first := recs[0].Seq; cursor > 0 && first > cursor+1 {
			s.logger.Debug("tail fell behind", logpkg.Uint64("skipped", first-cursor-1))
		}
		delivered := false
		for _, r := range recs {
			cursor = r.Seq
			if !m.match(r) {
				continue
			}
			if err := sink.Send(r); err != nil {
				return err
			}
			delivered = true
			sent++
			if opts.Limit > 0 && sent >= opts.Limit {
				return sink.Flush()
			}
		}
		if delivered {
			if err := sink.Flush(); err != nil {
				return err
			}
		}
	}
}
