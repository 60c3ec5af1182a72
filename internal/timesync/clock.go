package timesync

import (
	"sync/atomic"
	"time"

	"github.com/rzbill/lorabridge/internal/eventlog"
)

// Clock is a host clock corrected by an NTP offset and rendered in a fixed
// location. It is safe for concurrent use.
type Clock struct {
	loc    *time.Location
	now    func() time.Time
	offset atomic.Int64
	synced atomic.Bool
}

// NewClock returns a clock in loc (time.Local if nil).
func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, now: time.Now}
}

// Now returns the corrected current time in the clock's location.
func (c *Clock) Now() time.Time {
	return c.now().Add(time.Duration(c.offset.Load())).In(c.loc)
}

// Formatted renders Now as "2006-01-02 15:04:05 MST".
func (c *Clock) Formatted() string {
	return c.Now().Format(eventlog.TimestampLayout)
}

// SetOffset records the offset from a successful exchange.
func (c *Clock) SetOffset(d time.Duration) {
	c.offset.Store(int64(d))
	c.synced.Store(true)
}

func (c *Clock) Offset() time.Duration { return time.Duration(c.offset.Load()) }

// Synced reports whether any exchange has succeeded.
func (c *Clock) Synced() bool { return c.synced.Load() }

func (c *Clock) Location() *time.Location { return c.loc }

// ZoneName describes the location for status pages, e.g. "America/Denver (MDT)".
func (c *Clock) ZoneName() string {
	abbr, _ := c.Now().Zone()
	name := c.loc.String()
	if name == abbr {
		return name
	}
	return name + " (" + abbr + ")"
}
