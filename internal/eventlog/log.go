package eventlog

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCapacity is the number of records kept when Options.Capacity is unset.
const DefaultCapacity = 100

// TimestampLayout is the fixed record timestamp format.
const TimestampLayout = "2006-01-02 15:04:05 MST"

// Clock produces the formatted timestamp stored on each record.
type Clock interface {
	Formatted() string
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() string

func (f ClockFunc) Formatted() string { return f() }

// LocalClock formats the host clock in the local zone.
var LocalClock Clock = ClockFunc(func() string { return time.Now().Format(TimestampLayout) })

// Options configures a Log.
type Options struct {
	// Capacity is fixed for the lifetime of the log. Non-positive means DefaultCapacity.
	Capacity int
	// Gate filters admission. Nil means a fresh all-enabled gate.
	Gate *Gate
	// Clock stamps records. Nil means LocalClock.
	Clock Clock
}

// Stats is a point-in-time view of the log's counters.
type Stats struct {
	Capacity   int    `json:"capacity"`
	Len        int    `json:"len"`
	LastSeq    uint64 `json:"lastSeq"`
	Evicted    uint64 `json:"evicted"`
	Suppressed uint64 `json:"suppressed"`
}

// Log is a fixed-capacity, insertion-ordered record buffer that evicts the
// oldest record to make room. It is safe for concurrent use.
type Log struct {
	gate  *Gate
	clock Clock

	mu       sync.Mutex
	ring     []Record
	head     int // index of the oldest record
	size     int
	lastSeq  uint64
	evicted  uint64
	notifyCh chan struct{} // created by waiters, closed and cleared by Append

	suppressed atomic.Uint64
}

// New builds an empty log. The ring is allocated once, here.
func New(opts Options) *Log {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Gate == nil {
		opts.Gate = NewGate()
	}
	if opts.Clock == nil {
		opts.Clock = LocalClock
	}
	return &Log{
		gate:  opts.Gate,
		clock: opts.Clock,
		ring:  make([]Record, opts.Capacity),
	}
}

// Gate returns the gate consulted by Append.
func (l *Log) Gate() *Gate { return l.gate }

// Capacity returns the fixed capacity.
func (l *Log) Capacity() int { return len(l.ring) }

// Append admits one record if the category's gate is open. It never fails: a
// closed gate is a no-op and a full log drops its oldest record. Endpoints are
// only kept for Transport records.
func (l *Log) Append(c Category, message, src, dst string) {
	if !l.gate.Enabled(c) {
		l.suppressed.Add(1)
		return
	}
	if c != Transport {
		src, dst = "", ""
	}
	rec := Record{
		Category:    c,
		Message:     message,
		Source:      src,
		Destination: dst,
		Timestamp:   l.clock.Formatted(),
	}

	l.mu.Lock()
	l.lastSeq++
	rec.Seq = l.lastSeq
	n := len(l.ring)
	if l.size == n {
		l.ring[l.head] = rec
		l.head = (l.head + 1) % n
		l.evicted++
	} else {
		l.ring[(l.head+l.size)%n] = rec
		l.size++
	}
	ch := l.notifyCh
	l.notifyCh = nil
	l.mu.Unlock()

	if ch != nil {
		close(ch)
	}
}

// System appends a System record.
func (l *Log) System(message string) { l.Append(System, message, "", "") }

// Radio appends a Radio record.
func (l *Log) Radio(message string) { l.Append(Radio, message, "", "") }

// Transport appends a Transport record with its endpoints.
func (l *Log) Transport(src, dst, message string) { l.Append(Transport, message, src, dst) }

// Snapshot returns an oldest-first copy of the current contents. The result is
// never nil and never aliases internal storage.
func (l *Log) Snapshot() []Record {
	return l.SnapshotSince(0)
}

// SnapshotSince returns the records with Seq > after, oldest first.
func (l *Log) SnapshotSince(after uint64) []Record {
	out := make([]Record, 0, len(l.ring))
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.size == 0 {
		return out
	}
	oldest := l.lastSeq - uint64(l.size) + 1
	skip := 0
	if after >= oldest {
		if after >= l.lastSeq {
			return out
		}
		skip = int(after - oldest + 1)
	}
	n := len(l.ring)
	for i := skip; i < l.size; i++ {
		out = append(out, l.ring[(l.head+i)%n])
	}
	return out
}

// Len returns the current number of records.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// LastSeq returns the Seq of the most recent admission (0 if none).
func (l *Log) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq
}

// Stats returns the log counters.
func (l *Log) Stats() Stats {
	l.mu.Lock()
	st := Stats{Capacity: len(l.ring), Len: l.size, LastSeq: l.lastSeq, Evicted: l.evicted}
	l.mu.Unlock()
	st.Suppressed = l.suppressed.Load()
	return st
}
