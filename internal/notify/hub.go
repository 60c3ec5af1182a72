package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rzbill/lorabridge/pkg/log"
)

const (
	DefaultQueueSize   = 16
	defaultForwardSize = 64
)

// Subscriber receives payloads on C until it is closed.
type Subscriber struct {
	id      string
	ch      chan []byte
	mu      sync.Mutex
	closed  bool
	dropped atomic.Uint64
}

func (s *Subscriber) ID() string { return s.id }

// C returns the delivery channel. It is closed when the subscriber is.
func (s *Subscriber) C() <-chan []byte { return s.ch }

// Dropped counts payloads discarded because the queue was full.
func (s *Subscriber) Dropped() uint64 { return s.dropped.Load() }

// Close marks the subscriber closed; the hub forgets it on the next Cleanup.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *Subscriber) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// offer enqueues p, evicting the oldest queued payload if full.
func (s *Subscriber) offer(p []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	for {
		select {
		case s.ch <- p:
			return true
		default:
		}
		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
		}
	}
}

// Options configures a Hub.
type Options struct {
	QueueSize int
	Forwarder Forwarder
	Logger    log.Logger
}

// Hub is a set of subscribers plus an optional forwarder.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	closed bool
	queue  int
	log    log.Logger

	fwd     Forwarder
	fwdCh   chan []byte
	fwdDone chan struct{}
	closing sync.Once
}

func NewHub(opts Options) *Hub {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	h := &Hub{
		subs:  make(map[string]*Subscriber),
		queue: opts.QueueSize,
		log:   opts.Logger.WithComponent("notify"),
		fwd:   opts.Forwarder,
	}
	if h.fwd != nil {
		h.fwdCh = make(chan []byte, defaultForwardSize)
		h.fwdDone = make(chan struct{})
		go h.forwardLoop()
	}
	return h
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{id: uuid.NewString(), ch: make(chan []byte, h.queue)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.Close()
		return s
	}
	h.subs[s.id] = s
	h.mu.Unlock()
	h.log.Debug("subscriber added", log.Str("id", s.id))
	return s
}

// Unsubscribe closes s and removes it immediately.
func (h *Hub) Unsubscribe(s *Subscriber) {
	s.Close()
	h.mu.Lock()
	delete(h.subs, s.id)
	h.mu.Unlock()
}

// Broadcast offers payload to every open subscriber and the forwarder. It
// never blocks and returns the number of subscribers that accepted it. After
// Close it is a no-op.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0
	}
	n := 0
	for _, s := range h.subs {
		if s.offer(payload) {
			n++
		}
	}
	// fwdCh is only closed under the write lock, after closed is set.
	if h.fwdCh != nil {
		select {
		case h.fwdCh <- payload:
		default:
			h.log.Warn("forward queue full, payload dropped")
		}
	}
	return n
}

// Cleanup forgets subscribers that were closed without Unsubscribe and
// returns how many were removed.
func (h *Hub) Cleanup() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for id, s := range h.subs {
		if s.isClosed() {
			delete(h.subs, id)
			n++
		}
	}
	return n
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (h *Hub) RunCleanup(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := h.Cleanup(); n > 0 {
				h.log.Debug("subscribers cleaned up", log.Int("removed", n))
			}
		}
	}
}

// Close closes every subscriber and stops the forwarder.
func (h *Hub) Close() error {
	var err error
	h.closing.Do(func() {
		h.mu.Lock()
		h.closed = true
		for id, s := range h.subs {
			s.Close()
			delete(h.subs, id)
		}
		if h.fwdCh != nil {
			close(h.fwdCh)
		}
		h.mu.Unlock()
		if h.fwdCh != nil {
			<-h.fwdDone
			err = h.fwd.Close()
		}
	})
	return err
}

func (h *Hub) forwardLoop() {
	defer close(h.fwdDone)
	for p := range h.fwdCh {
		if err := h.fwd.Forward(context.Background(), p); err != nil {
			h.log.Warn("forward failed", log.Err(err))
		}
	}
}
