package eventlog

import (
	"context"
	"time"
)

// WaitForAppend blocks until a record with Seq > after exists, the timeout
// elapses or ctx is done. It returns true when such a record is available.
// A non-positive timeout waits on ctx alone.
func (l *Log) WaitForAppend(ctx context.Context, after uint64, timeout time.Duration) bool {
	l.mu.Lock()
	if l.lastSeq > after {
		l.mu.Unlock()
		return true
	}
	if l.notifyCh == nil {
		l.notifyCh = make(chan struct{})
	}
	ch := l.notifyCh
	l.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-ch:
		return true
	case <-expired:
		return false
	case <-ctx.Done():
		return false
	}
}
