// Package notify fans push notifications out to connected clients.
//
// Each subscriber owns a bounded queue. A slow subscriber loses its oldest
// undelivered payloads rather than stalling the broadcaster; delivery is
// best-effort and at-most-once. An optional Forwarder (for example Redis
// pub/sub) receives a copy of every payload on its own goroutine.
package notify
