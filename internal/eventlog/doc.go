// Package eventlog implements the gateway's bounded, in-memory event log.
//
// # Overview
//
// The log holds the most recent Capacity records (reference: 100) in a
// preallocated ring. Producers on any goroutine append; readers take
// point-in-time copies. Nothing is persisted: the log is rebuilt empty on
// every start.
//
//	gate := eventlog.NewGate()
//	l := eventlog.New(eventlog.Options{Capacity: 100, Gate: gate, Clock: clock})
//
//	l.System("LoRa initialized successfully.")
//	l.Transport("10.0.0.5", "10.0.0.1", "200 OK - /ajax?action=get_logs")
//	l.Radio("Received LoRa message: hello")
//
//	recs := l.Snapshot()          // oldest first, independent copy
//	doc, _ := eventlog.RenderJSON(recs)
//
// # Admission
//
// Append consults the Gate first. A closed gate makes the call a silent no-op:
// no timestamp is taken and no record is built. With an open gate the
// timestamp is produced outside the lock; the critical section covers only
// evict-oldest-if-full plus the tail write.
//
// # Waiting
//
// WaitForAppend lets streaming readers block until the next admission. The
// notify channel is created by the first waiter, so appends with nobody
// waiting allocate nothing.
package eventlog
