// Package pebblestore provides a thin wrapper around Pebble with an fsync
// policy, batches and minimal metrics hooks. The gateway keeps its persistent
// preferences here; the event log itself stays in memory.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeAlways,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Set([]byte("k"), []byte("v"))
//	v, _ := db.Get([]byte("k"))
package pebblestore
