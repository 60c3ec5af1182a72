// Package httpserver serves the gateway dashboard, its AJAX and form
// endpoints, the /ws push channel and a JSON API under /v1. Every request is
// recorded in the event log as an HTTP event.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	s := httpserver.New(rt, nil)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
