// Package runtime wires storage, config and the gateway components into a
// single process. It exposes Open/Close, health checks, the status report and
// accessors used by the servers and background routines.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	rt.Events().System("hello")
package runtime
