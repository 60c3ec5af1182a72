// Package grpcserver hosts the gRPC surface of the gateway: the standard
// grpc.health.v1.Health service and lorabridge.v1.Events, whose messages are
// protobuf well-known types (Struct, ListValue, Empty).
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	s := grpcserver.New(rt, nil)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":9090")
package grpcserver
