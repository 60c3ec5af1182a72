// Package eventsvc is the query facade over the device event log consumed by
// the HTTP and gRPC transports. It adds type selection, CEL filtering and a
// tail loop on top of the log's snapshot and wait primitives.
//
// Example:
//
//	svc := eventsvc.New(rt.Events(), logger)
//	recs, _ := svc.List(ctx, eventsvc.ListOptions{Filter: `type == "LoRa" && message.contains("north")`, Limit: 20})
//	_ = svc.Stream(ctx, eventsvc.StreamOptions{From: "latest"}, mySink)
package eventsvc
