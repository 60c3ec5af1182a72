// Package client provides the `lorabridge` command-line client.
//
// The CLI talks to a running gateway over gRPC (event log) and HTTP
// (settings, radio, status) from a terminal. It is primarily intended for
// operators and for scripting against a deployed device.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary it is read
// from LORABRIDGE_HTTP and defaults to http://127.0.0.1:8080. The gRPC
// address is read from LORABRIDGE_GRPC (default 127.0.0.1:9090).
//
// Usage
//
//	lorabridge events list --type LoRa --limit 20
//	lorabridge events list --transport http --filter 'message.contains("404")' --json
//	lorabridge events tail --from earliest
//	lorabridge events append --type SYSTEM "maintenance window started"
//
//	lorabridge settings get
//	lorabridge settings set --site-id north --device-number 3 --http-logs=false
//
//	lorabridge radio send "valve open"
//	lorabridge status
//	lorabridge reboot
//
// Notes
//
//   - events commands use gRPC by default; --transport http uses the /v1
//     JSON API and its SSE stream. append is gRPC only.
//   - the event log lives in memory on the gateway; reboot clears it.
package client
