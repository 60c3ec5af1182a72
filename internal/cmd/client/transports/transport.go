package transports

import "context"

// Event is one event log record as seen by the CLI.
type Event struct {
	Seq       uint64 `json:"seq"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	SrcIP     string `json:"srcIp"`
	DestIP    string `json:"destIp"`
}

// ListRequest selects records from the current snapshot.
type ListRequest struct {
	Filter string
	Since  uint64
	Limit  int
	Types  []string
}

// TailRequest describes a live tail. From is "earliest" or "latest".
type TailRequest struct {
	ListRequest
	From string
}

// EventsTransport abstracts the transport used by the CLI (gRPC/HTTP).
type EventsTransport interface {
	List(ctx context.Context, req ListRequest) ([]Event, error)
	Tail(ctx context.Context, req TailRequest, onEvent func(Event) error) error
	Append(ctx context.Context, ev Event) error
}
