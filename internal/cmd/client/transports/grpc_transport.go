// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"

	grpcserver "github.com/rzbill/lorabridge/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// GrpcTransport implements EventsTransport over lorabridge.v1.Events.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

func (t *GrpcTransport) withClient(ctx context.Context, fn func(cli *grpcserver.EventsClient) error) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(grpcserver.NewEventsClient(conn))
}

// List fetches the snapshot via gRPC.
func (t *GrpcTransport) List(ctx context.Context, req ListRequest) ([]Event, error) {
	greq, err := listStruct(req, "")
	if err != nil {
		return nil, err
	}
	var out []Event
	err = t.withClient(ctx, func(cli *grpcserver.EventsClient) error {
		list, err := cli.Snapshot(ctx, greq)
		if err != nil {
			return err
		}
		for _, v := range list.GetValues() {
			out = append(out, eventFromStruct(v.GetStructValue()))
		}
		return nil
	})
	return out, err
}

// Tail streams events and invokes onEvent for each.
func (t *GrpcTransport) Tail(ctx context.Context, req TailRequest, onEvent func(Event) error) error {
	greq, err := listStruct(req.ListRequest, req.From)
	if err != nil {
		return err
	}
	return t.withClient(ctx, func(cli *grpcserver.EventsClient) error {
		err := cli.Tail(ctx, greq, func(s *structpb.Struct) error { return onEvent(eventFromStruct(s)) })
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
}

// Append records an event via gRPC.
func (t *GrpcTransport) Append(ctx context.Context, ev Event) error {
	greq, err := structpb.NewStruct(map[string]any{
		"type":    ev.Type,
		"message": ev.Message,
		"srcIp":   ev.SrcIP,
		"destIp":  ev.DestIP,
	})
	if err != nil {
		return err
	}
	return t.withClient(ctx, func(cli *grpcserver.EventsClient) error {
		return cli.Append(ctx, greq)
	})
}

func listStruct(req ListRequest, from string) (*structpb.Struct, error) {
	m := map[string]any{}
	if req.Filter != "" {
		m["filter"] = req.Filter
	}
	if req.Since > 0 {
		m["since"] = req.Since
	}
	if req.Limit > 0 {
		m["limit"] = req.Limit
	}
	if len(req.Types) > 0 {
		types := make([]any, len(req.Types))
		for i, t := range req.Types {
			types[i] = t
		}
		m["types"] = types
	}
	if from != "" {
		m["from"] = from
	}
	return structpb.NewStruct(m)
}

func eventFromStruct(s *structpb.Struct) Event {
	f := s.GetFields()
	return Event{
		Seq:       uint64(f["seq"].GetNumberValue()),
		Timestamp: f["timestamp"].GetStringValue(),
		Type:      f["type"].GetStringValue(),
		Message:   f["message"].GetStringValue(),
		SrcIP:     f["srcIp"].GetStringValue(),
		DestIP:    f["destIp"].GetStringValue(),
	}
}
