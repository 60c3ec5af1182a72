package grpcserver

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventsClient calls lorabridge.v1.Events on a connection.
type EventsClient struct {
	cc grpc.ClientConnInterface
}

func NewEventsClient(cc grpc.ClientConnInterface) *EventsClient {
	return &EventsClient{cc: cc}
}

func (c *EventsClient) Snapshot(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, methodSnapshot, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *EventsClient) Append(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, methodAppend, req, new(emptypb.Empty), opts...)
}

// Tail calls fn for each streamed entry until the stream ends, ctx is done
// or fn returns an error.
func (c *EventsClient) Tail(ctx context.Context, req *structpb.Struct, fn func(*structpb.Struct) error, opts ...grpc.CallOption) error {
	stream, err := c.cc.NewStream(ctx, &EventsServiceDesc.Streams[0], methodTail, opts...)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(req); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}
