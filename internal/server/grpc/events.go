package grpcserver

import (
	"context"
	"errors"

	"github.com/rzbill/lorabridge/internal/eventlog"
	eventsvc "github.com/rzbill/lorabridge/internal/services/events"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventsServiceName is the fully qualified gRPC service name.
const EventsServiceName = "lorabridge.v1.Events"

const (
	methodSnapshot = "/" + EventsServiceName + "/Snapshot"
	methodAppend   = "/" + EventsServiceName + "/Append"
	methodTail     = "/" + EventsServiceName + "/Tail"
)

// EventsServer is the server API for lorabridge.v1.Events. Messages are
// well-known types so no generated code is needed:
//
//	Snapshot(Struct{filter,since,limit,types}) returns ListValue of entries
//	Append(Struct{type,message,srcIp,destIp}) returns Empty
//	Tail(Struct{filter,since,limit,types,from}) streams entries as Struct
type EventsServer interface {
	Snapshot(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	Append(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Tail(*structpb.Struct, grpc.ServerStream) error
}

func snapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EventsServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSnapshot}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EventsServer).Snapshot(ctx, req.(*structpb.Struct))
	})
}

func appendHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EventsServer).Append(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAppend}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EventsServer).Append(ctx, req.(*structpb.Struct))
	})
}

func tailHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(EventsServer).Tail(in, stream)
}

// EventsServiceDesc describes lorabridge.v1.Events for grpc.RegisterService.
var EventsServiceDesc = grpc.ServiceDesc{
	ServiceName: EventsServiceName,
	HandlerType: (*EventsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Snapshot", Handler: snapshotHandler},
		{MethodName: "Append", Handler: appendHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Tail", Handler: tailHandler, ServerStreams: true},
	},
	Metadata: "lorabridge/v1/events",
}

// eventsSvc adapts the events service to EventsServer.
type eventsSvc struct {
	svc *eventsvc.Service
}

func (s *eventsSvc) Snapshot(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	opts, err := listOptions(req)
	if err != nil {
		return nil, err
	}
	recs, err := s.svc.List(ctx, opts)
	if err != nil {
		return nil, toStatus(err)
	}
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(recs))}
	for _, r := range recs {
		st, err := recordStruct(r)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		out.Values = append(out.Values, structpb.NewStructValue(st))
	}
	return out, nil
}

// Append records an event. A category switched off by the gate is not an
// error: the call succeeds and nothing is stored, as for local producers.
func (s *eventsSvc) Append(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	f := req.GetFields()
	c, err := eventlog.ParseCategory(f["type"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if _, err := s.svc.Append(c, f["message"].GetStringValue(), f["srcIp"].GetStringValue(), f["destIp"].GetStringValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *eventsSvc) Tail(req *structpb.Struct, stream grpc.ServerStream) error {
	opts, err := listOptions(req)
	if err != nil {
		return err
	}
	from := req.GetFields()["from"].GetStringValue()
	err = s.svc.Stream(stream.Context(), eventsvc.StreamOptions{ListOptions: opts, From: from}, tailSink{stream: stream})
	if err != nil && stream.Context().Err() != nil {
		return nil
	}
	return toStatus(err)
}

type tailSink struct {
	stream grpc.ServerStream
}

func (t tailSink) Send(r eventlog.Record) error {
	st, err := recordStruct(r)
	if err != nil {
		return err
	}
	return t.stream.SendMsg(st)
}

func (tailSink) Flush() error { return nil }

func listOptions(req *structpb.Struct) (eventsvc.ListOptions, error) {
	f := req.GetFields()
	opts := eventsvc.ListOptions{
		Filter: f["filter"].GetStringValue(),
		Since:  uint64(f["since"].GetNumberValue()),
		Limit:  int(f["limit"].GetNumberValue()),
	}
	for _, v := range f["types"].GetListValue().GetValues() {
		c, err := eventlog.ParseCategory(v.GetStringValue())
		if err != nil {
			return opts, status.Error(codes.InvalidArgument, err.Error())
		}
		opts.Types = append(opts.Types, c)
	}
	return opts, nil
}

func recordStruct(r eventlog.Record) (*structpb.Struct, error) {
	e := eventlog.Render([]eventlog.Record{r})[0]
	return structpb.NewStruct(map[string]any{
		"seq":       r.Seq,
		"timestamp": e.Timestamp,
		"type":      e.Type,
		"message":   e.Message,
		"srcIp":     e.SrcIP,
		"destIp":    e.DestIP,
	})
}

func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, eventsvc.ErrInvalidFilter), errors.Is(err, eventlog.ErrUnknownCategory):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
