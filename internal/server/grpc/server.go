package grpcserver

import (
	"context"
	"net"
	"time"

	"github.com/rzbill/lorabridge/internal/runtime"
	eventsvc "github.com/rzbill/lorabridge/internal/services/events"
	"github.com/rzbill/lorabridge/pkg/log"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 5 * time.Second

// Server owns the gRPC server instance and runtime.
type Server struct {
	rt     *runtime.Runtime
	grpc   *grpc.Server
	lis    net.Listener
	logger log.Logger
}

// New constructs a gRPC server and registers services.
func New(rt *runtime.Runtime, logger log.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = rt.Logger()
	}
	logger = logger.WithComponent("grpc")
	s := &Server{rt: rt, grpc: grpc.NewServer(opts...), logger: logger}
	healthpb.RegisterHealthServer(s.grpc, &healthSvc{rt: rt})
	s.grpc.RegisterService(&EventsServiceDesc, &eventsSvc{svc: eventsvc.New(rt.Events(), logger)})
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.lis = l
	s.logger.Info("grpc server listening", log.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	select {
	case <-ctx.Done():
		s.stop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	if s.grpc != nil {
		s.stop()
	}
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// stop drains gracefully but gives up on open Tail streams after
// shutdownTimeout.
func (s *Server) stop() {
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		s.grpc.Stop()
	}
}
