package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rzbill/lorabridge/internal/runtime"
	"github.com/rzbill/lorabridge/internal/server/http/controllers"
	eventsvc "github.com/rzbill/lorabridge/internal/services/events"
	"github.com/rzbill/lorabridge/pkg/log"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	rt       *runtime.Runtime
	srv      *http.Server
	lis      net.Listener
	registry *controllers.ControllerRegistry
	logger   log.Logger
}

func New(rt *runtime.Runtime, logger log.Logger) *Server {
	if logger == nil {
		logger = rt.Logger()
	}
	logger = logger.WithComponent("http")
	router := mux.NewRouter()
	registry := controllers.NewControllerRegistry(rt, eventsvc.New(rt.Events(), logger))
	registry.RegisterAllRoutes(router)

	s := &Server{rt: rt, registry: registry, logger: logger}
	// Wrapping the router rather than router.Use keeps 404 and 405
	// responses in the request log.
	handler := requestID(accessLog(rt.Events(), logger, router))
	s.srv = &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	return s
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Registry exposes the controllers, mainly for tests.
func (s *Server) Registry() *controllers.ControllerRegistry { return s.registry }

// Addr returns the bound address once listening.
func (s *Server) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// ListenAndServe binds addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is done. Request contexts derive from ctx so
// SSE and websocket handlers end on shutdown.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.lis = l
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }
	s.logger.Info("http server listening", log.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
