package serverrun

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"sync"

	cfgpkg "github.com/rzbill/lorabridge/internal/config"
	"github.com/rzbill/lorabridge/internal/radio"
	"github.com/rzbill/lorabridge/internal/runtime"
	grpcserver "github.com/rzbill/lorabridge/internal/server/grpc"
	httpserver "github.com/rzbill/lorabridge/internal/server/http"
	pebblestore "github.com/rzbill/lorabridge/internal/storage/pebble"
	logpkg "github.com/rzbill/lorabridge/pkg/log"
)

// ErrRestartRequested is returned by Run after a user-initiated reboot. The
// caller is expected to call Run again; the new run starts with an empty
// event log.
var ErrRestartRequested = errors.New("restart requested")

type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
	// Device overrides the configured radio driver.
	Device radio.Transceiver
	// Ready is called once both listeners are bound.
	Ready func(Addrs)
}

// Addrs are the bound listener addresses.
type Addrs struct {
	HTTP net.Addr
	GRPC net.Addr
}

// Run opens the runtime, starts the HTTP and gRPC servers, the radio loop,
// the NTP syncer and the push hub cleanup, and blocks until ctx is done or a
// restart is requested.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}
	mode, err := pebblestore.ParseFsyncMode(cfg.Fsync)
	if err != nil {
		return err
	}

	logger := opts.Logger
	if logger == nil {
		if logger, err = logpkg.ApplyConfig(&cfg.Log); err != nil {
			return fmt.Errorf("logger: %w", err)
		}
	}
	// Pebble logs through the standard library logger.
	logpkg.RedirectStdLog(logger)

	rt, err := runtime.Open(runtime.Options{
		DataDir: filepath.Join(cfg.DataDir, "store"),
		Fsync:   mode,
		Config:  cfg,
		Logger:  logger,
		Device:  opts.Device,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("Starting lorabridge",
		logpkg.Str("http", cfg.HTTPAddr),
		logpkg.Str("grpc", cfg.GRPCAddr),
		logpkg.Str("radio", cfg.Radio.Driver),
		logpkg.Uint64("boot", rt.Boots()),
	)

	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("grpc listen: %w", err)
	}

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := rt.Radio().Init(sctx); err != nil {
		logger.Warn("radio unavailable, continuing without it", logpkg.Err(err))
	}

	hsrv := httpserver.New(rt, logger)
	gsrv := grpcserver.New(rt, logger)

	var wg sync.WaitGroup
	goRun := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && sctx.Err() == nil {
				logger.Error(name+" stopped", logpkg.Err(err))
				cancel()
			}
		}()
	}
	goRun("http server", func() error { return hsrv.Serve(sctx, httpLis) })
	goRun("grpc server", func() error { return gsrv.Serve(sctx, grpcLis) })
	goRun("radio loop", func() error { rt.Radio().Run(sctx); return nil })
	goRun("hub cleanup", func() error { rt.Hub().RunCleanup(sctx, cfg.WebSocket.CleanupInterval.Std()); return nil })
	if cfg.NTP.Server != "" {
		goRun("ntp syncer", func() error { rt.NewSyncer().Run(sctx); return nil })
	}

	for _, u := range accessURLs(httpLis.Addr()) {
		rt.Events().System("Web server started. Access via " + u)
	}
	if opts.Ready != nil {
		opts.Ready(Addrs{HTTP: httpLis.Addr(), GRPC: grpcLis.Addr()})
	}

	var result error
	select {
	case <-sctx.Done():
	case <-rt.RestartRequested():
		logger.Info("restart requested")
		result = ErrRestartRequested
	}
	cancel()
	wg.Wait()
	return result
}

// accessURLs lists the URLs the dashboard is reachable on. A wildcard
// listener is expanded to every non-loopback interface address.
func accessURLs(addr net.Addr) []string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return []string{addr.String()}
	}
	port := strconv.Itoa(tcp.Port)
	if !tcp.IP.IsUnspecified() {
		return []string{"http://" + net.JoinHostPort(tcp.IP.String(), port)}
	}
	var out []string
	addrs, _ := net.InterfaceAddrs()
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok || ipn.IP.IsLoopback() || ipn.IP.IsLinkLocalUnicast() {
			continue
		}
		out = append(out, "http://"+net.JoinHostPort(ipn.IP.String(), port))
	}
	if len(out) == 0 {
		out = append(out, "http://"+net.JoinHostPort("localhost", port))
	}
	return out
}
