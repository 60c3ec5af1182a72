package serverrun

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/rzbill/lorabridge/internal/config"
	"github.com/rzbill/lorabridge/internal/eventlog"
	"github.com/rzbill/lorabridge/internal/radio"
	logpkg "github.com/rzbill/lorabridge/pkg/log"
)

func testConfig(t *testing.T) cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.TimeZone = "UTC"
	cfg.NTP.Server = ""
	return cfg
}

type runResult struct {
	addrs Addrs
	errc  chan error
}

func start(t *testing.T, ctx context.Context, cfg cfgpkg.Config) runResult {
	t.Helper()
	ready := make(chan Addrs, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- Run(ctx, Options{Config: cfg, Logger: logpkg.Nop(), Device: radio.NewLoopback(), Ready: func(a Addrs) { ready <- a }})
	}()
	select {
	case a := <-ready:
		return runResult{addrs: a, errc: errc}
	case err := <-errc:
		t.Fatalf("run exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not become ready")
	}
	return runResult{}
}

func TestRunServesAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	res := start(t, ctx, testConfig(t))

	resp, err := http.Get("http://" + res.addrs.HTTP.String() + "/ajax?action=get_logs")
	require.NoError(t, err)
	var doc []eventlog.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	resp.Body.Close()

	var messages []string
	for _, e := range doc {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, radio.MsgInitOK)
	assert.Contains(t, messages, "Web server started. Access via http://"+res.addrs.HTTP.String())

	cancel()
	select {
	case err := <-res.errc:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestRunReturnsRestartAfterReboot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res := start(t, ctx, testConfig(t))

	resp, err := http.Post("http://"+res.addrs.HTTP.String()+"/reboot", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case err := <-res.errc:
		assert.True(t, errors.Is(err, ErrRestartRequested), "got %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("restart not reported")
	}
}

func TestRunRejectsBadFsync(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fsync = "sometimes"
	err := Run(context.Background(), Options{Config: cfg, Logger: logpkg.Nop()})
	assert.Error(t, err)
}

func TestAccessURLs(t *testing.T) {
	got := accessURLs(&net.TCPAddr{IP: net.IPv4(10, 1, 2, 3), Port: 8080})
	assert.Equal(t, []string{"http://10.1.2.3:8080"}, got)

	wild := accessURLs(&net.TCPAddr{IP: net.IPv4zero, Port: 80})
	require.NotEmpty(t, wild)
	for _, u := range wild {
		assert.Contains(t, u, ":80")
	}
}
