package eventsvc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/lorabridge/internal/eventlog"
)

func newTestService(t *testing.T) (*Service, *eventlog.Log) {
	t.Helper()
	l := eventlog.New(eventlog.Options{
		Capacity: 10,
		Clock:    eventlog.ClockFunc(func() string { return "2024-05-01 10:00:00 UTC" }),
	})
	svc := New(l, nil)
	svc.wait = 10 * time.Millisecond
	return svc, l
}

func msgs(recs []eventlog.Record) []string {
	out := []string{}
	for _, r := range recs {
		out = append(out, r.Message)
	}
	return out
}

func seed(l *eventlog.Log) {
	l.System("boot")
	l.Transport("10.0.0.5", "10.0.0.1", "200 OK - /")
	l.Radio("Received LoRa message: north ping")
	l.Transport("10.0.0.9", "10.0.0.1", "404 Not Found - /missing")
	l.Radio("LoRa message sent: north:pong")
}

func TestListAll(t *testing.T) {
	svc, l := newTestService(t)
	recs, err := svc.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	seed(l)
	recs, err = svc.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Len(t, recs, 5)
}

func TestListFilters(t *testing.T) {
	svc, l := newTestService(t)
	seed(l)
	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"types", ListOptions{Types: []eventlog.Category{eventlog.Radio}}, []string{"Received LoRa message: north ping", "LoRa message sent: north:pong"}},
		{"cel type", ListOptions{Filter: `type == "HTTP"`}, []string{"200 OK - /", "404 Not Found - /missing"}},
		{"cel src", ListOptions{Filter: `src_ip == "10.0.0.9"`}, []string{"404 Not Found - /missing"}},
		{"cel message", ListOptions{Filter: `message.startsWith("404")`}, []string{"404 Not Found - /missing"}},
		{"cel seq", ListOptions{Filter: `seq > 3`}, []string{"404 Not Found - /missing", "LoRa message sent: north:pong"}},
		{"since", ListOptions{Since: 4}, []string{"LoRa message sent: north:pong"}},
		{"limit keeps newest", ListOptions{Limit: 2}, []string{"404 Not Found - /missing", "LoRa message sent: north:pong"}},
		{"types and cel", ListOptions{Types: []eventlog.Category{eventlog.Transport}, Filter: `message.contains("OK")`}, []string{"200 OK - /"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := svc.List(context.Background(), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, msgs(recs))
		})
	}
}

func TestListInvalidFilter(t *testing.T) {
	svc, _ := newTestService(t)
	for _, f := range []string{`type ==`, `unknown_var == 1`, `seq + 1`} {
		_, err := svc.List(context.Background(), ListOptions{Filter: f})
		assert.ErrorIs(t, err, ErrInvalidFilter, f)
	}
}

func TestAppendReportsGate(t *testing.T) {
	svc, l := newTestService(t)
	ok, err := svc.Append(eventlog.Transport, "m", "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	l.Gate().Set(eventlog.Transport, false)
	ok, err = svc.Append(eventlog.Transport, "m2", "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = svc.Append(eventlog.Category(7), "x", "", "")
	assert.ErrorIs(t, err, eventlog.ErrUnknownCategory)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, uint64(1), svc.Stats().Suppressed)
}

type chanSink struct {
	mu      sync.Mutex
	got     []eventlog.Record
	flushes int
	failOn  int
}

func (s *chanSink) Send(r eventlog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn > 0 && len(s.got)+1 == s.failOn {
		return errors.New("client gone")
	}
	s.got = append(s.got, r)
	return nil
}

func (s *chanSink) Flush() error {
	s.mu.Lock()
	s.flushes++
	s.mu.Unlock()
	return nil
}

func (s *chanSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return msgs(s.got)
}

func TestStreamEarliestWithLimit(t *testing.T) {
	svc, l := newTestService(t)
	seed(l)
	sink := &chanSink{}
	err := svc.Stream(context.Background(), StreamOptions{From: "earliest", ListOptions: ListOptions{Limit: 3}}, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"boot", "200 OK - /", "Received LoRa message: north ping"}, sink.messages())
}

func TestStreamLatestTailsNewRecords(t *testing.T) {
	svc, l := newTestService(t)
	seed(l)
	sink := &chanSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Stream(ctx, StreamOptions{ListOptions: ListOptions{Filter: `type == "LoRa"`, Limit: 2}}, sink)
	}()

	time.Sleep(20 * time.Millisecond)
	l.System("ignored by filter")
	l.Radio("first")
	l.Radio("second")
	l.Radio("third")

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not finish")
	}
	assert.Equal(t, []string{"first", "second"}, sink.messages())
	assert.GreaterOrEqual(t, sink.flushes, 1)
}

func TestStreamStopsOnCancelAndSinkError(t *testing.T) {
	svc, l := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := svc.Stream(ctx, StreamOptions{}, &chanSink{})
	assert.ErrorIs(t, err, context.Canceled)

	seed(l)
	err = svc.Stream(context.Background(), StreamOptions{From: "earliest"}, &chanSink{failOn: 2})
	assert.EqualError(t, err, "client gone")
}

func TestValidateFilter(t *testing.T) {
	assert.NoError(t, ValidateFilter(""))
	assert.NoError(t, ValidateFilter(`type == "LoRa"`))
	assert.ErrorIs(t, ValidateFilter(`message`), ErrInvalidFilter)
}
