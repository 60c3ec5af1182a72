package httpserver

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rzbill/lorabridge/internal/eventlog"
	"github.com/rzbill/lorabridge/pkg/log"
)

const requestIDHeader = "X-Request-ID"

// requestID propagates or assigns a request id and stores it on the context
// for log.WithContext.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			if u, err := uuid.NewV7(); err == nil {
				id = u.String()
			} else {
				id = uuid.NewString()
			}
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(log.ContextWithRequestID(r.Context(), id)))
	})
}

// accessLog records every request as a Transport event: "<code> <text> -
// <uri>" with the client and local addresses. The event is appended when the
// status is committed, so anything a handler logs after writing its response
// follows the request. Handlers that never write are logged on return.
func accessLog(events *eventlog.Log, logger log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		rec.onCommit = func(status int) {
			events.Transport(remoteIP(r), localIP(r), fmt.Sprintf("%d %s - %s", status, http.StatusText(status), r.URL.RequestURI()))
		}
		next.ServeHTTP(rec, r)
		rec.commit(http.StatusOK)

		logger.WithContext(r.Context()).Debug("request",
			log.Str("method", r.Method),
			log.Str("uri", r.URL.RequestURI()),
			log.Int("status", rec.Status()),
			log.Duration("elapsed", time.Since(start)),
		)
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func localIP(r *http.Request) string {
	addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr)
	if !ok {
		return ""
	}
	if ta, ok := addr.(*net.TCPAddr); ok {
		return ta.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// statusRecorder captures the response code and reports it once through
// onCommit. It forwards Flush for SSE and Hijack for websocket upgrades.
type statusRecorder struct {
	http.ResponseWriter
	status   int
	onCommit func(status int)
}

func (s *statusRecorder) commit(code int) {
	if s.status != 0 {
		return
	}
	s.status = code
	if s.onCommit != nil {
		s.onCommit(code)
	}
}

func (s *statusRecorder) WriteHeader(code int) {
	// Informational headers other than 101 do not settle the response.
	if code >= 200 || code == http.StatusSwitchingProtocols {
		s.commit(code)
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.commit(http.StatusOK)
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	conn, rw, err := h.Hijack()
	if err == nil {
		s.commit(http.StatusSwitchingProtocols)
	}
	return conn, rw, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
