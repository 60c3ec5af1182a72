package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rzbill/lorabridge/internal/eventlog"
)

// sseSink writes records as Server-Sent Events. The record seq is the event
// id so a reconnecting client resumes via Last-Event-ID.
type sseSink struct {
	w http.ResponseWriter
}

func (s sseSink) Send(r eventlog.Record) error {
	b, err := json.Marshal(toEventJSON(r))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.w, "id: %d\ndata: %s\n\n", r.Seq, b)
	return err
}

// Flush flushes the HTTP response writer if it supports flushing.
func (s sseSink) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
