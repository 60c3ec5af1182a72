package controllers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rzbill/lorabridge/internal/runtime"
	eventsvc "github.com/rzbill/lorabridge/internal/services/events"
	"github.com/rzbill/lorabridge/pkg/log"
)

// EventsController exposes the event log as JSON and as an SSE tail.
type EventsController struct {
	rt  *runtime.Runtime
	svc *eventsvc.Service
}

// NewEventsController creates a new events controller.
func NewEventsController(rt *runtime.Runtime, svc *eventsvc.Service) *EventsController {
	return &EventsController{rt: rt, svc: svc}
}

// RegisterRoutes registers event routes with the given router.
//
// Both routes accept:
//   - filter: CEL expression over seq, type, message, src_ip, dest_ip, timestamp
//   - type: category name, repeated or comma separated
//   - limit: keep the newest N matches
func (c *EventsController) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/events", c.handleList).Methods(http.MethodGet)
	r.HandleFunc("/v1/events/stream", c.handleStreamSSE).Methods(http.MethodGet)
}

func (c *EventsController) listOptions(r *http.Request) (eventsvc.ListOptions, error) {
	q := r.URL.Query()
	since, err := parseSeq(q.Get("since"))
	if err != nil {
		return eventsvc.ListOptions{}, errors.New("invalid since")
	}
	types, err := parseTypes(q["type"])
	if err != nil {
		return eventsvc.ListOptions{}, err
	}
	return eventsvc.ListOptions{
		Filter: q.Get("filter"),
		Since:  since,
		Limit:  parseLimit(q.Get("limit")),
		Types:  types,
	}, nil
}

// handleList returns the matching records of the current snapshot.
func (c *EventsController) handleList(w http.ResponseWriter, r *http.Request) {
	opts, err := c.listOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := c.svc.List(r.Context(), opts)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	resp := listEventsResp{Events: make([]eventJSON, 0, len(recs)), LastSeq: c.svc.Stats().LastSeq}
	for _, rec := range recs {
		resp.Events = append(resp.Events, toEventJSON(rec))
	}
	writeJSON(w, resp)
}

// handleStreamSSE tails the log as Server-Sent Events.
//
// "from=earliest" replays the retained records first; the default starts at
// the next append. A reconnecting client's Last-Event-ID overrides both.
func (c *EventsController) handleStreamSSE(w http.ResponseWriter, r *http.Request) {
	opts, err := c.listOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := eventsvc.ValidateFilter(opts.Filter); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if id := r.Header.Get("Last-Event-ID"); id != "" {
		if opts.Since, err = parseSeq(id); err != nil {
			writeError(w, http.StatusBadRequest, "invalid Last-Event-ID")
			return
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	sink := sseSink{w: w}
	_, _ = w.Write([]byte(": connected\n\n"))
	_ = sink.Flush()

	err = c.svc.Stream(r.Context(), eventsvc.StreamOptions{ListOptions: opts, From: r.URL.Query().Get("from")}, sink)
	if err != nil && r.Context().Err() == nil {
		c.rt.Logger().Debug("event stream ended", log.Err(err))
	}
}
