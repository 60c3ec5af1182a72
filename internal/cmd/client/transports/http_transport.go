package transports

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrAppendUnsupported is returned by HTTPTransport.Append. Appending is a
// gRPC-only operation.
var ErrAppendUnsupported = errors.New("append is only available over gRPC")

// HTTPTransport implements EventsTransport over the /v1/events API.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport constructs a transport for the given base URL.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (t *HTTPTransport) query(req ListRequest) url.Values {
	q := url.Values{}
	if req.Filter != "" {
		q.Set("filter", req.Filter)
	}
	if req.Since > 0 {
		q.Set("since", strconv.FormatUint(req.Since, 10))
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	for _, ty := range req.Types {
		q.Add("type", ty)
	}
	return q
}

func (t *HTTPTransport) get(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	u := t.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
		if body.Error != "" {
			return nil, fmt.Errorf("http error: %s: %s", resp.Status, body.Error)
		}
		return nil, fmt.Errorf("http error: %s", resp.Status)
	}
	return resp, nil
}

// List fetches the snapshot via HTTP.
func (t *HTTPTransport) List(ctx context.Context, req ListRequest) ([]Event, error) {
	resp, err := t.get(ctx, "/v1/events", t.query(req))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out struct {
		Events []Event `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// Tail reads the SSE stream and invokes onEvent for each data line.
func (t *HTTPTransport) Tail(ctx context.Context, req TailRequest, onEvent func(Event) error) error {
	q := t.query(req.ListRequest)
	if req.From != "" {
		q.Set("from", req.From)
	}
	resp, err := t.get(ctx, "/v1/events/stream", q)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return err
		}
		if err := onEvent(ev); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return sc.Err()
}

func (t *HTTPTransport) Append(context.Context, Event) error { return ErrAppendUnsupported }
