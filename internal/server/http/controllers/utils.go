package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rzbill/lorabridge/internal/eventlog"
	"github.com/rzbill/lorabridge/internal/radio"
	eventsvc "github.com/rzbill/lorabridge/internal/services/events"
	"github.com/rzbill/lorabridge/internal/settings"
)

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a 200 JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// writeText writes a plain-text response, the format the dashboard expects.
func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, settings.ErrInvalidSiteID),
		errors.Is(err, settings.ErrInvalidDeviceNumber),
		errors.Is(err, eventsvc.ErrInvalidFilter),
		errors.Is(err, eventlog.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, radio.ErrNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseLimit returns 0 for empty or invalid values.
func parseLimit(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return 0
}

// parseSeq parses a sequence cursor; empty means 0.
func parseSeq(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(strings.TrimSpace(s), 10, 64)
}

// parseTypes accepts repeated and comma-separated type parameters.
func parseTypes(values []string) ([]eventlog.Category, error) {
	var out []eventlog.Category
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, err := eventlog.ParseCategory(part)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
	return out, nil
}
