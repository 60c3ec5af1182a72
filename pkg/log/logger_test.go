package log

import (
	"bytes"
	"encoding/json"
	"errors"
	stdlog "log"
	"strings"
	"testing"
)

func newBufLogger(t *testing.T, opts ...LoggerOption) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts = append([]LoggerOption{WithOutput(NewWriterOutput(&buf))}, opts...)
	return NewLogger(opts...), &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufLogger(t, WithLevel(WarnLevel), WithFormatter(&TextFormatter{}))
	l.Info("hidden")
	l.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "WARN  shown") {
		t.Fatalf("missing warn line: %q", out)
	}
}

func TestJSONFieldsAndComponent(t *testing.T) {
	l, buf := newBufLogger(t, WithFormatter(&JSONFormatter{}))
	l.With(Component("radio")).Info("frame", Int("bytes", 3), Err(errors.New("boom")))

	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("decode: %v (%q)", err, buf.String())
	}
	if m["msg"] != "frame" || m["level"] != "INFO" {
		t.Fatalf("unexpected header fields: %v", m)
	}
	if m["component"] != "radio" {
		t.Fatalf("component = %v", m["component"])
	}
	if m["bytes"] != float64(3) {
		t.Fatalf("bytes = %v", m["bytes"])
	}
	if m["error"] != "boom" {
		t.Fatalf("error = %v", m["error"])
	}
}

func TestRedaction(t *testing.T) {
	l, buf := newBufLogger(t, WithFormatter(&TextFormatter{}), WithRedaction("password"))
	l.Info("login", Str("password", "hunter2"))
	if strings.Contains(buf.String(), "hunter2") {
		t.Fatalf("secret leaked: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "[REDACTED]") {
		t.Fatalf("missing redaction marker: %q", buf.String())
	}
}

func TestSampling(t *testing.T) {
	l, buf := newBufLogger(t, WithFormatter(&TextFormatter{}), WithSampling(1, 3))
	for i := 0; i < 7; i++ {
		l.Info("tick")
	}
	// first one, then every 3rd of the remaining six
	if got := strings.Count(buf.String(), "tick"); got != 3 {
		t.Fatalf("sampled lines = %d, want 3", got)
	}
}

func TestApplyConfigRejectsUnknownFormat(t *testing.T) {
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestToStdLogger(t *testing.T) {
	l, buf := newBufLogger(t, WithFormatter(&TextFormatter{}))
	std := ToStdLogger(l, WarnLevel)
	std.Print("from stdlib")
	if !strings.Contains(buf.String(), "WARN  from stdlib") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
	var _ *stdlog.Logger = std
}
