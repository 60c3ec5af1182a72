package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// TextFormatter renders entries as a single human-readable line:
//
//	2024-05-01T10:00:00.000Z INFO  message key=value
type TextFormatter struct {
	// TimestampFormat defaults to RFC3339 with milliseconds.
	TimestampFormat string
	// ShowCaller appends the caller location.
	ShowCaller bool
}

func (f *TextFormatter) Format(e *Entry) ([]byte, error) {
	layout := f.TimestampFormat
	if layout == "" {
		layout = "2006-01-02T15:04:05.000Z07:00"
	}
	var b bytes.Buffer
	b.WriteString(e.Timestamp.Format(layout))
	b.WriteByte(' ')
	fmt.Fprintf(&b, "%-5s ", e.Level.String())
	b.WriteString(e.Message)
	for _, k := range sortedKeys(e.Fields) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		writeTextValue(&b, e.Fields[k])
	}
	if f.ShowCaller && e.Caller != "" {
		b.WriteString(" caller=")
		b.WriteString(e.Caller)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func writeTextValue(b *bytes.Buffer, v interface{}) {
	s := fmt.Sprint(v)
	if s == "" || bytes.ContainsAny([]byte(s), " \t\"=") {
		fmt.Fprintf(b, "%q", s)
		return
	}
	b.WriteString(s)
}

// JSONFormatter renders entries as one JSON object per line.
type JSONFormatter struct {
	ShowCaller bool
}

func (f *JSONFormatter) Format(e *Entry) ([]byte, error) {
	m := make(map[string]interface{}, len(e.Fields)+4)
	for k, v := range e.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		m[k] = v
	}
	m["time"] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	m["level"] = e.Level.String()
	m["msg"] = e.Message
	if f.ShowCaller && e.Caller != "" {
		m["caller"] = e.Caller
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func sortedKeys(m Fields) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
