package eventlog

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies where an event came from.
type Category uint8

const (
	// System covers bootstrap, maintenance and configuration events.
	System Category = iota + 1
	// Transport covers HTTP requests; records carry source and destination.
	Transport
	// Radio covers LoRa traffic.
	Radio
)

// Categories lists every valid category in rendering order.
var Categories = [...]Category{System, Transport, Radio}

var ErrUnknownCategory = errors.New("unknown event category")

// String returns the rendered tag: SYSTEM, HTTP or LoRa.
func (c Category) String() string {
	switch c {
	case System:
		return "SYSTEM"
	case Transport:
		return "HTTP"
	case Radio:
		return "LoRa"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the three categories.
func (c Category) Valid() bool { return c >= System && c <= Radio }

func (c Category) index() int { return int(c) - 1 }

// ParseCategory accepts rendered tags and the lower-case names.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "system":
		return System, nil
	case "http", "transport":
		return Transport, nil
	case "lora", "radio":
		return Radio, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// MarshalText renders the tag so categories can be used as JSON values.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Record is one logged occurrence. Records are values: the log hands out
// copies and never changes a record after admission.
type Record struct {
	// Seq is the admission number, strictly increasing across the process.
	Seq         uint64
	Category    Category
	Message     string
	Source      string
	Destination string
	// Timestamp is formatted once at admission, e.g. "2024-05-01 10:00:00 MDT".
	Timestamp string
}
