package eventlog

import (
	"errors"
	"testing"
)

func TestCategoryString(t *testing.T) {
	tests := map[Category]string{System: "SYSTEM", Transport: "HTTP", Radio: "LoRa"}
	for c, want := range tests {
		if got := c.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", c, got, want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"SYSTEM", System},
		{"system", System},
		{"HTTP", Transport},
		{"transport", Transport},
		{"LoRa", Radio},
		{" radio ", Radio},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("ParseCategory(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseCategory("wifi"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestGateFlagsRoundTrip(t *testing.T) {
	g := NewGate()
	if g.Flags() != AllEnabled() {
		t.Fatalf("new gate not all-enabled: %+v", g.Flags())
	}
	want := Flags{System: true, Transport: false, Radio: true}
	g.Apply(want)
	if g.Flags() != want {
		t.Fatalf("flags = %+v, want %+v", g.Flags(), want)
	}
	if g.Enabled(Transport) {
		t.Fatalf("transport should be disabled")
	}
}
