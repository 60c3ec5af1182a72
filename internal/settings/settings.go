package settings

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rzbill/lorabridge/internal/eventlog"
)

var (
	ErrInvalidSiteID       = errors.New("invalid site ID")
	ErrInvalidDeviceNumber = errors.New("invalid device number")
)

// Logging holds the per-category event switches.
type Logging struct {
	System bool `json:"enableSystemLogs"`
	HTTP   bool `json:"enableHttpLogs"`
	LoRa   bool `json:"enableLoRaLogs"`
}

// Flags converts to the gate representation.
func (l Logging) Flags() eventlog.Flags {
	return eventlog.Flags{System: l.System, Transport: l.HTTP, Radio: l.LoRa}
}

// Settings is the persisted device configuration. The embedded Logging keeps
// the JSON shape flat.
type Settings struct {
	DeviceNumber int    `json:"deviceNumber"`
	SiteID       string `json:"siteID"`
	Logging
}

// Defaults returns the first-boot settings.
func Defaults() Settings {
	return Settings{
		DeviceNumber: 1,
		SiteID:       "default_site",
		Logging:      Logging{System: true, HTTP: true, LoRa: true},
	}
}

// ValidateSiteID accepts letters, digits, '-' and '_'. The empty string is
// accepted.
func ValidateSiteID(id string) error {
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidSiteID, id)
		}
	}
	return nil
}

// ParseDeviceNumber parses a decimal device number from a form value.
func ParseDeviceNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDeviceNumber, s)
	}
	return n, nil
}

// Validate checks every field.
func (s Settings) Validate() error {
	if s.DeviceNumber < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDeviceNumber, s.DeviceNumber)
	}
	return ValidateSiteID(s.SiteID)
}
