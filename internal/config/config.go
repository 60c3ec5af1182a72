package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rzbill/lorabridge/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DataDir  string `json:"dataDir" yaml:"dataDir"`
	Fsync    string `json:"fsync" yaml:"fsync"`
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	GRPCAddr string `json:"grpcAddr" yaml:"grpcAddr"`

	// LogCapacity is the number of device events kept in memory.
	LogCapacity int `json:"logCapacity" yaml:"logCapacity"`
	// TimeZone is an IANA name used for event timestamps ("Local" if empty).
	TimeZone string `json:"timeZone" yaml:"timeZone"`

	NTP       NTPConfig       `json:"ntp" yaml:"ntp"`
	Radio     RadioConfig     `json:"radio" yaml:"radio"`
	Device    DeviceDefaults  `json:"device" yaml:"device"`
	WebSocket WebSocketConfig `json:"websocket" yaml:"websocket"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	Log       log.Config      `json:"log" yaml:"log"`
}

// NTPConfig controls the time-sync routine.
type NTPConfig struct {
	Server   string   `json:"server" yaml:"server"`
	Attempts int      `json:"attempts" yaml:"attempts"`
	Timeout  Duration `json:"timeout" yaml:"timeout"`
	// Interval between refreshes after the initial sync. Zero disables refresh.
	Interval Duration `json:"interval" yaml:"interval"`
}

// RadioConfig selects the transceiver driver and its parameters.
type RadioConfig struct {
	// Driver is one of none, udp or loopback.
	Driver       string   `json:"driver" yaml:"driver"`
	ListenAddr   string   `json:"listenAddr" yaml:"listenAddr"`
	RemoteAddr   string   `json:"remoteAddr" yaml:"remoteAddr"`
	PollInterval Duration `json:"pollInterval" yaml:"pollInterval"`

	FrequencyHz     int64 `json:"frequencyHz" yaml:"frequencyHz"`
	TxPowerDBm      int   `json:"txPowerDbm" yaml:"txPowerDbm"`
	SpreadingFactor int   `json:"spreadingFactor" yaml:"spreadingFactor"`
	BandwidthHz     int64 `json:"bandwidthHz" yaml:"bandwidthHz"`
	// CodingRate is the denominator of 4/x.
	CodingRate int `json:"codingRate" yaml:"codingRate"`
}

// DeviceDefaults seed the settings store on first boot.
type DeviceDefaults struct {
	DeviceNumber int    `json:"deviceNumber" yaml:"deviceNumber"`
	SiteID       string `json:"siteID" yaml:"siteID"`
}

type WebSocketConfig struct {
	CleanupInterval Duration `json:"cleanupInterval" yaml:"cleanupInterval"`
	QueueSize       int      `json:"queueSize" yaml:"queueSize"`
}

// RedisConfig enables forwarding of push notifications when Addr is set.
type RedisConfig struct {
	Addr    string `json:"addr" yaml:"addr"`
	Channel string `json:"channel" yaml:"channel"`
}

// Duration is a time.Duration that reads and writes as "5s" in JSON and YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:     DefaultDataDir(),
		Fsync:       "always",
		HTTPAddr:    ":8080",
		GRPCAddr:    ":9090",
		LogCapacity: 100,
		TimeZone:    "Local",
		NTP: NTPConfig{
			Server:   "pool.ntp.org",
			Attempts: 10,
			Timeout:  Duration(5 * time.Second),
			Interval: Duration(time.Minute),
		},
		Radio: RadioConfig{
			Driver:          "none",
			ListenAddr:      ":1700",
			PollInterval:    Duration(50 * time.Millisecond),
			FrequencyHz:     915_000_000,
			TxPowerDBm:      20,
			SpreadingFactor: 12,
			BandwidthHz:     125_000,
			CodingRate:      5,
		},
		Device: DeviceDefaults{
			DeviceNumber: 1,
			SiteID:       "default_site",
		},
		WebSocket: WebSocketConfig{
			CleanupInterval: Duration(5 * time.Second),
			QueueSize:       16,
		},
		Redis: RedisConfig{Channel: "lorabridge:notifications"},
		Log:   log.Config{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Location resolves TimeZone.
func (c Config) Location() (*time.Location, error) {
	switch c.TimeZone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	return time.LoadLocation(c.TimeZone)
}
