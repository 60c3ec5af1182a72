package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.LogCapacity != 100 {
		t.Fatalf("log capacity default = %d", cfg.LogCapacity)
	}
	if cfg.Device.SiteID != "default_site" || cfg.Device.DeviceNumber != 1 {
		t.Fatalf("device defaults = %+v", cfg.Device)
	}
	if cfg.NTP.Attempts != 10 || cfg.NTP.Server != "pool.ntp.org" {
		t.Fatalf("ntp defaults = %+v", cfg.NTP)
	}
	if cfg.Radio.Driver != "none" || cfg.Radio.SpreadingFactor != 12 {
		t.Fatalf("radio defaults = %+v", cfg.Radio)
	}
	if cfg.WebSocket.CleanupInterval.Std() != 5*time.Second {
		t.Fatalf("ws cleanup default = %v", cfg.WebSocket.CleanupInterval.Std())
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lorabridge.json")
	data := []byte(`{"httpAddr":":80","logCapacity":50,"ntp":{"server":"time.example","interval":"2m"},"device":{"siteID":"north"}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":80" || cfg.LogCapacity != 50 {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
	if cfg.NTP.Server != "time.example" || cfg.NTP.Interval.Std() != 2*time.Minute {
		t.Fatalf("ntp = %+v", cfg.NTP)
	}
	// untouched fields keep their defaults
	if cfg.NTP.Attempts != 10 || cfg.Device.DeviceNumber != 1 {
		t.Fatalf("defaults lost: %+v %+v", cfg.NTP, cfg.Device)
	}
	if cfg.Device.SiteID != "north" {
		t.Fatalf("site = %q", cfg.Device.SiteID)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lorabridge.yaml")
	data := []byte(`
timeZone: America/Denver
radio:
  driver: udp
  remoteAddr: 127.0.0.1:1680
  pollInterval: 20ms
redis:
  addr: localhost:6379
`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Radio.Driver != "udp" || cfg.Radio.RemoteAddr != "127.0.0.1:1680" {
		t.Fatalf("radio = %+v", cfg.Radio)
	}
	if cfg.Radio.PollInterval.Std() != 20*time.Millisecond {
		t.Fatalf("poll interval = %v", cfg.Radio.PollInterval.Std())
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.Channel != "lorabridge:notifications" {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	if cfg.TimeZone != "America/Denver" {
		t.Fatalf("tz = %q", cfg.TimeZone)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(file, []byte(`{"ntp":{"interval":"soon"}}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(file); err == nil {
		t.Fatalf("expected error for bad duration")
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("LORABRIDGE_HTTP_ADDR", ":8081")
	t.Setenv("LORABRIDGE_LOG_CAPACITY", "25")
	t.Setenv("LORABRIDGE_NTP_INTERVAL", "30s")
	t.Setenv("LORABRIDGE_RADIO_FREQUENCY_HZ", "868000000")
	t.Setenv("LORABRIDGE_SITE_ID", "east")
	t.Setenv("LORABRIDGE_WS_QUEUE_SIZE", "not-a-number")
	FromEnv(&cfg)
	if cfg.HTTPAddr != ":8081" || cfg.LogCapacity != 25 {
		t.Fatalf("env override: %+v", cfg)
	}
	if cfg.NTP.Interval.Std() != 30*time.Second {
		t.Fatalf("env override duration")
	}
	if cfg.Radio.FrequencyHz != 868_000_000 {
		t.Fatalf("env override frequency")
	}
	if cfg.Device.SiteID != "east" {
		t.Fatalf("env override site")
	}
	if cfg.WebSocket.QueueSize != 16 {
		t.Fatalf("invalid int should be ignored, got %d", cfg.WebSocket.QueueSize)
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()
	if loc, err := cfg.Location(); err != nil || loc != time.Local {
		t.Fatalf("default location = %v, %v", loc, err)
	}
	cfg.TimeZone = "UTC"
	if loc, err := cfg.Location(); err != nil || loc != time.UTC {
		t.Fatalf("utc location = %v, %v", loc, err)
	}
	cfg.TimeZone = "Not/AZone"
	if _, err := cfg.Location(); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}
