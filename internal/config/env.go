package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays LORABRIDGE_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	num64 := func(name string, dst *int64) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				*dst = n
			}
		}
	}
	dur := func(name string, dst *Duration) {
		if v := os.Getenv(name); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = Duration(d)
			}
		}
	}

	str("LORABRIDGE_DATA_DIR", &cfg.DataDir)
	str("LORABRIDGE_FSYNC", &cfg.Fsync)
	str("LORABRIDGE_HTTP_ADDR", &cfg.HTTPAddr)
	str("LORABRIDGE_GRPC_ADDR", &cfg.GRPCAddr)
	num("LORABRIDGE_LOG_CAPACITY", &cfg.LogCapacity)
	str("LORABRIDGE_TIME_ZONE", &cfg.TimeZone)

	str("LORABRIDGE_NTP_SERVER", &cfg.NTP.Server)
	num("LORABRIDGE_NTP_ATTEMPTS", &cfg.NTP.Attempts)
	dur("LORABRIDGE_NTP_TIMEOUT", &cfg.NTP.Timeout)
	dur("LORABRIDGE_NTP_INTERVAL", &cfg.NTP.Interval)

	str("LORABRIDGE_RADIO_DRIVER", &cfg.Radio.Driver)
	str("LORABRIDGE_RADIO_LISTEN_ADDR", &cfg.Radio.ListenAddr)
	str("LORABRIDGE_RADIO_REMOTE_ADDR", &cfg.Radio.RemoteAddr)
	dur("LORABRIDGE_RADIO_POLL_INTERVAL", &cfg.Radio.PollInterval)
	num64("LORABRIDGE_RADIO_FREQUENCY_HZ", &cfg.Radio.FrequencyHz)
	num("LORABRIDGE_RADIO_TX_POWER_DBM", &cfg.Radio.TxPowerDBm)
	num("LORABRIDGE_RADIO_SPREADING_FACTOR", &cfg.Radio.SpreadingFactor)
	num64("LORABRIDGE_RADIO_BANDWIDTH_HZ", &cfg.Radio.BandwidthHz)
	num("LORABRIDGE_RADIO_CODING_RATE", &cfg.Radio.CodingRate)

	num("LORABRIDGE_DEVICE_NUMBER", &cfg.Device.DeviceNumber)
	str("LORABRIDGE_SITE_ID", &cfg.Device.SiteID)

	dur("LORABRIDGE_WS_CLEANUP_INTERVAL", &cfg.WebSocket.CleanupInterval)
	num("LORABRIDGE_WS_QUEUE_SIZE", &cfg.WebSocket.QueueSize)

	str("LORABRIDGE_REDIS_ADDR", &cfg.Redis.Addr)
	str("LORABRIDGE_REDIS_CHANNEL", &cfg.Redis.Channel)

	str("LORABRIDGE_LOG_LEVEL", &cfg.Log.Level)
	str("LORABRIDGE_LOG_FORMAT", &cfg.Log.Format)
}
