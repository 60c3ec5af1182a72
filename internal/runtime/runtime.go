package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cfgpkg "github.com/rzbill/lorabridge/internal/config"
	"github.com/rzbill/lorabridge/internal/eventlog"
	"github.com/rzbill/lorabridge/internal/notify"
	"github.com/rzbill/lorabridge/internal/radio"
	"github.com/rzbill/lorabridge/internal/settings"
	pebblestore "github.com/rzbill/lorabridge/internal/storage/pebble"
	"github.com/rzbill/lorabridge/internal/timesync"
	"github.com/rzbill/lorabridge/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	Config  cfgpkg.Config
	Logger  log.Logger
	// Device overrides the transceiver selected by Config.Radio.Driver.
	Device radio.Transceiver
	// Forwarder overrides the Redis forwarder selected by Config.Redis.
	Forwarder notify.Forwarder
}

// Runtime wires storage, config and the gateway components for one process
// lifetime. A restart builds a fresh Runtime, so the event log starts empty.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
	logger log.Logger

	clock    *timesync.Clock
	events   *eventlog.Log
	store    *settings.Store
	settings *settings.Manager
	hub      *notify.Hub
	radio    *radio.Service

	started time.Time
	boots   uint64

	restartOnce sync.Once
	restart     chan struct{}
}

// Open initializes storage and every component. Nothing is started: the
// caller runs the radio loop, syncer and servers.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if opts.DataDir == "" {
		opts.DataDir = cfg.DataDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", cfg.TimeZone, err)
	}
	clock := timesync.NewClock(loc)
	events := eventlog.New(eventlog.Options{Capacity: cfg.LogCapacity, Clock: clock})

	dev := opts.Device
	if dev == nil {
		if dev, err = newDevice(cfg.Radio); err != nil {
			return nil, err
		}
	}

	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync})
	if err != nil {
		return nil, err
	}
	store := settings.NewStore(db)
	defaults := settings.Defaults()
	defaults.DeviceNumber = cfg.Device.DeviceNumber
	defaults.SiteID = cfg.Device.SiteID
	mgr, err := settings.NewManager(store, events.Gate(), events, logger, defaults)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	boots, err := store.IncrementBoots()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boot counter: %w", err)
	}

	fwd := opts.Forwarder
	if fwd == nil && cfg.Redis.Addr != "" {
		fwd = notify.NewRedisForwarder(cfg.Redis.Addr, cfg.Redis.Channel)
	}
	hub := notify.NewHub(notify.Options{QueueSize: cfg.WebSocket.QueueSize, Forwarder: fwd, Logger: logger})

	rs := radio.NewService(radio.ServiceOptions{
		Device: dev,
		Params: radio.Params{
			FrequencyHz:     cfg.Radio.FrequencyHz,
			TxPowerDBm:      cfg.Radio.TxPowerDBm,
			SpreadingFactor: cfg.Radio.SpreadingFactor,
			BandwidthHz:     cfg.Radio.BandwidthHz,
			CodingRate:      cfg.Radio.CodingRate,
		},
		Identity:     mgr,
		Events:       events,
		Hub:          hub,
		PollInterval: cfg.Radio.PollInterval.Std(),
		Logger:       logger,
	})

	return &Runtime{
		db:       db,
		config:   cfg,
		logger:   logger,
		clock:    clock,
		events:   events,
		store:    store,
		settings: mgr,
		hub:      hub,
		radio:    rs,
		started:  time.Now(),
		boots:    boots,
		restart:  make(chan struct{}),
	}, nil
}

func newDevice(rc cfgpkg.RadioConfig) (radio.Transceiver, error) {
	switch rc.Driver {
	case "", "none":
		return radio.Null{}, nil
	case "udp":
		return radio.NewUDPTransceiver(rc.ListenAddr, rc.RemoteAddr), nil
	case "loopback":
		return radio.NewLoopback(), nil
	}
	return nil, fmt.Errorf("unknown radio driver %q", rc.Driver)
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	var errs []error
	if r.radio != nil {
		errs = append(errs, r.radio.Close())
	}
	if r.hub != nil {
		errs = append(errs, r.hub.Close())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	return errors.Join(errs...)
}

// CheckHealth verifies the settings store answers reads.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.store.UpdatedAt(); err != nil {
		return fmt.Errorf("settings store: %w", err)
	}
	return nil
}

// NewSyncer builds the NTP routine for this runtime's clock.
func (r *Runtime) NewSyncer() *timesync.Syncer {
	n := r.config.NTP
	return timesync.NewSyncer(r.clock, timesync.SyncerOptions{
		Server:   n.Server,
		Attempts: n.Attempts,
		Interval: n.Interval.Std(),
		Query:    timesync.NTPQuery(n.Timeout.Std()),
		Events:   r.events,
		Logger:   r.logger,
	})
}

// RequestRestart asks the process to restart in place. Safe to call more than once.
func (r *Runtime) RequestRestart() {
	r.restartOnce.Do(func() { close(r.restart) })
}

// RestartRequested is closed once RequestRestart has been called.
func (r *Runtime) RestartRequested() <-chan struct{} { return r.restart }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

func (r *Runtime) Config() cfgpkg.Config { return r.config }

func (r *Runtime) Logger() log.Logger { return r.logger }

func (r *Runtime) Clock() *timesync.Clock { return r.clock }

func (r *Runtime) Events() *eventlog.Log { return r.events }

func (r *Runtime) Settings() *settings.Manager { return r.settings }

func (r *Runtime) Hub() *notify.Hub { return r.hub }

func (r *Runtime) Radio() *radio.Service { return r.radio }

func (r *Runtime) StartedAt() time.Time { return r.started }

// Boots is the number of times a runtime has been opened on this data dir.
func (r *Runtime) Boots() uint64 { return r.boots }
