package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/rzbill/lorabridge/internal/eventlog"
	"github.com/rzbill/lorabridge/pkg/log"
)

// EventSink receives the "Settings updated" System event.
type EventSink interface {
	System(message string)
}

// Manager owns the live settings. Reads are concurrent; updates are
// serialized so the store, the gate and the in-memory copy never disagree.
type Manager struct {
	mu     sync.RWMutex
	cur    Settings
	store  *Store
	gate   *eventlog.Gate
	events EventSink
	log    log.Logger
}

// NewManager loads the stored settings (or defaults) and applies their
// logging switches to gate.
func NewManager(store *Store, gate *eventlog.Gate, events EventSink, logger log.Logger, defaults Settings) (*Manager, error) {
	cur, err := store.Load(defaults)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}
	gate.Apply(cur.Flags())
	return &Manager{
		cur:    cur,
		store:  store,
		gate:   gate,
		events: events,
		log:    logger.WithComponent("settings"),
	}, nil
}

// Get returns a copy of the current settings.
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

func (m *Manager) SiteID() string { return m.Get().SiteID }

func (m *Manager) DeviceNumber() int { return m.Get().DeviceNumber }

// Update validates, persists and applies next. The System event is appended
// after the gate changes, so it obeys the new System switch.
func (m *Manager) Update(ctx context.Context, next Settings) error {
	return m.UpdateWith(ctx, next, nil)
}

// UpdateWith is Update with a hook that runs once next is stored but before
// it takes effect. persisted is not called when validation or storage fails.
// It runs under the update lock and must not call back into m.
func (m *Manager) UpdateWith(ctx context.Context, next Settings, persisted func()) error {
	if err := next.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	if err := m.store.Save(ctx, next); err != nil {
		m.mu.Unlock()
		return err
	}
	if persisted != nil {
		persisted()
	}
	m.cur = next
	m.gate.Apply(next.Flags())
	m.mu.Unlock()

	msg := fmt.Sprintf("Settings updated: Device Number=%d, Site ID=%s", next.DeviceNumber, next.SiteID)
	m.log.Info(msg, log.Bool("system", next.System), log.Bool("http", next.HTTP), log.Bool("lora", next.LoRa))
	if m.events != nil {
		m.events.System(msg)
	}
	return nil
}
