package settings

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/lorabridge/internal/eventlog"
	pebblestore "github.com/rzbill/lorabridge/internal/storage/pebble"
)

func openStore(t *testing.T, dir string) *Store {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestValidateSiteID(t *testing.T) {
	for _, ok := range []string{"", "default_site", "North-2", "abcXYZ019"} {
		assert.NoError(t, ValidateSiteID(ok), ok)
	}
	for _, bad := range []string{"a b", "site:1", "ü", "x/y", "semi;colon"} {
		assert.ErrorIs(t, ValidateSiteID(bad), ErrInvalidSiteID, bad)
	}
}

func TestParseDeviceNumber(t *testing.T) {
	n, err := ParseDeviceNumber("42")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	for _, bad := range []string{"", "abc", "-1", "1.5"} {
		_, err := ParseDeviceNumber(bad)
		assert.ErrorIs(t, err, ErrInvalidDeviceNumber, bad)
	}
}

func TestSettingsJSONShape(t *testing.T) {
	b, err := json.Marshal(Defaults())
	require.NoError(t, err)
	assert.JSONEq(t, `{"deviceNumber":1,"siteID":"default_site","enableSystemLogs":true,"enableHttpLogs":true,"enableLoRaLogs":true}`, string(b))
}

func TestStoreLoadDefaultsAndSave(t *testing.T) {
	dir := t.TempDir()
	st := openStore(t, dir)

	got, err := st.Load(Defaults())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
	ts, err := st.UpdatedAt()
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	want := Settings{DeviceNumber: 7, SiteID: "farm", Logging: Logging{System: true, LoRa: true}}
	require.NoError(t, st.Save(context.Background(), want))

	got, err = st.Load(Defaults())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	ts, err = st.UpdatedAt()
	require.NoError(t, err)
	assert.False(t, ts.IsZero())
}

func TestIncrementBoots(t *testing.T) {
	st := openStore(t, t.TempDir())
	for want := uint64(1); want <= 3; want++ {
		n, err := st.IncrementBoots()
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}

type sink struct{ msgs []string }

func (s *sink) System(m string) { s.msgs = append(s.msgs, m) }

func TestManagerAppliesGateOnLoad(t *testing.T) {
	st := openStore(t, t.TempDir())
	saved := Defaults()
	saved.HTTP = false
	require.NoError(t, st.Save(context.Background(), saved))

	gate := eventlog.NewGate()
	m, err := NewManager(st, gate, nil, nil, Defaults())
	require.NoError(t, err)
	assert.False(t, gate.Enabled(eventlog.Transport))
	assert.True(t, gate.Enabled(eventlog.System))
	assert.Equal(t, saved, m.Get())
}

func TestManagerUpdate(t *testing.T) {
	st := openStore(t, t.TempDir())
	gate := eventlog.NewGate()
	ev := &sink{}
	m, err := NewManager(st, gate, ev, nil, Defaults())
	require.NoError(t, err)

	next := Settings{DeviceNumber: 3, SiteID: "north", Logging: Logging{System: true, HTTP: true, LoRa: false}}
	require.NoError(t, m.Update(context.Background(), next))

	assert.Equal(t, next, m.Get())
	assert.Equal(t, "north", m.SiteID())
	assert.Equal(t, 3, m.DeviceNumber())
	assert.False(t, gate.Enabled(eventlog.Radio))
	assert.Equal(t, []string{"Settings updated: Device Number=3, Site ID=north"}, ev.msgs)

	persisted, err := st.Load(Defaults())
	require.NoError(t, err)
	assert.Equal(t, next, persisted)
}

func TestManagerRejectsInvalid(t *testing.T) {
	st := openStore(t, t.TempDir())
	ev := &sink{}
	m, err := NewManager(st, eventlog.NewGate(), ev, nil, Defaults())
	require.NoError(t, err)

	bad := Defaults()
	bad.SiteID = "no spaces"
	assert.ErrorIs(t, m.Update(context.Background(), bad), ErrInvalidSiteID)
	bad = Defaults()
	bad.DeviceNumber = -2
	assert.ErrorIs(t, m.Update(context.Background(), bad), ErrInvalidDeviceNumber)

	assert.Equal(t, Defaults(), m.Get())
	assert.Empty(t, ev.msgs)
}

func TestUpdateEventRespectsNewSystemSwitch(t *testing.T) {
	st := openStore(t, t.TempDir())
	l := eventlog.New(eventlog.Options{Capacity: 4})
	m, err := NewManager(st, l.Gate(), l, nil, Defaults())
	require.NoError(t, err)

	off := Defaults()
	off.System = false
	require.NoError(t, m.Update(context.Background(), off))
	assert.Equal(t, 0, l.Len())

	require.NoError(t, m.Update(context.Background(), Defaults()))
	recs := l.Snapshot()
	require.Len(t, recs, 1)
	assert.Equal(t, "Settings updated: Device Number=1, Site ID=default_site", recs[0].Message)
}

func TestUpdateWithRunsHookBeforeApplying(t *testing.T) {
	st := openStore(t, t.TempDir())
	gate := eventlog.NewGate()
	ev := &sink{}
	m, err := NewManager(st, gate, ev, nil, Defaults())
	require.NoError(t, err)

	next := Defaults()
	next.HTTP = false
	calls := 0
	require.NoError(t, m.UpdateWith(context.Background(), next, func() {
		calls++
		assert.True(t, gate.Enabled(eventlog.Transport))
		assert.Empty(t, ev.msgs)
	}))
	assert.Equal(t, 1, calls)
	assert.False(t, gate.Enabled(eventlog.Transport))
	assert.Len(t, ev.msgs, 1)

	bad := Defaults()
	bad.SiteID = "a b"
	assert.ErrorIs(t, m.UpdateWith(context.Background(), bad, func() { calls++ }), ErrInvalidSiteID)
	assert.Equal(t, 1, calls)
}
