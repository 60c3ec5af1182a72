package timesync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T, tz string, at time.Time) *Clock {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	require.NoError(t, err)
	c := NewClock(loc)
	c.now = func() time.Time { return at }
	return c
}

func TestClockFormatted(t *testing.T) {
	at := time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC)
	c := fixedClock(t, "UTC", at)
	assert.Equal(t, "2024-05-01 16:00:00 UTC", c.Formatted())
	assert.False(t, c.Synced())
}

func TestClockAppliesOffset(t *testing.T) {
	at := time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC)
	c := fixedClock(t, "UTC", at)
	c.SetOffset(90 * time.Second)
	assert.True(t, c.Synced())
	assert.Equal(t, 90*time.Second, c.Offset())
	assert.Equal(t, "2024-05-01 16:01:30 UTC", c.Formatted())
}

func TestClockZoneName(t *testing.T) {
	at := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	c := fixedClock(t, "UTC", at)
	assert.Equal(t, "UTC", c.ZoneName())

	fixed := NewClock(time.FixedZone("MST", -7*3600))
	fixed.now = func() time.Time { return at }
	assert.Equal(t, "MST", fixed.ZoneName())
	assert.Equal(t, "2024-07-01 05:00:00 MST", fixed.Formatted())
}

func TestNilLocationIsLocal(t *testing.T) {
	assert.Equal(t, time.Local, NewClock(nil).Location())
}
