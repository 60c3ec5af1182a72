package settings

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pebblestore "github.com/rzbill/lorabridge/internal/storage/pebble"
)

var (
	keySettings  = []byte("settings/v1")
	keyUpdatedAt = []byte("settings/updated_at")
	keyBoots     = []byte("meta/boots")
)

// Store persists Settings as one JSON record.
type Store struct {
	db *pebblestore.DB
}

func NewStore(db *pebblestore.DB) *Store { return &Store{db: db} }

// Load returns the stored settings, or defaults when nothing was saved yet.
func (s *Store) Load(defaults Settings) (Settings, error) {
	b, err := s.db.Get(keySettings)
	if errors.Is(err, pebblestore.ErrNotFound) {
		return defaults, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	out := defaults
	if err := json.Unmarshal(b, &out); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return out, nil
}

// Save writes the settings and their update time in one batch.
func (s *Store) Save(ctx context.Context, v Settings) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixMilli()))

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(keySettings, b, nil); err != nil {
		return err
	}
	if err := batch.Set(keyUpdatedAt, ts[:], nil); err != nil {
		return err
	}
	if err := s.db.CommitBatch(ctx, batch); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// UpdatedAt returns when settings were last saved (zero if never).
func (s *Store) UpdatedAt() (time.Time, error) {
	b, err := s.db.Get(keyUpdatedAt)
	if errors.Is(err, pebblestore.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if len(b) != 8 {
		return time.Time{}, fmt.Errorf("corrupt update time (%d bytes)", len(b))
	}
	return time.UnixMilli(int64(binary.BigEndian.Uint64(b))), nil
}

// IncrementBoots bumps and returns the persistent boot counter.
func (s *Store) IncrementBoots() (uint64, error) {
	var n uint64
	b, err := s.db.Get(keyBoots)
	switch {
	case errors.Is(err, pebblestore.ErrNotFound):
	case err != nil:
		return 0, err
	case len(b) == 8:
		n = binary.BigEndian.Uint64(b)
	}
	n++
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], n)
	if err := s.db.Set(keyBoots, out[:]); err != nil {
		return 0, err
	}
	return n, nil
}
