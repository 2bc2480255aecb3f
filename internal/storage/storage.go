package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/worldcup-events/internal/match"
)

// ErrNotFound is returned when no snapshot has been stored yet.
var ErrNotFound = errors.New("snapshot not found")

// Store loads and saves snapshots.
type Store interface {
	Load(ctx context.Context) (*match.Snapshot, error)
	Save(ctx context.Context, snapshot *match.Snapshot) error
}

// Backend reads and writes the encoded snapshot.
type Backend interface {
	// Read returns ErrNotFound when nothing has been written.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	// String describes the location for logs.
	String() string
}

// BlobStore handles encoding of snapshots on top of a Backend
type BlobStore struct {
	backend Backend
	now     func() time.Time
}

// New creates a store on top of backend.
func New(backend Backend) *BlobStore {
	return &BlobStore{backend: backend, now: time.Now}
}

// Backend returns the underlying backend.
func (s *BlobStore) Backend() Backend {
	return s.backend
}

// Load reads and decodes the stored snapshot.
func (s *BlobStore) Load(ctx context.Context) (*match.Snapshot, error) {
	data, err := s.backend.Read(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("reading snapshot from %s: %w", s.backend, err)
	}

	snapshot, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot from %s: %w", s.backend, err)
	}
	return snapshot, nil
}

// Save writes the snapshot stamped with the current time. The caller's
// snapshot is left as is.
func (s *BlobStore) Save(ctx context.Context, snapshot *match.Snapshot) error {
	stamped := *snapshot
	stamped.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	data, err := Encode(&stamped)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := s.backend.Write(ctx, data); err != nil {
		return fmt.Errorf("writing snapshot to %s: %w", s.backend, err)
	}
	return nil
}

// LoadOrEmpty loads the snapshot, returning an empty one when none exists.
// Other errors are returned unchanged.
func LoadOrEmpty(ctx context.Context, store Store) (*match.Snapshot, bool, error) {
	snapshot, err := store.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return match.NewSnapshot(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return snapshot, true, nil
}
