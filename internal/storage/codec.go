package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pfrederiksen/worldcup-events/internal/match"
)

// ErrUnsupportedVersion is returned when a snapshot was written by a newer
// schema.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Encode serializes a snapshot as indented JSON.
func Encode(snapshot *match.Snapshot) ([]byte, error) {
	if snapshot.Version == 0 {
		snapshot.Version = match.SnapshotVersion
	}
	return json.MarshalIndent(snapshot, "", "  ")
}

// Decode parses a snapshot and normalizes missing collections.
func Decode(data []byte) (*match.Snapshot, error) {
	var snapshot match.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if snapshot.Version > match.SnapshotVersion {
		return nil, fmt.Errorf("%w: %d (this build writes %d)", ErrUnsupportedVersion, snapshot.Version, match.SnapshotVersion)
	}
	snapshot.Normalize()
	return &snapshot, nil
}
