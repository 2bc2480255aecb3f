package match

import (
	"crypto/sha1"
	"fmt"
)

// SnapshotVersion is the schema version written by this build.
const SnapshotVersion = 1

// Team is one side of a match.
type Team struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Score is the running score carried by goal and period events.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// EventRecord is one timeline event. Records stored in a MatchState have
// already been announced.
type EventRecord struct {
	ID          string    `json:"eventId"`
	Type        EventType `json:"type"`
	Minute      string    `json:"minute"`
	Period      Period    `json:"period,omitempty"`
	TeamID      string    `json:"teamId,omitempty"`
	PlayerID    string    `json:"playerId,omitempty"`
	PlayerAlias string    `json:"playerAlias,omitempty"`
	Score       *Score    `json:"score,omitempty"`

	// RawType is the upstream type code, kept for logging dropped events.
	RawType string `json:"-"`
}

// MatchState is the tracked state of one match.
type MatchState struct {
	ID       string        `json:"matchId"`
	Status   Status        `json:"status"`
	Period   Period        `json:"period"`
	HomeTeam Team          `json:"homeTeam"`
	AwayTeam Team          `json:"awayTeam"`
	Events   []EventRecord `json:"events"`
	// Settled is set once the match was seen finished twice in a row.
	Settled bool `json:"settled,omitempty"`
}

// Clone returns a copy of m whose event slice does not alias m's.
func (m MatchState) Clone() MatchState {
	out := m
	if m.Events != nil {
		out.Events = make([]EventRecord, len(m.Events))
		copy(out.Events, m.Events)
	}
	return out
}

// HasEvent reports whether an event with the given type has been recorded.
func (m MatchState) HasEvent(t EventType) bool {
	for _, e := range m.Events {
		if e.Type == t {
			return true
		}
	}
	return false
}

// Retired reports whether m may leave the snapshot: it is finished and either
// its end of game was announced or it has settled.
func (m MatchState) Retired() bool {
	return m.Status == StatusFinished && (m.HasEvent(EventEndOfGame) || m.Settled)
}

// TeamName resolves an upstream team id to the side's name.
func (m MatchState) TeamName(teamID string) string {
	switch teamID {
	case "":
		return ""
	case m.HomeTeam.ID:
		return m.HomeTeam.Name
	case m.AwayTeam.ID:
		return m.AwayTeam.Name
	}
	return ""
}

// Snapshot is the persisted record of tracked matches and freshness tokens.
type Snapshot struct {
	Version     int               `json:"version"`
	LiveMatches []MatchState      `json:"liveMatches"`
	ETag        map[string]string `json:"etag"`
	UpdatedAt   string            `json:"updatedAt,omitempty"`
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version:     SnapshotVersion,
		LiveMatches: make([]MatchState, 0),
		ETag:        make(map[string]string),
	}
}

// Normalize fills nil collections so a decoded snapshot behaves like a new one.
func (s *Snapshot) Normalize() {
	if s.Version == 0 {
		s.Version = SnapshotVersion
	}
	if s.LiveMatches == nil {
		s.LiveMatches = make([]MatchState, 0)
	}
	if s.ETag == nil {
		s.ETag = make(map[string]string)
	}
	for i := range s.LiveMatches {
		if s.LiveMatches[i].Events == nil {
			s.LiveMatches[i].Events = make([]EventRecord, 0)
		}
	}
}

// Find returns the tracked state for matchID.
func (s *Snapshot) Find(matchID string) (MatchState, bool) {
	for _, m := range s.LiveMatches {
		if m.ID == matchID {
			return m, true
		}
	}
	return MatchState{}, false
}

// Payload is one freshly fetched match with its full event list.
type Payload struct {
	MatchID  string
	Status   Status
	Period   Period
	HomeTeam Team
	AwayTeam Team
	Events   []EventRecord
	ETag     string
}

// Notable is an event to announce, paired with the match state as it was
// before the current run changed it.
type Notable struct {
	Match     MatchState
	Event     EventRecord
	Synthetic bool
}

// DeriveEventID builds a deterministic id for upstream events that carry none.
// seq distinguishes events sharing type and minute within one payload.
func DeriveEventID(matchID, eventType, minute string, seq int) string {
	h := sha1.New()
	h.Write([]byte(fmt.Sprintf("%s|%s|%s|%d", matchID, eventType, minute, seq)))
	return fmt.Sprintf("%x", h.Sum(nil))
}
