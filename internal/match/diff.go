package match

import (
	"sort"
)

// Dropped is a new upstream event that was not announced because its type is
// not in the event table.
type Dropped struct {
	MatchID string
	Event   EventRecord
}

// Result contains the outcome of merging fresh payloads into a snapshot.
type Result struct {
	// Notable events in delivery order: by match id, synthesized events first,
	// then timeline events by minute.
	Notable []Notable

	Dropped   []Dropped
	Skipped   []string // unchanged etag, or finished in both
	Untracked []string // first seen not started or already finished
	Retired   []string

	Snapshot *Snapshot
}

// Diff merges fresh payloads into previous and returns the events to announce
// together with the snapshot to persist. previous is not modified.
func Diff(previous *Snapshot, fresh []Payload) *Result {
	if previous == nil {
		previous = NewSnapshot()
	}

	result := &Result{
		Notable:  make([]Notable, 0),
		Snapshot: NewSnapshot(),
	}

	payloads := make(map[string]Payload, len(fresh))
	for _, p := range fresh {
		if p.MatchID == "" {
			continue
		}
		if _, dup := payloads[p.MatchID]; !dup {
			payloads[p.MatchID] = p
		}
	}

	updated := make(map[string]MatchState)
	notables := make(map[string][]Notable)

	// Previously tracked matches keep their position in the snapshot.
	order := make([]string, 0, len(previous.LiveMatches)+len(payloads))
	seen := make(map[string]bool)
	for _, prev := range previous.LiveMatches {
		if seen[prev.ID] {
			continue
		}
		seen[prev.ID] = true

		if prev.Retired() {
			result.Retired = append(result.Retired, prev.ID)
			continue
		}

		p, ok := payloads[prev.ID]
		if !ok {
			order = append(order, prev.ID)
			updated[prev.ID] = prev.Clone()
			if tag, ok := previous.ETag[prev.ID]; ok {
				result.Snapshot.ETag[prev.ID] = tag
			}
			continue
		}

		// Nothing is announced for a match that was already finished. It
		// settles and retires on the next run.
		if prev.Status == StatusFinished && p.Status == StatusFinished {
			result.Skipped = append(result.Skipped, prev.ID)
			order = append(order, prev.ID)
			state := prev.Clone()
			state.Settled = true
			updated[prev.ID] = state
			if p.ETag != "" {
				result.Snapshot.ETag[prev.ID] = p.ETag
			} else if tag, ok := previous.ETag[prev.ID]; ok {
				result.Snapshot.ETag[prev.ID] = tag
			}
			continue
		}

		if tag, ok := previous.ETag[prev.ID]; ok && tag == p.ETag {
			result.Skipped = append(result.Skipped, prev.ID)
			order = append(order, prev.ID)
			updated[prev.ID] = prev.Clone()
			result.Snapshot.ETag[prev.ID] = tag
			continue
		}

		state, events, dropped := merge(&prev, p)
		order = append(order, prev.ID)
		updated[prev.ID] = state
		notables[prev.ID] = events
		result.Dropped = append(result.Dropped, dropped...)
		if p.ETag != "" {
			result.Snapshot.ETag[prev.ID] = p.ETag
		}
	}

	// Matches seen for the first time are appended in id order.
	newIDs := make([]string, 0)
	for id := range payloads {
		if !seen[id] {
			newIDs = append(newIDs, id)
		}
	}
	sort.Strings(newIDs)

	for _, id := range newIDs {
		p := payloads[id]
		if p.Status == StatusNotStarted || p.Status == StatusFinished {
			result.Untracked = append(result.Untracked, id)
			continue
		}

		state, events, dropped := merge(nil, p)
		order = append(order, id)
		updated[id] = state
		notables[id] = events
		result.Dropped = append(result.Dropped, dropped...)
		if p.ETag != "" {
			result.Snapshot.ETag[id] = p.ETag
		}
	}

	for _, id := range order {
		result.Snapshot.LiveMatches = append(result.Snapshot.LiveMatches, updated[id])
	}

	ids := make([]string, 0, len(notables))
	for id := range notables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		result.Notable = append(result.Notable, notables[id]...)
	}

	return result
}

// merge computes the new events of one match. prev is nil for a match seen for
// the first time.
func merge(prev *MatchState, p Payload) (MatchState, []Notable, []Dropped) {
	var before MatchState
	if prev != nil {
		before = prev.Clone()
	} else {
		before = MatchState{
			ID:       p.MatchID,
			Status:   p.Status,
			Period:   p.Period,
			HomeTeam: p.HomeTeam,
			AwayTeam: p.AwayTeam,
			Events:   make([]EventRecord, 0),
		}
	}

	known := make(map[string]bool, len(before.Events))
	for _, e := range before.Events {
		known[e.ID] = true
	}

	var dropped []Dropped
	fresh := make([]EventRecord, 0)
	for _, e := range normalizeEvents(p.MatchID, p.Events) {
		if known[e.ID] {
			continue
		}
		if !e.Type.Notable() {
			dropped = append(dropped, Dropped{MatchID: p.MatchID, Event: e})
			continue
		}
		fresh = append(fresh, e)
	}
	sortEvents(fresh)

	state := before.Clone()
	if p.Status.Rank() >= before.Status.Rank() {
		state.Status = p.Status
	}
	if p.Period != "" {
		state.Period = p.Period
	}
	if p.HomeTeam.Name != "" {
		state.HomeTeam = p.HomeTeam
	}
	if p.AwayTeam.Name != "" {
		state.AwayTeam = p.AwayTeam
	}
	state.Events = append(state.Events, fresh...)

	out := make([]Notable, 0, len(fresh)+1)
	if synth, ok := synthesize(prev, p); ok {
		out = append(out, Notable{Match: before, Event: synth, Synthetic: true})
	}
	for _, e := range fresh {
		out = append(out, Notable{Match: before, Event: e})
	}

	return state, out, dropped
}

// synthesize creates the status-transition announcement for a match, if any.
// A match starts once: a tracked match that already reached Live never
// announces its start again.
func synthesize(prev *MatchState, p Payload) (EventRecord, bool) {
	switch {
	case p.Status == StatusLive && (prev == nil || prev.Status.Rank() < StatusLive.Rank()):
		return EventRecord{ID: p.MatchID + ":" + string(EventMatchStart), Type: EventMatchStart}, true
	case p.Status == StatusPrematch && prev == nil:
		return EventRecord{ID: p.MatchID + ":" + string(EventMatchUpcoming), Type: EventMatchUpcoming}, true
	}
	return EventRecord{}, false
}

// normalizeEvents assigns derived ids to events without one and collapses
// duplicate ids to their first occurrence.
func normalizeEvents(matchID string, events []EventRecord) []EventRecord {
	out := make([]EventRecord, 0, len(events))
	seen := make(map[string]bool, len(events))
	seq := make(map[string]int)

	for _, e := range events {
		if e.ID == "" {
			typeKey := string(e.Type)
			if e.Type == EventUnknown || e.Type == "" {
				typeKey = "raw:" + e.RawType
			}
			k := typeKey + "|" + e.Minute
			e.ID = DeriveEventID(matchID, typeKey, e.Minute, seq[k])
			seq[k]++
		}
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}

func sortEvents(events []EventRecord) {
	sort.Slice(events, func(i, j int) bool {
		if c := ParseMinute(events[i].Minute).Compare(ParseMinute(events[j].Minute)); c != 0 {
			return c < 0
		}
		return events[i].ID < events[j].ID
	})
}
