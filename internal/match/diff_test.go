package match

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	home = Team{ID: "43922", Name: "Qatar"}
	away = Team{ID: "43927", Name: "Ecuador"}
)

func livePayload(id, etag string, events ...EventRecord) Payload {
	return Payload{
		MatchID:  id,
		Status:   StatusLive,
		Period:   PeriodFirstHalf,
		HomeTeam: home,
		AwayTeam: away,
		Events:   events,
		ETag:     etag,
	}
}

func goal(id, minute string) EventRecord {
	return EventRecord{ID: id, Type: EventGoal, Minute: minute, TeamID: home.ID, PlayerID: "p1", Score: &Score{Home: 1}}
}

func notableIDs(result *Result) []string {
	ids := make([]string, 0, len(result.Notable))
	for _, n := range result.Notable {
		ids = append(ids, n.Event.ID)
	}
	return ids
}

func TestDiff_EndToEnd(t *testing.T) {
	result := Diff(nil, []Payload{livePayload("M1", "t1", goal("e1", "12'"))})

	require.Len(t, result.Notable, 2)
	assert.Equal(t, EventMatchStart, result.Notable[0].Event.Type)
	assert.True(t, result.Notable[0].Synthetic)
	assert.Equal(t, "e1", result.Notable[1].Event.ID)

	assert.Equal(t, "t1", result.Snapshot.ETag["M1"])
	m1, ok := result.Snapshot.Find("M1")
	require.True(t, ok)
	require.Len(t, m1.Events, 1)
	assert.Equal(t, "e1", m1.Events[0].ID)
	assert.Equal(t, StatusLive, m1.Status)
}

func TestDiff_NewMatchPairsWithEmptyState(t *testing.T) {
	result := Diff(nil, []Payload{livePayload("M1", "t1", goal("e1", "12'"))})

	for _, n := range result.Notable {
		assert.Equal(t, "M1", n.Match.ID)
		assert.Equal(t, "Qatar", n.Match.HomeTeam.Name)
		assert.Empty(t, n.Match.Events)
	}
}

func TestDiff_Idempotent(t *testing.T) {
	fresh := []Payload{livePayload("M1", "t1", goal("e1", "12'"), goal("e2", "30'"))}

	first := Diff(NewSnapshot(), fresh)
	require.NotEmpty(t, first.Notable)

	second := Diff(first.Snapshot, fresh)
	assert.Empty(t, second.Notable)
	assert.Equal(t, first.Snapshot, second.Snapshot)
}

func TestDiff_NoDuplicatesAcrossRuns(t *testing.T) {
	snap := NewSnapshot()
	seen := make(map[string]int)

	runs := [][]EventRecord{
		{goal("e1", "5'")},
		{goal("e1", "5'"), goal("e2", "20'")},
		{goal("e1", "5'"), goal("e2", "20'"), goal("e3", "45'+1'")},
		{goal("e1", "5'"), goal("e2", "20'"), goal("e3", "45'+1'")},
	}
	for i, events := range runs {
		// Change the etag every run so nothing is short-circuited.
		result := Diff(snap, []Payload{livePayload("M1", string(rune('a'+i)), events...)})
		for _, n := range result.Notable {
			if !n.Synthetic {
				seen[n.Event.ID]++
			}
		}
		snap = result.Snapshot
	}

	assert.Equal(t, map[string]int{"e1": 1, "e2": 1, "e3": 1}, seen)
	m1, _ := snap.Find("M1")
	assert.Len(t, m1.Events, 3)
}

func TestDiff_ETagShortCircuit(t *testing.T) {
	previous := NewSnapshot()
	previous.LiveMatches = []MatchState{{
		ID: "M1", Status: StatusLive, Period: PeriodFirstHalf,
		HomeTeam: home, AwayTeam: away,
		Events: []EventRecord{goal("e1", "12'")},
	}}
	previous.ETag["M1"] = "t1"

	// Same token: new events in the payload are ignored.
	result := Diff(previous, []Payload{livePayload("M1", "t1", goal("e1", "12'"), goal("e2", "40'"))})

	assert.Empty(t, result.Notable)
	assert.Equal(t, []string{"M1"}, result.Skipped)
	m1, _ := result.Snapshot.Find("M1")
	assert.Len(t, m1.Events, 1)
	assert.Equal(t, "t1", result.Snapshot.ETag["M1"])
}

func TestDiff_OrdersByMinute(t *testing.T) {
	b := goal("b", "10'")
	a := goal("a", "5'")
	result := Diff(nil, []Payload{livePayload("M1", "t1", b, a)})

	assert.Equal(t, []string{"M1:match_start", "a", "b"}, notableIDs(result))
	m1, _ := result.Snapshot.Find("M1")
	assert.Equal(t, "a", m1.Events[0].ID)
	assert.Equal(t, "b", m1.Events[1].ID)
}

func TestDiff_OrdersStoppageAndInvalidMinutes(t *testing.T) {
	events := []EventRecord{
		goal("late", "46'"),
		goal("broken", "soon"),
		goal("stoppage", "45'+2'"),
		goal("tie-b", "30'"),
		goal("tie-a", "30'"),
	}
	result := Diff(nil, []Payload{livePayload("M1", "t1", events...)})

	assert.Equal(t,
		[]string{"M1:match_start", "tie-a", "tie-b", "stoppage", "late", "broken"},
		notableIDs(result))
}

func TestDiff_MatchStartSynthesis(t *testing.T) {
	t.Run("first sighting live", func(t *testing.T) {
		result := Diff(nil, []Payload{livePayload("M1", "t1")})
		require.Len(t, result.Notable, 1)
		assert.Equal(t, EventMatchStart, result.Notable[0].Event.Type)
	})

	t.Run("prematch to live", func(t *testing.T) {
		previous := NewSnapshot()
		previous.LiveMatches = []MatchState{{ID: "M1", Status: StatusPrematch, HomeTeam: home, AwayTeam: away, Events: []EventRecord{}}}
		previous.ETag["M1"] = "t0"

		result := Diff(previous, []Payload{livePayload("M1", "t1")})
		require.Len(t, result.Notable, 1)
		assert.Equal(t, EventMatchStart, result.Notable[0].Event.Type)
		assert.Equal(t, StatusPrematch, result.Notable[0].Match.Status)
	})

	t.Run("already live", func(t *testing.T) {
		previous := NewSnapshot()
		previous.LiveMatches = []MatchState{{ID: "M1", Status: StatusLive, HomeTeam: home, AwayTeam: away, Events: []EventRecord{}}}
		previous.ETag["M1"] = "t0"

		result := Diff(previous, []Payload{livePayload("M1", "t1")})
		assert.Empty(t, result.Notable)
	})

	t.Run("not recorded", func(t *testing.T) {
		result := Diff(nil, []Payload{livePayload("M1", "t1")})
		m1, _ := result.Snapshot.Find("M1")
		assert.Empty(t, m1.Events)
	})
}

func TestDiff_UpcomingAndUntracked(t *testing.T) {
	prematch := livePayload("M2", "t2")
	prematch.Status = StatusPrematch
	fixture := livePayload("M3", "t3")
	fixture.Status = StatusNotStarted
	old := livePayload("M4", "t4", EventRecord{ID: "x", Type: EventEndOfGame, Minute: "90'"})
	old.Status = StatusFinished

	result := Diff(nil, []Payload{prematch, fixture, old})

	require.Len(t, result.Notable, 1)
	assert.Equal(t, EventMatchUpcoming, result.Notable[0].Event.Type)
	assert.ElementsMatch(t, []string{"M3", "M4"}, result.Untracked)
	require.Len(t, result.Snapshot.LiveMatches, 1)
	assert.Equal(t, "M2", result.Snapshot.LiveMatches[0].ID)
	assert.NotContains(t, result.Snapshot.ETag, "M3")

	// Still prematch on the next run: nothing new.
	prematch.ETag = "t2b"
	again := Diff(result.Snapshot, []Payload{prematch})
	assert.Empty(t, again.Notable)
}

func TestDiff_FinishedRemoval(t *testing.T) {
	end := EventRecord{ID: "end", Type: EventEndOfGame, Minute: "90'+4'"}

	previous := NewSnapshot()
	previous.LiveMatches = []MatchState{{ID: "M1", Status: StatusLive, HomeTeam: home, AwayTeam: away, Events: []EventRecord{goal("e1", "12'")}}}
	previous.ETag["M1"] = "t1"

	finished := livePayload("M1", "t2", goal("e1", "12'"), end)
	finished.Status = StatusFinished

	// The run that sees the end of game announces it and keeps the match.
	first := Diff(previous, []Payload{finished})
	assert.Equal(t, []string{"end"}, notableIDs(first))
	m1, ok := first.Snapshot.Find("M1")
	require.True(t, ok)
	assert.True(t, m1.Retired())

	// The following run drops it, present in the fresh list or not.
	finished.ETag = "t3"
	present := Diff(first.Snapshot, []Payload{finished})
	assert.Empty(t, present.Notable)
	assert.Empty(t, present.Snapshot.LiveMatches)
	assert.NotContains(t, present.Snapshot.ETag, "M1")
	assert.Equal(t, []string{"M1"}, present.Retired)

	absent := Diff(first.Snapshot, nil)
	assert.Empty(t, absent.Snapshot.LiveMatches)
}

func TestDiff_FinishedInBothSkipped(t *testing.T) {
	previous := NewSnapshot()
	previous.LiveMatches = []MatchState{{ID: "M1", Status: StatusFinished, HomeTeam: home, AwayTeam: away, Events: []EventRecord{goal("e1", "12'")}}}
	previous.ETag["M1"] = "t1"

	finished := livePayload("M1", "t2", goal("e1", "12'"), goal("e2", "80'"), EventRecord{ID: "end", Type: EventEndOfGame, Minute: "90'"})
	finished.Status = StatusFinished

	result := Diff(previous, []Payload{finished})
	assert.Empty(t, result.Notable)
	assert.Equal(t, []string{"M1"}, result.Skipped)
	assert.Equal(t, "t2", result.Snapshot.ETag["M1"])

	m1, ok := result.Snapshot.Find("M1")
	require.True(t, ok)
	assert.Len(t, m1.Events, 1)
	assert.True(t, m1.Settled)
	assert.True(t, m1.Retired())

	// Settled matches leave on the next run.
	next := Diff(result.Snapshot, []Payload{finished})
	assert.Empty(t, next.Notable)
	assert.Empty(t, next.Snapshot.LiveMatches)
	assert.Equal(t, []string{"M1"}, next.Retired)
}

func TestDiff_MatchStartAnnouncedOnce(t *testing.T) {
	first := Diff(nil, []Payload{livePayload("M1", "t1")})
	assert.Equal(t, []string{"M1:match_start"}, notableIDs(first))

	// An unmapped upstream status decodes as not started.
	flap := livePayload("M1", "t2")
	flap.Status = StatusNotStarted
	second := Diff(first.Snapshot, []Payload{flap})
	assert.Empty(t, second.Notable)
	m1, ok := second.Snapshot.Find("M1")
	require.True(t, ok)
	assert.Equal(t, StatusLive, m1.Status)

	third := Diff(second.Snapshot, []Payload{livePayload("M1", "t3", goal("e1", "30'"))})
	assert.Equal(t, []string{"e1"}, notableIDs(third))
}

func TestDiff_StatusNeverMovesBack(t *testing.T) {
	previous := NewSnapshot()
	previous.LiveMatches = []MatchState{{ID: "M1", Status: StatusLive, HomeTeam: home, AwayTeam: away, Events: []EventRecord{}}}
	previous.ETag["M1"] = "t1"

	prematch := livePayload("M1", "t2")
	prematch.Status = StatusPrematch
	result := Diff(previous, []Payload{prematch})

	assert.Empty(t, result.Notable)
	m1, _ := result.Snapshot.Find("M1")
	assert.Equal(t, StatusLive, m1.Status)
	assert.Equal(t, "t2", result.Snapshot.ETag["M1"])
}

func TestDiff_AbsentMatchesCarriedOver(t *testing.T) {
	previous := NewSnapshot()
	previous.LiveMatches = []MatchState{
		{ID: "M2", Status: StatusLive, HomeTeam: home, AwayTeam: away, Events: []EventRecord{goal("e9", "3'")}},
	}
	previous.ETag["M2"] = "t9"

	result := Diff(previous, []Payload{livePayload("M1", "t1")})

	require.Len(t, result.Snapshot.LiveMatches, 2)
	assert.Equal(t, "M2", result.Snapshot.LiveMatches[0].ID)
	assert.Equal(t, "M1", result.Snapshot.LiveMatches[1].ID)
	assert.Equal(t, "t9", result.Snapshot.ETag["M2"])
}

func TestDiff_EmptyFresh(t *testing.T) {
	previous := NewSnapshot()
	previous.LiveMatches = []MatchState{{ID: "M1", Status: StatusLive, HomeTeam: home, AwayTeam: away, Events: []EventRecord{}}}
	previous.ETag["M1"] = "t1"

	result := Diff(previous, nil)

	assert.Empty(t, result.Notable)
	assert.Equal(t, previous, result.Snapshot)
}

func TestDiff_DuplicateEventsCollapse(t *testing.T) {
	result := Diff(nil, []Payload{livePayload("M1", "t1", goal("e1", "12'"), goal("e1", "12'"))})

	assert.Equal(t, []string{"M1:match_start", "e1"}, notableIDs(result))
	m1, _ := result.Snapshot.Find("M1")
	assert.Len(t, m1.Events, 1)
}

func TestDiff_DerivedIDs(t *testing.T) {
	anon := EventRecord{Type: EventYellowCard, Minute: "33'", PlayerID: "p7"}
	twin := EventRecord{Type: EventYellowCard, Minute: "33'", PlayerID: "p8"}

	first := Diff(nil, []Payload{livePayload("M1", "t1", anon, twin)})
	m1, _ := first.Snapshot.Find("M1")
	require.Len(t, m1.Events, 2)
	assert.NotEqual(t, m1.Events[0].ID, m1.Events[1].ID)

	// Same payload again yields the same ids, so nothing is re-announced.
	second := Diff(first.Snapshot, []Payload{livePayload("M1", "t2", anon, twin)})
	assert.Empty(t, second.Notable)
}

func TestDiff_UnknownTypesDropped(t *testing.T) {
	odd := EventRecord{Type: EventUnknown, RawType: "18", Minute: "50'"}
	result := Diff(nil, []Payload{livePayload("M1", "t1", odd, goal("e1", "51'"))})

	require.Len(t, result.Dropped, 1)
	assert.Equal(t, "18", result.Dropped[0].Event.RawType)
	assert.Equal(t, []string{"M1:match_start", "e1"}, notableIDs(result))
	m1, _ := result.Snapshot.Find("M1")
	assert.Len(t, m1.Events, 1)
}

func TestDiff_NotableOrderByMatchID(t *testing.T) {
	result := Diff(nil, []Payload{
		livePayload("M2", "t2", goal("b1", "1'")),
		livePayload("M1", "t1", goal("a1", "80'")),
	})

	assert.Equal(t, []string{"M1:match_start", "a1", "M2:match_start", "b1"}, notableIDs(result))
}

func TestDiff_DoesNotMutateInputs(t *testing.T) {
	previous := NewSnapshot()
	previous.LiveMatches = []MatchState{{ID: "M1", Status: StatusPrematch, HomeTeam: home, AwayTeam: away, Events: []EventRecord{goal("e1", "1'")}}}
	previous.ETag["M1"] = "t0"
	before, err := json.Marshal(previous)
	require.NoError(t, err)

	fresh := []Payload{livePayload("M1", "t1", EventRecord{Type: EventRedCard, Minute: "60'"})}
	Diff(previous, fresh)

	after, err := json.Marshal(previous)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.Empty(t, fresh[0].Events[0].ID)
}

func TestSnapshotJSONKeys(t *testing.T) {
	data, err := json.Marshal(NewSnapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"liveMatches":[],"etag":{}}`, string(data))
}
