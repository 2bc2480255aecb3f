package render

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/worldcup-events/internal/locale"
	"github.com/pfrederiksen/worldcup-events/internal/match"
	"github.com/pfrederiksen/worldcup-events/internal/notifier"
)

var state = match.MatchState{
	ID:       "400128082",
	Status:   match.StatusLive,
	HomeTeam: match.Team{ID: "43922", Name: "Qatar"},
	AwayTeam: match.Team{ID: "43927", Name: "Ecuador"},
}

func newRenderer(t *testing.T, name string) *Renderer {
	t.Helper()
	reg, err := locale.Builtin()
	require.NoError(t, err)
	table, err := reg.Get(name)
	require.NoError(t, err)
	r, err := New(table)
	require.NoError(t, err)
	return r
}

func TestNewRejectsIncompleteTable(t *testing.T) {
	_, err := New(&locale.Table{Name: "xx", Phrases: map[locale.Slot]string{locale.SlotGoal: "G"}})
	assert.ErrorIs(t, err, locale.ErrMissingLocale)

	_, err = New(nil)
	assert.ErrorIs(t, err, locale.ErrMissingLocale)
}

func TestRender(t *testing.T) {
	r := newRenderer(t, "en-US")
	aliases := Aliases{Names: map[string]string{"p1": "Enner VALENCIA"}}

	tests := []struct {
		name  string
		event match.EventRecord
		want  notifier.Message
	}{
		{
			name:  "match start",
			event: match.EventRecord{Type: match.EventMatchStart},
			want:  notifier.Message{Subject: "⚡ The match between Qatar / Ecuador has started!"},
		},
		{
			name:  "match upcoming",
			event: match.EventRecord{Type: match.EventMatchUpcoming},
			want:  notifier.Message{Subject: "⚡ The match between Qatar / Ecuador is about to start!"},
		},
		{
			name:  "goal",
			event: match.EventRecord{Type: match.EventGoal, Minute: "16'", TeamID: "43927", PlayerID: "p1", Score: &match.Score{Home: 0, Away: 1}},
			want:  notifier.Message{Subject: "⚡ GOOOOAL Ecuador", Detail: "Enner VALENCIA (16') 0-1"},
		},
		{
			name:  "free kick goal uses goal phrase",
			event: match.EventRecord{Type: match.EventFreeKickGoal, Minute: "70'", TeamID: "43922", PlayerID: "p1"},
			want:  notifier.Message{Subject: "⚡ GOOOOAL Qatar", Detail: "Enner VALENCIA (70')"},
		},
		{
			name:  "penalty goal",
			event: match.EventRecord{Type: match.EventPenaltyGoal, Minute: "16'", TeamID: "43927", PlayerID: "p1", Score: &match.Score{Home: 0, Away: 1}},
			want:  notifier.Message{Subject: "⚡ Penalty GOOOOAL Ecuador", Detail: "Enner VALENCIA (16') 0-1"},
		},
		{
			name:  "own goal",
			event: match.EventRecord{Type: match.EventOwnGoal, Minute: "3'", TeamID: "43922", PlayerID: "p9", Score: &match.Score{Home: 0, Away: 1}},
			want:  notifier.Message{Subject: "⚡ Own goal Qatar", Detail: "p9 (3') 0-1"},
		},
		{
			name:  "penalty awarded",
			event: match.EventRecord{Type: match.EventPenaltyAwarded, Minute: "15'", TeamID: "43927"},
			want:  notifier.Message{Subject: "⚡ Penalty Ecuador", Detail: "unknown (15')"},
		},
		{
			name:  "missed penalty",
			event: match.EventRecord{Type: match.EventPenaltyMissed, Minute: "88'", TeamID: "43922", PlayerID: "p1"},
			want:  notifier.Message{Subject: "⚡ Missed penalty Qatar", Detail: "Enner VALENCIA (88')"},
		},
		{
			name:  "yellow card",
			event: match.EventRecord{Type: match.EventYellowCard, Minute: "45'+2'", PlayerID: "p1"},
			want:  notifier.Message{Subject: "🟨 Yellow card Enner VALENCIA (45'+2')"},
		},
		{
			name:  "red card uses stored alias",
			event: match.EventRecord{Type: match.EventRedCard, Minute: "90'", PlayerID: "p2", PlayerAlias: "Pervis ESTUPINAN"},
			want:  notifier.Message{Subject: "🟥 Red card Pervis ESTUPINAN (90')"},
		},
		{
			name:  "kick off",
			event: match.EventRecord{Type: match.EventPeriodStart, Period: match.PeriodFirstHalf, Minute: "0'"},
			want:  notifier.Message{Subject: "⏱ Qatar / Ecuador has started"},
		},
		{
			name:  "second half",
			event: match.EventRecord{Type: match.EventPeriodStart, Period: match.PeriodSecondHalf, Minute: "45'"},
			want:  notifier.Message{Subject: "⏱ Qatar / Ecuador has resumed"},
		},
		{
			name:  "half time with score",
			event: match.EventRecord{Type: match.EventPeriodEnd, Period: match.PeriodFirstHalf, Score: &match.Score{Home: 0, Away: 2}},
			want:  notifier.Message{Subject: "⏱ HALF TIME Qatar 0-2 Ecuador"},
		},
		{
			name:  "end of extra time",
			event: match.EventRecord{Type: match.EventPeriodEnd, Period: match.PeriodSecondExtraTime},
			want:  notifier.Message{Subject: "⏱ END OF 2ND ET Qatar / Ecuador"},
		},
		{
			name:  "end of shootout",
			event: match.EventRecord{Type: match.EventPeriodEnd, Period: match.PeriodPenaltyShootout},
			want:  notifier.Message{Subject: "⏱ END OF PENALTY SHOOTOUT Qatar / Ecuador"},
		},
		{
			name:  "end of game",
			event: match.EventRecord{Type: match.EventEndOfGame, Score: &match.Score{Home: 0, Away: 2}},
			want:  notifier.Message{Subject: "🏁 FULL TIME Qatar 0-2 Ecuador"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Render(match.Notable{Match: state, Event: tt.event}, aliases)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderFrench(t *testing.T) {
	r := newRenderer(t, "fr-FR")
	assert.Equal(t, "fr-FR", r.Locale())

	msg := r.Render(match.Notable{Match: state, Event: match.EventRecord{Type: match.EventMatchStart}}, Aliases{})
	assert.Equal(t, "⚡ Le match Qatar / Ecuador commence!", msg.Subject)
}

type fakeResolver struct {
	calls atomic.Int32
	names map[string]string
}

func (f *fakeResolver) ResolveAlias(_ context.Context, playerID string) (string, error) {
	f.calls.Add(1)
	if name, ok := f.names[playerID]; ok {
		return name, nil
	}
	return "", errors.New("not found")
}

func TestResolveAliases(t *testing.T) {
	resolver := &fakeResolver{names: map[string]string{"p1": "VALENCIA", "p2": "ESTUPINAN"}}
	notables := []match.Notable{
		{Event: match.EventRecord{ID: "a", PlayerID: "p1"}},
		{Event: match.EventRecord{ID: "b", PlayerID: "p1"}},
		{Event: match.EventRecord{ID: "c", PlayerID: "p2"}},
		{Event: match.EventRecord{ID: "d", PlayerID: "p3"}},
		{Event: match.EventRecord{ID: "e", PlayerID: "p4", PlayerAlias: "known"}},
		{Event: match.EventRecord{ID: "f"}},
	}

	aliases := ResolveAliases(context.Background(), resolver, notables, 2)

	assert.Equal(t, int32(3), resolver.calls.Load())
	assert.Equal(t, map[string]string{"p1": "VALENCIA", "p2": "ESTUPINAN"}, aliases.Names)
	require.Contains(t, aliases.Errors, "p3")

	assert.Equal(t, "VALENCIA", aliases.For(notables[0].Event))
	assert.Equal(t, "p3", aliases.For(notables[3].Event))
	assert.Equal(t, "known", aliases.For(notables[4].Event))
	assert.Equal(t, "unknown", aliases.For(notables[5].Event))
}

func TestResolveAliasesNilResolver(t *testing.T) {
	aliases := ResolveAliases(context.Background(), nil, []match.Notable{{Event: match.EventRecord{PlayerID: "p1"}}}, 0)
	assert.Empty(t, aliases.Names)
	assert.Equal(t, "p1", aliases.For(match.EventRecord{PlayerID: "p1"}))
}
