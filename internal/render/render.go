package render

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/worldcup-events/internal/locale"
	"github.com/pfrederiksen/worldcup-events/internal/match"
	"github.com/pfrederiksen/worldcup-events/internal/notifier"
)

const (
	emojiLightning = "⚡"
	emojiYellow    = "🟨"
	emojiRed       = "🟥"
	emojiWhistle   = "⏱"
	emojiFinish    = "🏁"
)

// Renderer turns notable events into localized messages.
type Renderer struct {
	table *locale.Table
}

// New creates a renderer for table. It fails with locale.ErrMissingLocale
// when the table does not define every slot.
func New(table *locale.Table) (*Renderer, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: no table", locale.ErrMissingLocale)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{table: table}, nil
}

// Locale returns the name of the renderer's table.
func (r *Renderer) Locale() string {
	return r.table.Name
}

// Render builds the message for n. Player names come from aliases; a missing
// alias falls back to the player id.
func (r *Renderer) Render(n match.Notable, aliases Aliases) notifier.Message {
	m, e := n.Match, n.Event
	p := r.table.Phrase

	switch e.Type {
	case match.EventMatchStart:
		return notifier.Message{Subject: fmt.Sprintf("%s %s %s / %s %s!",
			emojiLightning, p(locale.SlotLeadIn), m.HomeTeam.Name, m.AwayTeam.Name, p(locale.SlotHasStarted))}

	case match.EventMatchUpcoming:
		return notifier.Message{Subject: fmt.Sprintf("%s %s %s / %s %s!",
			emojiLightning, p(locale.SlotLeadIn), m.HomeTeam.Name, m.AwayTeam.Name, p(locale.SlotAboutToStart))}

	case match.EventYellowCard, match.EventRedCard:
		emoji, slot := emojiYellow, locale.SlotYellowCard
		if e.Type == match.EventRedCard {
			emoji, slot = emojiRed, locale.SlotRedCard
		}
		return notifier.Message{Subject: fmt.Sprintf("%s %s %s (%s)",
			emoji, p(slot), aliases.For(e), e.Minute)}

	case match.EventPeriodStart:
		slot := locale.SlotHasResumed
		if e.Period == match.PeriodFirstHalf {
			slot = locale.SlotHasStarted
		}
		return notifier.Message{Subject: fmt.Sprintf("%s %s / %s %s",
			emojiWhistle, m.HomeTeam.Name, m.AwayTeam.Name, p(slot))}

	case match.EventPeriodEnd:
		return notifier.Message{Subject: fmt.Sprintf("%s %s %s",
			emojiWhistle, p(periodEndSlot(e.Period)), scoreline(m, e.Score))}

	case match.EventEndOfGame:
		return notifier.Message{Subject: fmt.Sprintf("%s %s %s",
			emojiFinish, p(locale.SlotFullTime), scoreline(m, e.Score))}
	}

	if e.Type.Family() == match.FamilyGoal {
		phrase := p(goalSlot(e.Type))
		if e.Type == match.EventPenaltyGoal {
			phrase = p(locale.SlotPenalty) + " " + phrase
		}
		subject := fmt.Sprintf("%s %s %s", emojiLightning, phrase, teamName(m, e))
		detail := fmt.Sprintf("%s (%s)", aliases.For(e), e.Minute)
		if e.Score != nil {
			detail += fmt.Sprintf(" %d-%d", e.Score.Home, e.Score.Away)
		}
		return notifier.Message{Subject: strings.TrimSpace(subject), Detail: detail}
	}

	return notifier.Message{Subject: fmt.Sprintf("%s / %s: %s", m.HomeTeam.Name, m.AwayTeam.Name, e.Type)}
}

func goalSlot(t match.EventType) locale.Slot {
	switch t {
	case match.EventOwnGoal:
		return locale.SlotOwnGoal
	case match.EventPenaltyMissed:
		return locale.SlotMissedPenalty
	case match.EventPenaltyAwarded:
		return locale.SlotPenalty
	}
	return locale.SlotGoal
}

func periodEndSlot(period match.Period) locale.Slot {
	switch period {
	case match.PeriodFirstHalf:
		return locale.SlotHalfTime
	case match.PeriodFirstExtraTime:
		return locale.SlotEndFirstExtraTime
	case match.PeriodSecondExtraTime:
		return locale.SlotEndSecondExtraTime
	case match.PeriodPenaltyShootout:
		return locale.SlotEndPenaltyShootout
	}
	return locale.SlotFullTime
}

// scoreline renders "Home / Away", or "Home 1-0 Away" when the event carries
// the score.
func scoreline(m match.MatchState, score *match.Score) string {
	if score == nil {
		return m.HomeTeam.Name + " / " + m.AwayTeam.Name
	}
	return fmt.Sprintf("%s %d-%d %s", m.HomeTeam.Name, score.Home, score.Away, m.AwayTeam.Name)
}

func teamName(m match.MatchState, e match.EventRecord) string {
	if name := m.TeamName(e.TeamID); name != "" {
		return name
	}
	return e.TeamID
}
