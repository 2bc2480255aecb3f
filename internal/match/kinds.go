package match

// Status is the lifecycle state of a match as reported upstream.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusPrematch   Status = "prematch"
	StatusLive       Status = "live"
	StatusFinished   Status = "finished"
)

var statusRank = map[Status]int{
	StatusNotStarted: 0,
	StatusPrematch:   1,
	StatusLive:       2,
	StatusFinished:   3,
}

// Rank orders statuses along the match lifecycle. A tracked match never moves
// to a lower rank.
func (s Status) Rank() int {
	return statusRank[s]
}

// Period identifies the part of the match an event belongs to.
type Period string

const (
	PeriodFirstHalf       Period = "first_half"
	PeriodSecondHalf      Period = "second_half"
	PeriodFirstExtraTime  Period = "first_extra_time"
	PeriodSecondExtraTime Period = "second_extra_time"
	PeriodPenaltyShootout Period = "penalty_shootout"
	PeriodUnknown         Period = "unknown"
)

// EventType classifies a timeline event.
type EventType string

const (
	EventGoal           EventType = "goal"
	EventFreeKickGoal   EventType = "free_kick_goal"
	EventOwnGoal        EventType = "own_goal"
	EventPenaltyGoal    EventType = "penalty_goal"
	EventPenaltyMissed  EventType = "penalty_missed"
	EventPenaltyAwarded EventType = "penalty_awarded"
	EventYellowCard     EventType = "yellow_card"
	EventRedCard        EventType = "red_card"
	EventPeriodStart    EventType = "period_start"
	EventPeriodEnd      EventType = "period_end"
	EventEndOfGame      EventType = "end_of_game"
	EventUnknown        EventType = "unknown"

	// Synthesized from status transitions, never present upstream.
	EventMatchStart    EventType = "match_start"
	EventMatchUpcoming EventType = "match_upcoming"
)

// Family groups event types that share a message shape.
type Family int

const (
	FamilyNone Family = iota
	FamilyGoal
	FamilyCard
	FamilyPeriod
	FamilyEndOfGame
	FamilySynthetic
)

var families = map[EventType]Family{
	EventGoal:           FamilyGoal,
	EventFreeKickGoal:   FamilyGoal,
	EventOwnGoal:        FamilyGoal,
	EventPenaltyGoal:    FamilyGoal,
	EventPenaltyMissed:  FamilyGoal,
	EventPenaltyAwarded: FamilyGoal,
	EventYellowCard:     FamilyCard,
	EventRedCard:        FamilyCard,
	EventPeriodStart:    FamilyPeriod,
	EventPeriodEnd:      FamilyPeriod,
	EventEndOfGame:      FamilyEndOfGame,
	EventMatchStart:     FamilySynthetic,
	EventMatchUpcoming:  FamilySynthetic,
}

// Family returns the message family of t, or FamilyNone for types that are
// never announced.
func (t EventType) Family() Family {
	return families[t]
}

// Notable reports whether events of this type are announced.
func (t EventType) Notable() bool {
	f := t.Family()
	return f != FamilyNone && f != FamilySynthetic
}
