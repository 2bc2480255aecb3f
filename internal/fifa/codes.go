package fifa

import (
	"strconv"

	"github.com/pfrederiksen/worldcup-events/internal/match"
)

// Match status codes
const (
	statusFinished   = 0
	statusNotStarted = 1
	statusLive       = 3
	statusPrematch   = 12
)

// Timeline event codes
const (
	eventGoal             = 0
	eventYellowCard       = 2
	eventStraightRed      = 3
	eventSecondYellowRed  = 4
	eventPeriodStart      = 7
	eventPeriodEnd        = 8
	eventEndOfGame        = 26
	eventOwnGoal          = 34
	eventFreeKickGoal     = 39
	eventPenaltyGoal      = 41
	eventPenaltyCrossbar  = 46
	eventPenaltySaved     = 60
	eventPenaltyMissed    = 65
	eventFoulCausingPenal = 72
)

// Period codes
const (
	periodFirstHalf       = 3
	periodSecondHalf      = 5
	periodFirstExtraTime  = 7
	periodSecondExtraTime = 9
	periodPenaltyShootout = 11
)

var statuses = map[int]match.Status{
	statusFinished:   match.StatusFinished,
	statusNotStarted: match.StatusNotStarted,
	statusLive:       match.StatusLive,
	statusPrematch:   match.StatusPrematch,
}

var eventTypes = map[int]match.EventType{
	eventGoal:             match.EventGoal,
	eventYellowCard:       match.EventYellowCard,
	eventStraightRed:      match.EventRedCard,
	eventSecondYellowRed:  match.EventRedCard,
	eventPeriodStart:      match.EventPeriodStart,
	eventPeriodEnd:        match.EventPeriodEnd,
	eventEndOfGame:        match.EventEndOfGame,
	eventOwnGoal:          match.EventOwnGoal,
	eventFreeKickGoal:     match.EventFreeKickGoal,
	eventPenaltyGoal:      match.EventPenaltyGoal,
	eventPenaltyCrossbar:  match.EventPenaltyMissed,
	eventPenaltySaved:     match.EventPenaltyMissed,
	eventPenaltyMissed:    match.EventPenaltyMissed,
	eventFoulCausingPenal: match.EventPenaltyAwarded,
}

var periods = map[int]match.Period{
	periodFirstHalf:       match.PeriodFirstHalf,
	periodSecondHalf:      match.PeriodSecondHalf,
	periodFirstExtraTime:  match.PeriodFirstExtraTime,
	periodSecondExtraTime: match.PeriodSecondExtraTime,
	periodPenaltyShootout: match.PeriodPenaltyShootout,
}

// Status maps an upstream match status code. Unknown codes are treated as
// not started: a new match is not tracked and a tracked match keeps its
// status, since match.Diff never lowers one.
func Status(code int) match.Status {
	if s, ok := statuses[code]; ok {
		return s
	}
	return match.StatusNotStarted
}

// EventType maps an upstream event code.
func EventType(code int) match.EventType {
	if t, ok := eventTypes[code]; ok {
		return t
	}
	return match.EventUnknown
}

// Period maps an upstream period code.
func Period(code int) match.Period {
	if p, ok := periods[code]; ok {
		return p
	}
	return match.PeriodUnknown
}

func rawCode(code int) string {
	return strconv.Itoa(code)
}
