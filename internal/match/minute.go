package match

import (
	"math"
	"strconv"
	"strings"
)

// Minute is the numeric value of a display minute such as "23'" or "90'+3'".
type Minute struct {
	Base     int
	Stoppage int
	Valid    bool
}

// ParseMinute parses a display minute. Stoppage time is kept separate so that
// "45'+2'" orders before "46'". Returns an invalid Minute when parsing fails.
func ParseMinute(text string) Minute {
	text = strings.TrimSpace(text)
	if text == "" {
		return Minute{}
	}

	parts := strings.SplitN(text, "+", 2)
	base, ok := minuteNumber(parts[0])
	if !ok {
		return Minute{}
	}

	m := Minute{Base: base, Valid: true}
	if len(parts) == 2 {
		stoppage, ok := minuteNumber(parts[1])
		if !ok {
			return Minute{}
		}
		m.Stoppage = stoppage
	}
	return m
}

func minuteNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "'’′")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Compare orders minutes chronologically. Invalid minutes sort after all
// valid ones.
func (m Minute) Compare(other Minute) int {
	a, b := m.key(), other.key()
	switch {
	case a[0] != b[0]:
		return cmpInt(a[0], b[0])
	default:
		return cmpInt(a[1], b[1])
	}
}

func (m Minute) key() [2]int {
	if !m.Valid {
		return [2]int{math.MaxInt, math.MaxInt}
	}
	return [2]int{m.Base, m.Stoppage}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortEvents orders events by minute, then by event id.
func SortEvents(events []EventRecord) {
	sortEvents(events)
}
