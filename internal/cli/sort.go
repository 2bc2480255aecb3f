package cli

import (
	"fmt"
	"sort"

	"github.com/pfrederiksen/worldcup-events/internal/match"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByID     SortOrder = "id"
	SortByStatus SortOrder = "status"
	SortByEvents SortOrder = "events"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(s); order {
	case SortByID, SortByStatus, SortByEvents:
		return order, nil
	}
	return "", fmt.Errorf("invalid sort order: %s (must be 'id', 'status' or 'events')", s)
}

var statusRank = map[match.Status]int{
	match.StatusLive:       0,
	match.StatusPrematch:   1,
	match.StatusNotStarted: 2,
	match.StatusFinished:   3,
}

// sortMatches sorts a slice of matches based on the specified sort order
func sortMatches(matches []match.MatchState, order SortOrder) {
	switch order {
	case SortByStatus:
		sort.SliceStable(matches, func(i, j int) bool {
			ri, rj := statusRank[matches[i].Status], statusRank[matches[j].Status]
			if ri != rj {
				return ri < rj
			}
			return matches[i].ID < matches[j].ID
		})
	case SortByEvents:
		sort.SliceStable(matches, func(i, j int) bool {
			if len(matches[i].Events) != len(matches[j].Events) {
				return len(matches[i].Events) > len(matches[j].Events)
			}
			return matches[i].ID < matches[j].ID
		})
	default:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].ID < matches[j].ID
		})
	}
}
