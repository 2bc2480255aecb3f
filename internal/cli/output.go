package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/pfrederiksen/worldcup-events/internal/match"
	"github.com/pfrederiksen/worldcup-events/internal/runner"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(s)
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// RunOutput is what the run command prints.
type RunOutput struct {
	Summary *runner.Summary        `json:"summary"`
	Stats   map[string]interface{} `json:"stats,omitempty"`
}

// WriteRunOutput writes the result in the specified format
func WriteRunOutput(w io.Writer, out *RunOutput, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, out)
	case FormatText:
		return writeRunText(w, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeRunText outputs a run summary as human-readable text
func writeRunText(w io.Writer, out *RunOutput) error {
	s := out.Summary
	if s.Notified == 0 && s.Failed == 0 {
		fmt.Fprintln(w, "No new events found.")
	} else {
		fmt.Fprintf(w, "Announced %d event(s)", s.Notified)
		if s.Failed > 0 {
			fmt.Fprintf(w, ", %d failed", s.Failed)
		}
		fmt.Fprintln(w, ".")
	}

	fmt.Fprintf(w, "Matches: %d fetched, %d tracked, %d unchanged, %d retired\n", s.Fetched, s.Tracked, s.Skipped, s.Retired)
	if s.Dropped > 0 {
		fmt.Fprintf(w, "Ignored %d event(s) of unknown type\n", s.Dropped)
	}
	if !s.Saved {
		fmt.Fprintln(w, "Snapshot not saved.")
	}
	fmt.Fprintf(w, "Run %s took %s\n", s.RunID, s.Duration)

	if len(out.Stats) > 0 {
		fmt.Fprintln(w, "\nStats:")
		names := make([]string, 0, len(out.Stats))
		for name := range out.Stats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-32s %v\n", name, out.Stats[name])
		}
	}
	return nil
}

// WriteSnapshot prints the tracked matches, one block per match.
func WriteSnapshot(w io.Writer, snapshot *match.Snapshot, format OutputFormat, order SortOrder) error {
	if format == FormatJSON {
		return writeJSON(w, snapshot)
	}

	if len(snapshot.LiveMatches) == 0 {
		fmt.Fprintln(w, "No tracked matches.")
		return nil
	}

	matches := make([]match.MatchState, len(snapshot.LiveMatches))
	copy(matches, snapshot.LiveMatches)
	sortMatches(matches, order)

	for i, m := range matches {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  %s / %s  [%s]\n", m.ID, m.HomeTeam.Name, m.AwayTeam.Name, m.Status)
		for _, e := range m.Events {
			player := e.PlayerAlias
			if player == "" {
				player = e.PlayerID
			}
			line := fmt.Sprintf("  %-8s %s", e.Minute, e.Type)
			if player != "" {
				line += " " + player
			}
			if e.Score != nil {
				line += fmt.Sprintf(" %d-%d", e.Score.Home, e.Score.Away)
			}
			fmt.Fprintln(w, line)
		}
	}

	if snapshot.UpdatedAt != "" {
		fmt.Fprintf(w, "\nUpdated at %s\n", snapshot.UpdatedAt)
	}
	return nil
}
