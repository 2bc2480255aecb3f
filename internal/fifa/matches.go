package fifa

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/worldcup-events/internal/match"
)

type teamJSON struct {
	IdTeam   string      `json:"IdTeam"`
	TeamName []localized `json:"TeamName"`
	Score    *int        `json:"Score"`
}

type matchJSON struct {
	IdMatch       string    `json:"IdMatch"`
	IdStage       string    `json:"IdStage"`
	IdCompetition string    `json:"IdCompetition"`
	IdSeason      string    `json:"IdSeason"`
	MatchStatus   int       `json:"MatchStatus"`
	Period        int       `json:"Period"`
	HomeTeam      *teamJSON `json:"HomeTeam"`
	AwayTeam      *teamJSON `json:"AwayTeam"`
}

type recentJSON struct {
	Results []matchJSON `json:"Results"`
}

type eventJSON struct {
	EventId     string `json:"EventId"`
	Type        int    `json:"Type"`
	MatchMinute string `json:"MatchMinute"`
	Period      int    `json:"Period"`
	IdTeam      string `json:"IdTeam"`
	IdPlayer    string `json:"IdPlayer"`
	HomeGoals   *int   `json:"HomeGoals"`
	AwayGoals   *int   `json:"AwayGoals"`
}

type timelineJSON struct {
	Event []eventJSON `json:"Event"`
}

// FetchMatches returns the recent matches of a competition and season.
// Timelines are fetched for live and finished matches; the payload etag
// covers the match status, period and timeline.
func (c *Client) FetchMatches(ctx context.Context, competitionID, seasonID, locale string) ([]match.Payload, error) {
	params := url.Values{}
	params.Set("language", locale)

	resp, err := c.get(ctx, fmt.Sprintf("/live/football/recent/%s/%s", url.PathEscape(competitionID), url.PathEscape(seasonID)), params)
	if err != nil {
		return nil, fmt.Errorf("fetching recent matches: %w", err)
	}

	var recent recentJSON
	if err := json.Unmarshal(resp.body, &recent); err != nil {
		return nil, fmt.Errorf("parsing recent matches: %w", err)
	}

	payloads := make([]match.Payload, len(recent.Results))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, m := range recent.Results {
		i, m := i, m
		payloads[i] = toPayload(m, locale)
		if !needsTimeline(payloads[i].Status) {
			payloads[i].ETag = headerTag(m, "")
			continue
		}

		g.Go(func() error {
			events, tag, err := c.fetchTimeline(gctx, competitionID, seasonID, m.IdStage, m.IdMatch)
			if err != nil {
				return fmt.Errorf("fetching timeline for match %s: %w", m.IdMatch, err)
			}
			payloads[i].Events = events
			payloads[i].ETag = headerTag(m, tag)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return payloads, nil
}

func needsTimeline(s match.Status) bool {
	return s == match.StatusLive || s == match.StatusFinished
}

func (c *Client) fetchTimeline(ctx context.Context, competitionID, seasonID, stageID, matchID string) ([]match.EventRecord, string, error) {
	path := fmt.Sprintf("/timelines/%s/%s/%s/%s",
		url.PathEscape(competitionID), url.PathEscape(seasonID), url.PathEscape(stageID), url.PathEscape(matchID))

	resp, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, "", err
	}

	var timeline timelineJSON
	if err := json.Unmarshal(resp.body, &timeline); err != nil {
		return nil, "", fmt.Errorf("parsing timeline: %w", err)
	}

	events := make([]match.EventRecord, 0, len(timeline.Event))
	for _, e := range timeline.Event {
		events = append(events, toEvent(e))
	}
	return events, resp.etag, nil
}

func toPayload(m matchJSON, locale string) match.Payload {
	return match.Payload{
		MatchID:  m.IdMatch,
		Status:   Status(m.MatchStatus),
		Period:   Period(m.Period),
		HomeTeam: toTeam(m.HomeTeam, locale),
		AwayTeam: toTeam(m.AwayTeam, locale),
	}
}

func toTeam(t *teamJSON, locale string) match.Team {
	if t == nil {
		return match.Team{}
	}
	return match.Team{ID: t.IdTeam, Name: pick(t.TeamName, locale)}
}

func toEvent(e eventJSON) match.EventRecord {
	rec := match.EventRecord{
		ID:       e.EventId,
		Type:     EventType(e.Type),
		Minute:   e.MatchMinute,
		Period:   Period(e.Period),
		TeamID:   e.IdTeam,
		PlayerID: e.IdPlayer,
		RawType:  rawCode(e.Type),
	}
	if e.HomeGoals != nil && e.AwayGoals != nil {
		rec.Score = &match.Score{Home: *e.HomeGoals, Away: *e.AwayGoals}
	}
	return rec
}

// headerTag combines the match header with the timeline token so a status
// change alone also changes the etag.
func headerTag(m matchJSON, timelineTag string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%s", m.IdMatch, m.MatchStatus, m.Period, timelineTag)
	return hex.EncodeToString(h.Sum(nil))
}
