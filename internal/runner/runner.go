package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/worldcup-events/internal/logger"
	"github.com/pfrederiksen/worldcup-events/internal/match"
	"github.com/pfrederiksen/worldcup-events/internal/metrics"
	"github.com/pfrederiksen/worldcup-events/internal/notifier"
	"github.com/pfrederiksen/worldcup-events/internal/render"
	"github.com/pfrederiksen/worldcup-events/internal/storage"
)

// Stages reported by RunError.
const (
	StageLoad  = "load"
	StageFetch = "fetch"
	StageSave  = "save"
)

// Fetcher returns the current state of every match of a competition.
type Fetcher interface {
	FetchMatches(ctx context.Context, competitionID, seasonID, locale string) ([]match.Payload, error)
}

// RunError is returned when a run stops before saving.
type RunError struct {
	Stage string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Config wires a Runner. Store, Fetcher, Renderer and Notifier are required.
type Config struct {
	Store    storage.Store
	Fetcher  Fetcher
	Renderer *render.Renderer
	Resolver render.AliasResolver
	Notifier notifier.Notifier
	Metrics  metrics.Sink
	Logger   *logger.Logger

	CompetitionID    string
	SeasonID         string
	Locale           string
	AliasConcurrency int
	// NoSave skips persisting the new snapshot.
	NoSave bool
}

// Summary describes one run.
type Summary struct {
	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`
	Duration  string    `json:"duration"`
	Found     bool      `json:"snapshotFound"`
	Fetched   int       `json:"fetched"`
	Skipped   int       `json:"skipped"`
	Untracked int       `json:"untracked"`
	Retired   int       `json:"retired"`
	Dropped   int       `json:"dropped"`
	Notified  int       `json:"notified"`
	Failed    int       `json:"failed"`
	Tracked   int       `json:"tracked"`
	Saved     bool      `json:"saved"`
	Error     string    `json:"error,omitempty"`
}

// Runner executes poll runs. Run is not safe for concurrent use; the
// scheduler keeps runs from overlapping.
type Runner struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	last     *Summary
	snapshot *match.Snapshot
}

// New validates cfg and creates a Runner.
func New(cfg Config) (*Runner, error) {
	var errs []error
	if cfg.Store == nil {
		errs = append(errs, errors.New("store is required"))
	}
	if cfg.Fetcher == nil {
		errs = append(errs, errors.New("fetcher is required"))
	}
	if cfg.Renderer == nil {
		errs = append(errs, errors.New("renderer is required"))
	}
	if cfg.Notifier == nil {
		errs = append(errs, errors.New("notifier is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoopSink{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Locale == "" {
		cfg.Locale = cfg.Renderer.Locale()
	}

	return &Runner{cfg: cfg, now: time.Now}, nil
}

// Run performs one poll. The returned summary is never nil.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	started := r.now()
	summary := &Summary{RunID: uuid.NewString(), StartedAt: started.UTC()}
	log := r.cfg.Logger.With(logger.Fields{"run_id": summary.RunID})

	err := r.run(ctx, log, summary)

	elapsed := r.now().Sub(started)
	summary.Duration = elapsed.String()

	stage := ""
	var runErr *RunError
	if errors.As(err, &runErr) {
		stage = runErr.Stage
		summary.Error = err.Error()
		log.Error("Run failed", logger.Fields{"stage": stage, "duration_ms": elapsed.Milliseconds()}, err)
	} else {
		log.Info("Run completed", logger.Fields{
			"notified":    summary.Notified,
			"failed":      summary.Failed,
			"tracked":     summary.Tracked,
			"saved":       summary.Saved,
			"duration_ms": elapsed.Milliseconds(),
		})
	}
	r.cfg.Metrics.RunCompleted(elapsed, stage)

	r.mu.Lock()
	r.last = summary
	r.mu.Unlock()

	return summary, err
}

func (r *Runner) run(ctx context.Context, log *logger.Logger, summary *Summary) error {
	previous, found, err := storage.LoadOrEmpty(ctx, r.cfg.Store)
	if err != nil {
		return &RunError{Stage: StageLoad, Err: err}
	}
	summary.Found = found
	if !found {
		log.Info("No snapshot found, starting empty", nil)
	}

	fetchStart := r.now()
	payloads, err := r.cfg.Fetcher.FetchMatches(ctx, r.cfg.CompetitionID, r.cfg.SeasonID, r.cfg.Locale)
	r.cfg.Metrics.UpstreamRequest(r.now().Sub(fetchStart), err)
	if err != nil {
		return &RunError{Stage: StageFetch, Err: err}
	}
	summary.Fetched = len(payloads)

	result := match.Diff(previous, payloads)
	summary.Skipped = len(result.Skipped)
	summary.Untracked = len(result.Untracked)
	summary.Retired = len(result.Retired)
	summary.Dropped = len(result.Dropped)

	for _, d := range result.Dropped {
		log.Debug("Dropped unknown event", logger.Fields{
			"match_id": d.MatchID,
			"event_id": d.Event.ID,
			"raw_type": d.Event.RawType,
			"minute":   d.Event.Minute,
		})
		r.cfg.Metrics.EventDropped(d.Event.RawType)
	}
	for _, id := range result.Retired {
		log.Info("Match retired", logger.Fields{"match_id": id})
	}

	aliases := render.ResolveAliases(ctx, r.cfg.Resolver, result.Notable, r.cfg.AliasConcurrency)
	for playerID, err := range aliases.Errors {
		log.Warn("Alias lookup failed", logger.Fields{"player_id": playerID, "error": err.Error()})
	}
	storeAliases(result.Snapshot, aliases)

	for _, n := range result.Notable {
		msg := r.cfg.Renderer.Render(n, aliases)
		msg.MatchID = n.Match.ID
		msg.EventID = n.Event.ID
		msg.Type = string(n.Event.Type)

		if err := r.cfg.Notifier.Notify(ctx, msg); err != nil {
			summary.Failed++
			r.cfg.Metrics.DeliveryFailed(msg.Type)
			log.Error("Notification failed", logger.Fields{
				"match_id": msg.MatchID,
				"event_id": msg.EventID,
				"type":     msg.Type,
			}, err)
			continue
		}
		summary.Notified++
		r.cfg.Metrics.EventNotified(msg.Type)
		log.Debug("Notification sent", logger.Fields{"match_id": msg.MatchID, "event_id": msg.EventID, "subject": msg.Subject})
	}

	summary.Tracked = len(result.Snapshot.LiveMatches)
	r.cfg.Metrics.MatchesTracked(summary.Tracked)

	if r.cfg.NoSave {
		log.Info("Skipping snapshot save", nil)
	} else {
		if err := r.cfg.Store.Save(ctx, result.Snapshot); err != nil {
			return &RunError{Stage: StageSave, Err: err}
		}
		summary.Saved = true
	}

	r.mu.Lock()
	r.snapshot = result.Snapshot
	r.mu.Unlock()
	return nil
}

// storeAliases records resolved names on the stored events so later
// renders and readers of the snapshot need no lookup.
func storeAliases(s *match.Snapshot, aliases render.Aliases) {
	if len(aliases.Names) == 0 {
		return
	}
	for i := range s.LiveMatches {
		events := s.LiveMatches[i].Events
		for j := range events {
			if events[j].PlayerAlias != "" {
				continue
			}
			if name, ok := aliases.Names[events[j].PlayerID]; ok {
				events[j].PlayerAlias = name
			}
		}
	}
}

// LastSummary returns the summary of the most recent run, or nil.
func (r *Runner) LastSummary() *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	s := *r.last
	return &s
}

// Snapshot returns the snapshot produced by the most recent successful run,
// or nil.
func (r *Runner) Snapshot() *match.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}
