// Package app builds the collaborators of a run from a validated
// configuration: the snapshot store, the FIFA client, the alias resolver
// chain, the renderer and the notifier fan-out.
package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pfrederiksen/worldcup-events/internal/alias"
	"github.com/pfrederiksen/worldcup-events/internal/config"
	"github.com/pfrederiksen/worldcup-events/internal/fifa"
	"github.com/pfrederiksen/worldcup-events/internal/locale"
	"github.com/pfrederiksen/worldcup-events/internal/logger"
	"github.com/pfrederiksen/worldcup-events/internal/metrics"
	"github.com/pfrederiksen/worldcup-events/internal/notifier"
	"github.com/pfrederiksen/worldcup-events/internal/render"
	"github.com/pfrederiksen/worldcup-events/internal/runner"
	"github.com/pfrederiksen/worldcup-events/internal/storage"
)

// Options adjusts how an App is built.
type Options struct {
	// Output receives dry-run messages. Defaults to stdout.
	Output io.Writer
	// Extra notifiers receive every message in addition to the configured
	// channels, for example the websocket hub in watch mode.
	Extra map[string]notifier.Notifier
}

// App holds the wired collaborators. Close releases their connections.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    *storage.BlobStore
	Client   *fifa.Client
	Resolver render.AliasResolver
	Renderer *render.Renderer
	Notifier *notifier.Multi

	closers []io.Closer
}

// NewLogger builds the logger described by cfg.
func NewLogger(cfg *config.Config, w io.Writer) *logger.Logger {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logger.LevelInfo
	}
	return logger.New(level, w)
}

// NewRenderer loads the locale tables and builds the renderer for the
// configured locale. It fails with locale.ErrMissingLocale when the locale
// is unknown or incomplete.
func NewRenderer(cfg *config.Config) (*render.Renderer, error) {
	registry, err := locale.Load(cfg.LocaleDir)
	if err != nil {
		return nil, err
	}
	table, err := registry.Get(cfg.Locale)
	if err != nil {
		return nil, err
	}
	return render.New(table)
}

// New wires an App. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (a *App, err error) {
	a = &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	if a.Renderer, err = NewRenderer(cfg); err != nil {
		return a, err
	}

	if a.Store, err = storage.Open(ctx, cfg.StorageOptions()); err != nil {
		return a, fmt.Errorf("opening store: %w", err)
	}
	a.closers = append(a.closers, a.Store)

	a.Client = fifa.NewClient(fifa.Config{
		BaseURL:     cfg.Upstream.BaseURL,
		Timeout:     cfg.Upstream.Timeout,
		Concurrency: cfg.Upstream.Concurrency,
		Language:    cfg.Locale,
	})
	a.Resolver = a.newResolver()

	if a.Notifier, err = a.newNotifier(opts); err != nil {
		return a, err
	}

	log.Debug("Application wired", logger.Fields{
		"store":     a.Store.Backend().String(),
		"locale":    a.Renderer.Locale(),
		"notifiers": a.Notifier.Names(),
	})
	return a, nil
}

func (a *App) newResolver() render.AliasResolver {
	caches := []alias.Cache{alias.NewMemoryCache(a.Config.Alias.CacheTTL)}
	if addr := a.Config.Alias.RedisAddr; addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		a.closers = append(a.closers, client)
		caches = append(caches, alias.NewRedisCache(client, a.Config.Alias.CacheTTL))
	}
	return alias.NewCached(a.Client, caches...)
}

func (a *App) newNotifier(opts Options) (*notifier.Multi, error) {
	cfg := a.Config.Notify
	multi := notifier.NewMulti()

	out := opts.Output
	if cfg.DryRun {
		multi.Add("dry-run", notifier.NewDryRunNotifier(out))
	} else {
		if cfg.Slack.Enabled() {
			n, err := notifier.NewSlack(notifier.SlackConfig{
				Token:    cfg.Slack.Token,
				Channel:  cfg.Slack.Channel,
				Username: cfg.Slack.Username,
				IconURL:  cfg.Slack.IconURL,
			})
			if err != nil {
				return nil, err
			}
			multi.Add("slack", a.guard(n))
		}
		if cfg.Telegram.Enabled() {
			n, err := notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
			if err != nil {
				return nil, err
			}
			multi.Add("telegram", a.guard(n))
		}
		if cfg.Twitter.Enabled() {
			n, err := notifier.NewTwitterNotifier(notifier.TwitterConfig{
				APIKey:       cfg.Twitter.APIKey,
				APISecret:    cfg.Twitter.APISecret,
				AccessToken:  cfg.Twitter.AccessToken,
				AccessSecret: cfg.Twitter.AccessSecret,
			})
			if err != nil {
				return nil, err
			}
			multi.Add("twitter", a.guard(n))
		}
		if cfg.Kafka.Enabled() {
			n, err := notifier.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, a.Config.Locale)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, n)
			multi.Add("kafka", a.guard(n))
		}
		if cfg.AMQP.Enabled() {
			n, err := notifier.DialAMQP(notifier.AMQPConfig{
				URL:        cfg.AMQP.URL,
				Exchange:   cfg.AMQP.Exchange,
				RoutingKey: cfg.AMQP.RoutingKey,
				Locale:     a.Config.Locale,
			})
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, n)
			multi.Add("amqp", a.guard(n))
		}
	}

	if multi.Len() == 0 {
		a.Logger.Warn("No notifier configured, printing messages instead", nil)
		multi.Add("dry-run", notifier.NewDryRunNotifier(out))
	}

	names := make([]string, 0, len(opts.Extra))
	for name := range opts.Extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		multi.Add(name, opts.Extra[name])
	}
	return multi, nil
}

// guard wraps a delivery channel with the configured breaker and retries.
func (a *App) guard(n notifier.Notifier) notifier.Notifier {
	cfg := a.Config.Notify
	if cfg.BreakerThreshold > 0 {
		n = notifier.NewBreaker(n, cfg.BreakerThreshold, cfg.BreakerCooldown)
	}
	if cfg.Retries > 0 {
		n = notifier.NewRetrying(n, cfg.Retries, 500*time.Millisecond)
	}
	return n
}

// Runner creates a runner over the wired collaborators.
func (a *App) Runner(sink metrics.Sink, noSave bool) (*runner.Runner, error) {
	return runner.New(runner.Config{
		Store:            a.Store,
		Fetcher:          a.Client,
		Renderer:         a.Renderer,
		Resolver:         a.Resolver,
		Notifier:         a.Notifier,
		Metrics:          sink,
		Logger:           a.Logger,
		CompetitionID:    a.Config.CompetitionID,
		SeasonID:         a.Config.SeasonID,
		Locale:           a.Config.Locale,
		AliasConcurrency: a.Config.Alias.Concurrency,
		NoSave:           noSave,
	})
}

// Close releases every connection opened by New.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
