package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/worldcup-events/internal/app"
	"github.com/pfrederiksen/worldcup-events/internal/logger"
	"github.com/pfrederiksen/worldcup-events/internal/metrics"
	"github.com/pfrederiksen/worldcup-events/internal/notifier"
	"github.com/pfrederiksen/worldcup-events/internal/server"
)

const shutdownTimeout = 30 * time.Second

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll on a schedule and serve the status endpoints",
		Long: `Poll on a cron schedule until interrupted. Runs never overlap: a run
that is still in progress when the next one is due makes the scheduler
skip that tick. When --http-addr is set, /healthz, /status, /snapshot,
/metrics and the /ws notification feed are served.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
	cmd.Flags().String("schedule", "@every 1m", "Cron schedule, e.g. '@every 30s' or '*/1 * * * *'")
	cmd.Flags().String("http-addr", ":8080", "Status server address; empty disables it")
	cmd.Flags().Bool("dry-run", false, "Print messages instead of posting them")
	cmd.Flags().Bool("run-now", true, "Run once immediately before the first tick")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	hub := server.NewHub(log)
	extra := map[string]notifier.Notifier{}
	if cfg.Watch.HTTPAddr != "" {
		extra["websocket"] = hub
	}

	a, err := app.New(ctx, cfg, log, app.Options{Output: cmd.OutOrStdout(), Extra: extra})
	if err != nil {
		return err
	}
	defer a.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r, err := a.Runner(metrics.NewPrometheusSink(reg), false)
	if err != nil {
		return err
	}

	job := func() {
		// Failures are logged and counted by the runner; the next tick retries.
		_, _ = r.Run(ctx)
	}

	cl := cronLogger{log: log}
	scheduler := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := scheduler.AddFunc(cfg.Watch.Schedule, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Watch.Schedule, err)
	}

	var srv *server.Server
	serverErr := make(chan error, 1)
	if cfg.Watch.HTTPAddr != "" {
		srv = server.New(server.Config{
			Addr:     cfg.Watch.HTTPAddr,
			Version:  version,
			Status:   r,
			Hub:      hub,
			Gatherer: reg,
			Logger:   log,
		})
		go func() { serverErr <- srv.Start() }()
	}

	if runNow, _ := cmd.Flags().GetBool("run-now"); runNow {
		job()
	}

	scheduler.Start()
	log.Info("Watching", logger.Fields{
		"schedule":    cfg.Watch.Schedule,
		"competition": cfg.CompetitionID,
		"season":      cfg.SeasonID,
		"notifiers":   a.Notifier.Names(),
	})

	select {
	case <-ctx.Done():
		log.Info("Shutting down", nil)
	case err = <-serverErr:
		if err != nil {
			log.Error("Status server failed", nil, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("Timed out waiting for the running poll", nil)
	}
	if srv != nil {
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Warn("Status server shutdown failed", logger.Fields{"error": shutdownErr.Error()})
		}
	}
	return err
}

// cronLogger adapts the structured logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func kvFields(keysAndValues []interface{}) logger.Fields {
	fields := logger.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error("cron: "+msg, kvFields(keysAndValues), err)
}
