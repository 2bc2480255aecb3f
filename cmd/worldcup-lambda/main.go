// Command worldcup-lambda runs one poll per invocation. It is meant to be
// triggered by an EventBridge schedule and keeps its snapshot in S3.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/pfrederiksen/worldcup-events/internal/app"
	"github.com/pfrederiksen/worldcup-events/internal/config"
	"github.com/pfrederiksen/worldcup-events/internal/logger"
	"github.com/pfrederiksen/worldcup-events/internal/metrics"
	"github.com/pfrederiksen/worldcup-events/internal/runner"
)

// pollFunc is satisfied by (*runner.Runner).Run.
type pollFunc func(ctx context.Context) (*runner.Summary, error)

type handler struct {
	poll pollFunc
	log  *logger.Logger
}

func (h *handler) handle(ctx context.Context, evt events.CloudWatchEvent) (*runner.Summary, error) {
	h.log.Debug("Invocation received", logger.Fields{"event_id": evt.ID, "source": evt.Source})

	summary, err := h.poll(ctx)
	if err != nil {
		return summary, err
	}
	if summary.Failed > 0 {
		h.log.Warn("Some notifications were not delivered", logger.Fields{"failed": summary.Failed})
	}
	return summary, nil
}

func main() {
	cfg, err := config.Load(config.Options{File: os.Getenv("WORLDCUP_CONFIG")})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := app.NewLogger(cfg, os.Stderr)
	logger.SetDefault(log)

	// Connections opened here are reused by warm invocations.
	a, err := app.New(context.Background(), cfg, log, app.Options{})
	if err != nil {
		log.Error("Setup failed", nil, err)
		os.Exit(1)
	}

	r, err := a.Runner(metrics.NoopSink{}, false)
	if err != nil {
		a.Close()
		log.Error("Setup failed", nil, err)
		os.Exit(1)
	}

	h := &handler{poll: r.Run, log: log}
	lambda.Start(h.handle)
}
