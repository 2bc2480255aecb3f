package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/worldcup-events/internal/app"
	"github.com/pfrederiksen/worldcup-events/internal/config"
	"github.com/pfrederiksen/worldcup-events/internal/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	// ExitDeliveryFailed is returned by run when at least one notification
	// could not be delivered.
	ExitDeliveryFailed = 3
)

var version = "dev"

// exitError carries a non-default exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worldcup-events",
		Short: "Announce live FIFA World Cup events",
		Long: `A bot that polls the FIFA live-football API, works out which goals,
cards and period changes are new since the last run, and posts them to
the configured channels. State is kept in a snapshot between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("env-file", ".env", "Path to a .env file loaded into the environment")
	flags.String("locale", "en-US", "Message locale")
	flags.String("locale-dir", "", "Directory of additional locale YAML files")
	flags.String("competition", "17", "FIFA competition id")
	flags.String("season", "255711", "FIFA season id")
	flags.String("store", "file", "Snapshot store: file, s3, gist, redis, sqlite or postgres")
	flags.String("store-path", "", "Snapshot file path for the file store")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")

	cmd.AddCommand(
		newRunCmd(),
		newWatchCmd(),
		newValidateCmd(),
		newConfigCmd(),
		newLocalesCmd(),
		newSnapshotCmd(),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads the configuration using the command's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.Load(config.Options{File: file, EnvFile: envFile, Flags: cmd.Flags()})
}

// setup loads the configuration and installs the configured logger as the
// default. Logs go to stderr so stdout stays machine readable.
func setup(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	log := app.NewLogger(cfg, cmd.ErrOrStderr())
	logger.SetDefault(log)
	return cfg, log, nil
}

// Execute runs the CLI
func Execute(v string) {
	if v != "" {
		version = v
	}
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

func run(cmd *cobra.Command, args []string, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return ExitError
}
