package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/worldcup-events/internal/app"
	"github.com/pfrederiksen/worldcup-events/internal/locale"
	"github.com/pfrederiksen/worldcup-events/internal/logger"
	"github.com/pfrederiksen/worldcup-events/internal/match"
	"github.com/pfrederiksen/worldcup-events/internal/metrics"
	"github.com/pfrederiksen/worldcup-events/internal/storage"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll once and announce new events",
		Args:  cobra.NoArgs,
		RunE:  runOnce,
	}
	cmd.Flags().Bool("dry-run", false, "Print messages instead of posting them")
	cmd.Flags().Bool("no-save", false, "Do not persist the updated snapshot")
	cmd.Flags().Bool("stats", false, "Print run statistics")
	cmd.Flags().String("format", "text", "Output format: text or json")
	return cmd
}

// runOnce is the main command logic
func runOnce(cmd *cobra.Command, args []string) error {
	flagFormat, _ := cmd.Flags().GetString("format")
	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}
	noSave, _ := cmd.Flags().GetBool("no-save")
	withStats, _ := cmd.Flags().GetBool("stats")

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, log, app.Options{Output: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer a.Close()

	var sink metrics.Sink = metrics.NoopSink{}
	var stats *metrics.Memory
	if withStats {
		stats = metrics.NewMemory()
		sink = stats
	}

	r, err := a.Runner(sink, noSave)
	if err != nil {
		return err
	}

	summary, err := r.Run(ctx)
	if err != nil {
		return err
	}

	out := &RunOutput{Summary: summary}
	if stats != nil {
		out.Stats = stats.Snapshot()
	}
	if err := WriteRunOutput(cmd.OutOrStdout(), out, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if summary.Failed > 0 {
		return &exitError{code: ExitDeliveryFailed, err: fmt.Errorf("%d notification(s) could not be delivered", summary.Failed)}
	}
	return nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and locale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			if _, err := app.NewRenderer(cfg); err != nil {
				return err
			}
			if !cfg.HasNotifier() && !cfg.Notify.DryRun {
				log.Warn("No notifier configured, messages will only be printed", nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.MaskedJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newLocalesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locales",
		Short: "List the available locales and check that they are complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			registry, err := locale.Load(cfg.LocaleDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var invalid []string
			for _, name := range registry.Names() {
				marker := " "
				if name == cfg.Locale {
					marker = "*"
				}
				if _, err := registry.Get(name); err != nil {
					invalid = append(invalid, name)
					fmt.Fprintf(out, "%s %-8s %v\n", marker, name, err)
					continue
				}
				fmt.Fprintf(out, "%s %-8s ok\n", marker, name)
			}

			if len(invalid) > 0 {
				return fmt.Errorf("%d incomplete locale(s): %v", len(invalid), invalid)
			}
			return nil
		},
	}
}

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect or reset the stored snapshot",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the tracked matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flagFormat, _ := cmd.Flags().GetString("format")
			format, err := parseFormat(flagFormat)
			if err != nil {
				return err
			}
			flagSort, _ := cmd.Flags().GetString("sort")
			order, err := parseSortOrder(flagSort)
			if err != nil {
				return err
			}

			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}
			store, err := storage.Open(cmd.Context(), cfg.StorageOptions())
			if err != nil {
				return err
			}
			defer store.Close()

			snapshot, found, err := storage.LoadOrEmpty(cmd.Context(), store)
			if err != nil {
				return err
			}
			if !found && format == FormatText {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshot stored yet.")
				return nil
			}
			return WriteSnapshot(cmd.OutOrStdout(), snapshot, format, order)
		},
	}
	show.Flags().String("format", "text", "Output format: text or json")
	show.Flags().String("sort", "id", "Sort order: id, status or events")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Replace the stored snapshot with an empty one",
		Long: `Replace the stored snapshot with an empty one. Matches that are live
will be announced again from their first event on the next run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("refusing to reset the snapshot without --yes")
			}

			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			store, err := storage.Open(cmd.Context(), cfg.StorageOptions())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Save(cmd.Context(), match.NewSnapshot()); err != nil {
				return fmt.Errorf("saving snapshot: %w", err)
			}
			log.Info("Snapshot reset", logger.Fields{"store": store.Backend().String()})
			fmt.Fprintln(cmd.OutOrStdout(), "Snapshot reset.")
			return nil
		},
	}
	reset.Flags().Bool("yes", false, "Confirm the reset")

	cmd.AddCommand(show, reset)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "worldcup-events %s\n", version)
		},
	}
}
