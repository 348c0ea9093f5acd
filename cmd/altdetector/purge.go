package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Bobcat00/AltDetector/pkg/altdetect/retention"
	"github.com/Bobcat00/AltDetector/pkg/cli"
)

var purgeFlags struct {
	days int
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired sightings now",
	Long: `Delete sightings older than the expiration window and every identity left
without sightings.

Examples:
  # Use expiration_days from the config
  altdetector purge

  # Remove everything older than a week
  altdetector purge --days 7`,
	Args: cobra.NoArgs,
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)

	purgeCmd.Flags().IntVar(&purgeFlags.days, "days", -1, "retention in days (default expiration_days)")
}

func runPurge(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rc := a.cfg.RetentionConfig()
	if cmd.Flags().Changed("days") {
		if purgeFlags.days < 0 {
			return cli.NewConfigError("days", "must be >= 0")
		}
		rc.RetentionDays = purgeFlags.days
	}

	pruner := retention.NewPruner(a.store, rc)
	pruner.SetObserver(a.metrics.RecordPrune)

	removed, err := pruner.PruneFor(ctx, retention.TriggerCommand)
	if err != nil {
		return cli.NewCommandError("purge", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), retention.Summary(removed, rc.RetentionDays))
	return nil
}
