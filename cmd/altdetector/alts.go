package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Bobcat00/AltDetector/pkg/altdetect/detector"
	"github.com/Bobcat00/AltDetector/pkg/cli"
)

var altsFlags struct {
	format string
}

var altsCmd = &cobra.Command{
	Use:   "alts [name...]",
	Short: "Show the alts of one or more players",
	Long: `Look up each name, pick the matching identity seen most recently, and list
the other players seen at its addresses within the expiration window.

Without names, every known player with alts is listed.

Examples:
  altdetector alts Alice
  altdetector alts Alice Bob --format json`,
	ValidArgsFunction: completeNames,
	RunE:              runAlts,
}

func init() {
	rootCmd.AddCommand(altsCmd)

	altsCmd.Flags().StringVarP(&altsFlags.format, "format", "f", "text", "output format (text, json, csv)")
}

func runAlts(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(altsFlags.format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	det := detector.New(a.store, a.cfg.DetectorConfig(), a.logger.Logger)

	if format == cli.FormatText {
		var lines []string
		if len(args) == 0 {
			if err := a.store.RebuildNameCache(ctx); err != nil {
				return cli.NewCommandError("alts", err)
			}
			lines, err = det.LookupAll(ctx, a.store.ListKnownNames())
		} else if len(args) == 1 {
			var report *detector.Report
			report, err = det.Lookup(ctx, args[0])
			if report != nil {
				lines = []string{report.Message}
			}
		} else {
			lines, err = det.LookupAll(ctx, args)
		}
		if err != nil {
			return cli.NewCommandError("alts", err)
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), lines)
	}

	names := args
	if len(names) == 0 {
		if err := a.store.RebuildNameCache(ctx); err != nil {
			return cli.NewCommandError("alts", err)
		}
		names = a.store.ListKnownNames()
	}

	table := cli.Table{Headers: []string{"name", "found", "alts"}}
	for _, name := range names {
		report, err := det.Lookup(ctx, name)
		if err != nil {
			return cli.NewCommandError("alts", err)
		}
		if len(args) == 0 && len(report.Alts) == 0 {
			continue
		}
		found := "false"
		if report.Found {
			found = "true"
		}
		table.Rows = append(table.Rows, []string{report.Name, found, strings.Join(report.Alts, " ")})
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
}
