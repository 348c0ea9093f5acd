package main

import (
	"github.com/spf13/cobra"

	"github.com/Bobcat00/AltDetector/pkg/cli"
)

var namesFlags struct {
	prefix string
	format string
}

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "List known player names",
	Long: `List the lower-cased names of every stored identity, optionally only those
starting with --prefix.`,
	Args: cobra.NoArgs,
	RunE: runNames,
}

func init() {
	rootCmd.AddCommand(namesCmd)

	namesCmd.Flags().StringVarP(&namesFlags.prefix, "prefix", "p", "", "only names starting with prefix (case-insensitive)")
	namesCmd.Flags().StringVarP(&namesFlags.format, "format", "f", "text", "output format (text, json, csv)")
}

func runNames(cmd *cobra.Command, _ []string) error {
	format, err := cli.ParseFormat(namesFlags.format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.RebuildNameCache(ctx); err != nil {
		return cli.NewCommandError("names", err)
	}

	var names []string
	if namesFlags.prefix == "" {
		names = a.store.ListKnownNames()
	} else {
		names = a.store.CompleteNames(namesFlags.prefix)
	}
	if names == nil {
		names = []string{}
	}

	formatter := cli.NewFormatter(format)
	if csvf, ok := formatter.(*cli.CSVFormatter); ok {
		csvf.Headers = []string{"name"}
	}
	return formatter.FormatTo(cmd.OutOrStdout(), names)
}
