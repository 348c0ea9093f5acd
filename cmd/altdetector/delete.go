package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Bobcat00/AltDetector/pkg/altdetect/detector"
	"github.com/Bobcat00/AltDetector/pkg/cli"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove every identity with the given name",
	Long: `Delete every identity whose name matches, ignoring case, together with
all of its sightings.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeNames,
	RunE:              runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	det := detector.New(a.store, a.cfg.DetectorConfig(), a.logger.Logger)
	msg, err := det.Delete(ctx, args[0])
	if err != nil {
		return cli.NewCommandError("delete", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
