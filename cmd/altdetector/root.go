package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Bobcat00/AltDetector/pkg/cli"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "altdetector",
	Short: "AltDetector - find players sharing network addresses",
	Long: `AltDetector records which network addresses each player joins from and
reports other players seen at the same addresses within the expiration window.

Sightings older than expiration_days are purged at startup and on the
configured prune schedule.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}
