package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Bobcat00/AltDetector/pkg/altdetect/migrate"
	"github.com/Bobcat00/AltDetector/pkg/altdetect/storage"
	"github.com/Bobcat00/AltDetector/pkg/cli"
	"github.com/Bobcat00/AltDetector/pkg/config"
)

var convertFlags struct {
	from string
	file string
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Import data from another backend or the legacy ipdata.yml file",
	Long: `Copy every identity and sighting from the given source into the configured
store. The source must differ from store.backend.

When the source matches convert_from in the config file, convert_from is
rewritten to none afterwards so the next run does not import again.

Examples:
  # Import the legacy YAML file
  altdetector convert --from yml --file plugins/AltDetector/ipdata.yml

  # Move from SQLite to the configured MySQL store
  altdetector convert --from sqlite`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertFlags.from, "from", "", "source: yml, sqlite or mysql")
	convertCmd.Flags().StringVar(&convertFlags.file, "file", "", "legacy file for --from yml (default legacy_file)")
	_ = convertCmd.MarkFlagRequired("from")
}

func runConvert(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	file := convertFlags.file
	if file == "" {
		file = a.cfg.LegacyFile
	}

	res, err := convertData(ctx, a, convertFlags.from, file)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d identities and %d sightings (%d failed)\n",
		res.Identities, res.Sightings, res.Failed)
	if err != nil {
		return cli.NewCommandError("convert", err)
	}

	if convertFlags.from == a.cfg.ConvertFrom {
		if err := config.MarkConverted(cfgFile); err != nil {
			a.logger.Warn("failed to reset convert_from", "path", cfgFile, "error", err)
		}
	}
	return nil
}

// convertData imports from into the app's store. from is a convert_from
// value other than none.
func convertData(ctx context.Context, a *app, from, legacyFile string) (migrate.Result, error) {
	switch from {
	case config.ConvertYAML:
		if legacyFile == "" {
			return migrate.Result{}, cli.NewConfigError("legacy_file", "required when converting from yml")
		}
		return migrate.ImportLegacyFile(ctx, legacyFile, a.store)

	case config.ConvertSQLite, config.ConvertMySQL:
		if from == a.cfg.Store.Backend {
			return migrate.Result{}, fmt.Errorf("%w: %s", migrate.ErrSameBackend, from)
		}
		src, err := openSource(ctx, a, from)
		if err != nil {
			return migrate.Result{}, err
		}
		defer src.Close()
		return migrate.Convert(ctx, src, a.store)

	default:
		return migrate.Result{}, cli.NewConfigError("convert_from",
			fmt.Sprintf("unsupported source %q (want yml, sqlite or mysql)", from))
	}
}

func openSource(ctx context.Context, a *app, backend string) (*storage.Engine, error) {
	logger := a.logger.With("source", backend)
	src, err := openStore(ctx, a.cfg.SourceStorageConfig(backend), nil, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversion source: %w", err)
	}
	return src, nil
}

// startupConvert runs the conversion requested by convert_from. Failure is
// logged and leaves convert_from untouched so it is retried next start.
func startupConvert(ctx context.Context, a *app, logger *slog.Logger) {
	if a.cfg.ConvertFrom == "" || a.cfg.ConvertFrom == config.ConvertNone {
		return
	}

	res, err := convertData(ctx, a, a.cfg.ConvertFrom, a.cfg.LegacyFile)
	if err != nil {
		logger.Error("conversion failed",
			"from", a.cfg.ConvertFrom,
			"identities", res.Identities,
			"sightings", res.Sightings,
			"failed", res.Failed,
			"error", err,
		)
		return
	}

	if err := config.MarkConverted(cfgFile); err != nil {
		logger.Warn("failed to reset convert_from", "path", cfgFile, "error", err)
		return
	}
	logger.Info("conversion complete, convert_from reset to none", "from", a.cfg.ConvertFrom)
}
