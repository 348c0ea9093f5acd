package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
	"github.com/Bobcat00/AltDetector/pkg/altdetect/detector"
	"github.com/Bobcat00/AltDetector/pkg/altdetect/retention"
	"github.com/Bobcat00/AltDetector/pkg/cli"
	"github.com/Bobcat00/AltDetector/pkg/config"
	"github.com/Bobcat00/AltDetector/pkg/dispatch"
	"github.com/Bobcat00/AltDetector/pkg/server"
	"github.com/Bobcat00/AltDetector/pkg/telemetry/health"
)

// Join results counted by the joins_total metric.
const (
	joinAlts    = "alts"
	joinClean   = "clean"
	joinError   = "error"
	joinInvalid = "invalid"
	joinDropped = "dropped"
)

// maxEventLine bounds a single JSON event line.
const maxEventLine = 64 * 1024

var runFlags struct {
	events string
	watch  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process join events and report alts",
	Long: `Start AltDetector. Join events are read as JSON lines, one per join:

  {"id": "<stable id>", "ip": "<address>", "name": "<display name>"}

Each event is recorded on a background worker and, when the player shares an
address with others seen within the expiration window, an alt notice is
printed to stdout. Input ends the run at EOF; SIGINT or SIGTERM stop it
early.

Startup runs the conversion named by convert_from, purges expired data,
and schedules further purges on retention.prune_schedule.

Examples:
  # Read events from stdin
  tail -F joins.jsonl | altdetector run

  # Read events from a file with the admin server enabled
  ALTDETECTOR_ADMIN_ENABLED=true altdetector run --events joins.jsonl`,
	Args: cobra.NoArgs,
	RunE: runDetector,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.events, "events", "e", "-", "join event file, - for stdin")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch-config", true, "reload the config file when it changes")
}

func runDetector(cmd *cobra.Command, _ []string) error {
	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	logger := a.logger.Logger

	in, closeInput, err := openEvents(runFlags.events, cmd.InOrStdin())
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer closeInput()

	startupConvert(ctx, a, logger)

	pruner := retention.NewPruner(a.store, cfg.RetentionConfig())
	pruner.SetObserver(a.metrics.RecordPrune)
	a.metrics.SetRetention(cfg.ExpirationDays)

	removed, err := pruner.PruneFor(ctx, retention.TriggerStartup)
	if err != nil {
		logger.Error("startup purge failed", "error", err)
	} else {
		logger.Info(retention.Summary(removed, cfg.ExpirationDays),
			"removed", removed,
			"expiration_days", cfg.ExpirationDays,
			"expiration_bucket", retention.ExpirationBucket(cfg.ExpirationDays),
		)
	}

	if err := a.store.RebuildNameCache(ctx); err != nil {
		logger.Warn("name cache rebuild failed", "error", err)
	}

	pool := dispatch.NewPool(cfg.PoolConfig())
	a.metrics.RegisterPool(pool)
	mainQueue := dispatch.NewMainQueue(cfg.Workers.Queue)
	det := detector.New(a.store, cfg.DetectorConfig(), logger)

	if err := pruner.Start(ctx); err != nil {
		logger.Warn("failed to start retention scheduler", "error", err)
	} else {
		defer pruner.Stop()
		if next := pruner.NextPruning(); next != nil {
			logger.Debug("retention scheduler started", "next_pruning", next)
		}
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Admin.Enabled {
		checker := health.New(0)
		checker.RegisterCheck("database", health.DatabaseCheck(a.store))
		checker.RegisterCheck("workers", health.WorkerCheck(pool, cfg.Workers.Queue))

		srv := server.New(server.Config{
			ListenAddress:   cfg.Admin.ListenAddress,
			ShutdownTimeout: cfg.Workers.ShutdownTimeout,
		}, server.Deps{
			Store:    a.store,
			Detector: det,
			Checker:  checker,
			Metrics:  a.metrics,
			Version:  Version,
		}, logger)
		g.Go(func() error { return srv.Start(gctx) })
	}

	if runFlags.watch {
		watcher, err := config.NewWatcher(cfgFile, config.DefaultDebounceInterval, func(next *config.Config) {
			applyReload(a, det, pruner, next)
		}, logger)
		if err != nil {
			logger.Warn("config watcher unavailable", "error", err)
		} else {
			defer watcher.Stop()
			g.Go(func() error {
				if err := watcher.Watch(gctx); err != nil {
					logger.Warn("config watcher stopped", "error", err)
				}
				return nil
			})
		}
	}

	out := cmd.OutOrStdout()
	g.Go(func() error {
		defer cancelRun()
		err := consumeEvents(gctx, in, logger, func(ev detector.Event) {
			submitJoin(pool, mainQueue, det, a, ev, out)
		})
		// Input exhausted: let queued joins finish while the main loop
		// still prints their notices.
		if shutdownErr := pool.Shutdown(cfg.Workers.ShutdownTimeout); shutdownErr != nil {
			logger.Warn("worker pool did not drain", "error", shutdownErr)
		}
		return err
	})

	logger.Info("altdetector running",
		"backend", a.store.Backend(),
		"events", runFlags.events,
		"admin", cfg.Admin.Enabled,
	)

	mainQueue.Run(gctx)
	mainQueue.Close()

	runErr := g.Wait()

	if err := pool.Shutdown(cfg.Workers.ShutdownTimeout); err != nil {
		logger.Warn("worker pool shutdown", "error", err)
	}

	if runErr != nil {
		return cli.NewCommandError("run", runErr)
	}
	logger.Info("altdetector stopped")
	return nil
}

// submitJoin runs OnJoin on the pool and prints the notice on the main loop.
func submitJoin(pool *dispatch.Pool, loop *dispatch.MainQueue, det *detector.Detector, a *app, ev detector.Event, out io.Writer) {
	err := dispatch.Go(pool, loop,
		func(ctx context.Context) (*detector.Notice, error) {
			return det.OnJoin(ctx, ev)
		},
		func(notice *detector.Notice, err error) {
			switch {
			case altdetect.IsInvalidArgument(err):
				a.metrics.RecordJoin(joinInvalid)
				a.logger.Warn("incomplete join event", "name", ev.Name, "error", err)
			case err != nil:
				a.metrics.RecordJoin(joinError)
				a.logger.Warn("join not recorded", "name", ev.Name, "error", err)
			case notice == nil:
				a.metrics.RecordJoin(joinClean)
			default:
				a.metrics.RecordJoin(joinAlts)
				fmt.Fprintln(out, notice.Message)
			}
		})
	if err != nil {
		a.metrics.RecordJoin(joinDropped)
		a.logger.Error("join dropped", "name", ev.Name, "error", err)
	}
}

// applyReload pushes a reloaded configuration into the running components.
// Store and admin settings take effect on the next start.
func applyReload(a *app, det *detector.Detector, pruner *retention.Pruner, next *config.Config) {
	det.Update(next.DetectorConfig())
	pruner.SetRetentionDays(next.ExpirationDays)
	a.metrics.SetRetention(next.ExpirationDays)
	a.store.SetSQLDebug(next.Store.SQLDebug)

	if logLevel == "" {
		if err := a.logger.SetLevel(next.Telemetry.Logging.Level); err != nil {
			a.logger.Warn("invalid log level in reloaded config", "error", err)
		}
	}

	if next.Store.Backend != a.cfg.Store.Backend {
		a.logger.Warn("store backend change requires a restart",
			"running", a.cfg.Store.Backend,
			"configured", next.Store.Backend,
		)
	}

	a.logger.Info("configuration applied",
		"expiration_days", next.ExpirationDays,
		"sql_debug", next.Store.SQLDebug,
	)
}

func openEvents(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open events: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// consumeEvents decodes JSON join events from r and hands each to handle
// until EOF or ctx is done. Blank and malformed lines are skipped.
func consumeEvents(ctx context.Context, r io.Reader, logger *slog.Logger, handle func(detector.Event)) error {
	type line struct {
		text string
		num  int
	}

	lines := make(chan line)
	var scanErr error

	// Reads block without honoring ctx, so the scanner lives outside the
	// caller's goroutine and is abandoned on cancellation.
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 4096), maxEventLine)
		n := 0
		for scanner.Scan() {
			n++
			select {
			case lines <- line{text: scanner.Text(), num: n}:
			case <-ctx.Done():
				return
			}
		}
		scanErr = scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				if scanErr != nil {
					return fmt.Errorf("failed to read events: %w", scanErr)
				}
				return nil
			}
			text := strings.TrimSpace(l.text)
			if text == "" {
				continue
			}
			var ev detector.Event
			if err := json.Unmarshal([]byte(text), &ev); err != nil {
				logger.Warn("skipping malformed event", "line", l.num, "error", err)
				continue
			}
			handle(ev)
		}
	}
}
