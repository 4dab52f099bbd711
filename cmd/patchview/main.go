package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bft-labs/patchview/internal/adapters/fs"
	"github.com/bft-labs/patchview/internal/adapters/sqlite"
	"github.com/bft-labs/patchview/internal/app"
	"github.com/bft-labs/patchview/internal/cliconfig"
	"github.com/bft-labs/patchview/internal/ports"
	"github.com/bft-labs/patchview/pkg/log"
	"github.com/bft-labs/patchview/pkg/series"
	"github.com/bft-labs/patchview/pkg/state"
)

const helpDescription = `
Assemble device telemetry chunks into one ordered series.

Highlights:
  - Reconstructs a monotonic sample index when the device counter resets.
  - Windows the series by record position, inclusive on both ends.
  - Resolves a pointer offset to the sample under it.
  - Reads chunk files directly or an imported sqlite store; configure via file, env, or flags.
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  patchview --batch-dir ./chunks --window-start 0 --window-end 99 --cursor-px 404
  patchview --batch-dir ./chunks --start-time 2024-05-01T00:00:00Z --end-time 2024-05-02T00:00:00Z --watch
  patchview import --batch-dir ./chunks --store ./series.db --device-id device-1
  patchview --source sqlite --store ./series.db --device-id device-1
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	zl := log.NewZerolog(log.Options{})

	// loadConfig applies file, env and flags in increasing precedence and
	// rebuilds the logger from the result.
	loadConfig := func(cmd *cobra.Command) error {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		changed := cliconfig.ChangedFlags(cmd.Flags())

		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return err
			}
		}

		// PATCHVIEW_* override the file but not explicit flags.
		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return err
		}

		zl = log.NewZerolog(log.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
		return nil
	}

	root := &cobra.Command{
		Use:           "patchview",
		Short:         "Assemble device telemetry chunks into one ordered series",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			zl.Info().Interface("config", cfg).Msg("configuration")

			ctx, cancel := signalContext()
			defer cancel()
			return runAssemble(ctx, cfg, zl, cmd.OutOrStdout())
		},
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Copy chunk files into the sqlite store, reconstructing indices incrementally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			if err := cfg.ValidateImport(); err != nil {
				return err
			}
			zl.Info().Interface("config", cfg).Msg("configuration")

			ctx, cancel := signalContext()
			defer cancel()
			return runImport(ctx, cfg, zl, cmd.OutOrStdout())
		},
	}
	root.AddCommand(importCmd)

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.patchview/config.toml)")
	cliconfig.BindFlags(root.PersistentFlags(), &cfg)

	if err := root.Execute(); err != nil {
		zl.Error().Err(err).Msg("patchview")
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runAssemble(ctx context.Context, cfg cliconfig.Config, zl zerolog.Logger, out io.Writer) error {
	logger := log.NewZerologAdapterWithLogger(zl)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	source, chunks, closeFn, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	pipeline := app.NewPipeline(app.PipelineConfig{
		Reconstruct: cfg.Reconstruct,
		Window:      cfg.Window(),
	}, source, logger)

	report := func(res *app.Result) {
		if err := printResult(out, cfg, res, loc); err != nil {
			zl.Error().Err(err).Msg("report")
		}
	}

	if !cfg.Watch {
		res, err := pipeline.Run(ctx)
		if err != nil {
			return err
		}
		report(res)
		return nil
	}

	if chunks == nil {
		return fmt.Errorf("watch requires source %q", cliconfig.SourceDir)
	}
	w := app.NewWatcher(app.WatcherConfig{
		Dir: chunks.Dir(),
		Match: func(name string) bool {
			_, ok := chunks.Matches(name)
			return ok
		},
		Debounce: cfg.Debounce,
	}, pipeline, logger, report)

	if err := w.Run(ctx); err != nil {
		return err
	}
	zl.Info().Msg("received signal, stopped watching")
	return nil
}

func runImport(ctx context.Context, cfg cliconfig.Config, zl zerolog.Logger, out io.Writer) error {
	logger := log.NewZerologAdapterWithLogger(zl)

	chunks, err := newChunkDir(cfg, logger)
	if err != nil {
		return err
	}
	store, err := sqlite.Open(cfg.StorePath, cfg.DeviceID)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	repo := state.NewFileRepository(cfg.StateDir)

	start := time.Now()
	res, err := app.NewImporter(chunks, store, repo, cfg.DeviceID, logger).Import(ctx)
	if err != nil {
		return err
	}
	total, err := store.Count(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "imported %d batches (%d records) in %s, store holds %d batches, next logical index after %d\n",
		res.Imported, res.Records, time.Since(start).Round(time.Millisecond), total, res.Carry.PrevLogical)
	return err
}

// openSource returns the configured batch source. chunks is nil unless the
// source is a chunk directory.
func openSource(cfg cliconfig.Config, logger ports.Logger) (ports.BatchSource, *fs.ChunkDir, func(), error) {
	switch cfg.Source {
	case cliconfig.SourceSQLite:
		store, err := sqlite.Open(cfg.StorePath, cfg.DeviceID)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, func() { _ = store.Close() }, nil
	default:
		chunks, err := newChunkDir(cfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return chunks, chunks, func() {}, nil
	}
}

func newChunkDir(cfg cliconfig.Config, logger ports.Logger) (*fs.ChunkDir, error) {
	return fs.NewChunkDir(cfg.BatchDir,
		fs.WithPattern(cfg.BatchPattern),
		fs.WithDevice(cfg.DeviceID),
		fs.WithChunkSpan(cfg.Span()),
		fs.WithLogger(logger),
	)
}

func printResult(out io.Writer, cfg cliconfig.Config, res *app.Result, loc *time.Location) error {
	sum := res.View.Summary()
	fmt.Fprintf(out, "batches: %d (+%d)\n", res.Batches, res.Appended)
	fmt.Fprintf(out, "records: %d of %d, window %s\n", sum.Len, res.Full.Len(), cfg.Window())
	fmt.Fprintf(out, "time:    %s .. %s\n", series.FormatTick(sum.FirstTS, loc), series.FormatTick(sum.LastTS, loc))
	fmt.Fprintf(out, "index:   %d .. %d (reconstructed=%t, backward jumps=%d)\n",
		sum.FirstIndex, sum.LastIndex, sum.Reconstructed, sum.Wraps)

	if lo, hi, err := res.View.PatchExtent(); err == nil {
		fmt.Fprintf(out, "patch:   %d .. %d\n", lo, hi)
	}

	if cfg.CursorPX == nil {
		return nil
	}
	r, err := series.NewResolver(res.View, cfg.Width, series.WithLocation(loc))
	if err != nil {
		return err
	}
	sample, err := r.Resolve(*cfg.CursorPX)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "cursor:  %g px -> position %d, %s\n", *cfg.CursorPX, sample.Position, sample.Label)
	return err
}
