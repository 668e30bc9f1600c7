package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/crna-guide/internal/guidance"
	"github.com/jonathan/crna-guide/internal/snapshot"
	"github.com/jonathan/crna-guide/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// guidanceSuffix marks batch outputs, which are never read back as snapshots.
const guidanceSuffix = ".guidance.json"

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Compute guidance for every snapshot in a directory",
	Long:  "Computes guidance for each *.json snapshot in --dir concurrently and writes <name>.guidance.json files to --out. A summary line per snapshot is printed; the command fails if any snapshot failed.",
	RunE:  runBatch,
}

var (
	batchDir         string
	batchOut         string
	batchConcurrency int
)

func init() {
	batchCmd.Flags().StringVarP(&batchDir, "dir", "d", "", "Directory of snapshot JSON files (required)")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "Output directory (required)")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", runtime.NumCPU(), "Maximum snapshots processed at once")

	if err := batchCmd.MarkFlagRequired("dir"); err != nil {
		panic(fmt.Sprintf("failed to mark dir flag as required: %v", err))
	}
	if err := batchCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(batchCmd)
}

// batchResult is the outcome for one snapshot file.
type batchResult struct {
	File   string
	Stage  types.ApplicationStage
	Mode   types.SupportMode
	Score  int
	Steps  int
	Err    error
	Output string
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	results, err := processBatch(commandContext(cmd), log, engine, batchDir, batchOut, batchConcurrency)
	if err != nil {
		return err
	}
	return reportBatch(cmd.OutOrStdout(), results)
}

// processBatch fans the snapshots in dir out over at most limit goroutines. Per-file
// failures are recorded in the results; only setup errors and cancellation abort the batch.
func processBatch(ctx context.Context, log *zap.Logger, engine *guidance.Engine, dir, outDir string, limit int) ([]batchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("concurrency must be greater than 0, got %d", limit)
	}

	files, err := snapshotFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no snapshot files found in %s", dir)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	start := time.Now()
	results := make([]batchResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = processSnapshot(engine, file, outDir)
			if results[i].Err != nil {
				log.Warn("snapshot failed", zap.String("file", file), zap.Error(results[i].Err))
			} else {
				log.Debug("snapshot processed",
					zap.String("file", file),
					zap.String("stage", string(results[i].Stage)),
					zap.Int("score", results[i].Score),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("batch complete",
		zap.Int("snapshots", len(files)),
		zap.Int("concurrency", limit),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

// snapshotFiles lists the *.json files in dir, sorted, skipping earlier batch outputs
// so --out may point at --dir.
func snapshotFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	files := matches[:0]
	for _, m := range matches {
		if !strings.HasSuffix(m, guidanceSuffix) {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func processSnapshot(engine *guidance.Engine, file, outDir string) batchResult {
	res := batchResult{File: filepath.Base(file)}

	raw, err := snapshot.LoadFile(file)
	if err != nil {
		res.Err = err
		return res
	}
	state, err := engine.Compute(raw)
	if err != nil {
		res.Err = err
		return res
	}

	res.Output = filepath.Join(outDir, strings.TrimSuffix(res.File, ".json")+guidanceSuffix)
	if err := writeJSON(nil, res.Output, state); err != nil {
		res.Err = err
		return res
	}

	res.Stage = state.ApplicationStage
	res.Mode = state.SupportMode
	res.Score = state.Readiness.Score
	res.Steps = len(state.NextBestSteps)
	return res
}

func reportBatch(w io.Writer, results []batchResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			_, _ = fmt.Fprintf(w, "FAIL %s: %v\n", r.File, r.Err)
			continue
		}
		_, _ = fmt.Fprintf(w, "OK   %s: stage=%s mode=%s score=%d steps=%d\n", r.File, r.Stage, r.Mode, r.Score, r.Steps)
	}
	_, _ = fmt.Fprintf(w, "%d processed, %d failed\n", len(results), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d snapshots failed", failed, len(results))
	}
	return nil
}
