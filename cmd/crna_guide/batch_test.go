package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/crna-guide/internal/fixtures"
	"github.com/jonathan/crna-guide/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestProcessBatch(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "results")

	for i := 0; i < 6; i++ {
		raw := fixtures.Struggling()
		if i%2 == 1 {
			raw = fixtures.Exceptional()
		}
		raw.UserID = fmt.Sprintf("user-%d", i)
		writeSnapshot(t, in, fmt.Sprintf("snap-%d.json", i), raw)
	}

	results, err := processBatch(context.Background(), zaptest.NewLogger(t), testEngine(t), in, out, 3)
	require.NoError(t, err)
	require.Len(t, results, 6)

	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("snap-%d.json", i), r.File, "results keep file order")

		data, err := os.ReadFile(filepath.Join(out, fmt.Sprintf("snap-%d.guidance.json", i)))
		require.NoError(t, err)
		var state types.GuidanceState
		require.NoError(t, json.Unmarshal(data, &state))
		assert.Equal(t, fmt.Sprintf("user-%d", i), state.UserID)
		if i%2 == 0 {
			assert.Equal(t, types.SupportIntensive, state.SupportMode)
		} else {
			assert.Equal(t, types.SupportEncourage, state.SupportMode)
		}
	}
}

func TestProcessBatch_OutputIntoInputDir(t *testing.T) {
	dir := t.TempDir()
	engine := testEngine(t)
	writeSnapshot(t, dir, "a.json", fixtures.Struggling())
	writeSnapshot(t, dir, "b.json", fixtures.Exceptional())

	for run := 0; run < 2; run++ {
		results, err := processBatch(context.Background(), zaptest.NewLogger(t), engine, dir, dir, 2)
		require.NoError(t, err)
		require.Len(t, results, 2, "run %d reads only the snapshots", run)
		for _, r := range results {
			assert.NoError(t, r.Err)
		}
	}
	assert.FileExists(t, filepath.Join(dir, "a.guidance.json"))
	assert.NoFileExists(t, filepath.Join(dir, "a.guidance.guidance.json"))
}

func TestProcessBatch_MatchesSequential(t *testing.T) {
	in := t.TempDir()
	engine := testEngine(t)
	writeSnapshot(t, in, "a.json", fixtures.Struggling())
	writeSnapshot(t, in, "b.json", fixtures.Exceptional())

	parallel, err := processBatch(context.Background(), zaptest.NewLogger(t), engine, in, t.TempDir(), 2)
	require.NoError(t, err)
	serial, err := processBatch(context.Background(), zaptest.NewLogger(t), engine, in, t.TempDir(), 1)
	require.NoError(t, err)

	for i := range parallel {
		assert.Equal(t, serial[i].Stage, parallel[i].Stage)
		assert.Equal(t, serial[i].Score, parallel[i].Score)
		assert.Equal(t, serial[i].Steps, parallel[i].Steps)
	}
}

func TestProcessBatch_PerFileFailures(t *testing.T) {
	in := t.TempDir()
	writeSnapshot(t, in, "good.json", fixtures.Struggling())
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.json"), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "anonymous.json"), []byte(`{}`), 0644))

	results, err := processBatch(context.Background(), zaptest.NewLogger(t), testEngine(t), in, t.TempDir(), 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	var buf bytes.Buffer
	err = reportBatch(&buf, results)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 snapshots failed")
	assert.Contains(t, buf.String(), "FAIL anonymous.json")
	assert.Contains(t, buf.String(), "FAIL broken.json")
	assert.Contains(t, buf.String(), "OK   good.json")
}

func TestProcessBatch_SetupErrors(t *testing.T) {
	engine := testEngine(t)
	log := zaptest.NewLogger(t)

	_, err := processBatch(context.Background(), log, engine, t.TempDir(), t.TempDir(), 0)
	assert.ErrorContains(t, err, "concurrency must be greater than 0")

	_, err = processBatch(context.Background(), log, engine, t.TempDir(), t.TempDir(), 2)
	assert.ErrorContains(t, err, "no snapshot files found")
}

func TestProcessBatch_Cancelled(t *testing.T) {
	in := t.TempDir()
	writeSnapshot(t, in, "a.json", fixtures.Struggling())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := processBatch(ctx, zaptest.NewLogger(t), testEngine(t), in, t.TempDir(), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportBatch_AllOK(t *testing.T) {
	var buf bytes.Buffer
	err := reportBatch(&buf, []batchResult{{File: "a.json", Stage: types.StagePreparing, Mode: types.SupportCoach, Score: 61, Steps: 4}})
	require.NoError(t, err)
	assert.Equal(t, "OK   a.json: stage=preparing mode=coach score=61 steps=4\n1 processed, 0 failed\n", buf.String())
}
