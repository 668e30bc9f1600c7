package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonathan/crna-guide/internal/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreSnapshotFile_Table(t *testing.T) {
	path := writeSnapshot(t, t.TempDir(), "struggling.json", fixtures.Struggling())

	var buf bytes.Buffer
	require.NoError(t, scoreSnapshotFile(&buf, testEngine(t), path, false))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Readiness: "))
	assert.Contains(t, out, "Emerging")
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "PRIORITY")
	assert.Contains(t, out, "academic")
}

func TestScoreSnapshotFile_JSON(t *testing.T) {
	path := writeSnapshot(t, t.TempDir(), "exceptional.json", fixtures.Exceptional())
	engine := testEngine(t)

	var buf bytes.Buffer
	require.NoError(t, scoreSnapshotFile(&buf, engine, path, true))

	var report scoreReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))

	want, err := engine.Readiness(fixtures.Exceptional())
	require.NoError(t, err)
	assert.Equal(t, want, report.Readiness)
	assert.Equal(t, engine.Scorer().PriorityActions(want), report.Priorities)
}

func TestScoreSnapshotFile_MissingFile(t *testing.T) {
	err := scoreSnapshotFile(&bytes.Buffer{}, testEngine(t), filepath.Join(t.TempDir(), "nope.json"), false)
	assert.Error(t, err)
}
