package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/crna-guide/internal/catalog"
	"github.com/jonathan/crna-guide/internal/config"
	"github.com/jonathan/crna-guide/internal/guidance"
	"github.com/jonathan/crna-guide/internal/types"
	"github.com/stretchr/testify/require"
)

// getBinaryPath returns the path to the crna_guide binary for testing
func getBinaryPath(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", "crna_guide")
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'make build'", binaryPath)
	}

	return binaryPath
}

// writeSnapshot marshals raw into dir/name and returns the path.
func writeSnapshot(t *testing.T, dir, name string, raw *types.RawSnapshot) string {
	t.Helper()
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// testEngine builds an engine over the default configuration and catalog.
func testEngine(t *testing.T) *guidance.Engine {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	engine, err := guidance.New(config.DefaultEngine(), cat)
	require.NoError(t, err)
	return engine
}
