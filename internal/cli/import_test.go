package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCommand_Text(t *testing.T) {
	db := filepath.Join(t.TempDir(), "audit.db")

	out, err := execute(NewImportCommand(&RootOptions{Format: "text"}), "--db", db, depotDataset)
	require.NoError(t, err)
	assert.Contains(t, out, "positions:  3")
	assert.Contains(t, out, "zone audit: 4")
	assert.Contains(t, out, "events:     1")
	assert.Contains(t, out, "window:     2024-03-01T00:00:00Z .. 2024-03-01T01:00:00Z")
}

func TestImportCommand_JSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "audit.db")

	out, err := execute(NewImportCommand(&RootOptions{Format: "json"}), "--db", db, depotDataset)
	require.NoError(t, err)

	var result ImportResult
	decodeData(t, out, &result)
	assert.Equal(t, db, result.Database)
	assert.Equal(t, 3, result.Positions)
	assert.Equal(t, 4, result.ZoneAudit)
	assert.Equal(t, 1, result.Events)
	assert.Len(t, result.Fingerprint, 64)
}

func TestImportCommand_FingerprintIsStable(t *testing.T) {
	dir := t.TempDir()
	var first, second ImportResult

	out, err := execute(NewImportCommand(&RootOptions{Format: "json"}), "--db", filepath.Join(dir, "a.db"), depotDataset)
	require.NoError(t, err)
	decodeData(t, out, &first)

	out, err = execute(NewImportCommand(&RootOptions{Format: "json"}), "--db", filepath.Join(dir, "b.db"), depotDataset)
	require.NoError(t, err)
	decodeData(t, out, &second)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}

func TestImportCommand_MissingFile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "audit.db")

	out, err := execute(NewImportCommand(&RootOptions{Format: "text"}), "--db", db, "/nonexistent/data.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_DATASET]")
}

func TestImportCommand_MissingArgs(t *testing.T) {
	_, err := execute(NewImportCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
