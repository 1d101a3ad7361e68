package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/georeplay/internal/replay"
	"github.com/roach88/georeplay/internal/store"
)

func TestFrameCommand_Text(t *testing.T) {
	db := seedDB(t)

	out, err := execute(NewFrameCommand(&RootOptions{Format: "text"}), "--db", db, "--at", "2024-03-01T00:15:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-01T00:15:00Z  entities=2 zones=2")
	assert.Contains(t, out, "events=1 risk=medium")
	assert.Contains(t, out, "entity veh-1 (vehicle) cell=c1")
	assert.Contains(t, out, `zone Z "Depot" cells=[c1,c2] tags=[restricted]`)
	assert.Contains(t, out, "event ev-1 at 2024-03-01T00:12:00Z")
}

func TestFrameCommand_JSON(t *testing.T) {
	db := seedDB(t)

	out, err := execute(NewFrameCommand(&RootOptions{Format: "json"}), "--db", db, "--at", "2024-03-01T00:22:00Z")
	require.NoError(t, err)

	var result FrameResult
	decodeData(t, out, &result)
	assert.Equal(t, replay.RiskHigh, result.Summary.MaxRisk)
	assert.Len(t, result.Fingerprint, 64)
	require.NotNil(t, result.Frame)
	cell, ok := result.Frame.FindCell("c1")
	require.True(t, ok)
	assert.Equal(t, replay.RiskHigh, cell.RiskLevel)
}

func TestFrameCommand_DefaultsToWindowStart(t *testing.T) {
	db := seedDB(t)

	out, err := execute(NewFrameCommand(&RootOptions{Format: "json"}), "--db", db)
	require.NoError(t, err)

	var result FrameResult
	decodeData(t, out, &result)
	assert.Equal(t, "2024-03-01T00:05:00Z", formatTime(result.Summary.Timestamp))
	assert.Equal(t, 1, result.Summary.Entities)
}

func TestFrameCommand_RefusesTimeOutsideWindow(t *testing.T) {
	db := seedDB(t)

	out, err := execute(NewFrameCommand(&RootOptions{Format: "text"}), "--db", db, "--at", "2024-03-01T00:45:00Z")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_ACTIVATION]: replay activation refused")
}

func TestFrameCommand_RefusesInvertedWindow(t *testing.T) {
	db := seedDB(t)

	_, err := execute(NewFrameCommand(&RootOptions{Format: "json"}), "--db", db,
		"--start", "2024-03-01T00:30:00Z", "--end", "2024-03-01T00:10:00Z", "--at", "2024-03-01T00:20:00Z")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestFrameCommand_MissingDatabase(t *testing.T) {
	_, err := execute(NewFrameCommand(&RootOptions{Format: "text"}), "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestFrameCommand_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = execute(NewFrameCommand(&RootOptions{Format: "text"}), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database has no records")
}

func TestFrameCommand_BadTimeFlag(t *testing.T) {
	db := seedDB(t)

	_, err := execute(NewFrameCommand(&RootOptions{Format: "text"}), "--db", db, "--at", "noon")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid --at")
}
