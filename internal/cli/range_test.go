package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeCommand_JSON(t *testing.T) {
	db := seedDB(t)

	out, err := execute(NewRangeCommand(&RootOptions{Format: "json"}), "--db", db, "--interval", "5m")
	require.NoError(t, err)

	var result RangeResult
	decodeData(t, out, &result)
	assert.Equal(t, "5m0s", result.Interval)
	require.Len(t, result.Frames, 6)
	assert.Equal(t, "2024-03-01T00:05:00Z", formatTime(result.Frames[0].Summary.Timestamp))
	assert.Equal(t, "2024-03-01T00:30:00Z", formatTime(result.Frames[5].Summary.Timestamp))
	assert.Equal(t, 1, result.Frames[5].Summary.Zones, "only the yard is active at 00:30")
}

func TestRangeCommand_Text(t *testing.T) {
	db := seedDB(t)

	out, err := execute(NewRangeCommand(&RootOptions{Format: "text"}), "--db", db,
		"--start", "2024-03-01T00:00:00Z", "--end", "2024-03-01T00:20:00Z", "--interval", "10m")
	require.NoError(t, err)
	assert.Contains(t, out, "3 frames every 10m0s from 2024-03-01T00:00:00Z to 2024-03-01T00:20:00Z")
	assert.Contains(t, out, "2024-03-01T00:00:00Z  entities=0 zones=0 cells=0 events=0 risk=none")
	assert.Contains(t, out, "2024-03-01T00:20:00Z  entities=2")
}

func TestRangeCommand_RejectsNonPositiveInterval(t *testing.T) {
	db := seedDB(t)

	_, err := execute(NewRangeCommand(&RootOptions{Format: "text"}), "--db", db, "--interval", "0s")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--interval must be positive")
}

func TestVerifyCommand_Deterministic(t *testing.T) {
	db := seedDB(t)

	out, err := execute(NewVerifyCommand(&RootOptions{Format: "json"}), "--db", db, "--interval", "1m")
	require.NoError(t, err)

	var result VerifyResult
	decodeData(t, out, &result)
	assert.True(t, result.Deterministic)
	assert.Equal(t, 26, result.Frames)
	assert.Empty(t, result.Mismatches)
}

func TestVerifyCommand_Text(t *testing.T) {
	db := seedDB(t)

	out, err := execute(NewVerifyCommand(&RootOptions{Format: "text"}), "--db", db, "--interval", "5m")
	require.NoError(t, err)
	assert.Equal(t, "6 frames verified: deterministic\n", out)
}

func TestVerifyCommand_RefusedActivation(t *testing.T) {
	db := seedDB(t)

	out, err := execute(NewVerifyCommand(&RootOptions{Format: "text"}), "--db", db,
		"--start", "2024-03-01T00:10:00Z", "--end", "2024-03-01T00:10:00Z")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "must be before end time")
}
