package geo

import (
	"math"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellIndex_Deterministic(t *testing.T) {
	a, err := CellIndex(51.5074, -0.1278, DefaultLevel)
	require.NoError(t, err)
	b, err := CellIndex(51.5074, -0.1278, DefaultLevel)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	id := s2.CellIDFromToken(a)
	require.True(t, id.IsValid())
	assert.Equal(t, DefaultLevel, id.Level())
}

func TestCellIndex_NearbyPointsShareCell(t *testing.T) {
	a, err := CellIndex(51.50740, -0.12780, DefaultLevel)
	require.NoError(t, err)
	b, err := CellIndex(51.50741, -0.12781, DefaultLevel)
	require.NoError(t, err)
	c, err := CellIndex(48.8566, 2.3522, DefaultLevel)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCellIndex_CellContainsPoint(t *testing.T) {
	token, err := CellIndex(40.7128, -74.0060, 20)
	require.NoError(t, err)

	cell := s2.CellFromCellID(s2.CellIDFromToken(token))
	assert.True(t, cell.ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(40.7128, -74.0060))))

	coarse, err := CellIndex(40.7128, -74.0060, DefaultLevel)
	require.NoError(t, err)
	assert.True(t, s2.CellIDFromToken(coarse).Contains(s2.CellIDFromToken(token)))
}

func TestCellIndex_Errors(t *testing.T) {
	_, err := CellIndex(0, 0, -1)
	assert.Error(t, err)

	_, err = CellIndex(0, 0, 31)
	assert.Error(t, err)

	_, err = CellIndex(95, 0, DefaultLevel)
	assert.Error(t, err)

	_, err = CellIndex(math.NaN(), 0, DefaultLevel)
	assert.Error(t, err)
}

func TestValidLatLng(t *testing.T) {
	assert.True(t, ValidLatLng(0, 0))
	assert.True(t, ValidLatLng(-90, 180))
	assert.False(t, ValidLatLng(90.5, 0))
	assert.False(t, ValidLatLng(0, 180.5))
}
