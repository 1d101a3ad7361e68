// Package geo maps coordinates onto grid cells.
//
// Grid cells are S2 cells addressed by their token. Samples that arrive with
// a cell index keep it untouched; samples without one get the token of the
// S2 cell containing them at the configured level.
package geo

import (
	"fmt"

	"github.com/golang/geo/s2"
)

// DefaultLevel is the S2 level used for derived cell indices (roughly 1 km² cells).
const DefaultLevel = 13

// MaxLevel is the finest S2 level.
const MaxLevel = s2.MaxLevel

// ValidLatLng reports whether lat/lng are finite and within range.
func ValidLatLng(lat, lng float64) bool {
	return s2.LatLngFromDegrees(lat, lng).IsValid()
}

// CellIndex returns the token of the S2 cell at level containing lat/lng.
func CellIndex(lat, lng float64, level int) (string, error) {
	if level < 0 || level > MaxLevel {
		return "", fmt.Errorf("cell level %d out of range [0, %d]", level, MaxLevel)
	}
	ll := s2.LatLngFromDegrees(lat, lng)
	if !ll.IsValid() {
		return "", fmt.Errorf("invalid coordinate (%g, %g)", lat, lng)
	}
	return s2.CellIDFromLatLng(ll).Parent(level).ToToken(), nil
}
