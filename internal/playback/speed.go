package playback

import (
	"errors"
	"fmt"
	"strconv"
)

// Speed is a playback multiplier. Only the values in Speeds are accepted.
type Speed float64

const (
	SpeedHalf Speed = 0.5
	Speed1x   Speed = 1
	Speed2x   Speed = 2
	Speed5x   Speed = 5
	Speed10x  Speed = 10
)

// ErrUnsupportedSpeed is returned for multipliers outside the speed set.
var ErrUnsupportedSpeed = errors.New("unsupported playback speed")

// Speeds returns the accepted multipliers in ascending order.
func Speeds() []Speed {
	return []Speed{SpeedHalf, Speed1x, Speed2x, Speed5x, Speed10x}
}

// Valid reports whether s is one of the accepted multipliers.
func (s Speed) Valid() bool {
	switch s {
	case SpeedHalf, Speed1x, Speed2x, Speed5x, Speed10x:
		return true
	}
	return false
}

func (s Speed) String() string {
	return strconv.FormatFloat(float64(s), 'g', -1, 64) + "x"
}

// ParseSpeed parses "2", "2x" or "0.5" into a Speed.
func ParseSpeed(v string) (Speed, error) {
	if n := len(v); n > 0 && (v[n-1] == 'x' || v[n-1] == 'X') {
		v = v[:n-1]
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedSpeed, v)
	}
	s := Speed(f)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedSpeed, f)
	}
	return s, nil
}
