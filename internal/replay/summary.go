package replay

import (
	"time"

	"github.com/roach88/georeplay/internal/canon"
)

// Fingerprint returns a content hash of f. Structurally equal frames have
// equal fingerprints.
func Fingerprint(f *Frame) (string, error) {
	return canon.Fingerprint(canon.DomainFrame, f)
}

// FrameSummary condenses a frame for listings.
type FrameSummary struct {
	Timestamp time.Time `json:"timestamp"`
	Entities  int       `json:"entities"`
	Zones     int       `json:"zones"`
	Cells     int       `json:"cells"`
	Events    int       `json:"events"`
	MaxRisk   RiskLevel `json:"max_risk"`
}

// Summarize returns counts and the highest cell risk of f.
func Summarize(f *Frame) FrameSummary {
	s := FrameSummary{
		Timestamp: f.Timestamp,
		Entities:  len(f.Entities),
		Zones:     len(f.Zones),
		Cells:     len(f.Cells),
		Events:    len(f.Events),
		MaxRisk:   RiskNone,
	}
	for _, c := range f.Cells {
		if c.RiskLevel.Rank() > s.MaxRisk.Rank() {
			s.MaxRisk = c.RiskLevel
		}
	}
	return s
}

// FindEntity returns the position of id in f.
func (f *Frame) FindEntity(id string) (EntityPosition, bool) {
	for _, p := range f.Entities {
		if p.EntityID == id {
			return p, true
		}
	}
	return EntityPosition{}, false
}

// FindZone returns the active zone id in f.
func (f *Frame) FindZone(id string) (Zone, bool) {
	for _, z := range f.Zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}

// FindCell returns the state of cell idx in f.
func (f *Frame) FindCell(idx string) (GridCellState, bool) {
	for _, c := range f.Cells {
		if c.CellIndex == idx {
			return c, true
		}
	}
	return GridCellState{}, false
}
