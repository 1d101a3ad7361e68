package harness

import (
	"fmt"

	"github.com/roach88/georeplay/internal/replay"
)

// evaluateCheck returns "" when c holds for f, otherwise a failure message.
func evaluateCheck(c Check, f *replay.Frame) string {
	switch c.Type {
	case CheckZonePresent:
		if _, ok := f.FindZone(c.Zone); !ok {
			return fmt.Sprintf("zone %s not active", c.Zone)
		}
	case CheckZoneAbsent:
		if _, ok := f.FindZone(c.Zone); ok {
			return fmt.Sprintf("zone %s unexpectedly active", c.Zone)
		}
	case CheckEntityAt:
		p, ok := f.FindEntity(c.Entity)
		if !ok {
			return fmt.Sprintf("entity %s has no position", c.Entity)
		}
		if p.CellIndex != c.Cell {
			return fmt.Sprintf("entity %s in cell %s, expected %s", c.Entity, p.CellIndex, c.Cell)
		}
	case CheckEntityAbsent:
		if p, ok := f.FindEntity(c.Entity); ok {
			return fmt.Sprintf("entity %s unexpectedly at cell %s", c.Entity, p.CellIndex)
		}
	case CheckCellRisk:
		got := replay.RiskNone
		if cell, ok := f.FindCell(c.Cell); ok {
			got = cell.RiskLevel
		}
		if got != replay.RiskLevel(c.Risk) {
			return fmt.Sprintf("cell %s risk %s, expected %s", c.Cell, got, c.Risk)
		}
	case CheckEventCount:
		if len(f.Events) != *c.Count {
			return fmt.Sprintf("expected %d events, got %d", *c.Count, len(f.Events))
		}
	default:
		return fmt.Sprintf("unknown check type %q", c.Type)
	}
	return ""
}
