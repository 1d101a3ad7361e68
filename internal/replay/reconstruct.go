package replay

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// cutoff returns the number of leading elements whose timestamp is <= ts.
// items must be sorted by timestamp.
func cutoff[T any](items []T, ts time.Time, at func(T) time.Time) int {
	return sort.Search(len(items), func(i int) bool {
		return at(items[i]).After(ts)
	})
}

// reconstruct builds the frame at ts from an indexed dataset.
func reconstruct(ds *indexedSource, ts time.Time) *Frame {
	zones := foldZones(ds.zoneAudit[:cutoff(ds.zoneAudit, ts, func(e ZoneAuditEntry) time.Time { return e.Timestamp })])
	return &Frame{
		Timestamp: ts.UTC(),
		Entities:  latestPositions(ds.positions[:cutoff(ds.positions, ts, func(p EntityPosition) time.Time { return p.Timestamp })]),
		Zones:     zones,
		Cells:     deriveCells(zones),
		Events:    slices.Clone(ds.events[:cutoff(ds.events, ts, func(e GeoEvent) time.Time { return e.Timestamp })]),
	}
}

// latestPositions keeps the newest sample per entity. Samples are in
// timestamp order with arrival order preserved, so on equal timestamps the
// later arrival wins.
func latestPositions(samples []EntityPosition) []EntityPosition {
	latest := make(map[string]EntityPosition)
	for _, s := range samples {
		latest[s.EntityID] = s
	}

	out := make([]EntityPosition, 0, len(latest))
	for _, s := range latest {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b EntityPosition) int {
		return strings.Compare(a.EntityID, b.EntityID)
	})
	return out
}

// foldZones applies audit entries in order and returns the active zones
// sorted by id.
func foldZones(entries []ZoneAuditEntry) []Zone {
	state := make(map[string]*Zone)

	for _, e := range entries {
		switch e.Action {
		case ZoneCreated:
			z := &Zone{ID: e.ZoneID, Active: true}
			mergeSnapshot(z, e.After)
			state[e.ZoneID] = z
		case ZoneUpdated, ZoneTagged:
			if z, ok := state[e.ZoneID]; ok {
				mergeSnapshot(z, e.After)
			}
		case ZoneDeactivated:
			if z, ok := state[e.ZoneID]; ok {
				z.Active = false
			}
		}
	}

	out := make([]Zone, 0, len(state))
	for _, z := range state {
		if !z.Active {
			continue
		}
		if z.GridCells == nil {
			z.GridCells = []string{}
		}
		if z.Tags == nil {
			z.Tags = []string{}
		}
		out = append(out, *z)
	}
	slices.SortFunc(out, func(a, b Zone) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// mergeSnapshot overwrites the fields present in snap.
func mergeSnapshot(z *Zone, snap *ZoneSnapshot) {
	if snap == nil {
		return
	}
	if snap.Name != nil {
		z.Name = *snap.Name
	}
	if snap.Active != nil {
		z.Active = *snap.Active
	}
	if snap.GridCells != nil {
		z.GridCells = slices.Clone(snap.GridCells)
	}
	if snap.Tags != nil {
		z.Tags = slices.Clone(snap.Tags)
	}
}

// deriveCells accumulates zone membership per cell from scratch.
func deriveCells(zones []Zone) []GridCellState {
	type acc struct {
		state GridCellState
		tags  map[string]struct{}
	}
	cells := make(map[string]*acc)

	for _, z := range zones {
		seen := make(map[string]struct{}, len(z.GridCells))
		for _, idx := range z.GridCells {
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}

			c, ok := cells[idx]
			if !ok {
				c = &acc{
					state: GridCellState{CellIndex: idx, ZoneIDs: []string{}, ZoneNames: []string{}},
					tags:  make(map[string]struct{}),
				}
				cells[idx] = c
			}
			c.state.ZoneIDs = append(c.state.ZoneIDs, z.ID)
			c.state.ZoneNames = append(c.state.ZoneNames, z.Name)
			for _, tag := range z.Tags {
				c.tags[tag] = struct{}{}
			}
		}
	}

	out := make([]GridCellState, 0, len(cells))
	for _, c := range cells {
		tags := make([]string, 0, len(c.tags))
		for tag := range c.tags {
			tags = append(tags, tag)
		}
		slices.Sort(tags)
		c.state.Tags = tags
		c.state.RiskLevel = DeriveRisk(tags)
		c.state.InZone = len(c.state.ZoneIDs) > 0
		out = append(out, c.state)
	}
	slices.SortFunc(out, func(a, b GridCellState) int {
		return strings.Compare(a.CellIndex, b.CellIndex)
	})
	return out
}

// DeriveRisk classifies a tag set. Matching is a case-insensitive substring
// test with fixed precedence: "high" or "security" gives high, then "medium"
// or "restricted" gives medium, then any tag gives low.
func DeriveRisk(tags []string) RiskLevel {
	if len(tags) == 0 {
		return RiskNone
	}
	if anyTagContains(tags, "high", "security") {
		return RiskHigh
	}
	if anyTagContains(tags, "medium", "restricted") {
		return RiskMedium
	}
	return RiskLow
}

func anyTagContains(tags []string, needles ...string) bool {
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return true
			}
		}
	}
	return false
}
