package replay

import "time"

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// at returns base + minutes.
func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// scenarioZones is a zone created restricted at 00:10, escalated at 00:20
// and deactivated at 00:30.
func scenarioZones() DataSource {
	return DataSource{
		StartTime: at(0),
		EndTime:   at(60),
		ZoneAuditLog: []ZoneAuditEntry{
			{
				ZoneID:    "Z",
				Action:    ZoneCreated,
				Timestamp: at(10),
				After: &ZoneSnapshot{
					Name:      strPtr("Depot"),
					Active:    boolPtr(true),
					GridCells: []string{"c1", "c2"},
					Tags:      []string{"restricted"},
				},
				UserID: "u-1",
			},
			{
				ZoneID:    "Z",
				Action:    ZoneUpdated,
				Timestamp: at(20),
				Before:    &ZoneSnapshot{Tags: []string{"restricted"}},
				After:     &ZoneSnapshot{Tags: []string{"restricted", "high-security"}},
				UserID:    "u-1",
			},
			{
				ZoneID:    "Z",
				Action:    ZoneDeactivated,
				Timestamp: at(30),
				UserID:    "u-2",
			},
		},
	}
}

// scenarioEntities has veh-1 sampled at 00:05 and 00:25.
func scenarioEntities() DataSource {
	return DataSource{
		StartTime: at(0),
		EndTime:   at(60),
		EntityHistory: []EntityPosition{
			{EntityID: "veh-1", EntityKind: "vehicle", Lat: 51.50, Lng: -0.12, CellIndex: "c1", Timestamp: at(5)},
			{EntityID: "veh-1", EntityKind: "vehicle", Lat: 51.51, Lng: -0.13, CellIndex: "c2", Timestamp: at(25)},
		},
	}
}
