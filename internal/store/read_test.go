package store

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/roach88/georeplay/internal/replay"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func sampleDataSource() replay.DataSource {
	return replay.DataSource{
		StartTime: at(0),
		EndTime:   at(60),
		EntityHistory: []replay.EntityPosition{
			{EntityID: "veh-1", EntityKind: "vehicle", Lat: 51.5, Lng: -0.12, CellIndex: "c1", Timestamp: at(5), Metadata: map[string]any{"speed": 12.5}},
			{EntityID: "veh-1", EntityKind: "vehicle", Lat: 51.6, Lng: -0.13, CellIndex: "c2", Timestamp: at(25)},
			{EntityID: "veh-2", EntityKind: "drone", Lat: 51.7, Lng: -0.14, CellIndex: "c3", Timestamp: at(70)},
		},
		ZoneAuditLog: []replay.ZoneAuditEntry{
			{
				ZoneID:    "Z",
				Action:    replay.ZoneCreated,
				Timestamp: at(10),
				After:     &replay.ZoneSnapshot{Name: strPtr("Depot"), Active: boolPtr(true), GridCells: []string{"c1", "c2"}, Tags: []string{"restricted"}},
				UserID:    "u-1",
			},
			{
				ZoneID:    "Z",
				Action:    replay.ZoneDeactivated,
				Timestamp: at(30),
				UserID:    "u-2",
			},
		},
		EventLog: []replay.GeoEvent{
			{ID: "ev-1", Timestamp: at(12), Payload: map[string]any{"kind": "enter", "zone": "Z"}},
		},
	}
}

func TestImportAndRead_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	stats, err := s.ImportDataSource(ctx, sampleDataSource())
	if err != nil {
		t.Fatalf("ImportDataSource() failed: %v", err)
	}
	if stats != (ImportStats{Positions: 3, ZoneAudit: 2, Events: 1}) {
		t.Errorf("stats = %+v", stats)
	}

	ds, err := s.ReadDataSource(ctx, at(0), at(60))
	if err != nil {
		t.Fatalf("ReadDataSource() failed: %v", err)
	}

	want := sampleDataSource()
	want.EntityHistory = want.EntityHistory[:2]
	if !reflect.DeepEqual(ds, want) {
		t.Errorf("ReadDataSource() mismatch\n got: %+v\nwant: %+v", ds, want)
	}
}

func TestReadDataSource_IncludesHistoryBeforeStart(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.ImportDataSource(ctx, sampleDataSource()); err != nil {
		t.Fatalf("ImportDataSource() failed: %v", err)
	}

	ds, err := s.ReadDataSource(ctx, at(20), at(26))
	if err != nil {
		t.Fatalf("ReadDataSource() failed: %v", err)
	}
	if len(ds.ZoneAuditLog) != 1 || ds.ZoneAuditLog[0].Action != replay.ZoneCreated {
		t.Errorf("expected the zone creation before start, got %+v", ds.ZoneAuditLog)
	}
	if len(ds.EntityHistory) != 2 {
		t.Errorf("expected 2 positions, got %d", len(ds.EntityHistory))
	}
	if !ds.StartTime.Equal(at(20)) || !ds.EndTime.Equal(at(26)) {
		t.Errorf("bounds = [%s, %s]", ds.StartTime, ds.EndTime)
	}
}

func TestReadDataSource_TieBreakIsArrivalOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, cell := range []string{"first", "second", "third"} {
		p := replay.EntityPosition{EntityID: "veh-1", CellIndex: cell, Timestamp: at(5)}
		if err := s.AppendPosition(ctx, p); err != nil {
			t.Fatalf("AppendPosition() failed: %v", err)
		}
	}
	// An earlier sample written later still sorts first.
	if err := s.AppendPosition(ctx, replay.EntityPosition{EntityID: "veh-1", CellIndex: "early", Timestamp: at(1)}); err != nil {
		t.Fatalf("AppendPosition() failed: %v", err)
	}

	ds, err := s.ReadDataSource(ctx, at(0), at(10))
	if err != nil {
		t.Fatalf("ReadDataSource() failed: %v", err)
	}

	var got []string
	for _, p := range ds.EntityHistory {
		got = append(got, p.CellIndex)
	}
	want := []string{"early", "first", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestReadDataSource_EmptyStore(t *testing.T) {
	s := createTestStore(t)

	ds, err := s.ReadDataSource(context.Background(), at(0), at(10))
	if err != nil {
		t.Fatalf("ReadDataSource() failed: %v", err)
	}
	if ds.EntityHistory == nil || ds.ZoneAuditLog == nil || ds.EventLog == nil {
		t.Error("expected empty slices, not nil")
	}
}

func TestReadDataSource_RejectsInvertedWindow(t *testing.T) {
	s := createTestStore(t)

	if _, err := s.ReadDataSource(context.Background(), at(10), at(0)); err == nil {
		t.Error("expected error for start after end")
	}
}

func TestImportDataSource_Atomic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ds := sampleDataSource()
	ds.ZoneAuditLog = append(ds.ZoneAuditLog, replay.ZoneAuditEntry{ZoneID: "Z", Action: "renamed", Timestamp: at(40)})

	if _, err := s.ImportDataSource(ctx, ds); err == nil {
		t.Fatal("expected error for unknown action")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM entity_positions").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected rollback, found %d positions", count)
	}
}

func TestAppend_Validation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.AppendPosition(ctx, replay.EntityPosition{CellIndex: "c1"}); err == nil {
		t.Error("expected error for missing entity id")
	}
	if err := s.AppendPosition(ctx, replay.EntityPosition{EntityID: "veh-1"}); err == nil {
		t.Error("expected error for missing cell index")
	}
	if err := s.AppendZoneAudit(ctx, replay.ZoneAuditEntry{Action: replay.ZoneCreated}); err == nil {
		t.Error("expected error for missing zone id")
	}
	if err := s.AppendEvent(ctx, replay.GeoEvent{}); err == nil {
		t.Error("expected error for missing event id")
	}
}

func TestAppendEvent_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ev := replay.GeoEvent{ID: "ev-1", Timestamp: at(1)}
	for i := 0; i < 2; i++ {
		if err := s.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent() #%d failed: %v", i, err)
		}
	}

	ds, err := s.ReadDataSource(ctx, at(0), at(10))
	if err != nil {
		t.Fatalf("ReadDataSource() failed: %v", err)
	}
	if len(ds.EventLog) != 1 {
		t.Errorf("expected 1 event, got %d", len(ds.EventLog))
	}
}

func TestBounds(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Bounds(ctx); err != nil || ok {
		t.Fatalf("Bounds() on empty store = ok %v, err %v", ok, err)
	}

	if _, err := s.ImportDataSource(ctx, sampleDataSource()); err != nil {
		t.Fatalf("ImportDataSource() failed: %v", err)
	}
	r, ok, err := s.Bounds(ctx)
	if err != nil || !ok {
		t.Fatalf("Bounds() = ok %v, err %v", ok, err)
	}
	if !r.Start.Equal(at(5)) || !r.End.Equal(at(70)) {
		t.Errorf("Bounds() = [%s, %s]", r.Start, r.End)
	}
}

func TestZoneHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.ImportDataSource(ctx, sampleDataSource()); err != nil {
		t.Fatalf("ImportDataSource() failed: %v", err)
	}
	if err := s.AppendZoneAudit(ctx, replay.ZoneAuditEntry{ZoneID: "Y", Action: replay.ZoneCreated, Timestamp: at(2)}); err != nil {
		t.Fatalf("AppendZoneAudit() failed: %v", err)
	}

	hist, err := s.ZoneHistory(ctx, "Z")
	if err != nil {
		t.Fatalf("ZoneHistory() failed: %v", err)
	}
	if len(hist) != 2 || hist[0].Action != replay.ZoneCreated || hist[1].Action != replay.ZoneDeactivated {
		t.Errorf("ZoneHistory() = %+v", hist)
	}
	if hist[0].After == nil || *hist[0].After.Name != "Depot" || hist[1].After != nil {
		t.Errorf("snapshots not round-tripped: %+v", hist)
	}
}

// clearingDataSource creates zone Z with a high-security tag on c1 and
// later clears its tags with an explicitly empty list.
func clearingDataSource() replay.DataSource {
	return replay.DataSource{
		StartTime: at(0),
		EndTime:   at(60),
		ZoneAuditLog: []replay.ZoneAuditEntry{
			{
				ZoneID:    "Z",
				Action:    replay.ZoneCreated,
				Timestamp: at(0),
				After:     &replay.ZoneSnapshot{Name: strPtr("Vault"), Active: boolPtr(true), GridCells: []string{"c1"}, Tags: []string{"high-security"}},
			},
			{
				ZoneID:    "Z",
				Action:    replay.ZoneUpdated,
				Timestamp: at(20),
				After:     &replay.ZoneSnapshot{Tags: []string{}},
			},
			{
				ZoneID:    "Y",
				Action:    replay.ZoneUpdated,
				Timestamp: at(25),
				After:     &replay.ZoneSnapshot{GridCells: []string{}},
			},
		},
	}
}

func TestZoneHistory_EmptyListsSurvive(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.ImportDataSource(ctx, clearingDataSource()); err != nil {
		t.Fatalf("ImportDataSource() failed: %v", err)
	}

	hist, err := s.ZoneHistory(ctx, "Z")
	if err != nil {
		t.Fatalf("ZoneHistory() failed: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(hist))
	}
	cleared := hist[1].After
	if cleared == nil {
		t.Fatalf("after snapshot of the clearing update was dropped")
	}
	if cleared.Tags == nil || len(cleared.Tags) != 0 {
		t.Errorf("tags = %#v, want a present empty list", cleared.Tags)
	}
	if cleared.GridCells != nil {
		t.Errorf("grid_cells = %#v, want absent", cleared.GridCells)
	}

	hist, err = s.ZoneHistory(ctx, "Y")
	if err != nil {
		t.Fatalf("ZoneHistory() failed: %v", err)
	}
	if len(hist) != 1 || hist[0].After == nil {
		t.Fatalf("ZoneHistory(Y) = %#v", hist)
	}
	if hist[0].After.GridCells == nil || len(hist[0].After.GridCells) != 0 {
		t.Errorf("grid_cells not kept as a present empty list: %#v", hist)
	}
	if hist[0].After.Tags != nil {
		t.Errorf("tags = %#v, want absent", hist[0].After.Tags)
	}
}

func TestReadDataSource_ClearedTagsMatchDirectReplay(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.ImportDataSource(ctx, clearingDataSource()); err != nil {
		t.Fatalf("ImportDataSource() failed: %v", err)
	}
	ds, err := s.ReadDataSource(ctx, at(0), at(60))
	if err != nil {
		t.Fatalf("ReadDataSource() failed: %v", err)
	}

	direct := replay.NewEngine()
	direct.LoadData(clearingDataSource())
	stored := replay.NewEngine()
	stored.LoadData(ds)

	for _, minute := range []int{10, 30} {
		want := direct.FrameAt(at(minute))
		got := stored.FrameAt(at(minute))
		if !reflect.DeepEqual(got.Cells, want.Cells) {
			t.Errorf("cells at +%dm differ\n got: %+v\nwant: %+v", minute, got.Cells, want.Cells)
		}
	}

	frame := stored.FrameAt(at(30))
	if len(frame.Cells) != 1 || frame.Cells[0].RiskLevel != replay.RiskNone || len(frame.Cells[0].Tags) != 0 {
		t.Errorf("c1 after clearing tags = %+v, want no tags and risk none", frame.Cells)
	}
}
