package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"gps-canon-service/internal/canon"
	"gps-canon-service/internal/ingest"
	"gps-canon-service/internal/profile"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p, err := profile.New(canon.Default(), "club-1", "Polar Main", "Polar", []profile.Column{
		{Type: profile.TypeColumn, Name: "Игрок", SourceHeader: "Player", CanonicalKey: "athlete_name", DisplayUnit: "string", IsVisible: true},
		{Type: profile.TypeColumn, Name: "Дистанция", SourceHeader: "Total distance", CanonicalKey: "total_distance_m", DisplayUnit: "m", IsVisible: true},
	})
	if err != nil {
		t.Fatalf("profile.New: %v", err)
	}
	return p
}

func TestProfileRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testProfile(t)
	if err := s.CreateProfile(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Profile(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != p.Name || got.GpsSystem != p.GpsSystem || len(got.Columns) != 2 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.Columns[1].CanonicalKey != "total_distance_m" {
		t.Errorf("columns lost: %+v", got.Columns)
	}

	if _, err := s.Profile(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := s.Profiles(ctx, "club-1")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v, %d", err, len(list))
	}
}

func TestUpdateProfileColumnsFreeze(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testProfile(t)
	if err := s.CreateProfile(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	snap := profile.BuildSnapshot(p, canon.Default().Version(), time.Now().UTC())
	now := time.Now().UTC()
	rep := &Report{
		ID:           uuid.NewString(),
		ProfileID:    p.ID,
		FileName:     "session.csv",
		CanonVersion: snap.CanonVersion,
		Snapshot:     snap,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.SaveReport(ctx, rep); err != nil {
		t.Fatalf("save report: %v", err)
	}

	n, err := s.ReportCountReferencing(ctx, p.ID)
	if err != nil || n != 1 {
		t.Fatalf("count: %v, %d", err, n)
	}

	// структурное изменение при существующем отчёте отклоняется
	if err := s.UpdateProfileColumns(ctx, p, true); !errors.Is(err, profile.ErrProfileFrozen) {
		t.Errorf("expected ErrProfileFrozen, got %v", err)
	}

	// презентационное — проходит
	p.Columns[1].IsVisible = false
	if err := s.UpdateProfileColumns(ctx, p, false); err != nil {
		t.Fatalf("presentational update: %v", err)
	}
	got, _ := s.Profile(ctx, p.ID)
	if got.Columns[1].IsVisible {
		t.Error("visibility change not persisted")
	}
}

func TestReportRoundtripAndReplaceCanonical(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testProfile(t)
	if err := s.CreateProfile(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	snap := profile.BuildSnapshot(p, canon.Default().Version(), time.Now().UTC())

	now := time.Now().UTC()
	rep := &Report{
		ID:           uuid.NewString(),
		ProfileID:    p.ID,
		FileName:     "session.csv",
		CanonVersion: snap.CanonVersion,
		RawData: ingest.RawTable{
			Headers: []string{"Player", "Total distance"},
			Rows:    [][]any{{"Иван Петров", 8200.0}},
		},
		Snapshot: snap,
		Canonical: ingest.Canonical{
			Rows: []ingest.CanonicalRow{{RowIndex: 0, Metrics: map[string]any{
				"athlete_name":     "Иван Петров",
				"total_distance_m": 8200.0,
			}}},
			Summary: map[string]float64{"total_distance_m": 8200},
		},
		ImportMeta: ingest.ImportMeta{Strategy: ingest.ByHeaders},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.SaveReport(ctx, rep); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Report(ctx, rep.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FileName != "session.csv" || len(got.RawData.Headers) != 2 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.Canonical.Summary["total_distance_m"] != 8200 {
		t.Errorf("canonical lost: %+v", got.Canonical)
	}
	if got.Snapshot.ProfileID != p.ID {
		t.Errorf("snapshot lost: %+v", got.Snapshot)
	}
	if got.ImportMeta.Strategy != ingest.ByHeaders {
		t.Errorf("strategy lost: %q", got.ImportMeta.Strategy)
	}

	newCanon := got.Canonical
	newCanon.Summary = map[string]float64{"total_distance_m": 9000}
	if err := s.ReplaceCanonical(ctx, rep.ID, newCanon, got.ImportMeta); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got2, _ := s.Report(ctx, rep.ID)
	if got2.Canonical.Summary["total_distance_m"] != 9000 {
		t.Error("replace not persisted")
	}
	if !got2.UpdatedAt.After(got2.CreatedAt) {
		t.Error("updated_at not bumped")
	}

	if err := s.ReplaceCanonical(ctx, "missing", newCanon, got.ImportMeta); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRosterAndOverrides(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, pl := range []Player{
		{PlayerID: "p1", ClubID: "club-1", FullName: "Иван Петров"},
		{PlayerID: "p2", ClubID: "club-1", FullName: "Сергей Сидоров"},
		{PlayerID: "p3", ClubID: "club-2", FullName: "Чужой Клуб"},
	} {
		if err := s.UpsertPlayer(ctx, pl); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	roster, err := s.Roster(ctx, "club-1")
	if err != nil || len(roster) != 2 {
		t.Fatalf("roster: %v, %d", err, len(roster))
	}

	// upsert обновляет имя
	if err := s.UpsertPlayer(ctx, Player{PlayerID: "p1", ClubID: "club-1", FullName: "Иван Петров-младший"}); err != nil {
		t.Fatal(err)
	}
	roster, _ = s.Roster(ctx, "club-1")
	if roster[0].FullName != "Иван Петров-младший" {
		t.Errorf("upsert did not update: %+v", roster[0])
	}

	if err := s.SetOverride(ctx, "rep-1", 3, "p2"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetOverride(ctx, "rep-1", 3, "p1"); err != nil {
		t.Fatal(err)
	}
	ov, err := s.Overrides(ctx, "rep-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ov) != 1 || ov[3] != "p1" {
		t.Errorf("override: %+v", ov)
	}
}
