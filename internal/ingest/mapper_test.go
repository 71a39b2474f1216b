package ingest

import (
	"math"
	"testing"

	"gps-canon-service/internal/canon"
	"gps-canon-service/internal/profile"
)

func bsightSnapshot() profile.Snapshot {
	mk := func(header, key, unit string, order int) profile.Column {
		return profile.Column{
			Type: profile.TypeColumn, SourceHeader: header, CanonicalKey: key,
			DisplayUnit: unit, IsVisible: true, Order: order,
		}
	}
	return profile.Snapshot{
		ProfileID:    "prof-bsight",
		GpsSystem:    "B-SIGHT",
		CanonVersion: "1.0.1",
		Columns: []profile.Column{
			mk("Player", "athlete_name", "string", 0),
			mk("Time", "duration_s", "min", 1),
			mk("TD", "total_distance_m", "m", 2),
			mk("Max Speed (km/h)", "max_speed_ms", "km/h", 3),
			mk("HSR%", "hsr_ratio", "%", 4),
			mk("Z-5 Sprint", "distance_zone5_m", "m", 5),
		},
	}
}

func TestMapRowsConvertsToCanonical(t *testing.T) {
	reg := canon.Default()
	rows := []map[string]any{{
		"Player":           "Ivan Petrov",
		"Time":             "01:20:00",
		"TD":               8200.0,
		"Max Speed (km/h)": 28.0,
		"HSR%":             "8,5",
		"Z-5 Sprint":       120.0,
	}}

	mapped, warnings, _ := MapRows(reg, rows, bsightSnapshot())

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if len(mapped) != 1 {
		t.Fatalf("want 1 row, got %d", len(mapped))
	}
	m := mapped[0].Metrics

	if m["athlete_name"] != "Ivan Petrov" {
		t.Errorf("athlete_name = %v", m["athlete_name"])
	}
	if m["duration_s"] != 4800.0 {
		t.Errorf("duration_s = %v, want 4800 (01:20:00)", m["duration_s"])
	}
	if m["total_distance_m"] != 8200.0 {
		t.Errorf("total_distance_m = %v", m["total_distance_m"])
	}
	// km/h из заголовка переведены в канонические m/s
	if got := m["max_speed_ms"].(float64); math.Abs(got-28.0/3.6) > 1e-9 {
		t.Errorf("max_speed_ms = %v, want %v", got, 28.0/3.6)
	}
	// проценты стали долей, ровно одно деление на 100
	if got := m["hsr_ratio"].(float64); math.Abs(got-0.085) > 1e-9 {
		t.Errorf("hsr_ratio = %v, want 0.085", got)
	}
}

func TestMapRowsRatioAlreadyFraction(t *testing.T) {
	reg := canon.Default()
	rows := []map[string]any{{"Player": "Ivan Petrov", "HSR%": 0.085}}

	mapped, _, _ := MapRows(reg, rows, bsightSnapshot())
	if got := mapped[0].Metrics["hsr_ratio"].(float64); got != 0.085 {
		t.Fatalf("fraction re-scaled: %v", got)
	}
}

func TestMapRowsMissingColumnWarnsOnce(t *testing.T) {
	reg := canon.Default()
	rows := []map[string]any{
		{"Player": "Ivan Petrov"},
		{"Player": "Sergey Ivanov"},
	}

	_, warnings, _ := MapRows(reg, rows, bsightSnapshot())

	found := 0
	for _, w := range warnings {
		if w.Code == WarnColumnNotFound {
			found++
		}
	}
	// пять метрик-колонок нет в файле, по одному предупреждению на колонку
	if found != 5 {
		t.Fatalf("want 5 COLUMN_NOT_FOUND warnings, got %d: %+v", found, warnings)
	}
}

func TestMapRowsSuggestsUnmappedHeaders(t *testing.T) {
	reg := canon.Default()
	rows := []map[string]any{{
		"Player": "Ivan Petrov",
		"Acc":    12.0, // в профиле не замаплена
	}}

	_, _, suggestions := MapRows(reg, rows, bsightSnapshot())
	if suggestions["Acc"] != "acc_count" {
		t.Fatalf("want Acc suggestion, got %+v", suggestions)
	}
}

func TestMapRowsCaseInsensitiveLookup(t *testing.T) {
	reg := canon.Default()
	rows := []map[string]any{{"player": "Ivan Petrov", " td ": 8200.0}}

	mapped, _, _ := MapRows(reg, rows, bsightSnapshot())
	m := mapped[0].Metrics
	if m["athlete_name"] != "Ivan Petrov" || m["total_distance_m"] != 8200.0 {
		t.Fatalf("case-insensitive lookup broken: %+v", m)
	}
}

func TestSummarizeByPolicy(t *testing.T) {
	reg := canon.Default()
	rows := []CanonicalRow{
		{Metrics: map[string]any{"total_distance_m": 8200.0, "max_speed_ms": 7.0, "hsr_ratio": 0.08, "athlete_name": "a"}},
		{Metrics: map[string]any{"total_distance_m": 5400.0, "max_speed_ms": 8.5, "hsr_ratio": 0.12, "athlete_name": "b"}},
	}

	sum := Summarize(reg, rows)

	if sum["total_distance_m"] != 13600.0 { // sum
		t.Errorf("total_distance_m = %v", sum["total_distance_m"])
	}
	if sum["max_speed_ms"] != 8.5 { // max
		t.Errorf("max_speed_ms = %v", sum["max_speed_ms"])
	}
	if math.Abs(sum["hsr_ratio"]-0.1) > 1e-9 { // avg
		t.Errorf("hsr_ratio = %v", sum["hsr_ratio"])
	}
	if _, ok := sum["athlete_name"]; ok {
		t.Error("identity metric must not be aggregated")
	}
}

func TestGuessUnitFromHeader(t *testing.T) {
	cases := map[string]string{
		"Max Speed (km/h)": "km/h",
		"HSR%":             "%",
		"Distance (km)":    "km",
		"TD":               "",
	}
	for in, want := range cases {
		if got := guessUnitFromHeader(in); got != want {
			t.Errorf("guessUnitFromHeader(%q) = %q, want %q", in, got, want)
		}
	}
}
