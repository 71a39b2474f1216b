package canon_test

import (
	"errors"
	"testing"

	"gps-canon-service/internal/canon"
)

func TestDefaultRegistry(t *testing.T) {
	reg := canon.Default()

	if reg.Version() == "" {
		t.Fatal("embedded registry has no version")
	}

	m, err := reg.Metric("total_distance_m")
	if err != nil {
		t.Fatalf("total_distance_m: %v", err)
	}
	if m.Dimension != canon.Distance || m.CanonicalUnit != "m" {
		t.Fatalf("unexpected metric: %+v", m)
	}

	if _, err := reg.Metric("nope"); !errors.Is(err, canon.ErrUnknownMetric) {
		t.Fatalf("want ErrUnknownMetric, got %v", err)
	}

	units, err := reg.AllowedUnits("max_speed_ms")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, u := range units {
		if u == "km/h" {
			found = true
		}
	}
	if !found {
		t.Fatalf("km/h missing from allowed units: %v", units)
	}

	// deprecated metrics hidden by default, visible on request
	for _, m := range reg.Metrics(false) {
		if m.Deprecated {
			t.Fatalf("deprecated metric %s in default listing", m.Key)
		}
	}
	all := reg.Metrics(true)
	if len(all) <= len(reg.Metrics(false)) {
		t.Fatal("expected at least one deprecated metric in full listing")
	}
}

func TestLoadAcceptsLoadDimension(t *testing.T) {
	doc := `{"version":"1.0.0","metrics":[{"key":"player_load_au","dimension":"load","canonicalUnit":"AU","allowedUnits":["AU"],"labels":{"en":"Player load"},"aggregation":"sum"}]}`
	reg, err := canon.Load([]byte(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m, err := reg.Metric("player_load_au")
	if err != nil {
		t.Fatal(err)
	}
	if m.Dimension != canon.PlayerLoad {
		t.Fatalf("dimension = %q, want %q", m.Dimension, canon.PlayerLoad)
	}
}

func TestLoadRejectsBrokenRegistries(t *testing.T) {
	cases := map[string]string{
		"no version":     `{"metrics":[{"key":"a","dimension":"count","canonicalUnit":"count","allowedUnits":["count"],"labels":{"en":"A"}}]}`,
		"no metrics":     `{"version":"1.0.0","metrics":[]}`,
		"duplicate key":  `{"version":"1.0.0","metrics":[{"key":"a","dimension":"count","canonicalUnit":"count","allowedUnits":["count"],"labels":{"en":"A"}},{"key":"a","dimension":"count","canonicalUnit":"count","allowedUnits":["count"],"labels":{"en":"A"}}]}`,
		"no labels":      `{"version":"1.0.0","metrics":[{"key":"a","dimension":"count","canonicalUnit":"count","allowedUnits":["count"],"labels":{}}]}`,
		"bad dimension":  `{"version":"1.0.0","metrics":[{"key":"a","dimension":"volume","canonicalUnit":"l","allowedUnits":["l"],"labels":{"en":"A"}}]}`,
		"canon not allowed": `{"version":"1.0.0","metrics":[{"key":"a","dimension":"distance","canonicalUnit":"m","allowedUnits":["km"],"labels":{"en":"A"}}]}`,
	}
	for name, doc := range cases {
		if _, err := canon.Load([]byte(doc)); err == nil {
			t.Errorf("%s: expected load error", name)
		}
	}
}
