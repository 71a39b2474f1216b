package match

import "testing"

var roster = []Entry{
	{PlayerID: "p1", FullName: "Иван Петров"},
	{PlayerID: "p2", FullName: "Сергей Иванов"},
	{PlayerID: "p3", FullName: "John Smith"},
	{PlayerID: "p4", FullName: "Александр Кузнецов"},
}

func TestMatchExact(t *testing.T) {
	m := NewMatcher(roster)

	id, sim, ok := m.Match("Иван Петров")
	if !ok || id != "p1" || sim != 1 {
		t.Fatalf("exact: got %q %v %v", id, sim, ok)
	}
}

func TestMatchWordOrderAndCase(t *testing.T) {
	m := NewMatcher(roster)

	// вендор пишет «Фамилия Имя», ростер — «Имя Фамилия»
	if id, _, ok := m.Match("ПЕТРОВ ИВАН"); !ok || id != "p1" {
		t.Fatalf("word order: got %q %v", id, ok)
	}
}

func TestMatchTypo(t *testing.T) {
	m := NewMatcher(roster)

	id, sim, ok := m.Match("Jonh Smith") // транспозиция
	if !ok || id != "p3" {
		t.Fatalf("typo: got %q %v %v", id, sim, ok)
	}
	if sim < DefaultThreshold {
		t.Fatalf("similarity %v below threshold", sim)
	}
}

func TestMatchMixedAlphabets(t *testing.T) {
	m := NewMatcher(roster)

	// латинские двойники внутри кириллического имени
	if id, _, ok := m.Match("Иван Пeтрoв"); !ok || id != "p1" {
		t.Fatalf("lookalikes: got %q %v", id, ok)
	}
}

func TestMatchBelowThresholdStaysUnmapped(t *testing.T) {
	m := NewMatcher(roster)

	id, _, ok := m.Match("Completely Different")
	if ok || id != "" {
		t.Fatalf("unrelated name must stay unmapped, got %q %v", id, ok)
	}

	if _, _, ok := m.Match(""); ok {
		t.Fatal("empty name must stay unmapped")
	}
}

func TestMatchAllKeepsIndexes(t *testing.T) {
	m := NewMatcher(roster, WithThreshold(0.8))

	res := m.MatchAll([]string{"Иван Петров", "nobody", "John Smith"})
	if len(res) != 3 {
		t.Fatalf("want 3 results, got %d", len(res))
	}
	if res[0].PlayerID != "p1" || res[2].PlayerID != "p3" {
		t.Fatalf("unexpected mapping: %+v", res)
	}
	if res[1].PlayerID != "" {
		t.Fatalf("row 1 must stay unmapped: %+v", res[1])
	}
	if res[1].RowIndex != 1 {
		t.Fatalf("row index lost: %+v", res[1])
	}
}
