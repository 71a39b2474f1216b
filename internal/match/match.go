// Package match сопоставляет имена игроков из вендорского файла с
// ростером команды. Нечёткое сравнение: нормализация, триграммный отбор
// кандидатов, Damerau-Levenshtein с устойчивостью к порядку слов.
package match

import (
	"sort"
	"strings"
	"unicode"
)

// Латиница→кириллица (визуальные двойники): имена нередко набраны
// вперемешку из двух алфавитов.
var lookalikes = map[rune]rune{
	'A': 'А', 'B': 'В', 'C': 'С', 'E': 'Е', 'H': 'Н', 'K': 'К', 'M': 'М', 'O': 'О', 'P': 'Р', 'T': 'Т', 'X': 'Х', 'Y': 'У',
	'a': 'а', 'c': 'с', 'e': 'е', 'o': 'о', 'p': 'р', 'x': 'х',
}

type Entry struct {
	PlayerID string `json:"playerId"`
	FullName string `json:"fullName"`
}

type Result struct {
	RowIndex   int     `json:"rowIndex"`
	PlayerID   string  `json:"playerId,omitempty"`
	Similarity float64 `json:"similarity"`
}

// DefaultThreshold — ниже этого порога игрока не угадываем: строка
// остаётся без playerId до ручного разбора.
const DefaultThreshold = 0.7

type Option func(*Matcher)

func WithThreshold(t float64) Option {
	return func(m *Matcher) { m.threshold = t }
}

type Matcher struct {
	threshold float64
	entries   []Entry
	byNorm    map[string][]int            // нормализованное имя -> индексы ростера
	inv       map[string]map[string]bool  // триграмма -> нормализованные имена
}

func NewMatcher(roster []Entry, opts ...Option) *Matcher {
	m := &Matcher{
		threshold: DefaultThreshold,
		entries:   roster,
		byNorm:    make(map[string][]int),
		inv:       make(map[string]map[string]bool),
	}
	for _, o := range opts {
		o(m)
	}
	for i, e := range roster {
		nn := normalizeName(e.FullName)
		if nn == "" {
			continue
		}
		m.byNorm[nn] = append(m.byNorm[nn], i)
		for g := range trigramSet(nn) {
			bucket, ok := m.inv[g]
			if !ok {
				bucket = make(map[string]bool)
				m.inv[g] = bucket
			}
			bucket[nn] = true
		}
	}
	return m
}

// Match ищет игрока по извлечённому имени. ok=false — совпадение ниже
// порога, playerId пуст.
func (m *Matcher) Match(name string) (playerID string, similarity float64, ok bool) {
	nn := normalizeName(name)
	if nn == "" {
		return "", 0, false
	}

	// точное совпадение нормализованных имён
	if idxs, hit := m.byNorm[nn]; hit && len(idxs) > 0 {
		return m.entries[idxs[0]].PlayerID, 1, true
	}

	bestName := ""
	best := -1.0
	for _, cand := range m.candidateNames(nn) {
		if s := bestSimilarity(nn, cand); s > best {
			best = s
			bestName = cand
		}
	}
	if bestName == "" || best < m.threshold {
		return "", maxFloat(best, 0), false
	}
	return m.entries[m.byNorm[bestName][0]].PlayerID, best, true
}

// MatchAll — по результату на каждое имя, индексы сохраняются.
func (m *Matcher) MatchAll(names []string) []Result {
	out := make([]Result, len(names))
	for i, name := range names {
		id, sim, _ := m.Match(name)
		out[i] = Result{RowIndex: i, PlayerID: id, Similarity: sim}
	}
	return out
}

func (m *Matcher) candidateNames(norm string) []string {
	seen := make(map[string]bool)
	for g := range trigramSet(norm) {
		for nn := range m.inv[g] {
			seen[nn] = true
		}
	}
	out := make([]string, 0, len(seen))
	for nn := range seen {
		out = append(out, nn)
	}
	sort.Strings(out) // детерминированный порядок обхода
	return out
}

func trigramSet(s string) map[string]bool {
	out := make(map[string]bool)
	if s == "" {
		return out
	}
	p := " " + s + " "
	r := []rune(p)
	if len(r) < 3 {
		out[p] = true
		return out
	}
	for i := 0; i <= len(r)-3; i++ {
		out[string(r[i:i+3])] = true
	}
	return out
}

func normalizeName(s string) string {
	b := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r == 'ё':
			r = 'е'
		case r == 'Ё':
			r = 'Е'
		}
		if rr, ok := lookalikes[r]; ok {
			r = rr
		}
		b = append(b, r)
	}
	out := strings.ToLower(string(b))
	fields := strings.FieldsFunc(out, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	d := damerauLevenshtein(a, b)
	m := len([]rune(a))
	if mb := len([]rune(b)); mb > m {
		m = mb
	}
	if m == 0 {
		return 1
	}
	return 1 - float64(d)/float64(m)
}

// tokenSort: «Петров Иван» и «Иван Петров» — один человек
func tokenSort(s string) string {
	f := strings.Fields(s)
	sort.Strings(f)
	return strings.Join(f, " ")
}

func bestSimilarity(a, b string) float64 {
	x := similarity(a, b)
	if y := similarity(tokenSort(a), tokenSort(b)); y > x {
		return y
	}
	return x
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
