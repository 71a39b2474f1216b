package ingest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gps-canon-service/internal/canon"
	"gps-canon-service/internal/profile"
	"gps-canon-service/internal/utils"
)

var rxHeaderUnit = regexp.MustCompile(`\(([^)]+)\)\s*$`)

// guessUnitFromHeader вытаскивает единицу из заголовка:
// "Max Speed (km/h)" → "km/h", "HSR%" → "%".
func guessUnitFromHeader(header string) string {
	h := strings.TrimSpace(header)
	if strings.HasSuffix(h, "%") {
		return "%"
	}
	if m := rxHeaderUnit.FindStringSubmatch(h); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// MapRows применяет снапшот к нормализованным строкам: извлекает значения
// по sourceHeader, парсит и переводит в канонические единицы. Проблемы
// данных дают warning и частичную строку, но не ошибку.
func MapRows(reg *canon.Registry, rows []map[string]any, snap profile.Snapshot) ([]CanonicalRow, []Warning, map[string]string) {
	cols := snap.MappedColumns()
	var warnings []Warning

	// отсутствующие колонки считаем по файлу один раз, не на строку
	if len(rows) > 0 {
		for _, c := range cols {
			if _, ok := lookup(rows[0], c.SourceHeader); !ok {
				warnings = append(warnings, Warning{
					Code:    WarnColumnNotFound,
					Message: fmt.Sprintf("column %q not found in file", c.SourceHeader),
				})
			}
		}
	}

	noConv := map[string]int{}
	out := make([]CanonicalRow, 0, len(rows))
	for i, row := range rows {
		cr := CanonicalRow{RowIndex: i, Metrics: map[string]any{}}
		for _, c := range cols {
			raw, ok := lookup(row, c.SourceHeader)
			if !ok || raw == nil {
				continue
			}
			m, err := reg.Metric(c.CanonicalKey)
			if err != nil {
				continue // снапшот старше реестра; ключ мог быть из другой версии
			}
			v, convErr := canonicalValue(reg, m, c.SourceHeader, raw)
			if convErr != "" {
				noConv[convErr]++
			}
			if v != nil {
				cr.Metrics[m.Key] = v
			}
		}
		if len(cr.Metrics) > 0 {
			out = append(out, cr)
		}
	}

	for _, msg := range sortedStrings(noConv) {
		warnings = append(warnings, Warning{Code: WarnNoConversion, Message: msg, Count: noConv[msg]})
	}

	// подсказки для незамапленных заголовков файла — пища для мастера профилей
	suggestions := map[string]string{}
	if len(rows) > 0 {
		mapped := map[string]bool{}
		for _, c := range cols {
			mapped[strings.ToLower(strings.TrimSpace(c.SourceHeader))] = true
		}
		for _, h := range sortedRowKeys(rows[0]) {
			if mapped[strings.ToLower(strings.TrimSpace(h))] {
				continue
			}
			if k := reg.Suggest(h); k != nil {
				suggestions[h] = *k
			}
		}
	}

	return out, warnings, suggestions
}

// canonicalValue — одно значение в каноническую единицу. Возвращает
// nil-значение для пустого входа и текст несработавшей конверсии.
func canonicalValue(reg *canon.Registry, m canon.Metric, header string, raw any) (any, string) {
	if m.Dimension == canon.Identity {
		s := strings.TrimSpace(fmt.Sprint(raw))
		if s == "" {
			return nil, ""
		}
		return s, ""
	}

	num, ok := toNumber(m, raw)
	if !ok {
		return nil, ""
	}

	srcUnit := guessUnitFromHeader(header)

	// ratio: деление на 100 происходит здесь и только здесь.
	// Значение уже в долях (≤1.1) не делим повторно, даже при явном "%".
	if m.Dimension == canon.Ratio {
		if srcUnit == "%" && num > 1.1 {
			conv, err := reg.ToCanonical(&num, m.Key, "%")
			if err == nil {
				return *conv, ""
			}
		}
		return num, ""
	}

	if srcUnit != "" && srcUnit != m.CanonicalUnit {
		conv, err := reg.ToCanonical(&num, m.Key, srcUnit)
		if err != nil {
			return num, fmt.Sprintf("no conversion %s -> %s for %s", srcUnit, m.CanonicalUnit, m.Key)
		}
		return *conv, ""
	}
	return num, ""
}

func toNumber(m canon.Metric, raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		// "01:20:00" в колонке времени — длительность в секундах
		if m.Dimension == canon.Time && utils.IsClock(s) {
			return utils.ParseClock(s)
		}
		return utils.ParseNumber(s)
	default:
		return 0, false
	}
}

// lookup ищет значение по заголовку: сперва точно, затем по trim и
// без учёта регистра — вендоры не аккуратны с пробелами.
func lookup(row map[string]any, header string) (any, bool) {
	if v, ok := row[header]; ok {
		return v, true
	}
	want := strings.ToLower(strings.TrimSpace(header))
	for _, k := range sortedRowKeys(row) {
		if strings.ToLower(strings.TrimSpace(k)) == want {
			return row[k], true
		}
	}
	return nil, false
}

// Summarize сворачивает метрики по их политике агрегации (sum/max/avg).
// Политика приходит из реестра, пайплайн ничего не выдумывает.
func Summarize(reg *canon.Registry, rows []CanonicalRow) map[string]float64 {
	type acc struct {
		sum, max float64
		n        int
	}
	accs := map[string]*acc{}
	for _, r := range rows {
		for key, v := range r.Metrics {
			num, ok := v.(float64)
			if !ok {
				continue
			}
			a := accs[key]
			if a == nil {
				a = &acc{max: num}
				accs[key] = a
			}
			a.sum += num
			if num > a.max {
				a.max = num
			}
			a.n++
		}
	}

	out := make(map[string]float64, len(accs))
	for key, a := range accs {
		m, err := reg.Metric(key)
		if err != nil {
			continue
		}
		switch m.Aggregation {
		case canon.AggSum:
			out[key] = a.sum
		case canon.AggMax:
			out[key] = a.max
		case canon.AggAvg:
			out[key] = a.sum / float64(a.n)
		}
	}
	return out
}

func sortedStrings(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedRowKeys(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
