package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"gps-canon-service/internal/canon"
)

// служебные подписи вместо имени игрока в подвалах вендорских выгрузок
var summaryTokens = []string{
	"итог", "всего", "средн", "сумм", "команда",
	"total", "average", "sum", "summary", "team",
}

var serviceNames = map[string]bool{
	"": true, "-": true, "—": true, "n/a": true, "n\\a": true, "na": true,
}

var rxNamePunct = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// NormalizeName — ключ сравнения имён: нижний регистр, ё→е, без
// пунктуации, схлопнутые пробелы.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "ё", "е")
	s = rxNamePunct.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

func isSummaryName(name string) bool {
	n := NormalizeName(name)
	for _, t := range summaryTokens {
		if strings.Contains(n, t) {
			return true
		}
	}
	return false
}

// Sanitize фильтрует и чинит канонические строки: сводные и служебные
// строки, пустые и повторные имена, физически неправдоподобные значения.
// Каждое решение — предупреждение со счётчиком; данные не исчезают молча.
func Sanitize(reg *canon.Registry, rows []CanonicalRow) ([]CanonicalRow, []Warning) {
	counts := map[string]int{}
	implausible := map[string]int{}
	seen := map[string]bool{}

	out := make([]CanonicalRow, 0, len(rows))
	for _, r := range rows {
		name, _ := r.Metrics["athlete_name"].(string)

		if serviceNames[strings.ToLower(strings.TrimSpace(name))] {
			counts[WarnMissingName]++
			continue
		}
		if isSummaryName(name) {
			counts[WarnSummaryRow]++
			continue
		}
		norm := NormalizeName(name)
		if seen[norm] {
			counts[WarnDuplicateName]++
			continue
		}
		seen[norm] = true

		if allMetricsEmpty(r) {
			counts[WarnEmptyRow]++
			continue
		}

		// правдоподобие: значение вне границ метрики обнуляем, строку оставляем
		for _, key := range metricKeys(r) {
			num, ok := r.Metrics[key].(float64)
			if !ok {
				continue
			}
			m, err := reg.Metric(key)
			if err != nil {
				continue
			}
			if outOfBounds(m, num) {
				delete(r.Metrics, key)
				implausible[key]++
			}
		}

		out = append(out, r)
	}

	var warnings []Warning
	appendCount := func(code, msg string) {
		if counts[code] > 0 {
			warnings = append(warnings, Warning{Code: code, Message: msg, Count: counts[code]})
		}
	}
	appendCount(WarnMissingName, "rows without an athlete name dropped")
	appendCount(WarnSummaryRow, "vendor summary/footer rows dropped")
	appendCount(WarnDuplicateName, "rows with a duplicated athlete name dropped, first kept")
	appendCount(WarnEmptyRow, "rows with no metric values dropped")
	for _, key := range sortedStrings(implausible) {
		warnings = append(warnings, Warning{
			Code:    WarnImplausibleValue,
			Message: fmt.Sprintf("implausible %s values nulled", key),
			Count:   implausible[key],
		})
	}
	return out, warnings
}

// строка из одних нулей и пропусков пользы не несёт
func allMetricsEmpty(r CanonicalRow) bool {
	for key, v := range r.Metrics {
		if key == "athlete_name" || key == "position" {
			continue
		}
		switch t := v.(type) {
		case float64:
			if t != 0 {
				return false
			}
		case string:
			if strings.TrimSpace(t) != "" {
				return false
			}
		default:
			if v != nil {
				return false
			}
		}
	}
	return true
}

func outOfBounds(m canon.Metric, v float64) bool {
	if m.PlausibleMin != nil && v < *m.PlausibleMin {
		return true
	}
	if m.PlausibleMax != nil && v > *m.PlausibleMax {
		return true
	}
	return false
}

func metricKeys(r CanonicalRow) []string {
	return sortedRowKeys(r.Metrics)
}
