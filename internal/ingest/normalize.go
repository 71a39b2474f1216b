package ingest

import (
	"fmt"
	"strings"

	"gps-canon-service/internal/canon"
	"gps-canon-service/internal/profile"
	"gps-canon-service/internal/utils"
)

// Strategy — каким способом сырые строки превратились в объекты.
// Теговый вариант вместо исключений: вызывающий код ветвится по уровню
// доверия без try/catch.
type Strategy string

const (
	ByHeaders     Strategy = "byHeaders"
	BySourceIndex Strategy = "bySourceIndex"
	Heuristics    Strategy = "heuristics"
)

type NormalizeResult struct {
	Strategy Strategy
	Rows     []map[string]any
	Warnings []Warning
}

// Normalize приводит сырую таблицу к массиву объектов {заголовок: значение}.
// Трёхступенчатый фолбэк; импорт не падает никогда, деградация до эвристик
// всегда фиксируется предупреждением.
func Normalize(reg *canon.Registry, raw RawTable, snap profile.Snapshot) NormalizeResult {
	// строки уже объекты — пропускаем как есть
	if len(raw.Objects) > 0 {
		return NormalizeResult{Strategy: ByHeaders, Rows: raw.Objects}
	}

	if len(raw.Rows) == 0 {
		return NormalizeResult{Strategy: Heuristics, Rows: []map[string]any{}}
	}

	// 1) есть заголовки — зипуем
	if len(raw.Headers) > 0 {
		rows := make([]map[string]any, len(raw.Rows))
		for i, arr := range raw.Rows {
			obj := make(map[string]any, len(raw.Headers))
			for j, h := range raw.Headers {
				if j < len(arr) {
					obj[h] = arr[j]
				} else {
					obj[h] = nil
				}
			}
			rows[i] = obj
		}
		return NormalizeResult{Strategy: ByHeaders, Rows: rows}
	}

	// 2) заголовков нет, но снапшот маппился позиционно
	if snap.AllSourceIndexed() {
		cols := snap.MappedColumns()
		rows := make([]map[string]any, len(raw.Rows))
		for i, arr := range raw.Rows {
			obj := make(map[string]any, len(cols))
			for _, c := range cols {
				idx := *c.SourceIndex
				if idx >= 0 && idx < len(arr) {
					obj[c.SourceHeader] = arr[idx]
				} else {
					obj[c.SourceHeader] = nil
				}
			}
			rows[i] = obj
		}
		return NormalizeResult{
			Strategy: BySourceIndex,
			Rows:     rows,
			Warnings: []Warning{{
				Code:    WarnSourceIndex,
				Message: "no headers in file, columns mapped by stored source index",
				Count:   len(rows),
			}},
		}
	}

	// 3) эвристики по форме значений
	headers, warnings := heuristicHeaders(reg, raw.Rows, snap)
	rows := make([]map[string]any, len(raw.Rows))
	for i, arr := range raw.Rows {
		obj := make(map[string]any, len(headers))
		for j, h := range headers {
			if j < len(arr) {
				obj[h] = arr[j]
			} else {
				obj[h] = nil
			}
		}
		rows[i] = obj
	}
	warnings = append([]Warning{{
		Code:    WarnHeuristics,
		Message: "no headers and no source index, column identity inferred from value shape",
		Count:   len(rows),
	}}, warnings...)
	return NormalizeResult{Strategy: Heuristics, Rows: rows, Warnings: warnings}
}

// heuristicHeaders восстанавливает имена колонок по содержимому:
// токен с двоеточием — игровое время, самый длинный нечисловой токен —
// имя игрока, числовые колонки раздаются по порядку числовым колонкам
// снапшота.
func heuristicHeaders(reg *canon.Registry, rows [][]any, snap profile.Snapshot) ([]string, []Warning) {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	const (
		kindNumeric = iota
		kindClock
		kindText
	)
	kinds := make([]int, width)
	longest := make([]int, width) // длина самого длинного текстового значения
	for j := 0; j < width; j++ {
		kind := kindNumeric
		seen := false
		for _, r := range rows {
			if j >= len(r) || r[j] == nil {
				continue
			}
			seen = true
			switch v := r[j].(type) {
			case float64, float32, int, int64:
				// числовое значение, вид не меняем
			case string:
				s := strings.TrimSpace(v)
				if s == "" {
					continue
				}
				if utils.IsClock(s) {
					if kind == kindNumeric {
						kind = kindClock
					}
				} else if _, ok := utils.ParseNumber(s); !ok {
					kind = kindText
					if len([]rune(s)) > longest[j] {
						longest[j] = len([]rune(s))
					}
				}
			default:
				kind = kindText
			}
		}
		if !seen {
			kind = kindText
		}
		kinds[j] = kind
	}

	// имя игрока — текстовая колонка с самым длинным токеном
	nameCol, textCols := -1, 0
	for j := 0; j < width; j++ {
		if kinds[j] != kindText {
			continue
		}
		textCols++
		if nameCol == -1 || longest[j] > longest[nameCol] {
			nameCol = j
		}
	}

	var warnings []Warning
	if textCols > 1 {
		warnings = append(warnings, Warning{
			Code:    WarnNameAmbiguous,
			Message: fmt.Sprintf("%d text columns look like a name, longest token wins", textCols),
		})
	}

	// заголовки из снапшота, чтобы дальше колонки находились по sourceHeader
	nameHeader, timeHeader := "Player", "Time"
	var numericHeaders []string
	for _, c := range snap.MappedColumns() {
		m, err := reg.Metric(c.CanonicalKey)
		if err != nil {
			continue
		}
		switch m.Dimension {
		case canon.Identity:
			nameHeader = c.SourceHeader
		case canon.Time:
			timeHeader = c.SourceHeader
		default:
			numericHeaders = append(numericHeaders, c.SourceHeader)
		}
	}

	headers := make([]string, width)
	next := 0
	for j := 0; j < width; j++ {
		switch {
		case j == nameCol:
			headers[j] = nameHeader
		case kinds[j] == kindClock:
			headers[j] = timeHeader
		case kinds[j] == kindNumeric && next < len(numericHeaders):
			headers[j] = numericHeaders[next]
			next++
		default:
			headers[j] = fmt.Sprintf("Column %d", j+1)
		}
	}
	return headers, warnings
}
