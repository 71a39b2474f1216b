package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Table — раскодированный файл вендора: строка заголовков (если была)
// и данные как есть. Дальше таблицей занимается нормализатор.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ReadTable выбирает парсер по расширению. headerRow — номер строки
// заголовков (1-based); 0 — файл без заголовков, все строки — данные.
func ReadTable(r io.Reader, filename string, headerRow int) (Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx":
		return readXLSX(r, headerRow)
	case ".xls":
		return readXLS(r, headerRow)
	case ".csv":
		return readCSV(r, headerRow)
	default:
		return Table{}, fmt.Errorf("unsupported file: %s", filename)
	}
}

// splitHeader — отделяет строку заголовков, подставляет Column N для
// пустых имён; полностью пустые строки данных пропускает.
func splitHeader(rows [][]string, headerRow int) Table {
	if headerRow <= 0 || headerRow > len(rows) {
		return Table{Rows: dropEmpty(rows)}
	}
	h := rows[headerRow-1]
	headers := make([]string, len(h))
	for i, v := range h {
		v = strings.TrimSpace(v)
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		headers[i] = v
	}
	return Table{Headers: headers, Rows: dropEmpty(rows[headerRow:])}
}

func dropEmpty(rows [][]string) [][]string {
	var out [][]string
	for _, rec := range rows {
		if emptyRow(rec) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func emptyRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeCell чистит ячейку: неразрывные/узкие пробелы, обрезка краёв.
func normalizeCell(s string) string {
	s = strings.NewReplacer(" ", " ", " ", " ").Replace(s)
	return strings.TrimSpace(s)
}
