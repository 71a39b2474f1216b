package ingest

// Коды предупреждений. Машиночитаемые: UI и аудит ветвятся по коду,
// не по тексту.
const (
	WarnSourceIndex      = "NORMALIZE_USING_SOURCE_INDEX"
	WarnHeuristics       = "NORMALIZE_USING_HEURISTICS"
	WarnNameAmbiguous    = "NAME_COLUMN_AMBIGUOUS"
	WarnColumnNotFound   = "COLUMN_NOT_FOUND"
	WarnNoConversion     = "NO_CONVERSION"
	WarnMissingName      = "MISSING_ATHLETE_NAME"
	WarnDuplicateName    = "DUPLICATE_ATHLETE_NAME"
	WarnSummaryRow       = "SUMMARY_ROW_DROPPED"
	WarnEmptyRow         = "EMPTY_ROW_DROPPED"
	WarnImplausibleValue = "IMPLAUSIBLE_VALUE"
	WarnUnmatchedPlayer  = "UNMATCHED_PLAYER"
)

type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// RawTable — уже раскодированный файл вендора: либо 2-D массив значений
// (возможно, с заголовками), либо готовые объекты-строки.
type RawTable struct {
	Headers []string         `json:"headers,omitempty"`
	Rows    [][]any          `json:"rows,omitempty"`
	Objects []map[string]any `json:"objects,omitempty"`
}

// CanonicalRow — значения строки в канонических единицах по ключам
// реестра. RowIndex указывает на строку исходного файла: ручной
// ремаппинг игрока адресуется именно им.
type CanonicalRow struct {
	RowIndex   int            `json:"rowIndex"`
	PlayerID   string         `json:"playerId,omitempty"`
	Similarity float64        `json:"similarity,omitempty"`
	Metrics    map[string]any `json:"metrics"`
}

type Canonical struct {
	Rows    []CanonicalRow     `json:"rows"`
	Summary map[string]float64 `json:"summary"`
}

type Counts struct {
	Input     int `json:"input"`
	Filtered  int `json:"filtered"`
	Canonical int `json:"canonical"`
}

// ImportMeta — накопленный след импорта. Только дописывается, никогда
// не затирает свидетельства: ревьюер должен видеть, сколько строк и
// почему было затронуто.
type ImportMeta struct {
	Strategy    Strategy          `json:"strategy"`
	Warnings    []Warning         `json:"warnings"`
	Suggestions map[string]string `json:"suggestions,omitempty"`
	Counts      Counts            `json:"counts"`
}

type Result struct {
	Canonical Canonical  `json:"canonical"`
	Meta      ImportMeta `json:"importMeta"`
}
