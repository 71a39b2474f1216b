package profile

import "time"

// Snapshot — замороженная копия маппинга профиля на момент создания
// отчёта. Отчёт владеет снапшотом эксклюзивно: дальнейшая жизнь профиля
// и реестра на исторические отчёты не влияет.
type Snapshot struct {
	ProfileID    string    `json:"profileId"`
	GpsSystem    string    `json:"gpsSystem"`
	CanonVersion string    `json:"canonVersion"`
	Columns      []Column  `json:"columns"`
	CapturedAt   time.Time `json:"capturedAt"`
}

// BuildSnapshot — чистая детерминированная функция от профиля и версии
// реестра. Колонки копируются дословно, с сохранением порядка и
// sourceIndex (если файл маппился позиционно).
func BuildSnapshot(p *Profile, canonVersion string, capturedAt time.Time) Snapshot {
	cols := make([]Column, len(p.Columns))
	copy(cols, p.Columns)
	for i := range cols {
		if p.Columns[i].SourceIndex != nil {
			idx := *p.Columns[i].SourceIndex
			cols[i].SourceIndex = &idx
		}
	}
	return Snapshot{
		ProfileID:    p.ID,
		GpsSystem:    p.GpsSystem,
		CanonVersion: canonVersion,
		Columns:      cols,
		CapturedAt:   capturedAt.UTC(),
	}
}

// MappedColumns — колонки типа column в порядке отображения; формулы
// и невалидные записи пайплайн не читает из файла.
func (s Snapshot) MappedColumns() []Column {
	out := make([]Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c.Type == TypeColumn && c.SourceHeader != "" && c.CanonicalKey != "" {
			out = append(out, c)
		}
	}
	return out
}

// AllSourceIndexed — у каждой маппированной колонки есть позиция в файле;
// условие применимости стратегии bySourceIndex.
func (s Snapshot) AllSourceIndexed() bool {
	cols := s.MappedColumns()
	if len(cols) == 0 {
		return false
	}
	for _, c := range cols {
		if c.SourceIndex == nil {
			return false
		}
	}
	return true
}
