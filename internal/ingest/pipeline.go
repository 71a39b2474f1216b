package ingest

import (
	"github.com/rs/zerolog"

	"gps-canon-service/internal/canon"
	"gps-canon-service/internal/match"
	"gps-canon-service/internal/profile"
)

// Pipeline — канонизация одного отчёта: normalize → sanitize → map →
// match. Стадии чистые, общего мутабельного состояния нет, поэтому
// отчёты можно обрабатывать параллельно; единственный разделяемый
// ресурс — реестр, и тот только для чтения.
type Pipeline struct {
	reg       *canon.Registry
	threshold float64
	log       zerolog.Logger
}

type Option func(*Pipeline)

func WithMatchThreshold(t float64) Option {
	return func(p *Pipeline) { p.threshold = t }
}

func New(reg *canon.Registry, log zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{reg: reg, threshold: match.DefaultThreshold, log: log}
	for _, o := range opts {
		o(p)
	}
	return p
}

type Input struct {
	Raw      RawTable
	Snapshot profile.Snapshot
	Roster   []match.Entry
	// Overrides — ручные привязки игрока по индексу строки файла.
	// Перекрывают автоматику навсегда, в том числе при повторной обработке.
	Overrides map[int]string
}

// Process прогоняет отчёт через весь конвейер. Идемпотентен: одинаковые
// rawData и снапшот дают побайтно одинаковые canonical.rows. Ошибок не
// возвращает: качество данных — это предупреждения, а не отказ импорта.
func (p *Pipeline) Process(in Input) Result {
	norm := Normalize(p.reg, in.Raw, in.Snapshot)

	mapped, mapWarnings, suggestions := MapRows(p.reg, norm.Rows, in.Snapshot)
	sanitized, sanWarnings := Sanitize(p.reg, mapped)

	warnings := make([]Warning, 0, len(norm.Warnings)+len(mapWarnings)+len(sanWarnings)+1)
	warnings = append(warnings, norm.Warnings...)
	warnings = append(warnings, mapWarnings...)
	warnings = append(warnings, sanWarnings...)

	// привязка игроков: оверрайды первыми, затем автоматика
	matcher := match.NewMatcher(in.Roster, match.WithThreshold(p.threshold))
	unmatched := 0
	for i := range sanitized {
		row := &sanitized[i]
		if id, ok := in.Overrides[row.RowIndex]; ok {
			row.PlayerID = id
			row.Similarity = 1
			continue
		}
		name, _ := row.Metrics["athlete_name"].(string)
		id, sim, ok := matcher.Match(name)
		row.Similarity = sim
		if ok {
			row.PlayerID = id
		} else {
			unmatched++
		}
	}
	if unmatched > 0 {
		warnings = append(warnings, Warning{
			Code:    WarnUnmatchedPlayer,
			Message: "rows left without a player id, manual resolution required",
			Count:   unmatched,
		})
	}

	res := Result{
		Canonical: Canonical{
			Rows:    sanitized,
			Summary: Summarize(p.reg, sanitized),
		},
		Meta: ImportMeta{
			Strategy:    norm.Strategy,
			Warnings:    warnings,
			Suggestions: suggestions,
			Counts: Counts{
				Input:     len(norm.Rows),
				Filtered:  len(norm.Rows) - len(sanitized),
				Canonical: len(sanitized),
			},
		},
	}

	p.log.Info().
		Str("strategy", string(norm.Strategy)).
		Int("input", res.Meta.Counts.Input).
		Int("canonical", res.Meta.Counts.Canonical).
		Int("warnings", len(warnings)).
		Msg("canonicalize done")

	return res
}
