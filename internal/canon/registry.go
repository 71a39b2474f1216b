package canon

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrUnknownMetric      = errors.New("unknown canonical metric")
	ErrInvalidDisplayUnit = errors.New("display unit not allowed for metric")
)

// Dimension — закрытый набор измерений. Канонические единицы и коэффициенты
// пересчёта определены на уровне измерения, не метрики.
type Dimension string

const (
	Distance     Dimension = "distance"
	Speed        Dimension = "speed"
	Time         Dimension = "time"
	Ratio        Dimension = "ratio"
	Count        Dimension = "count"
	Acceleration Dimension = "acceleration"
	PlayerLoad   Dimension = "load"
	Identity     Dimension = "identity"
)

// Aggregation — политика свёртки метрики в summary отчёта.
type Aggregation string

const (
	AggSum  Aggregation = "sum"
	AggMax  Aggregation = "max"
	AggAvg  Aggregation = "avg"
	AggNone Aggregation = "none"
)

type Metric struct {
	Key              string            `json:"key"`
	Dimension        Dimension         `json:"dimension"`
	CanonicalUnit    string            `json:"canonicalUnit"`
	AllowedUnits     []string          `json:"allowedUnits"`
	Labels           map[string]string `json:"labels"` // locale -> подпись
	Aggregation      Aggregation       `json:"aggregation"`
	PlausibleMin     *float64          `json:"plausibleMin,omitempty"`
	PlausibleMax     *float64          `json:"plausibleMax,omitempty"`
	Deprecated       bool              `json:"deprecated,omitempty"`
	DeprecatedReason string            `json:"deprecatedReason,omitempty"`
}

// Registry — опубликованная версия реестра. Иммутабелен после загрузки;
// новые версии публикуются отдельным документом, старые остаются валидными
// для исторических снапшотов.
type Registry struct {
	version string
	metrics []Metric
	byKey   map[string]int
}

type registryDoc struct {
	Version string   `json:"version"`
	Metrics []Metric `json:"metrics"`
}

//go:embed registry.json
var embedded []byte

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default возвращает реестр, вшитый в бинарь. Паника здесь означает битые
// данные сборки, а не ошибку рантайма.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Load(embedded)
		if err != nil {
			panic(fmt.Sprintf("canon: embedded registry invalid: %v", err))
		}
		defaultReg = r
	})
	return defaultReg
}

// Load разбирает и структурно проверяет документ реестра.
// Инварианты проверяются здесь, один раз, а не на каждом обращении.
func Load(data []byte) (*Registry, error) {
	var doc registryDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if doc.Version == "" {
		return nil, errors.New("registry: empty version")
	}
	if len(doc.Metrics) == 0 {
		return nil, errors.New("registry: no metrics")
	}

	byKey := make(map[string]int, len(doc.Metrics))
	for i, m := range doc.Metrics {
		if m.Key == "" {
			return nil, fmt.Errorf("registry: metric #%d has empty key", i)
		}
		if _, dup := byKey[m.Key]; dup {
			return nil, fmt.Errorf("registry: duplicate key %q", m.Key)
		}
		if m.Dimension == "" {
			return nil, fmt.Errorf("registry: %s: empty dimension", m.Key)
		}
		if _, ok := unitFactors[m.Dimension]; !ok {
			return nil, fmt.Errorf("registry: %s: unknown dimension %q", m.Key, m.Dimension)
		}
		if m.CanonicalUnit == "" {
			return nil, fmt.Errorf("registry: %s: empty canonical unit", m.Key)
		}
		if len(m.Labels) == 0 {
			return nil, fmt.Errorf("registry: %s: no locale labels", m.Key)
		}
		if !contains(m.AllowedUnits, m.CanonicalUnit) {
			return nil, fmt.Errorf("registry: %s: canonical unit %q not in allowed units", m.Key, m.CanonicalUnit)
		}
		for _, u := range m.AllowedUnits {
			if _, ok := unitFactors[m.Dimension][u]; !ok {
				return nil, fmt.Errorf("registry: %s: unit %q not convertible for dimension %q", m.Key, u, m.Dimension)
			}
		}
		byKey[m.Key] = i
	}

	return &Registry{version: doc.Version, metrics: doc.Metrics, byKey: byKey}, nil
}

func (r *Registry) Version() string { return r.version }

func (r *Registry) Metric(key string) (Metric, error) {
	i, ok := r.byKey[key]
	if !ok {
		return Metric{}, fmt.Errorf("%w: %q", ErrUnknownMetric, key)
	}
	return r.metrics[i], nil
}

func (r *Registry) Has(key string) bool {
	_, ok := r.byKey[key]
	return ok
}

// Metrics возвращает метрики в порядке публикации.
func (r *Registry) Metrics(includeDeprecated bool) []Metric {
	out := make([]Metric, 0, len(r.metrics))
	for _, m := range r.metrics {
		if m.Deprecated && !includeDeprecated {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r *Registry) AllowedUnits(key string) ([]string, error) {
	m, err := r.Metric(key)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(m.AllowedUnits))
	copy(out, m.AllowedUnits)
	return out, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
