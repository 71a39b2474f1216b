package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gps-canon-service/internal/canon"
)

var (
	// ErrProfileFrozen — структурные правки профиля запрещены, как только
	// на него ссылается хотя бы один отчёт. Исторические отчёты защищены
	// снапшотами, но живой профиль после первого использования меняется
	// только презентационно.
	ErrProfileFrozen = errors.New("profile structure frozen: referenced by reports")
)

// DuplicateKeyError — один канонический ключ у нескольких видимых колонок.
// Indexes содержит ВСЕ конфликтующие позиции, чтобы UI подсветил каждую.
type DuplicateKeyError struct {
	Key     string
	Indexes []int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate canonical key %q at columns %v", e.Key, e.Indexes)
}

type ColumnType string

const (
	TypeColumn  ColumnType = "column"
	TypeFormula ColumnType = "formula"
)

// Column — маппинг одной колонки вендорского файла (или формулы) на канон.
// Ровно одно из SourceHeader/Formula заполнено, в зависимости от Type.
type Column struct {
	Type         ColumnType `json:"type"`
	Name         string     `json:"name,omitempty"`
	SourceHeader string     `json:"sourceHeader,omitempty"`
	Formula      string     `json:"formula,omitempty"`
	CanonicalKey string     `json:"canonicalKey,omitempty"`
	DisplayUnit  string     `json:"displayUnit,omitempty"`
	IsVisible    bool       `json:"isVisible"`
	Order        int        `json:"order"`
	// SourceIndex — позиция колонки в файле без заголовков (0-based).
	SourceIndex *int `json:"sourceIndex,omitempty"`
}

type Profile struct {
	ID        string    `json:"id"`
	ClubID    string    `json:"clubId"`
	Name      string    `json:"name"`
	GpsSystem string    `json:"gpsSystem"`
	Columns   []Column  `json:"columns"`
	CreatedAt time.Time `json:"createdAt"`
}

// New собирает профиль после валидации колонок.
func New(reg *canon.Registry, clubID, name, gpsSystem string, columns []Column) (*Profile, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("profile name required")
	}
	if err := ValidateColumns(reg, columns); err != nil {
		return nil, err
	}
	return &Profile{
		ID:        uuid.NewString(),
		ClubID:    clubID,
		Name:      name,
		GpsSystem: gpsSystem,
		Columns:   columns,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ValidateColumns — структурные правила маппинга. Ошибки конфигурации
// блокируют мутацию сразу и целиком, молча тут ничего не чинится.
func ValidateColumns(reg *canon.Registry, columns []Column) error {
	for i, c := range columns {
		if err := validateColumn(reg, c); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}

	// дубликаты по всем видимым колонкам разом, не только первый
	seen := map[string][]int{}
	order := []string{}
	for i, c := range columns {
		if c.Type != TypeColumn || !c.IsVisible || c.CanonicalKey == "" {
			continue
		}
		if m, err := reg.Metric(c.CanonicalKey); err == nil && m.Deprecated {
			continue
		}
		if _, ok := seen[c.CanonicalKey]; !ok {
			order = append(order, c.CanonicalKey)
		}
		seen[c.CanonicalKey] = append(seen[c.CanonicalKey], i)
	}
	for _, key := range order {
		if idxs := seen[key]; len(idxs) > 1 {
			return &DuplicateKeyError{Key: key, Indexes: idxs}
		}
	}
	return nil
}

func validateColumn(reg *canon.Registry, c Column) error {
	switch c.Type {
	case TypeColumn:
		if c.Formula != "" {
			return errors.New("column mapping must not carry a formula")
		}
		if strings.TrimSpace(c.SourceHeader) == "" {
			return errors.New("source header required")
		}
		if c.CanonicalKey == "" {
			return errors.New("canonical key required")
		}
		units, err := reg.AllowedUnits(c.CanonicalKey)
		if err != nil {
			return err
		}
		if c.DisplayUnit != "" && !containsStr(units, c.DisplayUnit) {
			return fmt.Errorf("%w: %q for %s", canon.ErrInvalidDisplayUnit, c.DisplayUnit, c.CanonicalKey)
		}
	case TypeFormula:
		if strings.TrimSpace(c.Formula) == "" {
			return errors.New("formula required")
		}
		if c.SourceHeader != "" {
			return errors.New("formula column must not carry a source header")
		}
	default:
		return fmt.Errorf("unknown column type %q", c.Type)
	}
	return nil
}

// UpdateColumns применяет новый набор колонок с учётом правила заморозки.
// usedCount приходит от хранилища (число отчётов на профиле) и обязан быть
// перепроверен ещё раз в транзакции записи — здесь только ранняя проверка.
func (p *Profile) UpdateColumns(reg *canon.Registry, columns []Column, usedCount int) (structural bool, err error) {
	if err := ValidateColumns(reg, columns); err != nil {
		return false, err
	}
	structural = structuralChange(p.Columns, columns)
	if usedCount > 0 && structural {
		return structural, ErrProfileFrozen
	}
	p.Columns = columns
	return structural, nil
}

// structuralChange — изменился ли состав колонок, а не их представление.
// Видимость, единица отображения и порядок — презентационные правки,
// они разрешены и на замороженном профиле.
func structuralChange(old, new []Column) bool {
	if len(old) != len(new) {
		return true
	}
	key := func(c Column) string {
		return string(c.Type) + "\x00" + c.SourceHeader + "\x00" + c.Formula + "\x00" + c.CanonicalKey
	}
	oldKeys := make(map[string]int, len(old))
	for _, c := range old {
		oldKeys[key(c)]++
	}
	for _, c := range new {
		if oldKeys[key(c)] == 0 {
			return true
		}
		oldKeys[key(c)]--
	}
	return false
}

func containsStr(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
