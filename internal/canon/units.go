package canon

import (
	"fmt"
	"math"
	"strconv"
)

// Коэффициенты в базовую (каноническую) единицу измерения.
// Пересчёт всегда через базу: value*factor[from] / factor[to].
var unitFactors = map[Dimension]map[string]float64{
	Distance:     {"m": 1, "km": 1000, "yd": 0.9144},
	Speed:        {"m/s": 1, "km/h": 1.0 / 3.6, "m/min": 1.0 / 60, "mph": 0.44704},
	Time:         {"s": 1, "min": 60, "h": 3600},
	Acceleration: {"m/s^2": 1, "g": 9.80665},
	Ratio:        {"ratio": 1, "%": 0.01},
	Count:        {"count": 1},
	PlayerLoad:   {"AU": 1},
	Identity:     {"string": 1},
}

// Placeholder — глиф для отсутствующего значения. Никогда не "0".
const Placeholder = "—"

// ToCanonical переводит значение из единицы отображения в каноническую.
// nil на входе — nil на выходе: отсутствие значения не ошибка и не ноль.
// Для ratio здесь происходит единственное деление на 100 ("%" → доля);
// Format процентами больше не занимается.
func (r *Registry) ToCanonical(v *float64, key, fromUnit string) (*float64, error) {
	return r.convert(v, key, fromUnit, true)
}

// FromCanonical переводит каноническое значение в единицу отображения.
func (r *Registry) FromCanonical(v *float64, key, toUnit string) (*float64, error) {
	return r.convert(v, key, toUnit, false)
}

func (r *Registry) convert(v *float64, key, unit string, toCanon bool) (*float64, error) {
	m, err := r.Metric(key)
	if err != nil {
		return nil, err
	}
	if !contains(m.AllowedUnits, unit) {
		return nil, fmt.Errorf("%w: %q for %s", ErrInvalidDisplayUnit, unit, key)
	}
	if v == nil {
		return nil, nil
	}
	factors := unitFactors[m.Dimension]
	var out float64
	if toCanon {
		out = *v * factors[unit] / factors[m.CanonicalUnit]
	} else {
		out = *v * factors[m.CanonicalUnit] / factors[unit]
	}
	return &out, nil
}

// Format — значение для показа, уже в единице отображения.
// Точность подбирается по единице; никакого масштабирования тут нет.
func Format(v *float64, unit string) string {
	if v == nil {
		return Placeholder
	}
	switch unit {
	case "m", "yd", "s", "count", "AU":
		return strconv.FormatFloat(math.Round(*v), 'f', 0, 64) + " " + unit
	case "km", "h", "m/s", "m/s^2", "g":
		return strconv.FormatFloat(*v, 'f', 2, 64) + " " + unit
	case "km/h", "m/min", "mph", "min":
		return strconv.FormatFloat(*v, 'f', 1, 64) + " " + unit
	case "%":
		return strconv.FormatFloat(*v, 'f', 1, 64) + "%"
	case "ratio":
		return strconv.FormatFloat(*v, 'f', 3, 64)
	case "string", "":
		return strconv.FormatFloat(*v, 'f', -1, 64)
	default:
		return strconv.FormatFloat(*v, 'f', -1, 64) + " " + unit
	}
}

// Float — помощник для литералов *float64 в вызывающем коде и тестах.
func Float(v float64) *float64 { return &v }
