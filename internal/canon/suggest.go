package canon

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Кириллица → латиница для заголовков. Фиксированная таблица, а не
// пакет-транслитератор: результат должен быть стабилен между версиями.
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

var headerSeparators = regexp.MustCompile(`[\s\-_/\\]+`)

// стираем комбинируемые диакритики после NFD-разложения
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader приводит заголовок колонки к виду для сопоставления:
// нижний регистр, без разделителей, латиница, без диакритики.
func NormalizeHeader(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = headerSeparators.ReplaceAllString(s, "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if lat, ok := translit[r]; ok {
			b.WriteString(lat)
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	if out, _, err := transform.String(deaccent, s); err == nil {
		s = out
	}
	return s
}

// quickRule — (предикат, ключ); таблица просматривается сверху вниз,
// побеждает первое совпадение. Новые вендорские сокращения добавляются
// строкой, без изменения кода.
type quickRule struct {
	re  *regexp.Regexp
	key string
}

// Порядок строк значим: правила зон стоят раньше правила счётчика
// спринтов, поэтому одиночный токен "sprint" уходит в дистанцию зоны 5,
// а "sprints" — в счётчик.
var quickRules = []quickRule{
	{regexp.MustCompile(`^(td|totaldistance|distancetotal)$`), "total_distance_m"},
	{regexp.MustCompile(`^(time|duration|minutesplayed|minplayed|vremya)$`), "duration_s"},
	{regexp.MustCompile(`^(maxspeed|maxspeedkmh|maxvelocity)$`), "max_speed_ms"},
	{regexp.MustCompile(`^(hsr|highspeedrunning)$`), "hsr_distance_m"},
	{regexp.MustCompile(`^(hsr%|hsrpercent|hsrratio)$`), "hsr_ratio"},
	{regexp.MustCompile(`^(acc|accelerations?)$`), "acc_count"},
	{regexp.MustCompile(`^(dec|decelerations?)$`), "dec_count"},
	{regexp.MustCompile(`^(z1)$`), "distance_zone1_m"},
	{regexp.MustCompile(`^(z2)$`), "distance_zone2_m"},
	{regexp.MustCompile(`^(z3(tempo)?|tempo)$`), "distance_zone3_m"},
	{regexp.MustCompile(`^(z4(hir)?|hir)$`), "distance_zone4_m"},
	{regexp.MustCompile(`^(z5(sprint)?|sprint)$`), "distance_zone5_m"},
	{regexp.MustCompile(`^(sprints)$`), "sprint_count"},
	{regexp.MustCompile(`^(mmin|metersperminute)$`), "avg_speed_ms"},
	{regexp.MustCompile(`^(avg|average|avgspeed)$`), "avg_speed_ms"},
	{regexp.MustCompile(`^(load|playerload)$`), "player_load_au"},
	{regexp.MustCompile(`^(maxacc|maxacceleration)$`), "max_acceleration_ms2"},
	{regexp.MustCompile(`^(player|name|athlete|igrok|fio)$`), "athlete_name"},
	{regexp.MustCompile(`^(pos|position|poziciya)$`), "position"},
}

// Suggest подбирает канонический ключ по сырому заголовку файла.
// Чисто советующая функция: nil — ожидаемый ответ для незнакомых
// заголовков, ошибок не бывает. Детерминирована при фиксированной
// версии реестра.
func (r *Registry) Suggest(rawHeader string) *string {
	n := NormalizeHeader(rawHeader)
	if n == "" {
		return nil
	}

	for _, rule := range quickRules {
		if rule.re.MatchString(n) {
			if r.Has(rule.key) {
				k := rule.key
				return &k
			}
		}
	}

	// Подстрочный поиск только от 3 символов: короче — слишком много
	// ложных попаданий через измерения.
	if len(n) < 3 {
		return nil
	}
	for _, m := range r.metrics {
		if m.Deprecated {
			continue
		}
		nk := NormalizeHeader(m.Key)
		if strings.Contains(nk, n) || strings.Contains(n, nk) {
			k := m.Key
			return &k
		}
	}
	for _, m := range r.metrics {
		if m.Deprecated {
			continue
		}
		for _, loc := range sortedKeys(m.Labels) {
			nl := NormalizeHeader(m.Labels[loc])
			if nl == "" {
				continue
			}
			if strings.Contains(nl, n) || strings.Contains(n, nl) {
				k := m.Key
				return &k
			}
		}
	}
	return nil
}

// SuggestAll — пакетная версия для мастера настройки профиля:
// заголовок → ключ, только для тех, где нашлось предложение.
func (r *Registry) SuggestAll(headers []string) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		if k := r.Suggest(h); k != nil {
			out[h] = *k
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
