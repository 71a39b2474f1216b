package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var rxKeepNums = regexp.MustCompile(`[^\d\.\-]`)

// ParseNumber парсит "1 234,50", "197 ,00", "2 345,6" (NBSP/NNBSP) и т.п.
// Вендоры выгружают числа в региональных форматах; запятая — десятичный
// разделитель.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// убрать неразрывные/узкие пробелы и обычные пробелы
	repl := strings.NewReplacer(" ", "", " ", "", " ", "", "\t", "", ",", ".")
	s = repl.Replace(s)
	// оставить только цифры, точку и минус (на случай мусора)
	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

var rxClock = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)

// IsClock — значение вида HH:MM или HH:MM:SS.
func IsClock(s string) bool {
	return rxClock.MatchString(strings.TrimSpace(s))
}

// ParseClock переводит HH:MM[:SS] в секунды. Не время суток, а
// длительность: "01:20:00" — час двадцать на поле.
func ParseClock(s string) (float64, bool) {
	m := rxClock.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec := 0
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	return float64(h*3600 + min*60 + sec), true
}
