package searchcache

import (
	"regexp"
	"strconv"
	"strings"
)

// Ordinal patterns for Turkish listing references. Best-effort: the explicit
// listing id path remains the authoritative mechanism.
var ordinalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*(?:nolu|no'?lu|numaralı|numarali)\s*ilan`),
	regexp.MustCompile(`(\d+)\s*\.\s*ilan`),
	regexp.MustCompile(`ilan\s*#?\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s*(?:nolu|no'?lu|numaralı|numarali)\b`),
}

var ordinalWords = map[string]int{
	"ilk":     1,
	"birinci": 1,
	"ikinci":  2,
}

// ExtractOrdinal pulls a 1-based ordinal reference from free text
// ("3 nolu ilan", "ilan #2", "ikinci ilan"). Zero or negative numbers are
// treated as unparseable.
func ExtractOrdinal(text string) (int, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return 0, false
	}
	for _, re := range ordinalPatterns {
		if m := re.FindStringSubmatch(t); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				continue
			}
			return n, true
		}
	}
	for word, n := range ordinalWords {
		if strings.Contains(t, word+" ilan") {
			return n, true
		}
	}
	return 0, false
}
