package normalize

import "strings"

type conditionSynonym struct {
	text      string
	canonical string
}

// Ordered longest-match-first so "yenilenmiş" never falls through to "yeni".
var conditionSynonyms = []conditionSynonym{
	{"hiç kullanılmadı", "new"},
	{"az kullanılmış", "used"},
	{"kullanılmış", "used"},
	{"kullanilmis", "used"},
	{"yenilenmiş", "refurbished"},
	{"yenilenmis", "refurbished"},
	{"yenilendi", "refurbished"},
	{"refurbished", "refurbished"},
	{"ikinci el", "used"},
	{"2. el", "used"},
	{"2.el", "used"},
	{"sıfır", "new"},
	{"sifir", "new"},
	{"yeni", "new"},
	{"used", "used"},
	{"new", "new"},
}

// Condition maps free text onto one of "new", "used", "refurbished".
// Empty input stays unset (returns ""); unrecognized non-empty input falls
// back to "used".
func Condition(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return ""
	}
	for _, s := range conditionSynonyms {
		if t == s.text {
			return s.canonical
		}
	}
	for _, s := range conditionSynonyms {
		if strings.Contains(t, s.text) {
			return s.canonical
		}
	}
	return "used"
}
