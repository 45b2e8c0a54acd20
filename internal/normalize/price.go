package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var nonPriceChars = regexp.MustCompile(`[^\d,.]`)

// Price converts a free-text Turkish price phrase into a plain integer amount.
// Supported forms: "54,999 TL" -> 54999, "45.000" -> 45000, "22 bin" -> 22000,
// "1,5 milyon" -> 1500000. Returns nil when nothing parseable remains.
//
// Without a multiplier word, comma and period are thousands separators and are
// stripped: Turkish listing prices are whole lira amounts. With "bin"/"milyon"
// a single comma or period acts as the Turkish decimal separator.
func Price(text string) *int {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return nil
	}

	multiplier := 1
	if strings.Contains(t, "milyon") {
		multiplier = 1_000_000
		t = strings.ReplaceAll(t, "milyon", "")
	} else if strings.Contains(t, "bin") {
		multiplier = 1_000
		t = strings.ReplaceAll(t, "bin", "")
	}

	cleaned := nonPriceChars.ReplaceAllString(t, "")
	if cleaned == "" {
		return nil
	}

	if multiplier > 1 {
		// "1,5 milyon" / "2.5 bin": decimal comma/period scales the multiplier.
		normalized := strings.ReplaceAll(cleaned, ",", ".")
		if strings.Count(normalized, ".") == 1 {
			f, err := strconv.ParseFloat(normalized, 64)
			if err != nil {
				return nil
			}
			v := int(f * float64(multiplier))
			return &v
		}
	}

	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	if cleaned == "" {
		return nil
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	v := n * multiplier
	return &v
}

// PriceValue normalizes a price arriving from the draft extractor, which may
// emit a string, a JSON number, or nothing.
func PriceValue(v interface{}) *int {
	switch p := v.(type) {
	case nil:
		return nil
	case int:
		return &p
	case int64:
		n := int(p)
		return &n
	case float64:
		n := int(p)
		return &n
	case string:
		return Price(p)
	default:
		return nil
	}
}
