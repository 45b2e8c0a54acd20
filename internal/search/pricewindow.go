package search

import (
	"regexp"
	"strings"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/normalize"
)

// Turkish price window phrases: "50 bin altı", "20 binden fazla",
// "20-30 bin arası", "100 bin ile 200 bin arası".
var (
	rangeRe   = regexp.MustCompile(`([\d.,]+\s*(?:bin|milyon)?)\s*(?:ile|-|–)\s*([\d.,]+\s*(?:bin|milyon)?)\s*(?:tl)?\s*aras`)
	belowRe   = regexp.MustCompile(`([\d.,]+\s*(?:bin|milyon)?)\s*(?:tl)?\s*(?:nin|nın|in|ın|den|dan)?\s*(?:alt|aşağı|asagi|daha ucuz|az|fazla olmayan)`)
	aboveRe   = regexp.MustCompile(`([\d.,]+\s*(?:bin|milyon)?)\s*(?:tl)?\s*(?:nin|nın|in|ın|den|dan)?\s*(?:üst|ust|üzeri|uzeri|yukarı|yukari|fazla|pahalı)`)
	windowCut = regexp.MustCompile(`[\d.,]+\s*(?:bin|milyon)?\s*(?:tl)?\s*(?:ile|-|–)?\s*[\d.,]*\s*(?:bin|milyon)?\s*(?:tl)?\s*(?:aras[ıi]n?d?a?|alt[ıi]n?d?a?|üst[üu]n?d?e?|ust[üu]n?d?e?|üzeri(?:nde)?|uzeri(?:nde)?|den az|dan az|den fazla|dan fazla)`)
)

// PriceWindow extracts an optional min/max price constraint from free text
// and returns the text with the constraint phrase removed so it does not
// pollute keyword search.
func PriceWindow(text string) (min, max *int, cleaned string) {
	t := strings.ToLower(text)

	if m := rangeRe.FindStringSubmatch(t); m != nil {
		lo := normalize.Price(m[1])
		hi := normalize.Price(m[2])
		if lo != nil && hi != nil {
			if *lo > *hi {
				lo, hi = hi, lo
			}
			// "20-30 bin": a bare low bound inherits the high bound's scale.
			if *hi >= 1000 && *lo < 1000 && *hi%1000 == 0 {
				scaled := *lo * 1000
				if scaled < *hi {
					lo = &scaled
				}
			}
			return lo, hi, stripWindow(text)
		}
	}
	if m := belowRe.FindStringSubmatch(t); m != nil {
		if hi := normalize.Price(m[1]); hi != nil {
			return nil, hi, stripWindow(text)
		}
	}
	if m := aboveRe.FindStringSubmatch(t); m != nil {
		if lo := normalize.Price(m[1]); lo != nil {
			return lo, nil, stripWindow(text)
		}
	}
	return nil, nil, text
}

func stripWindow(text string) string {
	out := windowCut.ReplaceAllString(strings.ToLower(text), " ")
	return strings.Join(strings.Fields(out), " ")
}
