package category

import (
	"regexp"
	"strings"
)

// Option is a canonical marketplace category.
type Option struct {
	ID    string
	Label string
}

// Options is the canonical category set used across listing creation,
// update and search composition.
var Options = []Option{
	{ID: "Emlak", Label: "Emlak"},
	{ID: "Otomotiv", Label: "Otomotiv"},
	{ID: "Elektronik", Label: "Elektronik"},
	{ID: "Ev & Yaşam", Label: "Ev & Yaşam"},
	{ID: "Moda & Aksesuar", Label: "Moda & Aksesuar"},
	{ID: "Anne, Bebek & Oyuncak", Label: "Anne, Bebek & Oyuncak"},
	{ID: "Spor & Outdoor", Label: "Spor & Outdoor"},
	{ID: "Hobi, Koleksiyon & Sanat", Label: "Hobi, Koleksiyon & Sanat"},
	{ID: "İş Makineleri & Sanayi", Label: "İş Makineleri & Sanayi"},
	{ID: "Yedek Parça & Aksesuar", Label: "Yedek Parça & Aksesuar"},
	{ID: "Hizmetler", Label: "Ustalar & Hizmetler"},
	{ID: "Eğitim & Kurs", Label: "Özel Ders & Eğitim"},
	{ID: "İş İlanları", Label: "İş İlanları"},
	{ID: "Dijital Ürün & Hizmetler", Label: "Dijital Ürün & Hizmetler"},
	{ID: "Diğer", Label: "Genel / Diğer"},
}

type spec struct {
	label  string
	strong []string
	weak   []string
}

var specs = []spec{
	{
		label: "Otomotiv",
		strong: []string{
			"otomotiv", "otomobil", "araba", "arac", "vasita", "kamyonet",
			"kamyon", "motorsiklet", "motosiklet", "scooter", "atv", "pickup",
			"suv", "tekne", "jetski", "van",
		},
		weak: []string{
			"bmw", "mercedes", "audi", "volkswagen", "renault", "fiat", "ford",
			"toyota", "honda", "hyundai", "kia", "peugeot", "citroen", "opel",
			"nissan", "volvo", "tofas", "togg", "tesla", "porsche", "jeep",
		},
	},
	{
		label: "Elektronik",
		strong: []string{
			"elektronik", "telefon", "akilli", "smartphone", "iphone", "ipad",
			"macbook", "laptop", "notebook", "bilgisayar", "pc", "monitor",
			"ekran", "ps5", "playstation", "xbox", "kulaklik", "airpods",
			"kamera", "drone",
		},
		weak: []string{
			"apple", "samsung", "xiaomi", "redmi", "huawei", "honor", "oppo",
			"realme", "lenovo", "hp", "dell", "asus", "msi", "lg", "sony", "canon",
		},
	},
	{
		label: "Emlak",
		strong: []string{
			"emlak", "daire", "ev", "konut", "rezidans", "villa", "yazlik",
			"mustakil", "dubleks", "triplex", "arsa", "tarla", "dukkan", "ofis",
		},
		weak: []string{"metrekare", "m2", "tapu", "site", "siteli", "havuzlu", "kat"},
	},
	{
		label: "Moda & Aksesuar",
		strong: []string{
			"giyim", "aksesuar", "ayakkabi", "elbise", "mont", "ceket",
			"pantolon", "kazak", "canta", "saat", "taki", "takim",
		},
		weak: []string{"nike", "adidas", "puma", "zara", "hm", "mango"},
	},
	{
		label: "Ev & Yaşam",
		strong: []string{
			"buzdolabi", "camasir", "bulasik", "kurutma", "klima", "firin",
			"ocak", "mikrodalga", "mobilya", "koltuk", "kanepe", "masa",
			"sandalye", "yatak", "gardrop", "hali", "perde",
		},
		weak: []string{"arcelik", "beko", "bosch", "siemens", "vestel", "profilo", "regal", "altus"},
	},
}

var trReplacer = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"Ç", "c", "Ğ", "g", "İ", "i", "Ö", "o", "Ş", "s", "Ü", "u",
)

var stopwords = map[string]struct{}{
	"var": {}, "mı": {}, "mi": {}, "musunuz": {}, "musun": {}, "bana": {},
	"bir": {}, "acaba": {}, "uygun": {}, "satilik": {}, "kiralik": {},
	"ilan": {}, "ilani": {}, "ilanlar": {}, "fiyat": {}, "ne": {}, "kac": {},
}

var (
	nonWordRe = regexp.MustCompile(`[^0-9a-z&+]+`)
	roomRe    = regexp.MustCompile(`^\d\+\d$`)
	yearRe    = regexp.MustCompile(`^(19|20)\d{2}$`)
)

func norm(text string) string {
	t := trReplacer.Replace(strings.ToLower(strings.TrimSpace(text)))
	t = nonWordRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

func tokenize(text string) []string {
	var out []string
	for _, tok := range strings.Fields(norm(text)) {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Classify infers the canonical category from free text. Returns "" when no
// keyword evidence is strong enough.
func Classify(text string) string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return ""
	}
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = struct{}{}
	}

	// Room formats (2+1 etc) combined with a housing word are real estate.
	hasRoom := false
	for _, tok := range tokens {
		if roomRe.MatchString(tok) {
			hasRoom = true
			break
		}
	}
	if hasRoom {
		for _, w := range []string{"emlak", "daire", "ev", "konut", "villa", "rezidans", "apart", "bahce"} {
			if _, ok := tokenSet[w]; ok {
				return "Emlak"
			}
		}
	}

	for _, s := range specs {
		for _, strong := range s.strong {
			if _, ok := tokenSet[strong]; ok {
				return s.label
			}
		}
	}

	// Weak keyword scoring; a single brand plus a year/"km"/"model" token is
	// enough evidence for a vehicle.
	bestLabel := ""
	bestScore := 0
	for _, s := range specs {
		score := 0
		for _, weak := range s.weak {
			if _, ok := tokenSet[weak]; ok {
				score++
			}
		}
		if s.label == "Otomotiv" && score >= 1 {
			hasYear, hasKm := false, false
			for _, tok := range tokens {
				if yearRe.MatchString(tok) {
					hasYear = true
				}
				if strings.Contains(tok, "km") {
					hasKm = true
				}
			}
			_, hasModelWord := tokenSet["model"]
			if hasYear || hasKm || hasModelWord {
				return s.label
			}
		}
		if score > bestScore {
			bestLabel = s.label
			bestScore = score
		}
	}
	if bestScore >= 2 {
		return bestLabel
	}
	return ""
}

// NormalizeID maps arbitrary label text onto a canonical category id,
// falling back to keyword classification.
func NormalizeID(text string) string {
	if text == "" {
		return ""
	}
	n := norm(text)
	for _, opt := range Options {
		if norm(opt.ID) == n || norm(opt.Label) == n {
			return opt.ID
		}
	}
	return Classify(text)
}

// ExtractSearchTokens pulls up to maxTokens deduplicated keywords from free
// text, dropping Turkish filler words.
func ExtractSearchTokens(text string, maxTokens int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) >= maxTokens {
			break
		}
	}
	return out
}

// typeToCategory keeps listing category aligned with metadata "type".
var typeToCategory = map[string]string{
	"vehicle":     "Otomotiv",
	"property":    "Emlak",
	"electronics": "Elektronik",
	"phone":       "Elektronik",
	"computer":    "Elektronik",
	"appliance":   "Ev & Yaşam",
	"furniture":   "Ev & Yaşam",
	"clothing":    "Moda & Aksesuar",
	"general":     "Genel",
}

// FromMetadataType returns the category implied by a metadata type key,
// or the given fallback when the type is unknown.
func FromMetadataType(metaType, fallback string) string {
	if c, ok := typeToCategory[metaType]; ok {
		return c
	}
	return fallback
}

// AlignMetadataType keeps metadata["type"] consistent when the user changes
// the category explicitly. Best effort; unknown categories get "general"
// only when no type was set.
func AlignMetadataType(metadata map[string]interface{}, categoryLabel string) {
	if metadata == nil || categoryLabel == "" {
		return
	}
	cat := strings.ToLower(categoryLabel)
	switch {
	case strings.Contains(cat, "emlak"):
		metadata["type"] = "property"
	case strings.Contains(cat, "otomotiv"):
		metadata["type"] = "vehicle"
	case strings.Contains(cat, "elektr"):
		metadata["type"] = "electronics"
	case strings.Contains(cat, "moda"), strings.Contains(cat, "giyim"):
		metadata["type"] = "clothing"
	default:
		if _, ok := metadata["type"]; !ok {
			metadata["type"] = "general"
		}
	}
}
