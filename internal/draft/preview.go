package draft

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"
)

var conditionLabels = map[string]string{
	domain.ConditionNew:         "Sıfır",
	domain.ConditionUsed:        "İkinci el",
	domain.ConditionRefurbished: "Yenilenmiş",
}

// RenderPreview produces the WhatsApp preview card. Deterministic: fixed
// field order, metadata keys sorted, so the same draft always renders the
// same text.
func RenderPreview(d *domain.Draft) string {
	var b strings.Builder
	b.WriteString("📋 İlan Önizleme\n\n")

	title := d.Title
	if title == "" {
		title = "(başlık eksik)"
	}
	b.WriteString("📦 " + title + "\n")

	if d.Price != nil {
		fmt.Fprintf(&b, "💰 %d TL\n", *d.Price)
	} else {
		b.WriteString("💰 Fiyat belirtilmedi\n")
	}
	if d.Category != "" {
		b.WriteString("🏷️ Kategori: " + d.Category + "\n")
	}
	if d.Condition != "" {
		label := conditionLabels[d.Condition]
		if label == "" {
			label = d.Condition
		}
		b.WriteString("✨ Durum: " + label + "\n")
	}
	if d.Location != "" {
		b.WriteString("📍 Konum: " + d.Location + "\n")
	}
	if d.Stock > 1 {
		fmt.Fprintf(&b, "🔢 Adet: %d\n", d.Stock)
	}
	if len(d.Images) > 0 {
		fmt.Fprintf(&b, "📷 %d fotoğraf\n", len(d.Images))
	}
	if d.Description != "" {
		b.WriteString("\n📝 " + d.Description + "\n")
	}

	if details := metadataLines(d.Metadata); len(details) > 0 {
		b.WriteString("\nDetaylar:\n")
		for _, line := range details {
			b.WriteString("• " + line + "\n")
		}
	}

	b.WriteString("\n✅ Yayınlamak için \"onayla\" yazın\n")
	b.WriteString("❌ Vazgeçmek için \"iptal\" yazın")
	return b.String()
}

// metadataLines renders metadata entries sorted by key. The "type" key is
// internal plumbing and stays hidden.
func metadataLines(metadata map[string]interface{}) []string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		if k == "type" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		v := metadata[k]
		var val string
		switch t := v.(type) {
		case string:
			val = t
		case float64:
			if t == float64(int(t)) {
				val = fmt.Sprintf("%d", int(t))
			} else {
				val = fmt.Sprintf("%g", t)
			}
		case int:
			val = fmt.Sprintf("%d", t)
		case bool:
			if t {
				val = "evet"
			} else {
				val = "hayır"
			}
		default:
			val = fmt.Sprintf("%v", t)
		}
		if val == "" {
			continue
		}
		lines = append(lines, k+": "+val)
	}
	return lines
}

// templateDescription builds a plain sales description from whatever fields
// the draft already has. Used when the user never wrote one.
func templateDescription(d *domain.Draft) string {
	if d.Title == "" {
		return ""
	}
	var parts []string
	if label := conditionLabels[d.Condition]; label != "" {
		parts = append(parts, label+" "+d.Title+" satılıktır.")
	} else {
		parts = append(parts, d.Title+" satılıktır.")
	}
	if d.Location != "" {
		parts = append(parts, d.Location+" içinde elden teslim.")
	}
	if d.Stock > 1 {
		parts = append(parts, fmt.Sprintf("%d adet mevcuttur.", d.Stock))
	}
	parts = append(parts, "Detaylar için mesaj atabilirsiniz.")
	return strings.Join(parts, " ")
}

// WantsGeneratedDescription detects requests like "açıklamayı sen yaz".
func WantsGeneratedDescription(text string) bool {
	t := strings.ToLower(text)
	if !strings.Contains(t, "açıklama") && !strings.Contains(t, "aciklama") {
		return false
	}
	for _, trigger := range []string{"sen yaz", "sen oluştur", "sen olustur", "otomatik", "hazırla", "hazirla"} {
		if strings.Contains(t, trigger) {
			return true
		}
	}
	return false
}
