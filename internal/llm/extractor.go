package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"
)

const extractorSystemPrompt = `Sen bir pazaryeri ilan asistanısın. Kullanıcının mesajından
ilan alanlarını çıkar ve SADECE JSON döndür. Bilmediğin alanı hiç yazma, uydurma.

Şema (hepsi opsiyonel):
{
  "title": "ürün başlığı",
  "description": "açıklama",
  "price": "fiyat metni, aynen kullanıcının dediği gibi (örn. '54 bin TL')",
  "category": "kategori",
  "condition": "durum metni (sıfır, az kullanılmış, ...)",
  "location": "şehir/ilçe",
  "stock": 2,
  "metadata": {"anahtar": "değer"}
}

Fiyatı sayıya çevirme, metin olarak bırak. Türkçe karakterleri koru.`

// DraftUpdate is what the extractor pulls from one user message. Absent
// fields stay nil so the merge never clears data the user did not mention.
type DraftUpdate struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	Price       *string                `json:"price,omitempty"`
	Category    *string                `json:"category,omitempty"`
	Condition   *string                `json:"condition,omitempty"`
	Location    *string                `json:"location,omitempty"`
	Stock       *int                   `json:"stock,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Empty reports whether the extractor found nothing usable.
func (u *DraftUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil &&
		u.Category == nil && u.Condition == nil && u.Location == nil &&
		u.Stock == nil && len(u.Metadata) == 0
}

// Extractor turns free-form Turkish messages into structured draft fields.
type Extractor struct {
	LLM   ChatCompleter
	Model string
}

// Extract parses one message against the current draft. Schema violations
// (unknown keys, wrong types) reject the whole output; the caller leaves the
// draft untouched rather than merging a half-understood answer.
func (e *Extractor) Extract(ctx context.Context, text string, current *domain.Draft) (*DraftUpdate, error) {
	messages := []Message{
		{Role: "system", Content: extractorSystemPrompt},
	}
	if current != nil {
		ctxJSON, _ := json.Marshal(map[string]interface{}{
			"title":    current.Title,
			"category": current.Category,
			"location": current.Location,
		})
		messages = append(messages, Message{
			Role:    "system",
			Content: "Mevcut taslak: " + string(ctxJSON),
		})
	}
	messages = append(messages, Message{Role: "user", Content: text})

	raw, err := e.LLM.ChatJSON(ctx, e.Model, messages, 512)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	var out DraftUpdate
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("extractor: rejected output: %w", err)
	}
	return &out, nil
}
