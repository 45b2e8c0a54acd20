package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/llm"
)

// Classifier inspects one image and returns a structured safety verdict.
type Classifier interface {
	Classify(ctx context.Context, imageURL string) (*domain.SafetyVerdict, error)
}

const classifierSystemPrompt = `Sen bir pazaryeri görsel güvenlik denetçisisin. Görseli incele
ve SADECE JSON döndür:
{
  "safe": true/false,
  "flag_type": "none|weapon|drugs|violence|abuse|terrorism|stolen|document|sexual|hate",
  "confidence": "high|medium|low",
  "message": "kullanıcıya gösterilecek kısa Türkçe mesaj",
  "allow_listing": true/false,
  "product": {"title": "...", "category": "...", "condition": "...", "quantity": 1, "attributes": {"renk": "..."}}
}

Kurallar:
- Silah, uyuşturucu, şiddet, çalıntı izlenimi, kimlik/belge, müstehcenlik, nefret sembolü: safe=false.
- Sıradan ikinci el ürün fotoğrafı: safe=true, flag_type=none, allow_listing=true ve product alanını doldur.
- Emin değilsen safe=false, flag_type=unknown, confidence=low.`

// OpenAIClassifier runs the verdict through a vision-capable chat model.
type OpenAIClassifier struct {
	LLM   llm.ChatCompleter
	Model string
}

func (o *OpenAIClassifier) Classify(ctx context.Context, imageURL string) (*domain.SafetyVerdict, error) {
	messages := []llm.Message{
		{Role: "system", Content: classifierSystemPrompt},
		{Role: "user", Content: []interface{}{
			llm.TextPart("Bu görseli değerlendir."),
			llm.ImagePart(imageURL),
		}},
	}
	raw, err := o.LLM.ChatJSON(ctx, o.Model, messages, 512)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	var v domain.SafetyVerdict
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("vision: rejected verdict: %w", err)
	}
	if v.FlagType == "" {
		v.FlagType = domain.FlagUnknown
	}
	return &v, nil
}
