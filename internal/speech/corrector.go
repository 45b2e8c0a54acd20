package speech

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/llm"

	"github.com/rs/zerolog/log"
)

type brandCorrection struct {
	wrong, right string
}

// brandCorrections fixes the transcription mistakes speech-to-text makes on
// product names in Turkish audio. Applied before the model pass so common
// cases work even when the LLM is down. Longer phrases come first so they
// win over their substrings.
var brandCorrections = []brandCorrection{
	{"ayfon on üç", "iphone 13"},
	{"pleysteyşın", "playstation"},
	{"pleysteyşun", "playstation"},
	{"eyrpods", "airpods"},
	{"makbuk", "macbook"},
	{"leptop", "laptop"},
	{"ay fon", "iphone"},
	{"ayfon", "iphone"},
	{"samsun", "samsung"},
	{"şaomi", "xiaomi"},
	{"şavmi", "xiaomi"},
}

const correctorSystemPrompt = `Sesli mesaj dökümündeki yazım ve marka hatalarını düzelt.
Anlamı değiştirme, kelime ekleme veya çıkarma yapma. SADECE JSON döndür:
{"corrected": "düzeltilmiş metin"}`

// Corrector cleans up speech-to-text transcripts before intent routing.
type Corrector struct {
	LLM   llm.ChatCompleter
	Model string
}

// Correct returns the cleaned transcript. Any model failure falls back to
// the dictionary-corrected original; the pipeline never loses the message.
func (c *Corrector) Correct(ctx context.Context, transcript string) string {
	base := applyBrandCorrections(transcript)
	if c.LLM == nil || strings.TrimSpace(base) == "" {
		return base
	}

	raw, err := c.LLM.ChatJSON(ctx, c.Model, []llm.Message{
		{Role: "system", Content: correctorSystemPrompt},
		{Role: "user", Content: base},
	}, 256)
	if err != nil {
		log.Warn().Err(err).Msg("speech correction model failed, using dictionary pass")
		return base
	}

	var out struct {
		Corrected string `json:"corrected"`
	}
	if json.Unmarshal([]byte(raw), &out) != nil || strings.TrimSpace(out.Corrected) == "" {
		return base
	}
	return out.Corrected
}

func applyBrandCorrections(text string) string {
	// Whole-word matching: "samsun" must not rewrite the inside of "samsung".
	// Transcripts carry no punctuation, so space delimiters are enough.
	t := " " + strings.ToLower(text) + " "
	for _, c := range brandCorrections {
		t = strings.ReplaceAll(t, " "+c.wrong+" ", " "+c.right+" ")
	}
	return strings.TrimSpace(t)
}
