package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Intent names the router can emit.
const (
	IntentCreateListing      = "create_listing"
	IntentUpdateListingDraft = "update_listing_draft"
	IntentPublishListing     = "publish_listing"
	IntentUpdateListing      = "update_listing"
	IntentDeleteListing      = "delete_listing"
	IntentSearchProduct      = "search_product"
	IntentMyListings         = "my_listings"
	IntentWalletQuery        = "wallet_query"
	IntentSmallTalk          = "small_talk"
	IntentCancel             = "cancel"
)

var knownIntents = map[string]bool{
	IntentCreateListing:      true,
	IntentUpdateListingDraft: true,
	IntentPublishListing:     true,
	IntentUpdateListing:      true,
	IntentDeleteListing:      true,
	IntentSearchProduct:      true,
	IntentMyListings:         true,
	IntentWalletQuery:        true,
	IntentSmallTalk:          true,
	IntentCancel:             true,
}

const routerSystemPrompt = `Sen bir pazaryeri asistanının niyet sınıflandırıcısısın.
Kullanıcı mesajını aşağıdaki niyetlerden birine ata ve SADECE JSON döndür:
{"intent": "<intent>", "confidence": <0..1>}

Niyetler:
- create_listing: yeni bir ürün satışa koymak istiyor ("satmak istiyorum", "ilan ver")
- update_listing_draft: taslak ilana bilgi ekliyor (fiyat, açıklama, konum, adet)
- publish_listing: taslağı onaylıyor ("onayla", "yayınla", "tamam yayınla")
- update_listing: yayında olan bir ilanını değiştirmek istiyor
- delete_listing: yayında olan bir ilanını silmek istiyor
- search_product: ürün arıyor ("iphone var mı", "araba bakıyorum")
- my_listings: kendi yayındaki ilanlarını görmek istiyor ("ilanlarım", "ilanlarımı göster")
- wallet_query: bakiye veya cüzdan soruyor
- cancel: işlemi iptal ediyor ("iptal", "vazgeçtim")
- small_talk: selamlaşma veya sohbet, yukarıdakilerin hiçbiri değil`

// Router classifies a user message into one intent.
type Router struct {
	LLM   ChatCompleter
	Model string
}

type routedIntent struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Route asks the model for an intent. Unknown or malformed answers come back
// as an error; the caller decides the fallback.
func (r *Router) Route(ctx context.Context, text string) (string, error) {
	messages := []Message{
		{Role: "system", Content: routerSystemPrompt},
		{Role: "user", Content: text},
	}
	raw, err := r.LLM.ChatJSON(ctx, r.Model, messages, 64)
	if err != nil {
		return "", err
	}
	var out routedIntent
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("router: bad json: %w", err)
	}
	if !knownIntents[out.Intent] {
		return "", fmt.Errorf("router: unknown intent %q", out.Intent)
	}
	log.Debug().Str("intent", out.Intent).Float64("confidence", out.Confidence).Msg("intent routed")
	return out.Intent, nil
}

// KeywordIntent is the deterministic fallback when the model is unreachable
// or answers garbage. Ordered by priority: explicit actions beat search.
func KeywordIntent(text string, hasMedia bool) string {
	t := strings.ToLower(strings.TrimSpace(text))

	if containsAny(t, "iptal", "vazgeç", "vazgec") {
		return IntentCancel
	}
	if containsAny(t, "onayla", "yayınla", "yayinla") {
		return IntentPublishListing
	}
	if containsAny(t, "bakiye", "cüzdan", "cuzdan", "kredi") {
		return IntentWalletQuery
	}
	if containsAny(t, "sil", "kaldır", "kaldir") && strings.Contains(t, "ilan") {
		return IntentDeleteListing
	}
	if containsAny(t, "güncelle", "guncelle", "değiştir", "degistir") && strings.Contains(t, "ilan") {
		return IntentUpdateListing
	}
	if containsAny(t, "ilanlarım", "ilanlarim") {
		return IntentMyListings
	}
	if containsAny(t, "satmak", "satıyorum", "satiyorum", "ilan ver", "satışa", "satisa") {
		return IntentCreateListing
	}
	if hasMedia {
		return IntentCreateListing
	}
	if containsAny(t, "var mı", "var mi", "arıyorum", "ariyorum", "bakıyorum", "bakiyorum", "kaça", "kaca", "fiyatı ne", "fiyati ne") {
		return IntentSearchProduct
	}
	if t == "" {
		return IntentSmallTalk
	}
	return IntentSearchProduct
}

func containsAny(t string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}
