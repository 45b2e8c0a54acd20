package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/draft"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/llm"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/normalize"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/search"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/searchcache"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/session"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/supabase"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/vision"

	"github.com/rs/zerolog/log"
)

// Ownership failures get a vague reply; the message never reveals whether
// the listing exists.
const (
	msgNeedAccount   = "Bu işlem için kayıtlı bir hesabınız olmalı. Lütfen önce üye olun."
	msgNotActionable = "Bu ilan üzerinde işlem yapamadım."
	msgWhichListing  = "Hangi ilanı kastettiğinizi anlayamadım. Önce arama yapıp \"2 nolu ilan\" gibi belirtebilirsiniz."
	msgGreeting      = "👋 Merhaba! Ürün satmak için fotoğraf ve açıklama gönderebilir, almak için \"iphone var mı\" gibi arayabilirsiniz."
)

// Request is one inbound user message, already transport-neutral: the
// WhatsApp webhook and the web chat endpoint both reduce to this.
type Request struct {
	UserID     string
	Phone      string
	Text       string
	MediaPaths []string
}

// Response is what goes back to the user, plus structured context for the
// transport layer.
type Response struct {
	Intent  string                  `json:"intent"`
	Message string                  `json:"message"`
	Draft   *domain.Draft           `json:"draft,omitempty"`
	Results []domain.ListingSummary `json:"results,omitempty"`
	Blocked []domain.BlockedImage   `json:"blocked_images,omitempty"`
}

// Profiles resolves WhatsApp phone numbers to marketplace accounts.
type Profiles interface {
	ProfileByPhone(ctx context.Context, phone string) (*supabase.Profile, error)
}

// ListingStore mutates and lists published listings.
type ListingStore interface {
	UpdateListing(ctx context.Context, listingID, userID string, f supabase.UpdateFields) error
	DeleteListing(ctx context.Context, listingID, userID string) error
	ListUserListings(ctx context.Context, userID string, limit int) ([]domain.ListingSummary, error)
}

// MediaGate screens incoming images.
type MediaGate interface {
	Screen(ctx context.Context, userID string, keys []string, incoming []string) (*vision.GateResult, error)
}

// IntentRouter classifies a message.
type IntentRouter interface {
	Route(ctx context.Context, text string) (string, error)
}

// FieldExtractor pulls structured listing fields from a message.
type FieldExtractor interface {
	Extract(ctx context.Context, text string, current *domain.Draft) (*llm.DraftUpdate, error)
}

// BalanceService answers wallet queries.
type BalanceService interface {
	BalanceMessage(ctx context.Context, userID string) (string, error)
}

// Orchestrator runs the full message pipeline: identity, media gate, intent,
// dispatch. One message per user at a time; a second message for the same
// user waits so draft merges never interleave.
type Orchestrator struct {
	Profiles  Profiles
	Gate      MediaGate
	Router    IntentRouter
	Extractor FieldExtractor
	Drafts    *draft.Service
	Search    *search.Composer
	Wallet    BalanceService
	Listings  ListingStore
	Sessions  *session.Sessions
	Cache     *searchcache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (o *Orchestrator) userLock(key string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.locks == nil {
		o.locks = map[string]*sync.Mutex{}
	}
	if _, ok := o.locks[key]; !ok {
		o.locks[key] = &sync.Mutex{}
	}
	return o.locks[key]
}

// Handle processes one message end to end.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (*Response, error) {
	lockKey := req.UserID
	if lockKey == "" {
		lockKey = req.Phone
	}
	if lockKey == "" {
		lockKey = session.AnonymousKey
	}
	lock := o.userLock(lockKey)
	lock.Lock()
	defer lock.Unlock()

	userID := req.UserID
	if userID == "" && req.Phone != "" && o.Profiles != nil {
		profile, err := o.Profiles.ProfileByPhone(ctx, req.Phone)
		if err != nil {
			log.Warn().Err(err).Msg("profile lookup failed, continuing unauthenticated")
		} else if profile != nil {
			userID = profile.ID
		}
	}
	keys := session.Keys(userID, req.Phone)
	text := strings.TrimSpace(req.Text)

	// Media gate runs before anything else: no image reaches a draft
	// unscreened.
	var gateRes *vision.GateResult
	if len(req.MediaPaths) > 0 {
		var err error
		gateRes, err = o.Gate.Screen(ctx, userID, keys, req.MediaPaths)
		if err != nil {
			return nil, fmt.Errorf("media gate: %w", err)
		}
		// Every submitted image blocked: terminal rejection. The request does
		// not reach the draft flow even when text came along.
		if gateRes.AllBlocked {
			return &Response{
				Intent:  llm.IntentCreateListing,
				Message: blockedMessage(gateRes),
				Blocked: gateRes.Blocked,
			}, nil
		}
	}

	intent := o.classify(ctx, text, gateRes != nil && len(gateRes.Accepted) > 0)

	// Draft-active override: while a draft is open, every message that is not
	// an explicit publish or cancel is draft input. A misrouted "eski
	// buzdolabı" must not delete a listing or leave the draft behind.
	var activeDraft *domain.Draft
	if userID != "" {
		activeDraft, _ = o.Drafts.Get(ctx, userID)
	}
	if activeDraft != nil && intent != llm.IntentPublishListing && intent != llm.IntentCancel {
		intent = llm.IntentUpdateListingDraft
	}

	var resp *Response
	var err error
	switch intent {
	case llm.IntentCreateListing, llm.IntentUpdateListingDraft:
		resp, err = o.handleDraft(ctx, userID, keys, text, gateRes)
	case llm.IntentPublishListing:
		resp, err = o.handlePublish(ctx, userID, keys)
	case llm.IntentCancel:
		resp, err = o.handleCancel(ctx, userID, keys)
	case llm.IntentSearchProduct:
		resp, err = o.handleSearch(ctx, keys, text)
	case llm.IntentMyListings:
		resp, err = o.handleMyListings(ctx, userID, keys)
	case llm.IntentUpdateListing:
		resp, err = o.handleUpdateListing(ctx, userID, keys, text)
	case llm.IntentDeleteListing:
		resp, err = o.handleDeleteListing(ctx, userID, keys, text)
	case llm.IntentWalletQuery:
		resp, err = o.handleWallet(ctx, userID)
	default:
		resp = &Response{Intent: llm.IntentSmallTalk, Message: msgGreeting}
	}
	if err != nil {
		return nil, err
	}

	if gateRes != nil {
		if note := gateNotice(gateRes); note != "" {
			resp.Message = note + "\n\n" + resp.Message
		}
		resp.Blocked = gateRes.Blocked
	}
	return resp, nil
}

func (o *Orchestrator) classify(ctx context.Context, text string, hasMedia bool) string {
	if o.Router != nil && text != "" {
		if intent, err := o.Router.Route(ctx, text); err == nil {
			return intent
		} else {
			log.Warn().Err(err).Msg("intent router failed, falling back to keywords")
		}
	}
	return llm.KeywordIntent(text, hasMedia)
}

func (o *Orchestrator) handleDraft(ctx context.Context, userID string, keys []string, text string, gateRes *vision.GateResult) (*Response, error) {
	if userID == "" {
		return &Response{Intent: llm.IntentCreateListing, Message: msgNeedAccount}, nil
	}

	d, err := o.Drafts.StartOrGet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if draft.WantsGeneratedDescription(text) {
		d.Description = ""
	}

	var update *llm.DraftUpdate
	if text != "" && o.Extractor != nil {
		update, err = o.Extractor.Extract(ctx, text, d)
		if err != nil {
			// Rejected extractor output never advances the draft.
			log.Warn().Err(err).Str("draft_id", d.ID).Msg("extractor output discarded")
			update = nil
		}
	}

	var images []string
	var product *domain.VisionProduct
	if gateRes != nil {
		images = gateRes.Accepted
		product = gateRes.Product
	}

	if (update == nil || update.Empty()) && len(images) == 0 && product == nil && !draft.WantsGeneratedDescription(text) {
		return &Response{
			Intent:  llm.IntentUpdateListingDraft,
			Message: "Sizi tam anlayamadım. Ürün adı, fiyat veya açıklama yazabilirsiniz.\n\n" + draft.RenderPreview(d),
			Draft:   d,
		}, nil
	}

	d, err = o.Drafts.ApplyUpdate(ctx, d, update, images, product)
	if err != nil {
		return nil, err
	}
	return &Response{
		Intent:  llm.IntentUpdateListingDraft,
		Message: draft.RenderPreview(d),
		Draft:   d,
	}, nil
}

func (o *Orchestrator) handlePublish(ctx context.Context, userID string, keys []string) (*Response, error) {
	if userID == "" {
		return &Response{Intent: llm.IntentPublishListing, Message: msgNeedAccount}, nil
	}
	d, err := o.Drafts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return &Response{Intent: llm.IntentPublishListing, Message: "Yayınlanacak bir taslağınız yok. Ürün bilgisi göndererek başlayabilirsiniz."}, nil
	}

	// Pull in any screened images that arrived outside the draft flow.
	if safe, ok := o.Sessions.SafeMedia(ctx, keys); ok {
		d.Images = session.MergePaths(d.Images, safe)
	}

	listingID, err := o.Drafts.Publish(ctx, d)
	if errors.Is(err, draft.ErrMissingTitle) {
		return &Response{
			Intent:  llm.IntentPublishListing,
			Message: "İlanı yayınlamak için önce ürün adı gerekiyor. Ne satıyorsunuz?",
			Draft:   d,
		}, nil
	}
	if err != nil {
		return &Response{
			Intent:  llm.IntentPublishListing,
			Message: "😔 İlan yayınlanırken bir sorun oluştu, taslağınız duruyor. Birazdan tekrar \"onayla\" yazabilirsiniz.",
			Draft:   d,
		}, nil
	}

	o.Sessions.ClearSafeMedia(ctx, keys)
	o.Sessions.ClearActiveListing(ctx, keys)
	return &Response{
		Intent:  llm.IntentPublishListing,
		Message: fmt.Sprintf("🎉 İlanınız yayında!\n\n📦 %s\n🆔 %s", d.Title, listingID),
	}, nil
}

func (o *Orchestrator) handleCancel(ctx context.Context, userID string, keys []string) (*Response, error) {
	if userID != "" {
		if err := o.Drafts.Cancel(ctx, userID); err != nil {
			return nil, err
		}
	}
	o.Sessions.ClearSafeMedia(ctx, keys)
	o.Sessions.ClearActiveListing(ctx, keys)
	return &Response{Intent: llm.IntentCancel, Message: "❌ İşlem iptal edildi. Yeni bir ilana istediğiniz zaman başlayabilirsiniz."}, nil
}

func (o *Orchestrator) handleSearch(ctx context.Context, keys []string, text string) (*Response, error) {
	// "3 nolu ilanı göster" resolves against the last result list instead of
	// running a new search.
	if ordinal, ok := searchcache.ExtractOrdinal(text); ok {
		entry, err := o.Cache.Resolve(ctx, keys, ordinal)
		if err == nil {
			o.Sessions.SetActiveListing(ctx, keys, entry.ID)
			return &Response{
				Intent:  llm.IntentSearchProduct,
				Message: search.FormatDetail(entry),
				Results: []domain.ListingSummary{*entry},
			}, nil
		}
		if errors.Is(err, searchcache.ErrOutOfRange) {
			return &Response{Intent: llm.IntentSearchProduct, Message: fmt.Sprintf("Son aramada %d numaralı ilan yok.", ordinal)}, nil
		}
	}

	res, err := o.Search.Run(ctx, keys, text)
	if err != nil {
		return nil, err
	}
	return &Response{Intent: llm.IntentSearchProduct, Message: res.Message, Results: res.Results}, nil
}

func (o *Orchestrator) handleMyListings(ctx context.Context, userID string, keys []string) (*Response, error) {
	if userID == "" {
		return &Response{Intent: llm.IntentMyListings, Message: msgNeedAccount}, nil
	}
	results, err := o.Listings.ListUserListings(ctx, userID, searchcache.MaxEntries)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Response{
			Intent:  llm.IntentMyListings,
			Message: "📭 Henüz yayında bir ilanınız yok. Ürün satmak için fotoğraf ve açıklama gönderebilirsiniz.",
		}, nil
	}

	// Own listings land in the result cache too, so "2 nolu ilanı sil" works
	// right after.
	if err := o.Cache.Store(ctx, keys, results); err != nil {
		log.Error().Err(err).Msg("my-listings cache write failed")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Yayında %d ilanınız var:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "%d) %s", i+1, r.Title)
		if r.Price != nil {
			fmt.Fprintf(&b, " - %d TL", *r.Price)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n\"2 nolu ilanı sil\" gibi yazarak işlem yapabilirsiniz.")
	return &Response{Intent: llm.IntentMyListings, Message: b.String(), Results: results}, nil
}

// resolveTarget finds which published listing the user means: an ordinal
// against the last search, else the active-listing pointer.
func (o *Orchestrator) resolveTarget(ctx context.Context, keys []string, text string) (string, string) {
	if ordinal, ok := searchcache.ExtractOrdinal(text); ok {
		entry, err := o.Cache.Resolve(ctx, keys, ordinal)
		if err != nil {
			if errors.Is(err, searchcache.ErrOutOfRange) {
				return "", fmt.Sprintf("Son aramada %d numaralı ilan yok.", ordinal)
			}
			return "", msgWhichListing
		}
		return entry.ID, ""
	}
	if id, ok := o.Sessions.ActiveListing(ctx, keys); ok {
		return id, ""
	}
	return "", msgWhichListing
}

func (o *Orchestrator) handleUpdateListing(ctx context.Context, userID string, keys []string, text string) (*Response, error) {
	if userID == "" {
		return &Response{Intent: llm.IntentUpdateListing, Message: msgNeedAccount}, nil
	}
	targetID, failMsg := o.resolveTarget(ctx, keys, text)
	if targetID == "" {
		return &Response{Intent: llm.IntentUpdateListing, Message: failMsg}, nil
	}

	fields, changed := o.extractListingFields(ctx, text)
	if !changed {
		o.Sessions.SetActiveListing(ctx, keys, targetID)
		return &Response{
			Intent:  llm.IntentUpdateListing,
			Message: "Bu ilanda neyi değiştirmek istersiniz? Örneğin: \"fiyatı 27000 yap\"",
		}, nil
	}

	if err := o.Listings.UpdateListing(ctx, targetID, userID, fields); err != nil {
		if errors.Is(err, supabase.ErrNotOwned) {
			return &Response{Intent: llm.IntentUpdateListing, Message: msgNotActionable}, nil
		}
		return nil, err
	}
	o.Sessions.SetActiveListing(ctx, keys, targetID)
	return &Response{Intent: llm.IntentUpdateListing, Message: "✅ İlanınız güncellendi."}, nil
}

func (o *Orchestrator) handleDeleteListing(ctx context.Context, userID string, keys []string, text string) (*Response, error) {
	if userID == "" {
		return &Response{Intent: llm.IntentDeleteListing, Message: msgNeedAccount}, nil
	}
	targetID, failMsg := o.resolveTarget(ctx, keys, text)
	if targetID == "" {
		return &Response{Intent: llm.IntentDeleteListing, Message: failMsg}, nil
	}

	if err := o.Listings.DeleteListing(ctx, targetID, userID); err != nil {
		if errors.Is(err, supabase.ErrNotOwned) {
			return &Response{Intent: llm.IntentDeleteListing, Message: msgNotActionable}, nil
		}
		return nil, err
	}
	o.Sessions.ClearActiveListing(ctx, keys)
	return &Response{Intent: llm.IntentDeleteListing, Message: "🗑️ İlanınız silindi."}, nil
}

func (o *Orchestrator) handleWallet(ctx context.Context, userID string) (*Response, error) {
	if userID == "" {
		return &Response{Intent: llm.IntentWalletQuery, Message: msgNeedAccount}, nil
	}
	msg, err := o.Wallet.BalanceMessage(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Response{Intent: llm.IntentWalletQuery, Message: msg}, nil
}

// extractListingFields maps an extractor pass onto a published-listing patch.
func (o *Orchestrator) extractListingFields(ctx context.Context, text string) (supabase.UpdateFields, bool) {
	var fields supabase.UpdateFields
	if o.Extractor == nil || text == "" {
		return fields, false
	}
	u, err := o.Extractor.Extract(ctx, text, nil)
	if err != nil {
		log.Warn().Err(err).Msg("listing update extraction discarded")
		return fields, false
	}

	changed := false
	if u.Title != nil && strings.TrimSpace(*u.Title) != "" {
		fields.Title = u.Title
		changed = true
	}
	if u.Description != nil && strings.TrimSpace(*u.Description) != "" {
		fields.Description = u.Description
		changed = true
	}
	if u.Price != nil {
		if p := normalize.Price(*u.Price); p != nil {
			fields.Price = p
			changed = true
		}
	}
	if u.Condition != nil && *u.Condition != "" {
		c := normalize.Condition(*u.Condition)
		fields.Condition = &c
		changed = true
	}
	if u.Location != nil && strings.TrimSpace(*u.Location) != "" {
		fields.Location = u.Location
		changed = true
	}
	if u.Stock != nil && *u.Stock > 0 {
		fields.Stock = u.Stock
		changed = true
	}
	return fields, changed
}

func blockedMessage(res *vision.GateResult) string {
	var b strings.Builder
	b.WriteString("⚠️ Gönderdiğiniz görseller ilan için uygun bulunmadı:\n")
	for _, blk := range res.Blocked {
		reason := blk.Reason
		if reason == "" {
			reason = "güvenlik kontrolünden geçemedi"
		}
		b.WriteString("• " + reason + "\n")
	}
	b.WriteString("\nFarklı fotoğraflarla tekrar deneyebilirsiniz.")
	return b.String()
}

func gateNotice(res *vision.GateResult) string {
	var parts []string
	if len(res.Blocked) > 0 {
		parts = append(parts, fmt.Sprintf("⚠️ %d görsel güvenlik kontrolünden geçemediği için eklenmedi.", len(res.Blocked)))
	}
	if len(res.Skipped) > 0 {
		parts = append(parts, fmt.Sprintf("ℹ️ İlan başına en fazla %d fotoğraf eklenebilir, %d fotoğraf atlandı.", vision.MaxImages, len(res.Skipped)))
	}
	return strings.Join(parts, "\n")
}
