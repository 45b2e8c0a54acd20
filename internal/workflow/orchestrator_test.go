package workflow

import (
	"context"
	"testing"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/draft"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/llm"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/search"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/searchcache"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/session"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/supabase"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/vision"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDrafts struct {
	drafts map[string]*domain.Draft
}

func (m *memDrafts) GetDraft(ctx context.Context, userID string) (*domain.Draft, error) {
	if d, ok := m.drafts[userID]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (m *memDrafts) UpsertDraft(ctx context.Context, d *domain.Draft) error {
	cp := *d
	m.drafts[d.UserID] = &cp
	return nil
}

func (m *memDrafts) DeleteDraft(ctx context.Context, userID string) error {
	delete(m.drafts, userID)
	return nil
}

type fakeWriter struct {
	published []supabase.InsertListingInput
	updates   map[string]supabase.UpdateFields
	deleted   []string
	mine      []domain.ListingSummary
	notOwned  bool
}

func (f *fakeWriter) InsertListing(ctx context.Context, in supabase.InsertListingInput) (string, error) {
	f.published = append(f.published, in)
	return in.ListingID, nil
}

func (f *fakeWriter) UpdateListing(ctx context.Context, listingID, userID string, fields supabase.UpdateFields) error {
	if f.notOwned {
		return supabase.ErrNotOwned
	}
	if f.updates == nil {
		f.updates = map[string]supabase.UpdateFields{}
	}
	f.updates[listingID] = fields
	return nil
}

func (f *fakeWriter) DeleteListing(ctx context.Context, listingID, userID string) error {
	if f.notOwned {
		return supabase.ErrNotOwned
	}
	f.deleted = append(f.deleted, listingID)
	return nil
}

func (f *fakeWriter) ListUserListings(ctx context.Context, userID string, limit int) ([]domain.ListingSummary, error) {
	return f.mine, nil
}

type fakeRouter struct{ intent string }

func (f *fakeRouter) Route(ctx context.Context, text string) (string, error) {
	return f.intent, nil
}

type fakeExtractor struct{ update *llm.DraftUpdate }

func (f *fakeExtractor) Extract(ctx context.Context, text string, current *domain.Draft) (*llm.DraftUpdate, error) {
	if f.update != nil {
		return f.update, nil
	}
	return &llm.DraftUpdate{}, nil
}

type fakeGate struct{ res *vision.GateResult }

func (f *fakeGate) Screen(ctx context.Context, userID string, keys []string, incoming []string) (*vision.GateResult, error) {
	return f.res, nil
}

type fakeBalance struct{ msg string }

func (f *fakeBalance) BalanceMessage(ctx context.Context, userID string) (string, error) {
	return f.msg, nil
}

type fakeProfiles struct{ profile *supabase.Profile }

func (f *fakeProfiles) ProfileByPhone(ctx context.Context, phone string) (*supabase.Profile, error) {
	return f.profile, nil
}

type stubSearcher struct{ results []domain.ListingSummary }

func (s *stubSearcher) SearchListings(ctx context.Context, p supabase.SearchParams) (*supabase.SearchResult, error) {
	return &supabase.SearchResult{Results: s.results}, nil
}

type harness struct {
	orch   *Orchestrator
	drafts *memDrafts
	writer *fakeWriter
	router *fakeRouter
	sess   *session.Sessions
}

func newHarness(t *testing.T) *harness {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	sess := &session.Sessions{Store: &session.RedisStore{Rdb: rdb}}
	cache := &searchcache.Cache{Sessions: sess}
	drafts := &memDrafts{drafts: map[string]*domain.Draft{}}
	writer := &fakeWriter{}
	router := &fakeRouter{intent: llm.IntentSmallTalk}

	orch := &Orchestrator{
		Profiles:  &fakeProfiles{},
		Gate:      &fakeGate{res: &vision.GateResult{}},
		Router:    router,
		Extractor: &fakeExtractor{},
		Drafts:    &draft.Service{Store: drafts, Publisher: writer},
		Search:    &search.Composer{Listings: &stubSearcher{}, Cache: cache},
		Wallet:    &fakeBalance{msg: "💳 Bakiyeniz: 100 TL"},
		Listings:  writer,
		Sessions:  sess,
		Cache:     cache,
	}
	return &harness{orch: orch, drafts: drafts, writer: writer, router: router, sess: sess}
}

func strPtr(s string) *string { return &s }

func TestHandle_DraftActiveOverridesSearchIntent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.drafts.drafts["u1"] = &domain.Draft{ID: "d1", UserID: "u1", State: domain.StatePreview, Title: "iPhone 13", Stock: 1}
	h.router.intent = llm.IntentSearchProduct
	h.orch.Extractor = &fakeExtractor{update: &llm.DraftUpdate{Price: strPtr("54 bin")}}

	resp, err := h.orch.Handle(ctx, Request{UserID: "u1", Text: "54 bin olsun"})
	require.NoError(t, err)

	assert.Equal(t, llm.IntentUpdateListingDraft, resp.Intent)
	require.NotNil(t, resp.Draft)
	require.NotNil(t, resp.Draft.Price)
	assert.Equal(t, 54000, *resp.Draft.Price)
	assert.Contains(t, resp.Message, "İlan Önizleme")
}

func TestHandle_DraftActiveOverridesEveryNonExitIntent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, intent := range []string{
		llm.IntentWalletQuery,
		llm.IntentDeleteListing,
		llm.IntentUpdateListing,
		llm.IntentSearchProduct,
		llm.IntentSmallTalk,
	} {
		h.drafts.drafts["u1"] = &domain.Draft{ID: "d1", UserID: "u1", State: domain.StatePreview, Title: "Buzdolabı", Stock: 1}
		h.router.intent = intent
		h.orch.Extractor = &fakeExtractor{update: &llm.DraftUpdate{Description: strPtr("eski ama çalışıyor")}}

		resp, err := h.orch.Handle(ctx, Request{UserID: "u1", Text: "eski buzdolabı"})
		require.NoError(t, err)
		assert.Equal(t, llm.IntentUpdateListingDraft, resp.Intent, "intent %s", intent)
		require.NotNil(t, resp.Draft, "intent %s", intent)
	}
	// None of the misrouted messages touched published listings.
	assert.Empty(t, h.writer.deleted)
	assert.Empty(t, h.writer.updates)
}

func TestHandle_DraftActiveStillAllowsPublishAndCancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.drafts.drafts["u1"] = &domain.Draft{ID: "d1", UserID: "u1", State: domain.StatePreview, Title: "Buzdolabı", Stock: 1}
	h.router.intent = llm.IntentCancel
	resp, err := h.orch.Handle(ctx, Request{UserID: "u1", Text: "iptal"})
	require.NoError(t, err)
	assert.Equal(t, llm.IntentCancel, resp.Intent)
	assert.Empty(t, h.drafts.drafts)

	h.drafts.drafts["u1"] = &domain.Draft{ID: "d2", UserID: "u1", State: domain.StatePreview, Title: "Buzdolabı", Stock: 1}
	h.router.intent = llm.IntentPublishListing
	resp, err = h.orch.Handle(ctx, Request{UserID: "u1", Text: "onayla"})
	require.NoError(t, err)
	assert.Equal(t, llm.IntentPublishListing, resp.Intent)
	require.Len(t, h.writer.published, 1)
}

func TestHandle_OrdinalUpdateThenPointerUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	keys := session.Keys("u1", "")

	require.NoError(t, h.orch.Cache.Store(ctx, keys, []domain.ListingSummary{
		{ID: "l-1", Title: "Araba"},
		{ID: "l-2", Title: "iPhone"},
	}))

	h.router.intent = llm.IntentUpdateListing
	h.orch.Extractor = &fakeExtractor{update: &llm.DraftUpdate{Price: strPtr("27000")}}

	resp, err := h.orch.Handle(ctx, Request{UserID: "u1", Text: "2 nolu ilanın fiyatını 27000 yap"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "güncellendi")
	require.Contains(t, h.writer.updates, "l-2")
	assert.Equal(t, 27000, *h.writer.updates["l-2"].Price)

	// Follow-up without an ordinal targets the same listing via the pointer.
	h.orch.Extractor = &fakeExtractor{update: &llm.DraftUpdate{Price: strPtr("25000")}}
	resp, err = h.orch.Handle(ctx, Request{UserID: "u1", Text: "fiyatı 25000 yap"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "güncellendi")
	assert.Equal(t, 25000, *h.writer.updates["l-2"].Price)
}

func TestHandle_UpdateNotOwnedIsVague(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	keys := session.Keys("u1", "")

	require.NoError(t, h.orch.Cache.Store(ctx, keys, []domain.ListingSummary{{ID: "l-1", Title: "Araba"}}))
	h.router.intent = llm.IntentUpdateListing
	h.writer.notOwned = true
	h.orch.Extractor = &fakeExtractor{update: &llm.DraftUpdate{Price: strPtr("5000")}}

	resp, err := h.orch.Handle(ctx, Request{UserID: "u1", Text: "1 nolu ilanın fiyatını 5000 yap"})
	require.NoError(t, err)
	assert.Equal(t, msgNotActionable, resp.Message)
	assert.NotContains(t, resp.Message, "sahibi")
}

func TestHandle_DeleteClearsPointer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	keys := session.Keys("u1", "")

	require.NoError(t, h.orch.Cache.Store(ctx, keys, []domain.ListingSummary{{ID: "l-1", Title: "Araba"}}))
	h.router.intent = llm.IntentDeleteListing

	resp, err := h.orch.Handle(ctx, Request{UserID: "u1", Text: "1 nolu ilanı sil"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "silindi")
	assert.Equal(t, []string{"l-1"}, h.writer.deleted)

	_, ok := h.sess.ActiveListing(ctx, keys)
	assert.False(t, ok)
}

func TestHandle_AllBlockedMediaStopsFlow(t *testing.T) {
	h := newHarness(t)
	h.orch.Gate = &fakeGate{res: &vision.GateResult{
		AllBlocked: true,
		Blocked:    []domain.BlockedImage{{Path: "x.jpg", Reason: "silah içeriyor", FlagType: domain.FlagWeapon}},
	}}

	resp, err := h.orch.Handle(context.Background(), Request{UserID: "u1", MediaPaths: []string{"x.jpg"}})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "uygun bulunmadı")
	assert.Contains(t, resp.Message, "silah içeriyor")
	require.Len(t, resp.Blocked, 1)

	// Nothing reached the draft layer.
	assert.Empty(t, h.drafts.drafts)
}

func TestHandle_AllBlockedMediaStopsFlowDespiteText(t *testing.T) {
	h := newHarness(t)
	h.orch.Gate = &fakeGate{res: &vision.GateResult{
		AllBlocked: true,
		Blocked:    []domain.BlockedImage{{Path: "x.jpg", Reason: "silah içeriyor", FlagType: domain.FlagWeapon}},
	}}
	h.router.intent = llm.IntentCreateListing

	resp, err := h.orch.Handle(context.Background(), Request{UserID: "u1", Text: "iphone satıyorum", MediaPaths: []string{"x.jpg"}})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "uygun bulunmadı")
	require.Len(t, resp.Blocked, 1)

	// The text alone must not open a draft when every image was rejected.
	assert.Empty(t, h.drafts.drafts)
}

func TestHandle_MyListingsListsAndCachesForOrdinals(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	price := 25000
	h.writer.mine = []domain.ListingSummary{
		{ID: "l-1", Title: "Araba"},
		{ID: "l-2", Title: "iPhone 13", Price: &price},
	}
	h.router.intent = llm.IntentMyListings

	resp, err := h.orch.Handle(ctx, Request{UserID: "u1", Text: "ilanlarımı göster"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "2 ilanınız")
	assert.Contains(t, resp.Message, "1) Araba")
	assert.Contains(t, resp.Message, "2) iPhone 13 - 25000 TL")
	require.Len(t, resp.Results, 2)

	// The listed items are ordinal-addressable like search results.
	h.router.intent = llm.IntentDeleteListing
	resp, err = h.orch.Handle(ctx, Request{UserID: "u1", Text: "2 nolu ilanı sil"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "silindi")
	assert.Equal(t, []string{"l-2"}, h.writer.deleted)
}

func TestHandle_MyListingsEmpty(t *testing.T) {
	h := newHarness(t)
	h.router.intent = llm.IntentMyListings

	resp, err := h.orch.Handle(context.Background(), Request{UserID: "u1", Text: "ilanlarım"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "Henüz yayında bir ilanınız yok")
}

func TestHandle_PublishMergesSafeMedia(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	keys := session.Keys("u1", "")

	h.drafts.drafts["u1"] = &domain.Draft{
		ID: "d1", UserID: "u1", State: domain.StatePreview,
		Title: "iPhone 13", Images: []string{"a.jpg"}, Stock: 1,
	}
	require.NoError(t, h.sess.AppendSafeMedia(ctx, keys, []string{"a.jpg", "b.jpg"}))
	h.router.intent = llm.IntentPublishListing

	resp, err := h.orch.Handle(ctx, Request{UserID: "u1", Text: "onayla"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "yayında")

	require.Len(t, h.writer.published, 1)
	assert.Equal(t, "d1", h.writer.published[0].ListingID)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, h.writer.published[0].Images)

	_, ok := h.sess.SafeMedia(ctx, keys)
	assert.False(t, ok)
	assert.Empty(t, h.drafts.drafts)
}

func TestHandle_AnonymousCreateNeedsAccount(t *testing.T) {
	h := newHarness(t)
	h.router.intent = llm.IntentCreateListing

	resp, err := h.orch.Handle(context.Background(), Request{Text: "telefon satmak istiyorum"})
	require.NoError(t, err)
	assert.Equal(t, msgNeedAccount, resp.Message)
}

func TestHandle_PhoneResolvesProfile(t *testing.T) {
	h := newHarness(t)
	h.orch.Profiles = &fakeProfiles{profile: &supabase.Profile{ID: "u9", Phone: "+905551"}}
	h.router.intent = llm.IntentWalletQuery

	resp, err := h.orch.Handle(context.Background(), Request{Phone: "+905551", Text: "bakiyem ne kadar"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "Bakiyeniz")
}

func TestHandle_OrdinalDetailFromCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	keys := session.Keys("u1", "")

	price := 25000
	require.NoError(t, h.orch.Cache.Store(ctx, keys, []domain.ListingSummary{
		{ID: "l-1", Title: "Araba"},
		{ID: "l-2", Title: "iPhone 13", Price: &price, Location: "İstanbul"},
	}))
	h.router.intent = llm.IntentSearchProduct

	resp, err := h.orch.Handle(ctx, Request{UserID: "u1", Text: "2 nolu ilanı göster"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "iPhone 13")
	assert.Contains(t, resp.Message, "25000 TL")

	id, ok := h.sess.ActiveListing(ctx, keys)
	require.True(t, ok)
	assert.Equal(t, "l-2", id)
}

func TestHandle_OrdinalOutOfRange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	keys := session.Keys("u1", "")

	require.NoError(t, h.orch.Cache.Store(ctx, keys, []domain.ListingSummary{{ID: "l-1", Title: "Araba"}}))
	h.router.intent = llm.IntentSearchProduct

	resp, err := h.orch.Handle(ctx, Request{UserID: "u1", Text: "5 nolu ilanı göster"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "5 numaralı ilan yok")
}

func TestHandle_CancelClearsEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	keys := session.Keys("u1", "")

	h.drafts.drafts["u1"] = &domain.Draft{ID: "d1", UserID: "u1", State: domain.StatePreview, Title: "x"}
	require.NoError(t, h.sess.AppendSafeMedia(ctx, keys, []string{"a.jpg"}))
	h.router.intent = llm.IntentCancel

	resp, err := h.orch.Handle(ctx, Request{UserID: "u1", Text: "iptal"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "iptal edildi")
	assert.Empty(t, h.drafts.drafts)
	_, ok := h.sess.SafeMedia(ctx, keys)
	assert.False(t, ok)
}
