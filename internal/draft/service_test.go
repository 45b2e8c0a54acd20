package draft

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/llm"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/supabase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	drafts map[string]*domain.Draft
}

func newMemStore() *memStore {
	return &memStore{drafts: map[string]*domain.Draft{}}
}

func (m *memStore) GetDraft(ctx context.Context, userID string) (*domain.Draft, error) {
	if d, ok := m.drafts[userID]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) UpsertDraft(ctx context.Context, d *domain.Draft) error {
	cp := *d
	m.drafts[d.UserID] = &cp
	return nil
}

func (m *memStore) DeleteDraft(ctx context.Context, userID string) error {
	delete(m.drafts, userID)
	return nil
}

type fakePublisher struct {
	got  *supabase.InsertListingInput
	fail error
}

func (f *fakePublisher) InsertListing(ctx context.Context, in supabase.InsertListingInput) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	f.got = &in
	return in.ListingID, nil
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestApplyUpdate_FirstFill(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store, Publisher: &fakePublisher{}}
	ctx := context.Background()

	d, err := svc.StartOrGet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateDraft, d.State)
	assert.Equal(t, 1, d.Stock)
	require.NotEmpty(t, d.ID)

	u := &llm.DraftUpdate{
		Title: strPtr("iPhone 13"),
		Price: strPtr("54 bin TL"),
	}
	d, err = svc.ApplyUpdate(ctx, d, u, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatePreview, d.State)
	assert.Equal(t, "iPhone 13", d.Title)
	require.NotNil(t, d.Price)
	assert.Equal(t, 54000, *d.Price)
	assert.Equal(t, "Elektronik", d.Category)
	assert.Equal(t, "electronics", d.Metadata["type"])
	assert.NotEmpty(t, d.Description)

	stored, err := store.GetDraft(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, d.ID, stored.ID)
}

func TestApplyUpdate_MergeIsMonotonic(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store, Publisher: &fakePublisher{}}
	ctx := context.Background()

	d, _ := svc.StartOrGet(ctx, "u1")
	d, err := svc.ApplyUpdate(ctx, d, &llm.DraftUpdate{
		Title:    strPtr("iPhone 13"),
		Price:    strPtr("54000"),
		Location: strPtr("İstanbul"),
	}, nil, nil)
	require.NoError(t, err)

	// Second message mentions only the price; everything else must survive.
	d, err = svc.ApplyUpdate(ctx, d, &llm.DraftUpdate{Price: strPtr("52 bin")}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StateEdit, d.State)
	assert.Equal(t, "iPhone 13", d.Title)
	assert.Equal(t, "İstanbul", d.Location)
	assert.Equal(t, 52000, *d.Price)
}

func TestApplyUpdate_ImageDedup(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store, Publisher: &fakePublisher{}}
	ctx := context.Background()

	d, _ := svc.StartOrGet(ctx, "u1")
	d, err := svc.ApplyUpdate(ctx, d, nil, []string{"a.jpg", "b.jpg"}, nil)
	require.NoError(t, err)
	d, err = svc.ApplyUpdate(ctx, d, nil, []string{"b.jpg", "c.jpg"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, d.Images)
}

func TestApplyUpdate_VisionProductBackfillsOnly(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store, Publisher: &fakePublisher{}}
	ctx := context.Background()

	d, _ := svc.StartOrGet(ctx, "u1")
	d, err := svc.ApplyUpdate(ctx, d, &llm.DraftUpdate{Title: strPtr("Kırmızı bisiklet")}, nil,
		&domain.VisionProduct{Title: "Bisiklet", Category: "Spor & Outdoor", Condition: "az kullanılmış"})
	require.NoError(t, err)

	// User title wins; vision fills condition and category only where empty.
	assert.Equal(t, "Kırmızı bisiklet", d.Title)
	assert.Equal(t, "Spor & Outdoor", d.Category)
	assert.Equal(t, domain.ConditionUsed, d.Condition)
}

func TestApplyUpdate_StockAndMetadata(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store, Publisher: &fakePublisher{}}
	ctx := context.Background()

	d, _ := svc.StartOrGet(ctx, "u1")
	d, err := svc.ApplyUpdate(ctx, d, &llm.DraftUpdate{
		Title:    strPtr("Tofaş Şahin"),
		Category: strPtr("Otomotiv"),
		Stock:    intPtr(2),
		Metadata: map[string]interface{}{"yıl": "1995"},
	}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, d.Stock)
	assert.Equal(t, "1995", d.Metadata["yıl"])
	assert.Equal(t, "vehicle", d.Metadata["type"])
}

func TestPublish_RequiresTitle(t *testing.T) {
	svc := &Service{Store: newMemStore(), Publisher: &fakePublisher{}}
	_, err := svc.Publish(context.Background(), &domain.Draft{ID: "d1", UserID: "u1"})
	assert.ErrorIs(t, err, ErrMissingTitle)
}

func TestPublish_DefaultsAndCleanup(t *testing.T) {
	store := newMemStore()
	pub := &fakePublisher{}
	svc := &Service{Store: store, Publisher: pub}
	ctx := context.Background()

	d, _ := svc.StartOrGet(ctx, "u1")
	price := 25000
	d.Title = "iPhone 13"
	d.Price = &price

	id, err := svc.Publish(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, d.ID, id)

	require.NotNil(t, pub.got)
	assert.Equal(t, domain.ConditionUsed, pub.got.Condition)
	assert.Equal(t, "Türkiye", pub.got.Location)
	assert.Equal(t, 1, pub.got.Stock)

	left, err := store.GetDraft(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, left)
}

func TestPublish_FailureKeepsDraft(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store, Publisher: &fakePublisher{fail: errors.New("db down")}}
	ctx := context.Background()

	d, _ := svc.StartOrGet(ctx, "u1")
	d.Title = "iPhone 13"
	require.NoError(t, store.UpsertDraft(ctx, d))

	_, err := svc.Publish(ctx, d)
	require.Error(t, err)

	left, err := store.GetDraft(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, left)
	assert.Equal(t, d.ID, left.ID)
}

func TestRenderPreview_Deterministic(t *testing.T) {
	price := 25000
	d := &domain.Draft{
		Title:     "iPhone 13",
		Price:     &price,
		Category:  "Elektronik",
		Condition: domain.ConditionUsed,
		Location:  "İstanbul",
		Stock:     2,
		Images:    []string{"a.jpg", "b.jpg"},
		Metadata: map[string]interface{}{
			"type":  "electronics",
			"renk":  "mavi",
			"hafıza": "128GB",
		},
	}

	first := RenderPreview(d)
	assert.Equal(t, first, RenderPreview(d))

	assert.Contains(t, first, "💰 25000 TL")
	assert.Contains(t, first, "✨ Durum: İkinci el")
	assert.Contains(t, first, "🔢 Adet: 2")
	assert.Contains(t, first, "📷 2 fotoğraf")
	assert.Contains(t, first, "onayla")
	assert.Contains(t, first, "iptal")
	// Metadata keys render sorted; the plumbing "type" key stays hidden.
	assert.Less(t, strings.Index(first, "hafıza: 128GB"), strings.Index(first, "renk: mavi"))
	assert.NotContains(t, first, "type:")
}

func TestRenderPreview_MissingFields(t *testing.T) {
	out := RenderPreview(&domain.Draft{})
	assert.Contains(t, out, "(başlık eksik)")
	assert.Contains(t, out, "Fiyat belirtilmedi")
}

func TestWantsGeneratedDescription(t *testing.T) {
	assert.True(t, WantsGeneratedDescription("açıklamayı sen yaz"))
	assert.True(t, WantsGeneratedDescription("aciklama otomatik olsun"))
	assert.False(t, WantsGeneratedDescription("açıklama: temiz kullanılmış"))
	assert.False(t, WantsGeneratedDescription("sen yaz"))
}
