package draft

import (
	"context"
	"fmt"
	"strings"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/category"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/llm"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/normalize"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/session"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/supabase"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Store is the durable draft persistence surface.
type Store interface {
	GetDraft(ctx context.Context, userID string) (*domain.Draft, error)
	UpsertDraft(ctx context.Context, d *domain.Draft) error
	DeleteDraft(ctx context.Context, userID string) error
}

// Publisher inserts the finished listing row.
type Publisher interface {
	InsertListing(ctx context.Context, in supabase.InsertListingInput) (string, error)
}

// ErrMissingTitle blocks publish until the draft has at least a title.
var ErrMissingTitle = fmt.Errorf("draft: title required before publish")

// Service owns the draft lifecycle: collect fields across messages, render a
// deterministic preview, publish or cancel.
type Service struct {
	Store     Store
	Publisher Publisher
}

// Get loads the user's active draft, nil when none.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Draft, error) {
	return s.Store.GetDraft(ctx, userID)
}

// StartOrGet returns the existing draft or creates a fresh one. The new id is
// minted here so image storage paths and the eventual listing row share it.
func (s *Service) StartOrGet(ctx context.Context, userID string) (*domain.Draft, error) {
	d, err := s.Store.GetDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	if d != nil {
		return d, nil
	}
	d = &domain.Draft{
		ID:     uuid.NewString(),
		UserID: userID,
		State:  domain.StateDraft,
		Stock:  1,
	}
	if err := s.Store.UpsertDraft(ctx, d); err != nil {
		return nil, err
	}
	log.Info().Str("draft_id", d.ID).Str("user_id", userID).Msg("draft started")
	return d, nil
}

// ApplyUpdate merges extracted fields, new images and a vision product hint
// into the draft. Merge is last-non-null-wins: absent fields never clear
// collected data. The draft is persisted after every merge and moves to
// PREVIEW (first fill) or EDIT (subsequent changes).
func (s *Service) ApplyUpdate(ctx context.Context, d *domain.Draft, u *llm.DraftUpdate, images []string, product *domain.VisionProduct) (*domain.Draft, error) {
	if u != nil {
		if u.Title != nil && strings.TrimSpace(*u.Title) != "" {
			d.Title = strings.TrimSpace(*u.Title)
		}
		if u.Description != nil && strings.TrimSpace(*u.Description) != "" {
			d.Description = strings.TrimSpace(*u.Description)
		}
		if u.Price != nil {
			if p := normalize.Price(*u.Price); p != nil {
				d.Price = p
			}
		}
		if u.Category != nil && *u.Category != "" {
			if id := category.NormalizeID(*u.Category); id != "" {
				d.Category = id
			} else {
				d.Category = *u.Category
			}
		}
		if u.Condition != nil && *u.Condition != "" {
			d.Condition = normalize.Condition(*u.Condition)
		}
		if u.Location != nil && strings.TrimSpace(*u.Location) != "" {
			d.Location = strings.TrimSpace(*u.Location)
		}
		if u.Stock != nil && *u.Stock > 0 {
			d.Stock = *u.Stock
		}
	}

	if product != nil {
		d.VisionProduct = product
		if d.Title == "" && product.Title != "" {
			d.Title = product.Title
		}
		if d.Category == "" && product.Category != "" {
			if id := category.NormalizeID(product.Category); id != "" {
				d.Category = id
			}
		}
		if d.Condition == "" && product.Condition != "" {
			d.Condition = normalize.Condition(product.Condition)
		}
	}

	if len(images) > 0 {
		d.Images = session.MergePaths(d.Images, images)
	}
	if d.Stock <= 0 {
		d.Stock = 1
	}
	if d.Category == "" {
		d.Category = category.Classify(d.Title + " " + d.Description)
	}

	var explicit map[string]interface{}
	if u != nil {
		explicit = u.Metadata
	}
	d.Metadata = normalize.Metadata(d.Metadata, d.VisionProduct, explicit)
	category.AlignMetadataType(d.Metadata, d.Category)
	if d.Category == "" {
		if mt, ok := d.Metadata["type"].(string); ok {
			d.Category = category.FromMetadataType(mt, "")
		}
	}

	if d.Description == "" {
		d.Description = templateDescription(d)
	}

	switch d.State {
	case domain.StateDraft, "":
		d.State = domain.StatePreview
	default:
		d.State = domain.StateEdit
	}

	if err := s.Store.UpsertDraft(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Publish turns the draft into an active listing. The draft id becomes the
// listing id. On failure the draft is kept so the user can retry.
func (s *Service) Publish(ctx context.Context, d *domain.Draft) (string, error) {
	if strings.TrimSpace(d.Title) == "" {
		return "", ErrMissingTitle
	}
	condition := d.Condition
	if condition == "" {
		condition = domain.ConditionUsed
	}
	location := d.Location
	if location == "" {
		location = "Türkiye"
	}
	stock := d.Stock
	if stock <= 0 {
		stock = 1
	}

	listingID, err := s.Publisher.InsertListing(ctx, supabase.InsertListingInput{
		ListingID:   d.ID,
		UserID:      d.UserID,
		Title:       d.Title,
		Price:       d.Price,
		Condition:   condition,
		Category:    d.Category,
		Description: d.Description,
		Location:    location,
		Stock:       stock,
		Metadata:    d.Metadata,
		Images:      d.Images,
	})
	if err != nil {
		log.Error().Err(err).Str("draft_id", d.ID).Msg("publish failed, draft kept")
		return "", err
	}

	if err := s.Store.DeleteDraft(ctx, d.UserID); err != nil {
		log.Error().Err(err).Str("draft_id", d.ID).Msg("draft cleanup after publish failed")
	}
	log.Info().Str("listing_id", listingID).Str("user_id", d.UserID).Msg("listing published")
	return listingID, nil
}

// Cancel discards the draft.
func (s *Service) Cancel(ctx context.Context, userID string) error {
	return s.Store.DeleteDraft(ctx, userID)
}
