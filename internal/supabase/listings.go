package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"
)

// ErrNotOwned is returned when a mutation matched zero rows: the listing
// either does not exist or belongs to another user; callers do not get to
// tell the two apart.
var ErrNotOwned = errors.New("supabase: listing not found or not owned")

// InsertListingInput is the publish payload. ListingID pre-assigns the row id
// so storage paths already written under it stay consistent.
type InsertListingInput struct {
	ListingID   string
	UserID      string
	Title       string
	Price       *int
	Condition   string
	Category    string
	Description string
	Location    string
	Stock       int
	Metadata    map[string]interface{}
	Images      []string
}

// InsertListing creates an active listing row and returns its id.
func (c *Client) InsertListing(ctx context.Context, in InsertListingInput) (string, error) {
	payload := map[string]interface{}{
		"user_id":     in.UserID,
		"title":       in.Title,
		"price":       in.Price,
		"condition":   in.Condition,
		"category":    in.Category,
		"description": in.Description,
		"location":    in.Location,
		"stock":       in.Stock,
		"status":      "active",
		"metadata":    in.Metadata,
	}
	if in.ListingID != "" {
		payload["id"] = in.ListingID
	}
	if in.Images != nil {
		payload["images"] = in.Images
	}

	var rows []map[string]interface{}
	if err := c.rest(ctx, http.MethodPost, "listings", nil, payload, "return=representation", &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return in.ListingID, nil
	}
	if id, ok := rows[0]["id"].(string); ok {
		return id, nil
	}
	return in.ListingID, nil
}

// SearchParams are the PostgREST search filters.
type SearchParams struct {
	Query        string
	Category     string
	Condition    string
	Location     string
	MinPrice     *int
	MaxPrice     *int
	Limit        int
	MetadataType string
}

// SearchResult is a search response page.
type SearchResult struct {
	Total   int
	Results []domain.ListingSummary
}

// SearchListings queries active listings. A free-text query searches title,
// description, category and location; generic vehicle/housing words widen
// into category matches so "araba" finds Otomotiv rows without an exact
// title hit.
func (c *Client) SearchListings(ctx context.Context, p SearchParams) (*SearchResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}
	params := map[string]string{
		"limit":  strconv.Itoa(limit),
		"order":  "created_at.desc",
		"status": "eq.active",
		"select": "*,profiles(full_name,phone)",
	}

	if q := strings.TrimSpace(p.Query); q != "" {
		lowered := strings.ToLower(q)
		switch {
		case p.Category == "" && isVehicleWord(lowered):
			params["or"] = fmt.Sprintf("(title.ilike.*%s*,description.ilike.*%s*,category.ilike.*otom*)", q, q)
		case p.Category == "" && isHousingWord(lowered):
			params["or"] = fmt.Sprintf("(title.ilike.*%s*,description.ilike.*%s*,category.ilike.*emlak*,location.ilike.*%s*)", q, q, q)
		default:
			params["or"] = fmt.Sprintf("(title.ilike.*%s*,description.ilike.*%s*,category.ilike.*%s*,location.ilike.*%s*)", q, q, q, q)
		}
	}
	if p.Category != "" {
		params["category"] = "ilike.*" + p.Category + "*"
	}
	if p.Condition != "" {
		params["condition"] = "eq." + p.Condition
	}
	if p.Location != "" {
		params["location"] = "ilike.*" + p.Location + "*"
	}
	if p.MinPrice != nil {
		params["price"] = "gte." + strconv.Itoa(*p.MinPrice)
	}
	if p.MaxPrice != nil {
		if _, taken := params["price"]; taken {
			params["and"] = fmt.Sprintf("(price.gte.%d,price.lte.%d)", *p.MinPrice, *p.MaxPrice)
			delete(params, "price")
		} else {
			params["price"] = "lte." + strconv.Itoa(*p.MaxPrice)
		}
	}
	if p.MetadataType != "" {
		params["metadata->>type"] = "eq." + p.MetadataType
	}

	var rows []map[string]interface{}
	if err := c.rest(ctx, http.MethodGet, "listings", params, nil, "", &rows); err != nil {
		return nil, err
	}

	out := &SearchResult{Total: len(rows)}
	for _, row := range rows {
		if s := summaryFromRow(row); s != nil {
			out.Results = append(out.Results, *s)
		}
	}
	return out, nil
}

func isVehicleWord(q string) bool {
	switch q {
	case "araba", "otomobil", "araç", "arac", "oto":
		return true
	}
	return false
}

func isHousingWord(q string) bool {
	switch q {
	case "ev", "daire", "emlak", "kiralık", "kiralik", "satılık", "satilik":
		return true
	}
	return false
}

func summaryFromRow(row map[string]interface{}) *domain.ListingSummary {
	id, _ := row["id"].(string)
	title, _ := row["title"].(string)
	title = strings.TrimSpace(title)
	if id == "" || title == "" {
		return nil
	}
	s := &domain.ListingSummary{ID: id, Title: title}
	if f, ok := row["price"].(float64); ok {
		p := int(f)
		s.Price = &p
	}
	s.Category, _ = row["category"].(string)
	s.Location, _ = row["location"].(string)
	s.Condition, _ = row["condition"].(string)
	s.Description, _ = row["description"].(string)
	if imgs, ok := row["signed_images"].([]interface{}); ok {
		for _, v := range imgs {
			if u, ok := v.(string); ok {
				s.SignedImages = append(s.SignedImages, u)
			}
		}
	}
	if profile, ok := row["profiles"].(map[string]interface{}); ok {
		s.OwnerName, _ = profile["full_name"].(string)
		s.OwnerPhone, _ = profile["phone"].(string)
	}
	return s
}

// UpdateFields is a partial listing update; nil fields are left untouched.
type UpdateFields struct {
	Title       *string
	Price       *int
	Condition   *string
	Category    *string
	Description *string
	Location    *string
	Stock       *int
	Status      *string
	Metadata    map[string]interface{}
	Images      []string
}

// UpdateListing patches the listing, filtered by both id and owner so a
// non-owner match updates nothing and surfaces ErrNotOwned.
func (c *Client) UpdateListing(ctx context.Context, listingID, userID string, f UpdateFields) error {
	if userID == "" {
		return fmt.Errorf("supabase: user_id required for update")
	}
	payload := map[string]interface{}{}
	if f.Title != nil {
		payload["title"] = *f.Title
	}
	if f.Price != nil {
		payload["price"] = *f.Price
	}
	if f.Condition != nil {
		payload["condition"] = *f.Condition
	}
	if f.Category != nil {
		payload["category"] = *f.Category
	}
	if f.Description != nil {
		payload["description"] = *f.Description
	}
	if f.Location != nil {
		payload["location"] = *f.Location
	}
	if f.Stock != nil {
		payload["stock"] = *f.Stock
	}
	if f.Status != nil {
		payload["status"] = *f.Status
	}
	if f.Metadata != nil {
		payload["metadata"] = f.Metadata
	}
	if f.Images != nil {
		payload["images"] = f.Images
	}
	if len(payload) == 0 {
		return fmt.Errorf("supabase: no fields to update")
	}

	params := map[string]string{
		"id":      "eq." + listingID,
		"user_id": "eq." + userID,
	}
	var rows []map[string]interface{}
	if err := c.rest(ctx, http.MethodPatch, "listings", params, payload, "return=representation", &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotOwned
	}
	return nil
}

// DeleteListing removes the listing, filtered by id and owner.
func (c *Client) DeleteListing(ctx context.Context, listingID, userID string) error {
	if userID == "" {
		return fmt.Errorf("supabase: user_id required for delete")
	}
	params := map[string]string{
		"id":      "eq." + listingID,
		"user_id": "eq." + userID,
	}
	var rows []map[string]interface{}
	if err := c.rest(ctx, http.MethodDelete, "listings", params, nil, "return=representation", &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotOwned
	}
	return nil
}

// ListUserListings returns the user's own listings, newest first.
func (c *Client) ListUserListings(ctx context.Context, userID string, limit int) ([]domain.ListingSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	params := map[string]string{
		"user_id": "eq." + userID,
		"order":   "created_at.desc",
		"limit":   strconv.Itoa(limit),
	}
	var rows []map[string]interface{}
	if err := c.rest(ctx, http.MethodGet, "listings", params, nil, "", &rows); err != nil {
		return nil, err
	}
	var out []domain.ListingSummary
	for _, row := range rows {
		if s := summaryFromRow(row); s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}
