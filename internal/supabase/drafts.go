package supabase

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"
)

// Drafts live in active_drafts, one row per user (unique user_id), the draft
// body as jsonb. No TTL: a half-finished listing survives restarts and
// gaps of days.

// GetDraft loads the user's active draft, nil when none exists.
func (c *Client) GetDraft(ctx context.Context, userID string) (*domain.Draft, error) {
	params := map[string]string{
		"user_id": "eq." + userID,
		"select":  "draft",
		"limit":   "1",
	}
	var rows []struct {
		Draft json.RawMessage `json:"draft"`
	}
	if err := c.rest(ctx, http.MethodGet, "active_drafts", params, nil, "", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0].Draft) == 0 {
		return nil, nil
	}
	var d domain.Draft
	if err := json.Unmarshal(rows[0].Draft, &d); err != nil {
		return nil, err
	}
	if d.ID == "" {
		return nil, nil
	}
	return &d, nil
}

// UpsertDraft writes the draft back, replacing any previous row for the user.
func (c *Client) UpsertDraft(ctx context.Context, d *domain.Draft) error {
	payload := map[string]interface{}{
		"user_id": d.UserID,
		"draft":   d,
	}
	params := map[string]string{"on_conflict": "user_id"}
	return c.rest(ctx, http.MethodPost, "active_drafts", params, payload,
		"resolution=merge-duplicates,return=minimal", nil)
}

// DeleteDraft removes the user's active draft; a missing row is not an error.
func (c *Client) DeleteDraft(ctx context.Context, userID string) error {
	params := map[string]string{"user_id": "eq." + userID}
	return c.rest(ctx, http.MethodDelete, "active_drafts", params, nil, "", nil)
}
