package supabase

import (
	"context"
	"net/http"
	"strings"
)

// Profile is the marketplace user record behind a WhatsApp number.
type Profile struct {
	ID       string `json:"id"`
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
}

// ProfileByPhone resolves a phone number to a profile. The number is matched
// with and without a leading "+" since WhatsApp webhooks are inconsistent
// about it. Returns nil when no profile exists.
func (c *Client) ProfileByPhone(ctx context.Context, phone string) (*Profile, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil
	}
	bare := strings.TrimPrefix(phone, "+")
	params := map[string]string{
		"or":     "(phone.eq." + bare + ",phone.eq.+" + bare + ")",
		"select": "id,phone,full_name",
		"limit":  "1",
	}
	var rows []Profile
	if err := c.rest(ctx, http.MethodGet, "profiles", params, nil, "", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ProfileByID loads a profile by its UUID. Returns nil when not found.
func (c *Client) ProfileByID(ctx context.Context, id string) (*Profile, error) {
	params := map[string]string{
		"id":     "eq." + id,
		"select": "id,phone,full_name",
		"limit":  "1",
	}
	var rows []Profile
	if err := c.rest(ctx, http.MethodGet, "profiles", params, nil, "", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
