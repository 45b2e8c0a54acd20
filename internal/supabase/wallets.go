package supabase

import (
	"context"
	"net/http"
)

// Wallet is the user's credit balance row.
type Wallet struct {
	UserID   string  `json:"user_id"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// WalletByUser loads the user's wallet, nil when none exists yet.
func (c *Client) WalletByUser(ctx context.Context, userID string) (*Wallet, error) {
	params := map[string]string{
		"user_id": "eq." + userID,
		"select":  "user_id,balance,currency",
		"limit":   "1",
	}
	var rows []Wallet
	if err := c.rest(ctx, http.MethodGet, "wallets", params, nil, "", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
