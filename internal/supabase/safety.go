package supabase

import (
	"context"
	"net/http"
)

// SafetyFlag is one blocked-image audit row.
type SafetyFlag struct {
	UserID     string `json:"user_id,omitempty"`
	ImagePath  string `json:"image_path"`
	FlagType   string `json:"flag_type"`
	Confidence string `json:"confidence"`
	Reason     string `json:"reason"`
	Status     string `json:"status"`
}

// InsertSafetyFlag records a blocked image for moderator review. Every
// rejection is audited, including classifier failures.
func (c *Client) InsertSafetyFlag(ctx context.Context, f SafetyFlag) error {
	if f.Status == "" {
		f.Status = "pending"
	}
	return c.rest(ctx, http.MethodPost, "image_safety_flags", nil, f, "return=minimal", nil)
}
