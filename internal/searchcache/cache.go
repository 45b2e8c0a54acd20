package searchcache

import (
	"context"
	"errors"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/session"
)

// MaxEntries bounds the cached result list per user.
const MaxEntries = 25

const descriptionLimit = 160
const maxSignedImages = 3

var (
	// ErrEmpty signals that no search has happened yet for this user.
	ErrEmpty = errors.New("searchcache: no cached results")
	// ErrOutOfRange signals an ordinal beyond the cached list.
	ErrOutOfRange = errors.New("searchcache: ordinal out of range")
)

// Cache stores the most recent search results per user and resolves
// ordinal references against them.
type Cache struct {
	Sessions *session.Sessions
}

// Compact trims a result to the cached summary shape: description capped at
// 160 runes (a byte cut could split ğ/ş/ı), at most 3 signed image URLs.
func Compact(in domain.ListingSummary) domain.ListingSummary {
	out := in
	if runes := []rune(out.Description); len(runes) > descriptionLimit {
		out.Description = string(runes[:descriptionLimit])
	}
	if len(out.SignedImages) > maxSignedImages {
		out.SignedImages = out.SignedImages[:maxSignedImages]
	}
	return out
}

// Store overwrites the cache for the user with up to MaxEntries compact
// entries, mirrored under every fallback key.
func (c *Cache) Store(ctx context.Context, keys []string, results []domain.ListingSummary) error {
	if len(results) > MaxEntries {
		results = results[:MaxEntries]
	}
	compact := make([]domain.ListingSummary, len(results))
	for i, r := range results {
		compact[i] = Compact(r)
	}
	return c.Sessions.SaveSearchResults(ctx, keys, compact)
}

// Resolve returns the cached entry for a 1-based ordinal, trying each
// fallback key in order. ErrEmpty when no search is cached, ErrOutOfRange
// when the ordinal exceeds the cached list.
func (c *Cache) Resolve(ctx context.Context, keys []string, ordinal int) (*domain.ListingSummary, error) {
	if ordinal <= 0 {
		return nil, ErrOutOfRange
	}
	results, ok := c.Sessions.LoadSearchResults(ctx, keys)
	if !ok {
		return nil, ErrEmpty
	}
	if ordinal > len(results) {
		return nil, ErrOutOfRange
	}
	entry := results[ordinal-1]
	return &entry, nil
}
