package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key has no value (or it expired).
var ErrNotFound = errors.New("session: not found")

// Store is the ephemeral per-user key-value capability. Backed by Redis in
// production; anything satisfying this works in tests.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context, key string) error
}

// RedisStore is a Store over a Redis client.
type RedisStore struct {
	Rdb *redis.Client
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.Rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.Rdb.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.Rdb.Del(ctx, key).Err()
}

const (
	lastSearchPrefix    = "search:last:"
	activeListingPrefix = "listing:active:"
	safeMediaPrefix     = "media:safe:"

	// AnonymousKey is the last-resort fallback key used when neither a user
	// id nor a phone number is present on the request.
	AnonymousKey = "anonymous"

	// DefaultTTL bounds how long convenience state (search cache, safe-media
	// buffer, active pointer) survives. Drafts themselves are durable and
	// live in the draft store, not here.
	DefaultTTL = 24 * time.Hour
)

// Keys returns the ordered fallback key candidates for a user: user id,
// phone, then "anonymous". Values are mirrored under every candidate on
// write so a later message lacking auth context can still resolve state.
func Keys(userID, phone string) []string {
	keys := make([]string, 0, 3)
	if userID != "" {
		keys = append(keys, userID)
	}
	if phone != "" && phone != userID {
		keys = append(keys, phone)
	}
	keys = append(keys, AnonymousKey)
	return keys
}

// Sessions bundles the three per-user buffers over one Store.
type Sessions struct {
	Store Store
	TTL   time.Duration
}

func (s *Sessions) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultTTL
}

// SaveSearchResults overwrites the cached result list under every key.
func (s *Sessions) SaveSearchResults(ctx context.Context, keys []string, results []domain.ListingSummary) error {
	b, err := json.Marshal(results)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Store.Set(ctx, lastSearchPrefix+k, b, s.ttl()); err != nil {
			return err
		}
	}
	return nil
}

// LoadSearchResults returns the first cached result list found along the
// fallback key chain; ok is false when no search has happened yet.
func (s *Sessions) LoadSearchResults(ctx context.Context, keys []string) ([]domain.ListingSummary, bool) {
	for _, k := range keys {
		b, err := s.Store.Get(ctx, lastSearchPrefix+k)
		if err != nil {
			continue
		}
		var results []domain.ListingSummary
		if json.Unmarshal(b, &results) == nil && len(results) > 0 {
			return results, true
		}
	}
	return nil, false
}

// SetActiveListing records the listing currently being edited, under every key.
func (s *Sessions) SetActiveListing(ctx context.Context, keys []string, listingID string) error {
	for _, k := range keys {
		if err := s.Store.Set(ctx, activeListingPrefix+k, []byte(listingID), s.ttl()); err != nil {
			return err
		}
	}
	return nil
}

// ActiveListing returns the active-listing pointer, if any.
func (s *Sessions) ActiveListing(ctx context.Context, keys []string) (string, bool) {
	for _, k := range keys {
		b, err := s.Store.Get(ctx, activeListingPrefix+k)
		if err == nil && len(b) > 0 {
			return string(b), true
		}
	}
	return "", false
}

// ClearActiveListing drops the pointer under every key.
func (s *Sessions) ClearActiveListing(ctx context.Context, keys []string) {
	for _, k := range keys {
		_ = s.Store.Clear(ctx, activeListingPrefix+k)
	}
}

// AppendSafeMedia merges newly approved storage paths into the per-user
// safe-media buffer, deduplicated, first-seen order preserved.
func (s *Sessions) AppendSafeMedia(ctx context.Context, keys []string, paths []string) error {
	existing, _ := s.SafeMedia(ctx, keys)
	merged := MergePaths(existing, paths)
	b, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Store.Set(ctx, safeMediaPrefix+k, b, s.ttl()); err != nil {
			return err
		}
	}
	return nil
}

// SafeMedia returns the buffered safety-approved storage paths.
func (s *Sessions) SafeMedia(ctx context.Context, keys []string) ([]string, bool) {
	for _, k := range keys {
		b, err := s.Store.Get(ctx, safeMediaPrefix+k)
		if err != nil {
			continue
		}
		var paths []string
		if json.Unmarshal(b, &paths) == nil && len(paths) > 0 {
			return paths, true
		}
	}
	return nil, false
}

// ClearSafeMedia drops the buffer under every key (after a publish).
func (s *Sessions) ClearSafeMedia(ctx context.Context, keys []string) {
	for _, k := range keys {
		_ = s.Store.Clear(ctx, safeMediaPrefix+k)
	}
}

// MergePaths appends b onto a, dropping duplicates while preserving
// first-seen order.
func MergePaths(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, p := range a {
		if _, dup := seen[p]; dup || p == "" {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, p := range b {
		if _, dup := seen[p]; dup || p == "" {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
