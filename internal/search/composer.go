package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/category"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/searchcache"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/supabase"

	"github.com/rs/zerolog/log"
)

// Searcher is the listing query surface the composer fans out over.
type Searcher interface {
	SearchListings(ctx context.Context, p supabase.SearchParams) (*supabase.SearchResult, error)
}

// Composer runs several query strategies against the listings table,
// merges the hits and caches them for later ordinal references.
type Composer struct {
	Listings Searcher
	Cache    *searchcache.Cache
	Limit    int
}

// Response is the composed search outcome.
type Response struct {
	Results []domain.ListingSummary
	Message string
}

func (c *Composer) limit() int {
	if c.Limit > 0 {
		return c.Limit
	}
	return 10
}

// Run searches listings for a free-text Turkish query. Strategies run
// concurrently; their results merge in a fixed strategy order so the
// numbered reply is deterministic for a given set of rows.
func (c *Composer) Run(ctx context.Context, keys []string, query string) (*Response, error) {
	min, max, cleaned := PriceWindow(query)
	cat := category.Classify(cleaned)
	tokens := category.ExtractSearchTokens(cleaned, 3)

	var params []supabase.SearchParams
	if q := strings.TrimSpace(cleaned); q != "" {
		params = append(params, supabase.SearchParams{
			Query: q, MinPrice: min, MaxPrice: max, Limit: c.limit(),
		})
	}
	if cat != "" {
		params = append(params, supabase.SearchParams{
			Category: cat, MinPrice: min, MaxPrice: max, Limit: c.limit(),
		})
	}
	for _, tok := range tokens {
		if tok == strings.ToLower(strings.TrimSpace(cleaned)) {
			continue
		}
		params = append(params, supabase.SearchParams{
			Query: tok, MinPrice: min, MaxPrice: max, Limit: c.limit(),
		})
	}
	if len(params) == 0 {
		params = append(params, supabase.SearchParams{
			MinPrice: min, MaxPrice: max, Limit: c.limit(),
		})
	}

	buckets := make([][]domain.ListingSummary, len(params))
	var wg sync.WaitGroup
	for i, p := range params {
		wg.Add(1)
		go func(i int, p supabase.SearchParams) {
			defer wg.Done()
			res, err := c.Listings.SearchListings(ctx, p)
			if err != nil {
				log.Warn().Err(err).Str("query", p.Query).Str("category", p.Category).Msg("search strategy failed")
				return
			}
			buckets[i] = res.Results
		}(i, p)
	}
	wg.Wait()

	merged := mergeBuckets(buckets, c.limit())
	if len(merged) == 0 {
		return &Response{Message: "😕 Aradığınız kriterlere uygun ilan bulamadım. Farklı bir arama deneyebilirsiniz."}, nil
	}

	if err := c.Cache.Store(ctx, keys, merged); err != nil {
		log.Error().Err(err).Msg("search result cache write failed")
	}
	return &Response{Results: merged, Message: FormatResults(merged)}, nil
}

func mergeBuckets(buckets [][]domain.ListingSummary, limit int) []domain.ListingSummary {
	seen := make(map[string]bool)
	var out []domain.ListingSummary
	for _, bucket := range buckets {
		for _, r := range bucket {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// FormatResults renders the numbered Turkish result list.
func FormatResults(results []domain.ListingSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 %d ilan buldum:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "%d) %s", i+1, r.Title)
		if r.Price != nil {
			fmt.Fprintf(&b, " - %d TL", *r.Price)
		}
		if r.Location != "" {
			fmt.Fprintf(&b, " 📍 %s", r.Location)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nDetay için \"2 nolu ilan\" gibi yazabilirsiniz.")
	return b.String()
}

// FormatDetail renders one cached listing in full.
func FormatDetail(r *domain.ListingSummary) string {
	var b strings.Builder
	b.WriteString("📦 " + r.Title + "\n")
	if r.Price != nil {
		fmt.Fprintf(&b, "💰 %d TL\n", *r.Price)
	}
	if r.Condition != "" {
		b.WriteString("✨ " + r.Condition + "\n")
	}
	if r.Location != "" {
		b.WriteString("📍 " + r.Location + "\n")
	}
	if r.Description != "" {
		b.WriteString("\n" + r.Description + "\n")
	}
	if r.OwnerName != "" {
		b.WriteString("\n👤 Satıcı: " + r.OwnerName)
		if r.OwnerPhone != "" {
			b.WriteString(" (" + r.OwnerPhone + ")")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
