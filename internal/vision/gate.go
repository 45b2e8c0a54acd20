package vision

import (
	"context"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/session"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/supabase"

	"github.com/rs/zerolog/log"
)

// MaxImages caps images per listing; anything past the cap is skipped
// without classification.
const MaxImages = 10

// FlagStore persists blocked-image audit rows.
type FlagStore interface {
	InsertSafetyFlag(ctx context.Context, f supabase.SafetyFlag) error
}

// Gate screens incoming listing images. Every image passes the classifier
// before it can reach a draft; classifier failures block the image rather
// than waving it through.
type Gate struct {
	Classifier Classifier
	Sessions   *session.Sessions
	Flags      FlagStore
	ResolveURL func(path string) string
}

// GateResult is the outcome for one batch of incoming images.
type GateResult struct {
	Accepted   []string
	Blocked    []domain.BlockedImage
	Skipped    []string
	Product    *domain.VisionProduct
	AllBlocked bool
}

// Screen classifies the incoming image paths, appends the survivors to the
// user's safe-media set and audits every rejection. Paths already screened
// safe in this session are not re-classified.
func (g *Gate) Screen(ctx context.Context, userID string, keys []string, incoming []string) (*GateResult, error) {
	res := &GateResult{}
	if len(incoming) == 0 {
		return res, nil
	}

	existing, _ := g.Sessions.SafeMedia(ctx, keys)
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p] = true
	}

	budget := MaxImages - len(existing)
	fresh := make([]string, 0, len(incoming))
	for _, p := range incoming {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if len(fresh) >= budget {
			res.Skipped = append(res.Skipped, p)
			continue
		}
		fresh = append(fresh, p)
	}

	for _, path := range fresh {
		url := path
		if g.ResolveURL != nil {
			url = g.ResolveURL(path)
		}

		verdict, err := g.Classifier.Classify(ctx, url)
		if err != nil {
			// Fail closed: an unreachable classifier blocks the image.
			blocked := domain.BlockedImage{
				Path:       path,
				Reason:     "vision_error: " + err.Error(),
				FlagType:   domain.FlagUnknown,
				Confidence: "low",
			}
			res.Blocked = append(res.Blocked, blocked)
			g.audit(ctx, userID, blocked)
			continue
		}

		if accepted, override := acceptable(verdict); accepted {
			if override {
				log.Warn().Str("path", path).Msg("safety verdict contradiction, allow_listing overridden")
			}
			res.Accepted = append(res.Accepted, path)
			if res.Product == nil && verdict.Product != nil {
				res.Product = verdict.Product
			}
			continue
		}

		blocked := domain.BlockedImage{
			Path:       path,
			Reason:     verdict.Message,
			FlagType:   verdict.FlagType,
			Confidence: verdict.Confidence,
		}
		if blocked.Reason == "" {
			blocked.Reason = "görsel güvenlik kontrolünden geçemedi"
		}
		res.Blocked = append(res.Blocked, blocked)
		g.audit(ctx, userID, blocked)
	}

	if len(res.Accepted) > 0 {
		if err := g.Sessions.AppendSafeMedia(ctx, keys, res.Accepted); err != nil {
			return nil, err
		}
	}
	res.AllBlocked = len(fresh) > 0 && len(res.Accepted) == 0
	return res, nil
}

// acceptable applies the false-positive guard: a verdict that says safe with
// no real flag but allow_listing=false is self-contradictory, and the
// explicit safe judgment wins.
func acceptable(v *domain.SafetyVerdict) (ok bool, overridden bool) {
	if !v.Safe {
		return false, false
	}
	if v.AllowListing == nil || *v.AllowListing {
		return true, false
	}
	switch v.FlagType {
	case "", domain.FlagNone, domain.FlagUnknown:
		return true, true
	}
	return false, false
}

func (g *Gate) audit(ctx context.Context, userID string, b domain.BlockedImage) {
	if g.Flags == nil {
		return
	}
	err := g.Flags.InsertSafetyFlag(ctx, supabase.SafetyFlag{
		UserID:     userID,
		ImagePath:  b.Path,
		FlagType:   b.FlagType,
		Confidence: b.Confidence,
		Reason:     b.Reason,
	})
	if err != nil {
		log.Error().Err(err).Str("path", b.Path).Msg("safety flag audit insert failed")
	}
}
