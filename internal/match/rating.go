package match

import (
	"context"

	"go.uber.org/zap"

	"github.com/timkeo/timkeo-client/internal/localstore"
	"github.com/timkeo/timkeo-client/internal/models"
)

// RatingAPI is the slice of the REST client the eligibility check needs.
type RatingAPI interface {
	GetPost(ctx context.Context, id string) (*models.Post, error)
	RatingsByMatch(ctx context.Context, matchID string) ([]models.Rating, error)
	CreateRating(ctx context.Context, nr models.NewRating) (*models.Rating, error)
}

// Eligibility is the conclusion of one evaluation: whether to surface
// the rating prompt and for which match.
type Eligibility struct {
	Show    bool
	MatchID string
}

// RatingGate decides whether the viewer should be prompted to rate
// after a confirm, and records submissions/dismissals so the prompt
// never reappears for the same (match, user) pair.
type RatingGate struct {
	api   RatingAPI
	local *localstore.Store
	log   *zap.SugaredLogger
}

func NewRatingGate(a RatingAPI, local *localstore.Store, log *zap.SugaredLogger) *RatingGate {
	return &RatingGate{api: a, local: local, log: log}
}

// Evaluate runs the eligibility check for a confirmed conversation. It
// is idempotent: the same state always yields the same conclusion, so
// callers may invoke it on mount, on a transition response, and on every
// inbound update without stacking prompts.
//
// The rating existence check is best-effort enrichment: if it fails the
// prompt is still shown rather than blocking the interaction, matching
// the swallow-after-logging policy for background lookups.
func (g *RatingGate) Evaluate(ctx context.Context, postID, userID string) Eligibility {
	post, err := g.api.GetPost(ctx, postID)
	if err != nil {
		g.log.Warnw("rating gate: post fetch failed", "post", postID, "err", err)
		return Eligibility{}
	}
	if post.MatchID == "" {
		// nothing to rate yet
		return Eligibility{}
	}

	if g.Dismissed(post.MatchID, userID) {
		return Eligibility{MatchID: post.MatchID}
	}

	ratings, err := g.api.RatingsByMatch(ctx, post.MatchID)
	if err != nil {
		g.log.Warnw("rating gate: existing-ratings check failed", "match", post.MatchID, "err", err)
	} else {
		for _, r := range ratings {
			if r.RaterID == userID {
				return Eligibility{MatchID: post.MatchID}
			}
		}
	}

	return Eligibility{Show: true, MatchID: post.MatchID}
}

// Dismissed reports the durable per-(match,user) suppression flag.
func (g *RatingGate) Dismissed(matchID, userID string) bool {
	return g.local.GetBool(localstore.RatingDismissedKey(matchID, userID))
}

// Dismiss records that the prompt must never reappear for this pair,
// across reloads and re-navigation.
func (g *RatingGate) Dismiss(matchID, userID string) error {
	return g.local.SetBool(localstore.RatingDismissedKey(matchID, userID), true)
}

// Submit sends the rating and sets the dismissal flag so the prompt is
// suppressed afterwards even if the existence check were to miss it.
func (g *RatingGate) Submit(ctx context.Context, nr models.NewRating) error {
	if _, err := g.api.CreateRating(ctx, nr); err != nil {
		return err
	}
	return g.Dismiss(nr.MatchID, nr.RaterID)
}
