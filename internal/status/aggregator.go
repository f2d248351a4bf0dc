package status

import (
	"context"
	"fmt"
	"time"

	"github.com/2molaf/jarvfjallet/internal/models"
	"github.com/2molaf/jarvfjallet/internal/store"
)

// Assignment pairs a game with its classified status. A derived view,
// never persisted.
type Assignment struct {
	Game     *models.Game
	Category Category
}

// StatusFor collects all games held under any of the identifier
// variants and classifies each against now.
//
// A user may appear in the store under a stable ID or a display name
// (historical data recorded either), so callers pass every variant they
// know. Each variant is queried separately and the results concatenated
// in store insertion order per variant; a row matching two variants
// appears twice, matching how the data has always been reported.
//
// No assignments is not an error: the result is simply empty.
func StatusFor(ctx context.Context, s store.Store, identifiers []string, now time.Time) ([]Assignment, error) {
	var out []Assignment
	for _, id := range identifiers {
		if id == "" {
			continue
		}
		games, err := s.GamesByReviewer(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("status for %q: %w", id, err)
		}
		for _, g := range games {
			out = append(out, Assignment{Game: g, Category: Classify(g, now)})
		}
	}
	return out, nil
}
