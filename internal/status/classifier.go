// Package status derives display status for assigned games.
package status

import (
	"time"

	"github.com/2molaf/jarvfjallet/internal/models"
)

// Category is the derived display status of an assigned game.
type Category string

const (
	// CategoryDone: a review was recorded and its timestamp has passed.
	CategoryDone Category = "done"
	// CategoryActive: assigned within the last seven days, review pending.
	CategoryActive Category = "active"
	// CategoryWaiting: assigned more than seven days ago, review pending.
	CategoryWaiting Category = "waiting"
	// CategoryRecorded: assigned on the reference day but carrying a
	// review timestamp that lies in the future. Only inconsistent data
	// produces this.
	CategoryRecorded Category = "recorded"
	// CategoryUnknown: timestamp data fits no rule. Shown distinctly so
	// operators notice data-quality problems instead of misreading them.
	CategoryUnknown Category = "unknown"
)

// ActiveWindow is how long after assignment a game counts as active.
const ActiveWindow = 7 * 24 * time.Hour

// Classify maps one game's timestamps to a Category relative to now.
//
// Precedence is fixed: done, active, waiting, recorded, unknown. The
// rules are evaluated in that order and the first match wins, so a
// same-day assignment is reported active, never recorded. Deterministic
// and side-effect-free: equal inputs always yield the same category.
func Classify(g *models.Game, now time.Time) Category {
	switch {
	case g.ReviewedAt != nil && g.ReviewedAt.Before(now):
		return CategoryDone
	case g.AssignedAt != nil && now.Sub(*g.AssignedAt) >= 0 && now.Sub(*g.AssignedAt) < ActiveWindow:
		return CategoryActive
	case g.ReviewedAt == nil:
		return CategoryWaiting
	case g.AssignedAt != nil && sameDay(*g.AssignedAt, now):
		return CategoryRecorded
	default:
		return CategoryUnknown
	}
}

// sameDay reports whether a and b fall on the same UTC calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
