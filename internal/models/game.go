package models

import "time"

// Game represents an assignable itch.io title tracked by the bot.
//
// Descriptive fields (title, URLs, platforms) are set once during import
// and never change. The assignment fields (Reviewer, AssignedAt) and the
// completion fields (ReviewURL, ReviewedAt) are the only mutable state.
type Game struct {
	ID       int64
	GameURL  string
	ThumbURL string

	Windows bool
	Mac     bool
	Linux   bool

	Name      string
	Host      string
	DevName   string
	DevURL    string
	ShortText string
	Thumbnail string

	// Reviewer holds either a Discord user ID or a display name;
	// historical imports recorded both shapes.
	Reviewer   string
	AssignedAt *time.Time

	ReviewURL  string
	ReviewedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Assigned reports whether the game is currently held by a reviewer.
func (g *Game) Assigned() bool {
	return g.Reviewer != ""
}

// Completed reports whether a review has been recorded for the game.
func (g *Game) Completed() bool {
	return g.ReviewedAt != nil
}

// Platforms returns the supported platform names in display order.
func (g *Game) Platforms() []string {
	var out []string
	if g.Windows {
		out = append(out, "windows")
	}
	if g.Mac {
		out = append(out, "mac")
	}
	if g.Linux {
		out = append(out, "linux")
	}
	return out
}
