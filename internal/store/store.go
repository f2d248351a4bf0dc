package store

import (
	"context"
	"errors"
	"time"

	"github.com/2molaf/jarvfjallet/internal/models"
)

// Sentinel errors returned by Store implementations. Callers branch on
// these with errors.Is; anything else is an infrastructure failure.
var (
	// ErrNotFound indicates the referenced game id does not exist.
	ErrNotFound = errors.New("game not found")

	// ErrEmptyPool indicates no unassigned games remain. Terminal and
	// user-visible; never retried.
	ErrEmptyPool = errors.New("no unassigned games available")

	// ErrAlreadyAssigned indicates a claim lost the race to a concurrent
	// requester. Internal; the assignment engine retries it away.
	ErrAlreadyAssigned = errors.New("game already assigned")

	// ErrInvalidState indicates a completion was recorded against a game
	// nobody holds.
	ErrInvalidState = errors.New("game is not assigned")
)

// Stats summarizes the game pool.
type Stats struct {
	Total      int
	Assigned   int
	Unassigned int
	Completed  int
}

// Store defines the persistence interface for jarvfjallet.
//
// Implementations must be safe for concurrent callers, including callers
// in other processes sharing the same database. MarkAssigned in
// particular must enforce the single-reviewer invariant itself (a
// conditional write), not rely on callers re-checking state.
type Store interface {
	// UpsertGame inserts the game, or replaces an existing row that
	// matches on all of matchKeys (default: id). Replacement is total:
	// fields unset on the new record are cleared on the old one.
	UpsertGame(ctx context.Context, g *models.Game, matchKeys ...string) error

	GetGame(ctx context.Context, id int64) (*models.Game, error)

	// RandomUnassignedGame returns one game with no reviewer, chosen
	// uniformly at random. Returns ErrEmptyPool when none remain.
	RandomUnassignedGame(ctx context.Context) (*models.Game, error)

	// GamesByReviewer returns all games whose reviewer equals identifier
	// (user ID or display name), in insertion order.
	GamesByReviewer(ctx context.Context, identifier string) ([]*models.Game, error)

	// MarkAssigned claims the game for userID. Returns ErrAlreadyAssigned
	// if someone else holds it, ErrNotFound if it does not exist.
	MarkAssigned(ctx context.Context, id int64, userID, username string, at time.Time) error

	// RecordCompletion stores the review URL and completion time.
	// A repeat call with the same URL is a no-op; the first completion
	// timestamp is kept. Returns ErrInvalidState for unassigned games.
	RecordCompletion(ctx context.Context, id int64, url string, at time.Time) error

	CountGames(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*Stats, error)

	// ListAssignments returns the grant audit trail for a user, newest
	// first. A limit <= 0 means no limit.
	ListAssignments(ctx context.Context, userID string, limit int) ([]*models.Assignment, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
