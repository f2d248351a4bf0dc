// Package assign implements the sample-then-claim protocol that grants
// pool games to requesters at most once each.
package assign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2molaf/jarvfjallet/internal/models"
	"github.com/2molaf/jarvfjallet/internal/store"
)

// DefaultMaxRetries bounds how many times a claim that lost a race is
// retried before giving up with ErrContention.
const DefaultMaxRetries = 5

// ErrContention indicates every retry lost its claim race. Transient:
// the caller should tell the user to try again.
var ErrContention = errors.New("assignment contention: retries exhausted")

// Engine grants unassigned games to requesters. Stateless apart from its
// store handle; safe for concurrent use.
type Engine struct {
	store      store.Store
	maxRetries int
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxRetries overrides the claim retry bound.
func WithMaxRetries(n int) Option {
	return func(e *Engine) { e.maxRetries = n }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine backed by s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:      s,
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assign grants one unassigned game to userID and returns it.
//
// The sample and the claim are separate store operations, so two
// concurrent requests can draw the same candidate. The store rejects the
// second claim with ErrAlreadyAssigned and the loser redraws, up to the
// retry bound. An empty pool is terminal and returned as
// store.ErrEmptyPool immediately.
func (e *Engine) Assign(ctx context.Context, userID, username string) (*models.Game, error) {
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		candidate, err := e.store.RandomUnassignedGame(ctx)
		if err != nil {
			// ErrEmptyPool included: nothing left to draw.
			return nil, err
		}

		err = e.store.MarkAssigned(ctx, candidate.ID, userID, username, e.now().UTC())
		if errors.Is(err, store.ErrAlreadyAssigned) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("claim game %d: %w", candidate.ID, err)
		}

		// Re-read so the caller sees the stored assignment fields rather
		// than the pre-claim snapshot.
		return e.store.GetGame(ctx, candidate.ID)
	}
	return nil, ErrContention
}

// RecordCompletion marks the user's review of a game as done.
func (e *Engine) RecordCompletion(ctx context.Context, gameID int64, url string) error {
	return e.store.RecordCompletion(ctx, gameID, url, e.now().UTC())
}
