package models

import "time"

// AssignmentStatus represents the lifecycle state of an assignment record.
type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

// Assignment is the audit record written when a game is granted to a
// user. The games table remains the source of truth for who holds what;
// these rows exist so grants survive administrative resets of a game.
type Assignment struct {
	ID          string // ULID
	UserID      string
	Username    string
	GameID      int64
	Status      AssignmentStatus
	AssignedAt  time.Time
	CompletedAt *time.Time
	ReviewURL   string
}
