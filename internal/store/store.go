// Package store provides the append-only transcript store for interview
// sessions and rounds. There are no update or delete operations: every row is
// write-once and referential integrity is advisory, not enforced.
package store

import (
	"context"
	"errors"
)

// ErrStorage marks an I/O failure writing or reading persisted state.
var ErrStorage = errors.New("transcript store failure")

// TranscriptStore persists sessions and their rounds.
type TranscriptStore interface {
	// CreateSession inserts a new session with the current timestamp and
	// returns it with its store-assigned identifier.
	CreateSession(ctx context.Context, jobRole string) (*Session, error)

	// SaveRound appends one round for the given session. The session is not
	// validated to exist.
	SaveRound(ctx context.Context, sessionID uint, question, answer, evaluation string) error

	// ListSessions returns all sessions, most recent first.
	ListSessions(ctx context.Context) ([]Session, error)

	// GetRounds returns the rounds of a session in insertion order.
	GetRounds(ctx context.Context, sessionID uint) ([]Round, error)
}
