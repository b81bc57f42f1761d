// Package repository defines the session store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/pitchtag/internal/domain/session"
)

// UpdateFunc derives the next session state. Returning an error leaves the
// stored session untouched.
type UpdateFunc func(s session.Session) (session.Session, error)

// Store holds tagging sessions.
type Store interface {
	// Create stores a new session opened at now with a fresh id.
	// Returns ErrCapacity when the store is full.
	Create(ctx context.Context, counter session.Counter, now time.Time) (session.Session, error)

	// Get returns a copy of the session. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (session.Session, error)

	// Update applies fn to the session. Updates to one store run one at a
	// time, so each session sees its events in order.
	Update(ctx context.Context, id string, fn UpdateFunc) (session.Session, error)

	// Delete removes the session. Returns ErrNotFound if unknown.
	Delete(ctx context.Context, id string) error

	// Sweep removes sessions not updated since cutoff and returns how many.
	Sweep(ctx context.Context, cutoff time.Time) int

	// Count returns the number of sessions held.
	Count(ctx context.Context) int
}
