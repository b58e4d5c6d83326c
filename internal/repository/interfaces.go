package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"matchpush/internal/domain/audit"
	"matchpush/internal/domain/delivery"
	"matchpush/internal/domain/fixture"
	"matchpush/internal/domain/joblock"
	"matchpush/internal/domain/ledger"
)

// FixtureRepository reads the event catalog owned by the ingestion
// collaborator.
type FixtureRepository interface {
	ListUpcoming(ctx context.Context, from, until time.Time) ([]fixture.Fixture, error)
	GetByID(ctx context.Context, id uuid.UUID) (fixture.Fixture, error)
}

type LedgerRepository interface {
	// Create inserts a new entry. Returns ErrAlreadyExists when another
	// active entry for the same fixture already holds the partial unique
	// index.
	Create(ctx context.Context, tx DBTX, e *ledger.Entry) error

	GetActiveByFixture(ctx context.Context, fixtureID uuid.UUID) (ledger.Entry, error)
	GetByDispatchID(ctx context.Context, dispatchID string) (ledger.Entry, error)
	ListBySendAt(ctx context.Context, sendAt time.Time) ([]ledger.Entry, error)
	ListPendingBetween(ctx context.Context, from, until time.Time) ([]ledger.Entry, error)
	// ListActiveBetween covers pending and sent rows; correlation must
	// still attribute confirmations that arrive after the first one
	// flipped the entry to sent.
	ListActiveBetween(ctx context.Context, from, until time.Time) ([]ledger.Entry, error)
	CountPendingAfter(ctx context.Context, after time.Time) (int, error)

	// UpdateRemoteIDs repoints an existing entry at a freshly created
	// remote schedule without touching status or send time.
	UpdateRemoteIDs(ctx context.Context, id uuid.UUID, remoteScheduleID string, dispatchID sql.NullString) error
	MarkSent(ctx context.Context, id uuid.UUID, confirmationID string) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	DeleteByRemoteScheduleID(ctx context.Context, tx DBTX, remoteScheduleID string) error
}

// LockRepository is the durable mutual-exclusion primitive serializing
// the periodic jobs.
type LockRepository interface {
	// Acquire returns true iff the named lock was obtained. It must be a
	// single conditional statement against the store, never read-then-write.
	Acquire(ctx context.Context, name, runnerID string, ttl time.Duration) (bool, error)
	// Release is a no-op when the lock expired or belongs to a different
	// runner.
	Release(ctx context.Context, name, runnerID string) error
	// Get reads the current lock row for diagnostics. ErrNotFound when
	// the lock was never taken.
	Get(ctx context.Context, name string) (joblock.Lock, error)
}

type DeliveryRepository interface {
	// Create returns ErrAlreadyExists when the natural key
	// (recipient, type, platform timestamp) was already recorded.
	Create(ctx context.Context, c *delivery.Confirmation) error
}

type AuditRepository interface {
	Create(ctx context.Context, tx DBTX, e *audit.Entry) error
}
