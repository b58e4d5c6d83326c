package ledger

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents the delivery state of a ledger entry
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// ActiveStatuses are the statuses covered by the partial unique index on
// fixture_id. At most one row per fixture may carry one of these.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusSent}
}

// Entry represents push_ledger: one scheduling attempt for one fixture.
type Entry struct {
	ID               uuid.UUID
	FixtureID        uuid.UUID
	RemoteScheduleID string
	DispatchID       sql.NullString
	ConfirmationID   sql.NullString
	Status           Status
	SendAtUTC        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
