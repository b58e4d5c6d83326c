package fixture

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a fixture
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusFinished  Status = "FINISHED"
	StatusCancelled Status = "CANCELLED"
)

// Fixture represents fixtures. The row is owned by the ingestion
// collaborator; this system only reads it. Status and score fields are
// the only parts that change after creation.
type Fixture struct {
	ID         uuid.UUID
	HomeName   string
	AwayName   string
	Category   string
	KickoffUTC time.Time
	Status     Status
	HomeScore  sql.NullInt32
	AwayScore  sql.NullInt32
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
