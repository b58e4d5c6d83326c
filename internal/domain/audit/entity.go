package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry represents audit_log. Append-only; nothing in the core logic
// reads it back.
type Entry struct {
	ID           uuid.UUID
	FunctionName string
	FixtureID    *uuid.UUID
	Action       string
	Reason       string
	Details      []byte // jsonb snapshot
	CreatedAt    time.Time
}
