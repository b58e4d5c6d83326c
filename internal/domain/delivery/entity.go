package delivery

import (
	"time"

	"github.com/google/uuid"
)

// MatchMethod is how a confirmation was attributed to a fixture
type MatchMethod string

const (
	MatchByDispatchID MatchMethod = "dispatch_id"
	MatchByTimestamp  MatchMethod = "timestamp"
	MatchByWindow     MatchMethod = "window"
	MatchNone         MatchMethod = "none"
)

// Confidence of a correlation result
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Match is the outcome of correlating one inbound confirmation. FixtureID
// is nil when nothing matched; a low-confidence guess is still a match.
type Match struct {
	Method     MatchMethod
	Confidence Confidence
	FixtureID  *uuid.UUID
	Ambiguous  bool
}

// Confirmation represents delivery_confirmations: one row per inbound
// webhook call, written once and never mutated.
type Confirmation struct {
	ID                  uuid.UUID
	FixtureID           *uuid.UUID
	HomeName            string
	AwayName            string
	Category            string
	ExternalRecipientID string
	ConfirmationType    string
	PlatformTimestamp   time.Time
	MatchMethod         MatchMethod
	MatchConfidence     Confidence
	ReceivedAt          time.Time
}
