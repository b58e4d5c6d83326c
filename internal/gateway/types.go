package gateway

import "time"

// MessageType distinguishes the two remote schedule kinds. They are
// cancelled through different endpoints.
type MessageType string

const (
	TypeBroadcast MessageType = "broadcast"
	TypeFlow      MessageType = "flow"
)

// Audience is a disjunction over canonical team identities matched
// against a recipient profile attribute.
type Audience struct {
	Attribute string   `json:"attribute"`
	Teams     []string `json:"teams"`
}

// Payload is the event metadata attached to a schedule. The platform
// echoes it back on list calls, which is what lets the reconciler and
// auditor recompute fixture identity without a second lookup.
type Payload struct {
	FixtureID     string `json:"fixture_id"`
	HomeName      string `json:"home_name"`
	HomeNameLocal string `json:"home_name_local"`
	AwayName      string `json:"away_name"`
	AwayNameLocal string `json:"away_name_local"`
	Category      string `json:"category"`
	CategoryLabel string `json:"category_label"`
	KickoffUTC    string `json:"kickoff_utc"`
	KickoffLocal  string `json:"kickoff_local"`
	AttemptSig    string `json:"attempt_sig"`
}

type CreateScheduleRequest struct {
	Audience Audience  `json:"audience"`
	SendAt   time.Time `json:"send_at"`
	Payload  Payload   `json:"payload"`
}

type CreateScheduleResponse struct {
	ScheduleID string `json:"schedule_id"`
	DispatchID string `json:"dispatch_id"`
}

// Schedule is one upcoming remote schedule as listed by the platform.
// Exactly one of BroadcastID / FlowID is set.
type Schedule struct {
	BroadcastID string    `json:"broadcast_id,omitempty"`
	FlowID      string    `json:"flow_id,omitempty"`
	SendAt      time.Time `json:"send_at"`
	CreatedAt   time.Time `json:"created_at"`
	Payload     Payload   `json:"payload"`
}

// ID returns whichever identifier the platform assigned.
func (s Schedule) ID() string {
	if s.BroadcastID != "" {
		return s.BroadcastID
	}
	return s.FlowID
}

// Type infers the message type from which identifying field is present.
func (s Schedule) Type() MessageType {
	if s.BroadcastID != "" {
		return TypeBroadcast
	}
	return TypeFlow
}

type listSchedulesResponse struct {
	Schedules []Schedule `json:"schedules"`
}
