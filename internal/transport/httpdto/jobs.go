package httpdto

import "time"

// JobLockStatus is one serialized job's lock row as seen by the ops
// endpoints. Timestamps are nil when the lock was never taken.
type JobLockStatus struct {
	Job       string     `json:"job"`
	Lock      string     `json:"lock"`
	Held      bool       `json:"held"`
	LockedBy  string     `json:"locked_by,omitempty"`
	LockedAt  *time.Time `json:"locked_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
