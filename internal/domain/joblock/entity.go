package joblock

import "time"

// Lock represents job_locks: one row per serialized job. A lock is held
// iff expires_at is in the future; an expired lock may be reclaimed by
// any runner.
type Lock struct {
	Name      string
	LockedBy  string
	LockedAt  time.Time
	ExpiresAt time.Time
}

func (l Lock) HeldAt(now time.Time) bool {
	return l.ExpiresAt.After(now)
}
