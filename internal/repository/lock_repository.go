package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"matchpush/internal/domain/joblock"
	matchpush_errors "matchpush/pkg/errors"
)

type lockRepository struct {
	db    DBTX
	clock func() time.Time
}

func NewLockRepository(db DBTX) LockRepository {
	return &lockRepository{db: db, clock: time.Now}
}

// Acquire takes the named lock in a single conditional upsert. The row is
// inserted when absent; an existing row is overwritten only when it has
// expired or already belongs to this runner (re-entry extends the TTL).
// Postgres serializes the two cases for us, so concurrent callers cannot
// both win.
func (r *lockRepository) Acquire(ctx context.Context, name, runnerID string, ttl time.Duration) (bool, error) {
	now := r.clock().UTC()
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO job_locks (name, locked_by, locked_at, expires_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (name) DO UPDATE
        SET locked_by = EXCLUDED.locked_by,
            locked_at = EXCLUDED.locked_at,
            expires_at = EXCLUDED.expires_at
        WHERE job_locks.expires_at <= $3 OR job_locks.locked_by = $2
    `, name, runnerID, now, now.Add(ttl))
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Release expires the lock early. Nothing happens when the lock already
// expired or is held by a different runner, so a stale job cannot free a
// lock a newer run holds.
func (r *lockRepository) Release(ctx context.Context, name, runnerID string) error {
	now := r.clock().UTC()
	_, err := r.db.ExecContext(ctx, `
        UPDATE job_locks
        SET expires_at = $1
        WHERE name = $2 AND locked_by = $3 AND expires_at > $1
    `, now, name, runnerID)
	return err
}

func (r *lockRepository) Get(ctx context.Context, name string) (joblock.Lock, error) {
	var l joblock.Lock
	err := r.db.QueryRowContext(ctx, `
        SELECT name, locked_by, locked_at, expires_at
        FROM job_locks
        WHERE name = $1
    `, name).Scan(&l.Name, &l.LockedBy, &l.LockedAt, &l.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return joblock.Lock{}, matchpush_errors.ErrNotFound
	}
	if err != nil {
		return joblock.Lock{}, err
	}
	return l, nil
}
