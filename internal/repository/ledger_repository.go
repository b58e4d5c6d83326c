package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"matchpush/internal/domain/ledger"
	matchpush_errors "matchpush/pkg/errors"
)

type ledgerRepository struct {
	db DBTX
}

func NewLedgerRepository(db DBTX) LedgerRepository {
	return &ledgerRepository{db: db}
}

const ledgerColumns = `id, fixture_id, remote_schedule_id, dispatch_id, confirmation_id, status, send_at_utc, created_at, updated_at`

func (r *ledgerRepository) Create(ctx context.Context, tx DBTX, e *ledger.Entry) error {
	execDB := tx
	if execDB == nil {
		execDB = r.db
	}
	_, err := execDB.ExecContext(ctx, `
        INSERT INTO push_ledger (id, fixture_id, remote_schedule_id, dispatch_id, confirmation_id, status, send_at_utc, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `,
		e.ID,
		e.FixtureID,
		e.RemoteScheduleID,
		e.DispatchID,
		e.ConfirmationID,
		e.Status,
		e.SendAtUTC,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return matchpush_errors.ErrAlreadyExists
	}
	return err
}

func (r *ledgerRepository) GetActiveByFixture(ctx context.Context, fixtureID uuid.UUID) (ledger.Entry, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+ledgerColumns+`
        FROM push_ledger
        WHERE fixture_id = $1 AND status IN ($2, $3)
    `, fixtureID, ledger.StatusPending, ledger.StatusSent)
	return scanLedgerRow(row)
}

func (r *ledgerRepository) GetByDispatchID(ctx context.Context, dispatchID string) (ledger.Entry, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+ledgerColumns+`
        FROM push_ledger
        WHERE dispatch_id = $1
        ORDER BY created_at DESC
        LIMIT 1
    `, dispatchID)
	return scanLedgerRow(row)
}

func (r *ledgerRepository) ListBySendAt(ctx context.Context, sendAt time.Time) ([]ledger.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+ledgerColumns+`
        FROM push_ledger
        WHERE send_at_utc = $1 AND status IN ($2, $3)
        ORDER BY created_at ASC
    `, sendAt, ledger.StatusPending, ledger.StatusSent)
	if err != nil {
		return nil, err
	}
	return collectLedgerRows(rows)
}

func (r *ledgerRepository) ListPendingBetween(ctx context.Context, from, until time.Time) ([]ledger.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+ledgerColumns+`
        FROM push_ledger
        WHERE status = $1 AND send_at_utc >= $2 AND send_at_utc < $3
        ORDER BY send_at_utc ASC
    `, ledger.StatusPending, from, until)
	if err != nil {
		return nil, err
	}
	return collectLedgerRows(rows)
}

func (r *ledgerRepository) ListActiveBetween(ctx context.Context, from, until time.Time) ([]ledger.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+ledgerColumns+`
        FROM push_ledger
        WHERE status IN ($1, $2) AND send_at_utc >= $3 AND send_at_utc < $4
        ORDER BY send_at_utc ASC
    `, ledger.StatusPending, ledger.StatusSent, from, until)
	if err != nil {
		return nil, err
	}
	return collectLedgerRows(rows)
}

func (r *ledgerRepository) CountPendingAfter(ctx context.Context, after time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
        SELECT COUNT(*)
        FROM push_ledger
        WHERE status = $1 AND send_at_utc > $2
    `, ledger.StatusPending, after).Scan(&count)
	return count, err
}

func (r *ledgerRepository) UpdateRemoteIDs(ctx context.Context, id uuid.UUID, remoteScheduleID string, dispatchID sql.NullString) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE push_ledger
        SET remote_schedule_id = $1, dispatch_id = $2, updated_at = $3
        WHERE id = $4
    `, remoteScheduleID, dispatchID, time.Now().UTC(), id)
	return err
}

func (r *ledgerRepository) MarkSent(ctx context.Context, id uuid.UUID, confirmationID string) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE push_ledger
        SET status = $1, confirmation_id = $2, updated_at = $3
        WHERE id = $4 AND status = $5
    `, ledger.StatusSent, confirmationID, time.Now().UTC(), id, ledger.StatusPending)
	return err
}

func (r *ledgerRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE push_ledger
        SET status = $1, updated_at = $2
        WHERE id = $3 AND status = $4
    `, ledger.StatusFailed, time.Now().UTC(), id, ledger.StatusPending)
	return err
}

func (r *ledgerRepository) DeleteByRemoteScheduleID(ctx context.Context, tx DBTX, remoteScheduleID string) error {
	execDB := tx
	if execDB == nil {
		execDB = r.db
	}
	_, err := execDB.ExecContext(ctx, `
        DELETE FROM push_ledger
        WHERE remote_schedule_id = $1
    `, remoteScheduleID)
	return err
}

func scanLedgerRow(row *sql.Row) (ledger.Entry, error) {
	var e ledger.Entry
	err := row.Scan(
		&e.ID,
		&e.FixtureID,
		&e.RemoteScheduleID,
		&e.DispatchID,
		&e.ConfirmationID,
		&e.Status,
		&e.SendAtUTC,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Entry{}, matchpush_errors.ErrNotFound
	}
	return e, err
}

func collectLedgerRows(rows *sql.Rows) ([]ledger.Entry, error) {
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(
			&e.ID,
			&e.FixtureID,
			&e.RemoteScheduleID,
			&e.DispatchID,
			&e.ConfirmationID,
			&e.Status,
			&e.SendAtUTC,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
