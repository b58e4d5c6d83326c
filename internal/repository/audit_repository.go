package repository

import (
	"context"

	"matchpush/internal/domain/audit"
)

type auditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, tx DBTX, e *audit.Entry) error {
	execDB := tx
	if execDB == nil {
		execDB = r.db
	}
	details := e.Details
	if len(details) == 0 {
		details = []byte("{}")
	}
	_, err := execDB.ExecContext(ctx, `
        INSERT INTO audit_log (id, function_name, fixture_id, action, reason, details, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `,
		e.ID,
		e.FunctionName,
		e.FixtureID,
		e.Action,
		e.Reason,
		details,
		e.CreatedAt,
	)
	return err
}
