package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"matchpush/internal/domain/audit"
	"matchpush/internal/repository"
)

// AuditWriter appends entries to the audit log. Writes are best-effort:
// a failed audit write never fails the action it describes.
type AuditWriter struct {
	repo repository.AuditRepository
}

func NewAuditWriter(repo repository.AuditRepository) *AuditWriter {
	return &AuditWriter{repo: repo}
}

func (w *AuditWriter) Write(ctx context.Context, tx repository.DBTX, functionName string, fixtureID *uuid.UUID, action, reason string, details interface{}) error {
	if w == nil || w.repo == nil {
		return nil
	}
	data := []byte("{}")
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			data = raw
		}
	}
	return w.repo.Create(ctx, tx, &audit.Entry{
		ID:           uuid.New(),
		FunctionName: functionName,
		FixtureID:    fixtureID,
		Action:       action,
		Reason:       reason,
		Details:      data,
		CreatedAt:    time.Now().UTC(),
	})
}
