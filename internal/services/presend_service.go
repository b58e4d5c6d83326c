package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"matchpush/internal/domain/ledger"
	"matchpush/internal/gateway"
	"matchpush/internal/repository"
	matchpush_errors "matchpush/pkg/errors"
	"matchpush/pkg/logger"
)

// PresendResult summarizes one verifier run.
type PresendResult struct {
	Checked   int `json:"checked"`
	Confirmed int `json:"confirmed"`
	Recreated int `json:"recreated"`
	Failed    int `json:"failed"`
}

// PresendVerifier confirms that every ledger entry about to send still
// has its schedule at the platform, and recreates the ones that went
// missing. It runs without a lock: each repair touches a single ledger
// row idempotently, and the unique index is the arbiter either way.
type PresendVerifier struct {
	fixtures repository.FixtureRepository
	entries  repository.LedgerRepository
	platform gateway.Client
	builder  *PayloadBuilder
	auditor  *AuditWriter
	log      *logger.Logger

	horizon time.Duration
	clock   func() time.Time
}

func NewPresendVerifier(
	fixtures repository.FixtureRepository,
	entries repository.LedgerRepository,
	platform gateway.Client,
	builder *PayloadBuilder,
	auditor *AuditWriter,
	log *logger.Logger,
	horizon time.Duration,
) *PresendVerifier {
	return &PresendVerifier{
		fixtures: fixtures,
		entries:  entries,
		platform: platform,
		builder:  builder,
		auditor:  auditor,
		log:      log,
		horizon:  horizon,
		clock:    time.Now,
	}
}

func (v *PresendVerifier) Run(ctx context.Context) (PresendResult, error) {
	now := v.clock().UTC()
	pending, err := v.entries.ListPendingBetween(ctx, now, now.Add(v.horizon))
	if err != nil {
		return PresendResult{}, fmt.Errorf("list pending entries: %w", err)
	}

	result := PresendResult{Checked: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	// One fresh list covers every entry in the horizon; the common
	// all-present case costs a single platform call.
	schedules, err := v.platform.ListUpcomingSchedules(ctx, now.Add(v.horizon).Add(5*time.Minute))
	if err != nil {
		return PresendResult{}, fmt.Errorf("list remote schedules: %w", err)
	}
	present := make(map[string]struct{}, len(schedules))
	for _, sched := range schedules {
		present[sched.ID()] = struct{}{}
	}

	for _, entry := range pending {
		if _, ok := present[entry.RemoteScheduleID]; ok {
			result.Confirmed++
			continue
		}
		if err := v.recreate(ctx, entry); err != nil {
			result.Failed++
			v.log.Error(ctx, "recreate missing schedule failed",
				zap.String("fixture_id", entry.FixtureID.String()),
				zap.String("old_remote_schedule_id", entry.RemoteScheduleID),
				zap.Error(err),
			)
			_ = v.auditor.Write(ctx, nil, "presend_verifier", &entry.FixtureID, "recreate_failed", err.Error(), map[string]interface{}{
				"old_remote_schedule_id": entry.RemoteScheduleID,
				"send_at":                entry.SendAtUTC,
			})
			continue
		}
		result.Recreated++
	}

	v.log.Info(ctx, "presend verifier run finished",
		zap.Int("checked", result.Checked),
		zap.Int("confirmed", result.Confirmed),
		zap.Int("recreated", result.Recreated),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// recreate rebuilds audience and payload from current data and repoints
// the existing ledger row at the replacement schedule. The row is updated
// in place: inserting a second active row would break the uniqueness
// invariant.
func (v *PresendVerifier) recreate(ctx context.Context, entry ledger.Entry) error {
	f, err := v.fixtures.GetByID(ctx, entry.FixtureID)
	if errors.Is(err, matchpush_errors.ErrNotFound) {
		// Fixture and remote schedule are both gone: this entry can never
		// send. Retire it so it stops surfacing on every run.
		if markErr := v.entries.MarkFailed(ctx, entry.ID); markErr != nil {
			return fmt.Errorf("mark entry failed: %w", markErr)
		}
		return fmt.Errorf("load fixture: %w", err)
	}
	if err != nil {
		return fmt.Errorf("load fixture: %w", err)
	}

	audience, err := v.builder.Audience(ctx, f)
	if err != nil {
		return fmt.Errorf("build audience: %w", err)
	}
	payload := v.builder.Payload(ctx, f)

	resp, err := v.platform.CreateSchedule(ctx, gateway.CreateScheduleRequest{
		Audience: audience,
		SendAt:   entry.SendAtUTC,
		Payload:  payload,
	})
	if err != nil {
		return err
	}

	dispatchID := sql.NullString{String: resp.DispatchID, Valid: resp.DispatchID != ""}
	if err := v.entries.UpdateRemoteIDs(ctx, entry.ID, resp.ScheduleID, dispatchID); err != nil {
		return fmt.Errorf("update ledger entry: %w", err)
	}

	_ = v.auditor.Write(ctx, nil, "presend_verifier", &entry.FixtureID, "schedule_recreated", "missing at platform", map[string]interface{}{
		"old_remote_schedule_id": entry.RemoteScheduleID,
		"new_remote_schedule_id": resp.ScheduleID,
		"new_dispatch_id":        resp.DispatchID,
		"send_at":                entry.SendAtUTC,
		"attempt_sig":            payload.AttemptSig,
	})
	return nil
}
