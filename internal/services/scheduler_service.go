package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"matchpush/internal/domain/fixture"
	"matchpush/internal/domain/ledger"
	"matchpush/internal/gateway"
	"matchpush/internal/repository"
	matchpush_errors "matchpush/pkg/errors"
	"matchpush/pkg/logger"
)

// SchedulerResult summarizes one scheduler run.
type SchedulerResult struct {
	Created        int  `json:"created"`
	Skipped        int  `json:"skipped"`
	Failed         int  `json:"failed"`
	AlreadyRunning bool `json:"already_running,omitempty"`
}

type SchedulerService struct {
	fixtures repository.FixtureRepository
	entries  repository.LedgerRepository
	locks    repository.LockRepository
	platform gateway.Client
	builder  *PayloadBuilder
	auditor  *AuditWriter
	log      *logger.Logger

	runnerID string
	leadTime time.Duration
	lockTTL  time.Duration
	clock    func() time.Time
}

func NewSchedulerService(
	fixtures repository.FixtureRepository,
	entries repository.LedgerRepository,
	locks repository.LockRepository,
	platform gateway.Client,
	builder *PayloadBuilder,
	auditor *AuditWriter,
	log *logger.Logger,
	leadTime, lockTTL time.Duration,
) *SchedulerService {
	return &SchedulerService{
		fixtures: fixtures,
		entries:  entries,
		locks:    locks,
		platform: platform,
		builder:  builder,
		auditor:  auditor,
		log:      log,
		runnerID: uuid.NewString(),
		leadTime: leadTime,
		lockTTL:  lockTTL,
		clock:    time.Now,
	}
}

// Run creates one remote schedule per qualifying fixture inside the
// lookahead window. The whole batch runs under the named lock; when the
// lock is held elsewhere the run is a no-op, not an error. A single
// fixture's failure never aborts the batch.
func (s *SchedulerService) Run(ctx context.Context, lookaheadDays int, lockName string) (SchedulerResult, error) {
	acquired, err := s.locks.Acquire(ctx, lockName, s.runnerID, s.lockTTL)
	if err != nil {
		return SchedulerResult{}, fmt.Errorf("acquire lock %s: %w", lockName, err)
	}
	if !acquired {
		s.log.Info(ctx, "scheduler already running", zap.String("lock", lockName))
		return SchedulerResult{AlreadyRunning: true}, nil
	}
	defer func() {
		if err := s.locks.Release(ctx, lockName, s.runnerID); err != nil {
			s.log.Error(ctx, "release lock failed", zap.String("lock", lockName), zap.Error(err))
		}
	}()

	now := s.clock().UTC()
	until := now.AddDate(0, 0, lookaheadDays)
	candidates, err := s.fixtures.ListUpcoming(ctx, now, until)
	if err != nil {
		return SchedulerResult{}, fmt.Errorf("list upcoming fixtures: %w", err)
	}

	var result SchedulerResult
	for _, f := range candidates {
		outcome, err := s.scheduleOne(ctx, f)
		switch {
		case err != nil:
			result.Failed++
			s.log.Error(ctx, "schedule fixture failed",
				zap.String("fixture_id", f.ID.String()),
				zap.Error(err),
			)
		case outcome:
			result.Created++
		default:
			result.Skipped++
		}
	}

	s.log.Info(ctx, "scheduler run finished",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// scheduleOne returns true when a schedule was created, false when the
// fixture was skipped.
func (s *SchedulerService) scheduleOne(ctx context.Context, f fixture.Fixture) (bool, error) {
	// Idempotent re-run: an active entry means a previous run already
	// scheduled this fixture.
	if _, err := s.entries.GetActiveByFixture(ctx, f.ID); err == nil {
		return false, nil
	} else if !errors.Is(err, matchpush_errors.ErrNotFound) {
		return false, err
	}

	audience, err := s.builder.Audience(ctx, f)
	if err != nil {
		return false, err
	}
	if len(audience.Teams) == 0 {
		// Neither participant resolves to a tracked identity.
		return false, nil
	}

	sendAt := f.KickoffUTC.Add(-s.leadTime).UTC()
	payload := s.builder.Payload(ctx, f)

	resp, err := s.platform.CreateSchedule(ctx, gateway.CreateScheduleRequest{
		Audience: audience,
		SendAt:   sendAt,
		Payload:  payload,
	})
	if err != nil {
		_ = s.auditor.Write(ctx, nil, "scheduler", &f.ID, "create_schedule_failed", err.Error(), map[string]interface{}{
			"send_at":     sendAt,
			"attempt_sig": payload.AttemptSig,
		})
		return false, err
	}

	entry := &ledger.Entry{
		ID:               uuid.New(),
		FixtureID:        f.ID,
		RemoteScheduleID: resp.ScheduleID,
		DispatchID:       sql.NullString{String: resp.DispatchID, Valid: resp.DispatchID != ""},
		Status:           ledger.StatusPending,
		SendAtUTC:        sendAt,
		CreatedAt:        s.clock().UTC(),
		UpdatedAt:        s.clock().UTC(),
	}
	if err := s.entries.Create(ctx, nil, entry); err != nil {
		if errors.Is(err, matchpush_errors.ErrAlreadyExists) {
			// A concurrent run won the unique index. Drop the extra
			// remote schedule so only one survives.
			if cancelErr := s.platform.CancelSchedule(ctx, resp.ScheduleID, gateway.TypeBroadcast); cancelErr != nil {
				s.log.Error(ctx, "cancel duplicate schedule failed",
					zap.String("remote_schedule_id", resp.ScheduleID),
					zap.Error(cancelErr),
				)
			}
			return false, nil
		}
		return false, fmt.Errorf("insert ledger entry: %w", err)
	}

	_ = s.auditor.Write(ctx, nil, "scheduler", &f.ID, "schedule_created", "", map[string]interface{}{
		"remote_schedule_id": resp.ScheduleID,
		"dispatch_id":        resp.DispatchID,
		"send_at":            sendAt,
		"audience":           audience.Teams,
		"attempt_sig":        payload.AttemptSig,
	})
	return true, nil
}
