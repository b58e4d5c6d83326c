package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"matchpush/internal/gateway"
	"matchpush/internal/repository"
	"matchpush/pkg/logger"
)

// ReconcilerResult summarizes one dedup run.
type ReconcilerResult struct {
	Listed         int  `json:"listed"`
	DuplicateSets  int  `json:"duplicate_sets"`
	Cancelled      int  `json:"cancelled"`
	Failed         int  `json:"failed"`
	AlreadyRunning bool `json:"already_running,omitempty"`
}

type ReconcilerService struct {
	entries  repository.LedgerRepository
	locks    repository.LockRepository
	platform gateway.Client
	auditor  *AuditWriter
	db       repository.DBTX
	log      *logger.Logger

	runnerID string
	lockTTL  time.Duration
	horizon  time.Duration
	clock    func() time.Time
}

func NewReconcilerService(
	entries repository.LedgerRepository,
	locks repository.LockRepository,
	platform gateway.Client,
	auditor *AuditWriter,
	db repository.DBTX,
	log *logger.Logger,
	lockTTL time.Duration,
) *ReconcilerService {
	return &ReconcilerService{
		entries:  entries,
		locks:    locks,
		platform: platform,
		auditor:  auditor,
		db:       db,
		log:      log,
		runnerID: uuid.NewString(),
		lockTTL:  lockTTL,
		horizon:  365 * 24 * time.Hour,
		clock:    time.Now,
	}
}

// Run lists every future remote schedule, groups them by fixture
// signature and cancels all but the earliest-created member of each
// group. Remote cancellation is confirmed before the matching ledger row
// is deleted, so a failed cancel never orphans a remote schedule.
func (s *ReconcilerService) Run(ctx context.Context, lockName string) (ReconcilerResult, error) {
	acquired, err := s.locks.Acquire(ctx, lockName, s.runnerID, s.lockTTL)
	if err != nil {
		return ReconcilerResult{}, fmt.Errorf("acquire lock %s: %w", lockName, err)
	}
	if !acquired {
		s.log.Info(ctx, "reconciler already running", zap.String("lock", lockName))
		return ReconcilerResult{AlreadyRunning: true}, nil
	}
	defer func() {
		if err := s.locks.Release(ctx, lockName, s.runnerID); err != nil {
			s.log.Error(ctx, "release lock failed", zap.String("lock", lockName), zap.Error(err))
		}
	}()

	now := s.clock().UTC()
	schedules, err := s.platform.ListUpcomingSchedules(ctx, now.Add(s.horizon))
	if err != nil {
		return ReconcilerResult{}, fmt.Errorf("list remote schedules: %w", err)
	}

	result := ReconcilerResult{Listed: len(schedules)}
	groups := groupBySignature(schedules)

	var summary []map[string]interface{}
	for signature, members := range groups {
		if len(members) < 2 {
			continue
		}
		result.DuplicateSets++

		// Earliest remote creation time survives. When two members share a
		// creation instant the lower id wins, to keep repeated runs stable.
		sort.Slice(members, func(i, j int) bool {
			if members[i].CreatedAt.Equal(members[j].CreatedAt) {
				return members[i].ID() < members[j].ID()
			}
			return members[i].CreatedAt.Before(members[j].CreatedAt)
		})
		keeper := members[0]

		for _, dup := range members[1:] {
			if err := s.cancelDuplicate(ctx, signature, keeper, dup); err != nil {
				result.Failed++
				s.log.Error(ctx, "cancel duplicate failed",
					zap.String("signature", signature),
					zap.String("remote_schedule_id", dup.ID()),
					zap.Error(err),
				)
				continue
			}
			result.Cancelled++
			summary = append(summary, map[string]interface{}{
				"signature":    signature,
				"cancelled_id": dup.ID(),
				"kept_id":      keeper.ID(),
				"message_type": string(dup.Type()),
			})
		}
	}

	if len(summary) > 0 {
		_ = s.auditor.Write(ctx, nil, "reconciler", nil, "duplicates_cancelled", "", map[string]interface{}{
			"count":         result.Cancelled,
			"cancellations": summary,
		})
	}

	s.log.Info(ctx, "reconciler run finished",
		zap.Int("listed", result.Listed),
		zap.Int("duplicate_sets", result.DuplicateSets),
		zap.Int("cancelled", result.Cancelled),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *ReconcilerService) cancelDuplicate(ctx context.Context, signature string, keeper, dup gateway.Schedule) error {
	// Remote side first. CancelSchedule treats "already gone" as success.
	if err := s.platform.CancelSchedule(ctx, dup.ID(), dup.Type()); err != nil {
		return err
	}

	var fixtureID *uuid.UUID
	if parsed, err := uuid.Parse(dup.Payload.FixtureID); err == nil {
		fixtureID = &parsed
	}

	// The ledger row is keyed off the cancelled remote id, never off a
	// ledger pointer that a concurrent writer could have redirected.
	remove := func(tx repository.DBTX) error {
		if err := s.entries.DeleteByRemoteScheduleID(ctx, tx, dup.ID()); err != nil {
			return err
		}
		return s.auditor.Write(ctx, tx, "reconciler", fixtureID, "duplicate_removed", "remote cancel confirmed", map[string]interface{}{
			"signature":    signature,
			"cancelled_id": dup.ID(),
			"kept_id":      keeper.ID(),
		})
	}
	if s.db == nil {
		return remove(nil)
	}
	return repository.WithTx(ctx, s.db, remove)
}

// groupBySignature buckets schedules by fixture identity: category,
// send-relevant start time truncated to the minute and both participant
// names, all case-insensitive. Schedules without a fixture marker in the
// payload are not ours and are never grouped, so two unrelated items on
// the shared channel can't be mistaken for duplicates of each other.
func groupBySignature(schedules []gateway.Schedule) map[string][]gateway.Schedule {
	groups := make(map[string][]gateway.Schedule)
	for _, sched := range schedules {
		if sched.Payload.FixtureID == "" {
			continue
		}
		sig := fixtureSignature(sched.Payload)
		groups[sig] = append(groups[sig], sched)
	}
	return groups
}

func fixtureSignature(p gateway.Payload) string {
	kickoff := p.KickoffUTC
	if t, err := time.Parse(time.RFC3339, p.KickoffUTC); err == nil {
		kickoff = t.UTC().Truncate(time.Minute).Format(time.RFC3339)
	}
	return strings.ToLower(strings.Join([]string{
		p.Category,
		kickoff,
		p.HomeName,
		p.AwayName,
	}, "|"))
}
