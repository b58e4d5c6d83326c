package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"matchpush/internal/gateway"
	"matchpush/internal/repository"
	"matchpush/pkg/logger"
)

// CountAuditResult is the drift report for one auditor run.
type CountAuditResult struct {
	LedgerPending   int `json:"ledger_pending"`
	RemoteScheduled int `json:"remote_scheduled"`
	Discrepancy     int `json:"discrepancy"`
}

// CountAuditor compares ledger and platform counts. It never repairs
// anything: drift is surfaced through the audit log for out-of-band
// remediation, and the job runs without a lock because it is read-only.
type CountAuditor struct {
	entries  repository.LedgerRepository
	platform gateway.Client
	auditor  *AuditWriter
	log      *logger.Logger

	horizon time.Duration
	clock   func() time.Time
}

func NewCountAuditor(
	entries repository.LedgerRepository,
	platform gateway.Client,
	auditor *AuditWriter,
	log *logger.Logger,
) *CountAuditor {
	return &CountAuditor{
		entries:  entries,
		platform: platform,
		auditor:  auditor,
		log:      log,
		horizon:  365 * 24 * time.Hour,
		clock:    time.Now,
	}
}

func (a *CountAuditor) Run(ctx context.Context) (CountAuditResult, error) {
	now := a.clock().UTC()

	ledgerPending, err := a.entries.CountPendingAfter(ctx, now)
	if err != nil {
		return CountAuditResult{}, fmt.Errorf("count pending entries: %w", err)
	}

	schedules, err := a.platform.ListUpcomingSchedules(ctx, now.Add(a.horizon))
	if err != nil {
		return CountAuditResult{}, fmt.Errorf("list remote schedules: %w", err)
	}

	// Only schedules this system created carry a fixture marker in their
	// payload; anything else on the channel is someone else's.
	remote := 0
	for _, sched := range schedules {
		if sched.Payload.FixtureID != "" {
			remote++
		}
	}

	result := CountAuditResult{
		LedgerPending:   ledgerPending,
		RemoteScheduled: remote,
		Discrepancy:     remote - ledgerPending,
	}

	_ = a.auditor.Write(ctx, nil, "count_auditor", nil, "counts_compared", "", map[string]interface{}{
		"ledger_pending":   result.LedgerPending,
		"remote_scheduled": result.RemoteScheduled,
		"discrepancy":      result.Discrepancy,
	})

	level := a.log.Info
	if result.Discrepancy != 0 {
		level = a.log.Warn
	}
	level(ctx, "count audit finished",
		zap.Int("ledger_pending", result.LedgerPending),
		zap.Int("remote_scheduled", result.RemoteScheduled),
		zap.Int("discrepancy", result.Discrepancy),
	)
	return result, nil
}
