package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"matchpush/internal/domain/delivery"
	"matchpush/internal/domain/ledger"
	"matchpush/internal/repository"
	matchpush_errors "matchpush/pkg/errors"
	"matchpush/pkg/logger"
)

// InboundConfirmation is one delivery confirmation as received on the
// webhook, after transport decoding.
type InboundConfirmation struct {
	RecipientID      string
	ConfirmationType string
	DispatchID       string
	ConfirmationID   string
	Timestamp        time.Time
	HomeName         string
	AwayName         string
	Category         string
}

// Deduper is the fast path in front of the delivery_confirmations unique
// index. Implemented by the redis dedup store.
type Deduper interface {
	MarkSeen(ctx context.Context, recipientID, confirmationType string, platformTS time.Time) bool
	// Forget drops the seen marker so the platform's retry of a failed
	// webhook is not short-circuited.
	Forget(ctx context.Context, recipientID, confirmationType string, platformTS time.Time)
}

// CorrelatorService attributes inbound confirmations to fixtures.
type CorrelatorService struct {
	entries    repository.LedgerRepository
	deliveries repository.DeliveryRepository
	deduper    Deduper
	log        *logger.Logger

	window time.Duration
	clock  func() time.Time
}

func NewCorrelatorService(
	entries repository.LedgerRepository,
	deliveries repository.DeliveryRepository,
	deduper Deduper,
	log *logger.Logger,
	window time.Duration,
) *CorrelatorService {
	return &CorrelatorService{
		entries:    entries,
		deliveries: deliveries,
		deduper:    deduper,
		log:        log,
		window:     window,
		clock:      time.Now,
	}
}

// HandleConfirmation correlates one inbound confirmation and records it.
// Re-delivery of the same webhook is absorbed: the redis fast path
// short-circuits the common case and the unique index catches the rest.
// A failed correlation still produces a row: a wrong-but-logged
// attribution beats a dropped event.
func (s *CorrelatorService) HandleConfirmation(ctx context.Context, in InboundConfirmation) (delivery.Match, error) {
	receivedAt := s.clock().UTC()

	if s.deduper != nil && !s.deduper.MarkSeen(ctx, in.RecipientID, in.ConfirmationType, in.Timestamp) {
		s.log.Info(ctx, "confirmation re-delivery ignored",
			zap.String("recipient_id", in.RecipientID),
			zap.Time("platform_timestamp", in.Timestamp),
		)
		return delivery.Match{Method: delivery.MatchNone, Confidence: delivery.ConfidenceLow}, nil
	}

	match := s.correlate(ctx, in, receivedAt)

	if match.Method == delivery.MatchByDispatchID && match.FixtureID != nil {
		// Confirmed attribution: the originating entry moves to sent.
		if entry, err := s.entries.GetByDispatchID(ctx, in.DispatchID); err == nil && entry.Status == ledger.StatusPending {
			if err := s.entries.MarkSent(ctx, entry.ID, in.ConfirmationID); err != nil {
				s.log.Error(ctx, "mark ledger entry sent failed",
					zap.String("entry_id", entry.ID.String()),
					zap.Error(err),
				)
			}
		}
	}

	confirmation := &delivery.Confirmation{
		ID:                  uuid.New(),
		FixtureID:           match.FixtureID,
		HomeName:            in.HomeName,
		AwayName:            in.AwayName,
		Category:            in.Category,
		ExternalRecipientID: in.RecipientID,
		ConfirmationType:    in.ConfirmationType,
		PlatformTimestamp:   in.Timestamp,
		MatchMethod:         match.Method,
		MatchConfidence:     match.Confidence,
		ReceivedAt:          receivedAt,
	}
	if err := s.deliveries.Create(ctx, confirmation); err != nil {
		if errors.Is(err, matchpush_errors.ErrAlreadyExists) {
			// Re-delivered webhook that slipped past the fast path.
			return match, nil
		}
		// The seen marker must not outlive a failed insert, or the
		// platform's retry would be dropped for the marker's TTL.
		if s.deduper != nil {
			s.deduper.Forget(ctx, in.RecipientID, in.ConfirmationType, in.Timestamp)
		}
		return match, fmt.Errorf("record confirmation: %w", err)
	}
	return match, nil
}

// correlate resolves the fixture by, in priority order: dispatch id,
// exact send-time match, then nearest send time within the correlation
// window.
func (s *CorrelatorService) correlate(ctx context.Context, in InboundConfirmation, receivedAt time.Time) delivery.Match {
	if in.DispatchID != "" {
		if entry, err := s.entries.GetByDispatchID(ctx, in.DispatchID); err == nil {
			return delivery.Match{
				Method:     delivery.MatchByDispatchID,
				Confidence: delivery.ConfidenceHigh,
				FixtureID:  &entry.FixtureID,
			}
		}
	}

	if !in.Timestamp.IsZero() {
		if entries, err := s.entries.ListBySendAt(ctx, in.Timestamp.UTC()); err == nil && len(entries) > 0 {
			match := delivery.Match{
				Method:     delivery.MatchByTimestamp,
				Confidence: delivery.ConfidenceMedium,
				FixtureID:  &entries[0].FixtureID,
				Ambiguous:  len(entries) > 1,
			}
			if match.Ambiguous {
				s.log.Warn(ctx, "timestamp correlation ambiguous",
					zap.Time("send_at", in.Timestamp),
					zap.Int("candidates", len(entries)),
					zap.String("chosen_fixture_id", entries[0].FixtureID.String()),
				)
			}
			return match
		}
	}

	// Active, not just pending: after the first confirmation flips an
	// entry to sent, later recipients' confirmations still belong to it.
	entries, err := s.entries.ListActiveBetween(ctx, receivedAt.Add(-s.window), receivedAt.Add(s.window))
	if err != nil || len(entries) == 0 {
		return delivery.Match{Method: delivery.MatchNone, Confidence: delivery.ConfidenceLow}
	}

	best := entries[0]
	bestDelta := absDuration(best.SendAtUTC.Sub(receivedAt))
	for _, entry := range entries[1:] {
		if delta := absDuration(entry.SendAtUTC.Sub(receivedAt)); delta < bestDelta {
			best = entry
			bestDelta = delta
		}
	}

	match := delivery.Match{
		Method:     delivery.MatchByWindow,
		Confidence: delivery.ConfidenceLow,
		FixtureID:  &best.FixtureID,
		Ambiguous:  len(entries) > 1,
	}
	// Window matches are guesses. Always log them so a wrong pick can be
	// traced afterwards.
	s.log.Warn(ctx, "low-confidence window correlation",
		zap.String("fixture_id", best.FixtureID.String()),
		zap.Duration("delta", bestDelta),
		zap.Int("candidates", len(entries)),
		zap.Bool("ambiguous", match.Ambiguous),
	)
	return match
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
