package repository

import (
	"context"

	"matchpush/internal/domain/delivery"
	matchpush_errors "matchpush/pkg/errors"
)

type deliveryRepository struct {
	db DBTX
}

func NewDeliveryRepository(db DBTX) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, c *delivery.Confirmation) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO delivery_confirmations
            (id, fixture_id, home_name, away_name, category, external_recipient_id,
             confirmation_type, platform_timestamp, match_method, match_confidence, received_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    `,
		c.ID,
		c.FixtureID,
		c.HomeName,
		c.AwayName,
		c.Category,
		c.ExternalRecipientID,
		c.ConfirmationType,
		c.PlatformTimestamp,
		c.MatchMethod,
		c.MatchConfidence,
		c.ReceivedAt,
	)
	if isUniqueViolation(err) {
		return matchpush_errors.ErrAlreadyExists
	}
	return err
}
