package pgstore

import (
	"context"
	"errors"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/pg"
)

const (
	getSubscriptionSQL = `
SELECT user_id, tier, status, current_period_end, updated_at
FROM subscriptions
WHERE user_id = $1`

	upsertSubscriptionSQL = `
INSERT INTO subscriptions (user_id, tier, status, current_period_end, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
    tier = EXCLUDED.tier,
    status = EXCLUDED.status,
    current_period_end = EXCLUDED.current_period_end,
    updated_at = EXCLUDED.updated_at`
)

func (s *Store) GetSubscription(ctx context.Context, userID string) (*entitlement.SubscriptionRecord, error) {
	var (
		rec  entitlement.SubscriptionRecord
		tier string
	)
	err := s.db.QueryRow(ctx, getSubscriptionSQL, userID).Scan(
		&rec.UserID, &tier, &rec.Status, &rec.CurrentPeriodEnd, &rec.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, entitlement.ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	rec.Tier = entitlement.Tier(tier)
	return &rec, nil
}

func (s *Store) SaveSubscription(ctx context.Context, rec *entitlement.SubscriptionRecord) error {
	if rec == nil {
		return entitlement.ErrNilRecord
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, upsertSubscriptionSQL,
		rec.UserID, string(rec.Tier), rec.Status, rec.CurrentPeriodEnd, rec.UpdatedAt.UTC(),
	); err != nil {
		return writeError(entitlement.ErrInvalidArgument, err)
	}
	return nil
}
