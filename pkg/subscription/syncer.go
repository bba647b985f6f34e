package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
)

// Syncer keeps entitlement subscription records in step with provider webhooks.
// It is the only writer of SubscriptionRecord.
type Syncer struct {
	provider      BillingProvider
	store         entitlement.SubscriptionStore
	premiumPrices map[string]struct{}
	now           func() time.Time
	logger        *slog.Logger
}

// NewSyncer creates a Syncer. Panics if provider or store is nil.
func NewSyncer(provider BillingProvider, store entitlement.SubscriptionStore, opts ...SyncerOption) *Syncer {
	if provider == nil {
		panic("subscription: BillingProvider is required")
	}
	if store == nil {
		panic("subscription: SubscriptionStore is required")
	}
	s := &Syncer{
		provider:      provider,
		store:         store,
		premiumPrices: make(map[string]struct{}),
		now:           func() time.Time { return time.Now().UTC() },
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleWebhook verifies a provider webhook and applies it.
func (s *Syncer) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}
	return s.Apply(ctx, event)
}

// Apply writes the subscription record an event implies.
// Events that do not change a subscription are ignored.
func (s *Syncer) Apply(ctx context.Context, event *WebhookEvent) error {
	if event == nil {
		return errors.Join(ErrInvalidArgument, errors.New("nil webhook event"))
	}

	switch event.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionResumed:
		if event.CustomerID == "" {
			return errors.Join(ErrFailedToSync, ErrMissingCustomerID)
		}
		existing, err := s.existing(ctx, event.CustomerID)
		if err != nil {
			return err
		}
		rec := &entitlement.SubscriptionRecord{
			UserID:           event.CustomerID,
			Tier:             s.tier(event, existing),
			Status:           string(event.Status),
			CurrentPeriodEnd: event.CurrentPeriodEnd,
		}
		if rec.CurrentPeriodEnd == nil && existing != nil {
			rec.CurrentPeriodEnd = existing.CurrentPeriodEnd
		}
		return s.save(ctx, event, rec)

	case EventSubscriptionCancelled:
		if event.CustomerID == "" {
			return errors.Join(ErrFailedToSync, ErrMissingCustomerID)
		}
		return s.save(ctx, event, &entitlement.SubscriptionRecord{
			UserID:           event.CustomerID,
			Tier:             entitlement.TierFree,
			Status:           string(StatusCancelled),
			CurrentPeriodEnd: event.CurrentPeriodEnd,
		})

	case EventPaymentFailed:
		if event.CustomerID == "" {
			return nil
		}
		existing, err := s.existing(ctx, event.CustomerID)
		if err != nil || existing == nil {
			return err
		}
		existing.Status = string(StatusPastDue)
		existing.Tier = entitlement.TierFree
		return s.save(ctx, event, existing)
	}

	s.logger.DebugContext(ctx, "webhook event ignored",
		logger.Component("subscription"),
		logger.EventType(event.ProviderEvent),
	)
	return nil
}

// tier grants premium only for trialing or active subscriptions on a premium price.
// Events without a price keep the tier already on record.
func (s *Syncer) tier(event *WebhookEvent, existing *entitlement.SubscriptionRecord) entitlement.Tier {
	if !event.Status.GrantsPremium() {
		return entitlement.TierFree
	}
	if len(s.premiumPrices) == 0 {
		return entitlement.TierPremium
	}
	if event.PriceID == "" {
		if existing != nil {
			return existing.Tier
		}
		return entitlement.TierFree
	}
	if _, ok := s.premiumPrices[event.PriceID]; ok {
		return entitlement.TierPremium
	}
	return entitlement.TierFree
}

func (s *Syncer) existing(ctx context.Context, userID string) (*entitlement.SubscriptionRecord, error) {
	rec, err := s.store.GetSubscription(ctx, userID)
	if errors.Is(err, entitlement.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToSync, fmt.Errorf("load subscription for %s: %w", userID, err))
	}
	return rec, nil
}

func (s *Syncer) save(ctx context.Context, event *WebhookEvent, rec *entitlement.SubscriptionRecord) error {
	rec.UpdatedAt = s.now()
	if err := s.store.SaveSubscription(ctx, rec); err != nil {
		return errors.Join(ErrFailedToSync, fmt.Errorf("save subscription for %s: %w", rec.UserID, err))
	}
	s.logger.InfoContext(ctx, "subscription synced",
		logger.Component("subscription"),
		logger.EventType(event.ProviderEvent),
		logger.SubscriptionID(event.SubscriptionID),
		logger.UserID(rec.UserID),
		slog.String("tier", string(rec.Tier)),
		slog.String("status", rec.Status),
	)
	return nil
}
