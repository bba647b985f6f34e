package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/entitlekit/pkg/logger"
)

// Switcher moves provider subscriptions between billing intervals.
type Switcher struct {
	provider BillingProvider
	prices   map[BillingInterval]string
	logger   *slog.Logger
}

// NewSwitcher creates a Switcher. Panics if provider is nil.
func NewSwitcher(provider BillingProvider, opts ...SwitcherOption) *Switcher {
	if provider == nil {
		panic("subscription: BillingProvider is required")
	}
	s := &Switcher{
		provider: provider,
		prices:   make(map[BillingInterval]string, 2),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SwitchInterval reads the subscription's current state from the provider,
// decides how the change is billed and applies it.
func (s *Switcher) SwitchInterval(ctx context.Context, subscriptionID string, interval BillingInterval) (SwitchDecision, error) {
	if subscriptionID == "" {
		return SwitchDecision{}, errors.Join(ErrInvalidArgument, ErrMissingSubscription)
	}
	if !interval.Valid() {
		return SwitchDecision{}, errors.Join(ErrInvalidArgument, fmt.Errorf("%w: %q", ErrInvalidInterval, interval))
	}
	priceID, ok := s.prices[interval]
	if !ok {
		return SwitchDecision{}, errors.Join(ErrMissingPriceID, fmt.Errorf("no price configured for %s billing", interval))
	}

	current, err := s.provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return SwitchDecision{}, err
	}

	decision, err := DecideSwitch(current.Status, current.TrialEndsAt, interval)
	if err != nil {
		return SwitchDecision{}, err
	}

	if err := s.provider.ChangeInterval(ctx, ChangeIntervalRequest{
		SubscriptionID: subscriptionID,
		PriceID:        priceID,
		Interval:       interval,
		Decision:       decision,
	}); err != nil {
		return SwitchDecision{}, err
	}

	s.logger.InfoContext(ctx, "billing interval switched",
		logger.Component("subscription"),
		logger.SubscriptionID(subscriptionID),
		logger.UserID(current.CustomerID),
		slog.String("interval", string(interval)),
		slog.String("proration", string(decision.Proration)),
		slog.Bool("trial_preserved", decision.PreserveTrialEnd != nil),
	)
	return decision, nil
}
