package subscription

import (
	"log/slog"
	"time"
)

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithPremiumPrices limits the premium tier to the given provider price IDs.
// Without it every trialing or active subscription is premium.
func WithPremiumPrices(priceIDs ...string) SyncerOption {
	return func(s *Syncer) {
		for _, id := range priceIDs {
			if id != "" {
				s.premiumPrices[id] = struct{}{}
			}
		}
	}
}

// WithSyncerClock overrides the clock used to stamp UpdatedAt.
func WithSyncerClock(now func() time.Time) SyncerOption {
	return func(s *Syncer) {
		if now != nil {
			s.now = now
		}
	}
}

func WithSyncerLogger(l *slog.Logger) SyncerOption {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// SwitcherOption configures a Switcher.
type SwitcherOption func(*Switcher)

// WithIntervalPrice maps a billing interval to the provider price that bills it.
func WithIntervalPrice(interval BillingInterval, priceID string) SwitcherOption {
	return func(s *Switcher) {
		if interval.Valid() && priceID != "" {
			s.prices[interval] = priceID
		}
	}
}

// WithIntervalPrices maps several intervals at once, e.g. from PaddleConfig.IntervalPrices.
func WithIntervalPrices(prices map[BillingInterval]string) SwitcherOption {
	return func(s *Switcher) {
		for interval, priceID := range prices {
			WithIntervalPrice(interval, priceID)(s)
		}
	}
}

func WithSwitcherLogger(l *slog.Logger) SwitcherOption {
	return func(s *Switcher) {
		if l != nil {
			s.logger = l
		}
	}
}
