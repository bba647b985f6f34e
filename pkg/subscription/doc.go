// Package subscription connects a payment provider to entitlement records.
//
// It has three parts:
//
//   - DecideSwitch: the pure rule for moving a subscription between monthly
//     and annual billing. Trialing subscriptions keep their trial end and are
//     not prorated; every other state is prorated.
//   - Switcher: fetches the live subscription from a BillingProvider, runs
//     DecideSwitch and applies the result with the price configured for the
//     target interval.
//   - Syncer: turns verified provider webhooks into entitlement.SubscriptionRecord
//     writes. Only trialing or active subscriptions on a premium price are
//     recorded as the premium tier.
//
// PaddleProvider implements BillingProvider on top of the official Paddle SDK.
//
// # Usage
//
//	provider, err := subscription.NewPaddleProvider(cfg)
//	if err != nil {
//		return err
//	}
//
//	switcher := subscription.NewSwitcher(provider,
//		subscription.WithIntervalPrices(cfg.IntervalPrices()),
//	)
//	decision, err := switcher.SwitchInterval(ctx, "sub_01h...", subscription.BillingIntervalAnnual)
//
//	syncer := subscription.NewSyncer(provider, store,
//		subscription.WithPremiumPrices(cfg.PremiumPriceIDs...),
//	)
//	err = syncer.HandleWebhook(ctx, body, r.Header.Get("Paddle-Signature"))
//
// # Error Handling
//
// Caller mistakes (unknown interval, missing IDs) wrap ErrInvalidArgument.
// Provider failures wrap ErrProviderError; store failures during sync wrap
// ErrFailedToSync:
//
//	switch {
//	case errors.Is(err, subscription.ErrInvalidArgument):
//		// 400
//	case errors.Is(err, subscription.ErrWebhookVerificationFailed):
//		// 401
//	}
package subscription
