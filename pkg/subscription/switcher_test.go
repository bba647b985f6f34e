package subscription_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/subscription"
)

func newSwitcher(p *mockProvider) *subscription.Switcher {
	return subscription.NewSwitcher(p, subscription.WithIntervalPrices(map[subscription.BillingInterval]string{
		subscription.BillingIntervalMonthly: "pri_monthly",
		subscription.BillingIntervalAnnual:  "pri_annual",
	}))
}

func TestSwitcher_SwitchInterval(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("trialing subscription keeps trial end", func(t *testing.T) {
		t.Parallel()
		p := &mockProvider{}
		end := trialEnd
		p.On("GetSubscription", ctx, "sub_1").Return(&subscription.ProviderSubscription{
			ID:          "sub_1",
			CustomerID:  "u1",
			Status:      subscription.StatusTrialing,
			TrialEndsAt: &end,
		}, nil)
		p.On("ChangeInterval", ctx, mock.MatchedBy(func(req subscription.ChangeIntervalRequest) bool {
			return req.SubscriptionID == "sub_1" &&
				req.PriceID == "pri_annual" &&
				req.Decision.Proration == subscription.ProrationNone &&
				req.Decision.PreserveTrialEnd != nil &&
				req.Decision.PreserveTrialEnd.Equal(trialEnd)
		})).Return(nil)

		d, err := newSwitcher(p).SwitchInterval(ctx, "sub_1", subscription.BillingIntervalAnnual)
		require.NoError(t, err)
		assert.Equal(t, subscription.ProrationNone, d.Proration)
		p.AssertExpectations(t)
	})

	t.Run("active subscription is prorated", func(t *testing.T) {
		t.Parallel()
		p := &mockProvider{}
		p.On("GetSubscription", ctx, "sub_2").Return(&subscription.ProviderSubscription{
			ID:     "sub_2",
			Status: subscription.StatusActive,
		}, nil)
		p.On("ChangeInterval", ctx, subscription.ChangeIntervalRequest{
			SubscriptionID: "sub_2",
			PriceID:        "pri_monthly",
			Interval:       subscription.BillingIntervalMonthly,
			Decision:       subscription.SwitchDecision{Proration: subscription.ProrationCreate},
		}).Return(nil)

		d, err := newSwitcher(p).SwitchInterval(ctx, "sub_2", subscription.BillingIntervalMonthly)
		require.NoError(t, err)
		assert.Equal(t, subscription.ProrationCreate, d.Proration)
		assert.Nil(t, d.PreserveTrialEnd)
		p.AssertExpectations(t)
	})

	t.Run("invalid interval never reaches provider", func(t *testing.T) {
		t.Parallel()
		p := &mockProvider{}
		_, err := newSwitcher(p).SwitchInterval(ctx, "sub_3", "weekly")
		assert.ErrorIs(t, err, subscription.ErrInvalidArgument)
		p.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
	})

	t.Run("missing subscription ID", func(t *testing.T) {
		t.Parallel()
		_, err := newSwitcher(&mockProvider{}).SwitchInterval(ctx, "", subscription.BillingIntervalAnnual)
		assert.ErrorIs(t, err, subscription.ErrMissingSubscription)
	})

	t.Run("unconfigured price", func(t *testing.T) {
		t.Parallel()
		p := &mockProvider{}
		_, err := subscription.NewSwitcher(p).SwitchInterval(ctx, "sub_4", subscription.BillingIntervalAnnual)
		assert.ErrorIs(t, err, subscription.ErrMissingPriceID)
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()
		p := &mockProvider{}
		boom := errors.New("boom")
		p.On("GetSubscription", ctx, "sub_5").Return(nil, boom)

		_, err := newSwitcher(p).SwitchInterval(ctx, "sub_5", subscription.BillingIntervalAnnual)
		assert.ErrorIs(t, err, boom)
		p.AssertNotCalled(t, "ChangeInterval", mock.Anything, mock.Anything)
	})
}

func TestNewSwitcher_PanicsWithoutProvider(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { subscription.NewSwitcher(nil) })
}
