package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/subscription"
)

var trialEnd = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

func TestDecideSwitch(t *testing.T) {
	t.Parallel()

	t.Run("trialing preserves trial end without proration", func(t *testing.T) {
		t.Parallel()
		end := trialEnd
		d, err := subscription.DecideSwitch(subscription.StatusTrialing, &end, subscription.BillingIntervalAnnual)
		require.NoError(t, err)
		assert.Equal(t, subscription.ProrationNone, d.Proration)
		require.NotNil(t, d.PreserveTrialEnd)
		assert.True(t, trialEnd.Equal(*d.PreserveTrialEnd))

		end = end.Add(time.Hour)
		assert.True(t, trialEnd.Equal(*d.PreserveTrialEnd), "decision must not alias the input")
	})

	t.Run("trialing without known trial end", func(t *testing.T) {
		t.Parallel()
		d, err := subscription.DecideSwitch(subscription.StatusTrialing, nil, subscription.BillingIntervalMonthly)
		require.NoError(t, err)
		assert.Equal(t, subscription.ProrationNone, d.Proration)
		assert.Nil(t, d.PreserveTrialEnd)
	})

	for _, status := range []subscription.SubscriptionStatus{
		subscription.StatusActive,
		subscription.StatusPastDue,
		subscription.StatusPaused,
	} {
		t.Run(string(status)+" is prorated", func(t *testing.T) {
			t.Parallel()
			end := trialEnd
			d, err := subscription.DecideSwitch(status, &end, subscription.BillingIntervalAnnual)
			require.NoError(t, err)
			assert.Equal(t, subscription.ProrationCreate, d.Proration)
			assert.Nil(t, d.PreserveTrialEnd)
		})
	}

	t.Run("invalid interval", func(t *testing.T) {
		t.Parallel()
		for _, interval := range []subscription.BillingInterval{"", "weekly", "none"} {
			_, err := subscription.DecideSwitch(subscription.StatusTrialing, nil, interval)
			require.Error(t, err)
			assert.ErrorIs(t, err, subscription.ErrInvalidArgument)
			assert.ErrorIs(t, err, subscription.ErrInvalidInterval)
		}
	})
}

func TestParseInterval(t *testing.T) {
	t.Parallel()

	i, err := subscription.ParseInterval("Annual")
	require.NoError(t, err)
	assert.Equal(t, subscription.BillingIntervalAnnual, i)

	i, err = subscription.ParseInterval("monthly")
	require.NoError(t, err)
	assert.Equal(t, subscription.BillingIntervalMonthly, i)

	_, err = subscription.ParseInterval("yearly")
	assert.ErrorIs(t, err, subscription.ErrInvalidArgument)
}

func TestSubscriptionStatus_GrantsPremium(t *testing.T) {
	t.Parallel()

	assert.True(t, subscription.StatusTrialing.GrantsPremium())
	assert.True(t, subscription.StatusActive.GrantsPremium())
	assert.False(t, subscription.StatusPastDue.GrantsPremium())
	assert.False(t, subscription.StatusCancelled.GrantsPremium())
	assert.False(t, subscription.StatusExpired.GrantsPremium())
}
