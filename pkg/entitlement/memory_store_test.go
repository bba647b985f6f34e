package entitlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("subscriptions", func(t *testing.T) {
		t.Parallel()
		store := entitlement.NewMemoryStore()

		_, err := store.GetSubscription(ctx, "u1")
		assert.ErrorIs(t, err, entitlement.ErrNotFound)

		require.NoError(t, store.SaveSubscription(ctx, sub("u1", entitlement.TierPremium)))
		got, err := store.GetSubscription(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, entitlement.TierPremium, got.Tier)

		assert.ErrorIs(t, store.SaveSubscription(ctx, sub("u1", "platinum")), entitlement.ErrInvalidArgument)
	})

	t.Run("global override lifecycle", func(t *testing.T) {
		t.Parallel()
		store := entitlement.NewMemoryStore()

		_, err := store.GetGlobalOverride(ctx)
		assert.ErrorIs(t, err, entitlement.ErrNotFound)

		require.NoError(t, store.SaveGlobalOverride(ctx, &entitlement.GlobalOverride{PremiumOverrideEnabled: true, Premium: entitlement.True}))
		g, err := store.GetGlobalOverride(ctx)
		require.NoError(t, err)
		assert.True(t, g.PremiumOverrideEnabled)

		require.NoError(t, store.ResetGlobalOverride(ctx))
		_, err = store.GetGlobalOverride(ctx)
		assert.ErrorIs(t, err, entitlement.ErrNotFound)
	})

	t.Run("user overrides are kept after expiry", func(t *testing.T) {
		t.Parallel()
		store := entitlement.NewMemoryStore()
		past := time.Now().Add(-time.Hour)

		require.NoError(t, store.SaveUserOverride(ctx, &entitlement.UserOverride{UserID: "b", Premium: entitlement.True, ExpiresAt: &past}))
		require.NoError(t, store.SaveUserOverride(ctx, &entitlement.UserOverride{UserID: "a", Premium: entitlement.False}))

		got, err := store.GetUserOverride(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, past, *got.ExpiresAt)

		list, err := store.ListUserOverrides(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].UserID)

		require.NoError(t, store.DeleteUserOverride(ctx, "a"))
		assert.ErrorIs(t, store.DeleteUserOverride(ctx, "a"), entitlement.ErrNotFound)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		t.Parallel()
		store := entitlement.NewMemoryStore()
		require.NoError(t, store.SaveUserOverride(ctx, &entitlement.UserOverride{
			UserID:       "u1",
			Capabilities: map[entitlement.Capability]entitlement.TriState{entitlement.CapabilityPreview: entitlement.True},
		}))

		got, err := store.GetUserOverride(ctx, "u1")
		require.NoError(t, err)
		got.Capabilities[entitlement.CapabilityPreview] = entitlement.False

		again, err := store.GetUserOverride(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, entitlement.True, again.Capabilities[entitlement.CapabilityPreview])
	})
}
