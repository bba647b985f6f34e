package trial_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/trial"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	active := rule("SAVE20", 7, trial.PlanAny)
	inactive := rule("OLD", 30, trial.PlanAny)
	inactive.IsActive = false

	store, err := trial.NewMemoryStore(active, inactive)
	require.NoError(t, err)

	all, err := store.ListRules(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := store.ListRules(ctx, true)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, active.ID, onlyActive[0].ID)

	got, err := store.GetRule(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", got.PromoCode)

	created := &trial.Rule{PromoCode: "NEW", TrialDays: 3, IsActive: true, Plan: trial.PlanAnnual}
	require.NoError(t, store.SaveRule(ctx, created))
	assert.NotEqual(t, uuid.Nil, created.ID)

	created.TrialDays = 5
	require.NoError(t, store.SaveRule(ctx, created))
	got, err = store.GetRule(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TrialDays)

	require.NoError(t, store.DeleteRule(ctx, created.ID))
	_, err = store.GetRule(ctx, created.ID)
	assert.ErrorIs(t, err, trial.ErrRuleNotFound)
	assert.ErrorIs(t, store.DeleteRule(ctx, created.ID), trial.ErrRuleNotFound)
}

func TestMemoryStore_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := trial.NewMemoryStore(rule("", 7, trial.PlanAny))
	assert.ErrorIs(t, err, trial.ErrInvalidRule)

	dup := rule("A", 1, trial.PlanAny)
	_, err = trial.NewMemoryStore(dup, dup)
	assert.ErrorIs(t, err, trial.ErrInvalidRule)

	store, err := trial.NewMemoryStore()
	require.NoError(t, err)
	assert.ErrorIs(t, store.SaveRule(ctx, nil), trial.ErrInvalidArgument)
	assert.ErrorIs(t, store.SaveRule(ctx, &trial.Rule{PromoCode: "X", TrialDays: -1, Plan: trial.PlanAny}), trial.ErrNegativeDays)
}

func TestMemoryStore_IsolatesCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r := rule("BETA", 10, trial.PlanAny, "staff")
	store, err := trial.NewMemoryStore(r)
	require.NoError(t, err)

	got, err := store.GetRule(ctx, r.ID)
	require.NoError(t, err)
	got.GroupIDs[0] = "changed"

	again, err := store.GetRule(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"staff"}, again.GroupIDs)
}
