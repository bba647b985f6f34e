package pgstore

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/trial"
)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if r.vals[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

type fakeDB struct {
	row      fakeRow
	affected string
	execErr  error
	execSQL  string
	execArgs []any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL, f.execArgs = sql, args
	return pgconn.NewCommandTag(f.affected), f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not used")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return f.row
}

func TestCapabilitiesCodec(t *testing.T) {
	t.Parallel()

	b, err := encodeCapabilities(map[entitlement.Capability]entitlement.TriState{
		entitlement.CapabilityPreview:      entitlement.True,
		entitlement.CapabilityAnimatedGifs: entitlement.False,
		entitlement.CapabilityPresets:      entitlement.Unset,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"preview": true, "animated_gifs": false}`, string(b))

	caps, err := decodeCapabilities(b)
	require.NoError(t, err)
	assert.Equal(t, map[entitlement.Capability]entitlement.TriState{
		entitlement.CapabilityPreview:      entitlement.True,
		entitlement.CapabilityAnimatedGifs: entitlement.False,
	}, caps)

	caps, err = decodeCapabilities([]byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, caps)

	_, err = decodeCapabilities([]byte(`{"teleport": true}`))
	assert.ErrorIs(t, err, ErrDecodeFailed)

	_, err = decodeCapabilities([]byte(`[`))
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestGetRule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	id := uuid.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	db := &fakeDB{row: fakeRow{vals: []any{
		id, "SAVE20", "promo", 14, true, "monthly", []string{},
		"admin", "admin", now, now,
	}}}
	r, err := New(db).GetRule(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)
	assert.Equal(t, trial.PlanMonthly, r.Plan)
	assert.Nil(t, r.GroupIDs)
	assert.Equal(t, 14, r.TrialDays)

	_, err = New(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}}).GetRule(ctx, id)
	assert.ErrorIs(t, err, trial.ErrRuleNotFound)
}

func TestGetUserOverride(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	quota := 200
	quotaPtr := &quota

	db := &fakeDB{row: fakeRow{vals: []any{
		"u1", entitlement.True, []byte(`{"preview": false}`), quotaPtr, (*time.Time)(nil), "support", "admin", now,
	}}}
	o, err := New(db).GetUserOverride(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.True, o.Premium)
	assert.Equal(t, entitlement.False, o.Capability(entitlement.CapabilityPreview))
	require.NotNil(t, o.GalleryQuota)
	assert.Equal(t, 200, *o.GalleryQuota)
	assert.Nil(t, o.ExpiresAt)

	_, err = New(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}}).GetUserOverride(ctx, "u1")
	assert.ErrorIs(t, err, entitlement.ErrNotFound)
}

func TestGetSubscription_NotFound(t *testing.T) {
	t.Parallel()

	_, err := New(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}}).GetSubscription(context.Background(), "u1")
	assert.ErrorIs(t, err, entitlement.ErrNotFound)
}

func TestSaveRule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := &fakeDB{affected: "INSERT 0 1"}
	r := &trial.Rule{PromoCode: "SAVE20", TrialDays: 7, IsActive: true, Plan: trial.PlanAny}
	require.NoError(t, New(db).SaveRule(ctx, r))
	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, r.ID, db.execArgs[0])
	assert.Equal(t, []string{}, db.execArgs[6])

	err := New(db).SaveRule(ctx, &trial.Rule{PromoCode: "X", TrialDays: -1, Plan: trial.PlanAny})
	assert.ErrorIs(t, err, trial.ErrNegativeDays)
}

func TestSaveRule_WriteErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rule := func() *trial.Rule {
		return &trial.Rule{PromoCode: "SAVE20", TrialDays: 7, IsActive: true, Plan: trial.PlanAny}
	}

	err := New(&fakeDB{execErr: &pgconn.PgError{Code: "23514"}}).SaveRule(ctx, rule())
	assert.ErrorIs(t, err, trial.ErrInvalidArgument)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	err = New(&fakeDB{execErr: errors.New("connection reset")}).SaveRule(ctx, rule())
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.NotErrorIs(t, err, trial.ErrInvalidArgument)
}

func TestDeleteMissing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := &fakeDB{affected: "DELETE 0"}
	assert.ErrorIs(t, New(db).DeleteRule(ctx, uuid.New()), trial.ErrRuleNotFound)
	assert.ErrorIs(t, New(db).DeleteUserOverride(ctx, "u1"), entitlement.ErrNotFound)

	db.affected = "DELETE 1"
	assert.NoError(t, New(db).DeleteUserOverride(ctx, "u1"))
}

func TestSaveUserOverride_Invalid(t *testing.T) {
	t.Parallel()

	err := New(&fakeDB{}).SaveUserOverride(context.Background(), &entitlement.UserOverride{
		UserID:       "u1",
		GalleryQuota: entitlement.Quota(-1),
	})
	assert.ErrorIs(t, err, entitlement.ErrInvalidArgument)
}

func TestMigrationsEmbedded(t *testing.T) {
	t.Parallel()

	entries, err := Migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_init.sql", entries[0].Name())
}

func TestAuditQuery(t *testing.T) {
	t.Parallel()

	query, args := auditQuery(audit.Criteria{})
	assert.Equal(t, `SELECT `+auditColumns+` FROM audit_events ORDER BY created_at DESC, id DESC`, query)
	assert.Empty(t, args)

	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	query, args = auditQuery(audit.Criteria{Resource: "user_override", ResourceID: "u1", Since: since, Limit: 10, Offset: 20})
	assert.Equal(t, `SELECT `+auditColumns+` FROM audit_events WHERE resource = $1 AND resource_id = $2 AND created_at >= $3`+
		` ORDER BY created_at DESC, id DESC LIMIT $4 OFFSET $5`, query)
	assert.Equal(t, []any{"user_override", "u1", since, 10, 20}, args)
}

func TestAuditStorage_Store(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := &fakeDB{affected: "INSERT 0 1"}
	err := NewAuditStorage(db).Store(ctx, audit.Event{
		ID: "e1", Actor: "admin", Action: "user_override.revoke", Resource: "user_override", ResourceID: "u1",
		Result: audit.ResultSuccess, Metadata: map[string]any{"reason": "abuse"},
	})
	require.NoError(t, err)
	assert.Equal(t, insertAuditEventSQL, db.execSQL)
	assert.Equal(t, "e1", db.execArgs[0])
	assert.JSONEq(t, `{"reason": "abuse"}`, string(db.execArgs[9].([]byte)))

	require.NoError(t, NewAuditStorage(db).Store(ctx, audit.Event{ID: "e2", Actor: "a", Action: "x"}))
	assert.Equal(t, []byte(`{}`), db.execArgs[9])

	err = NewAuditStorage(&fakeDB{execErr: &pgconn.PgError{Code: "23514"}}).Store(ctx, audit.Event{ID: "e3"})
	assert.ErrorIs(t, err, audit.ErrEventValidation)
}
