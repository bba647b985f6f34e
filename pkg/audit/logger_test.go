package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Store(ctx context.Context, event audit.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockStorage) Query(ctx context.Context, c audit.Criteria) ([]audit.Event, error) {
	args := m.Called(ctx, c)
	events, _ := args.Get(0).([]audit.Event)
	return events, args.Error(1)
}

type ctxKey string

var at = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fromContext(key ctxKey) func(context.Context) (string, bool) {
	return func(ctx context.Context) (string, bool) {
		v, ok := ctx.Value(key).(string)
		return v, ok
	}
}

func TestNewLogger_PanicsOnNilStorage(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { audit.NewLogger(nil) })
	assert.Panics(t, func() { audit.NewReader(nil) })
}

func TestLogger_Log(t *testing.T) {
	t.Parallel()

	storage := audit.NewMemoryStorage()
	log := audit.NewLogger(storage,
		audit.WithRequestIDExtractor(fromContext("request_id")),
		audit.WithIPExtractor(fromContext("ip")),
		audit.WithClock(func() time.Time { return at }),
	)

	ctx := context.WithValue(context.Background(), ctxKey("request_id"), "req-1")
	ctx = context.WithValue(ctx, ctxKey("ip"), "198.51.100.7")
	require.NoError(t, log.Log(ctx, "user_override.revoke",
		audit.WithActor("admin"),
		audit.WithResource("user_override", "u1"),
		audit.WithMetadata("reason", "abuse"),
	))

	events, err := audit.NewReader(storage).Find(ctx, audit.Criteria{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	e := events[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "admin", e.Actor)
	assert.Equal(t, "user_override.revoke", e.Action)
	assert.Equal(t, "user_override", e.Resource)
	assert.Equal(t, "u1", e.ResourceID)
	assert.Equal(t, audit.ResultSuccess, e.Result)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, "198.51.100.7", e.IP)
	assert.Equal(t, map[string]any{"reason": "abuse"}, e.Metadata)
	assert.Equal(t, at, e.CreatedAt)
}

func TestLogger_LogError(t *testing.T) {
	t.Parallel()

	storage := &mockStorage{}
	storage.On("Store", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
		return e.Result == audit.ResultError && e.Error == "store down" && e.RequestID == ""
	})).Return(nil).Once()

	log := audit.NewLogger(storage)
	require.NoError(t, log.LogError(context.Background(), "trial_rule.delete", errors.New("store down"), audit.WithActor("ops")))
	storage.AssertExpectations(t)
}

func TestLogger_Validation(t *testing.T) {
	t.Parallel()

	storage := &mockStorage{}
	log := audit.NewLogger(storage)

	err := log.Log(context.Background(), "global_override.reset")
	assert.ErrorIs(t, err, audit.ErrEventValidation)

	err = log.Log(context.Background(), "", audit.WithActor("ops"))
	assert.ErrorIs(t, err, audit.ErrEventValidation)

	storage.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
}

func TestLogger_StorageError(t *testing.T) {
	t.Parallel()

	errDown := errors.New("down")
	storage := &mockStorage{}
	storage.On("Store", mock.Anything, mock.Anything).Return(errDown)

	err := audit.NewLogger(storage).Log(context.Background(), "global_override.set", audit.WithActor("ops"))
	assert.ErrorIs(t, err, errDown)
}
