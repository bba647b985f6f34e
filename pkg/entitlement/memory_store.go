package entitlement

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore is an in-memory SubscriptionStore and OverrideStore.
// It is useful for tests and single-process deployments.
type MemoryStore struct {
	mu            sync.RWMutex
	subscriptions map[string]*SubscriptionRecord
	global        *GlobalOverride
	users         map[string]*UserOverride
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscriptions: make(map[string]*SubscriptionRecord),
		users:         make(map[string]*UserOverride),
	}
}

func (m *MemoryStore) GetSubscription(_ context.Context, userID string) (*SubscriptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.subscriptions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) SaveSubscription(_ context.Context, rec *SubscriptionRecord) error {
	if rec == nil {
		return invalid(ErrNilRecord)
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[rec.UserID] = rec.Clone()
	return nil
}

func (m *MemoryStore) GetGlobalOverride(_ context.Context) (*GlobalOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.global == nil {
		return nil, ErrNotFound
	}
	return m.global.Clone(), nil
}

func (m *MemoryStore) SaveGlobalOverride(_ context.Context, o *GlobalOverride) error {
	if o == nil {
		return invalid(ErrNilRecord)
	}
	if err := o.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.global = o.Clone()
	return nil
}

func (m *MemoryStore) ResetGlobalOverride(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global = nil
	return nil
}

func (m *MemoryStore) GetUserOverride(_ context.Context, userID string) (*UserOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return o.Clone(), nil
}

func (m *MemoryStore) SaveUserOverride(_ context.Context, o *UserOverride) error {
	if o == nil {
		return invalid(ErrNilRecord)
	}
	if err := o.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[o.UserID] = o.Clone()
	return nil
}

func (m *MemoryStore) DeleteUserOverride(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return ErrNotFound
	}
	delete(m.users, userID)
	return nil
}

// ListUserOverrides returns all stored overrides, expired ones included, ordered by user ID.
func (m *MemoryStore) ListUserOverrides(_ context.Context) ([]*UserOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*UserOverride, 0, len(m.users))
	for _, o := range m.users {
		result = append(result, o.Clone())
	}
	slices.SortFunc(result, func(a, b *UserOverride) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
	return result, nil
}
