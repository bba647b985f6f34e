package entitlement

import "context"

// SubscriptionStore persists billing-derived subscription records.
// Get returns ErrNotFound when the user has no record.
type SubscriptionStore interface {
	GetSubscription(ctx context.Context, userID string) (*SubscriptionRecord, error)
	SaveSubscription(ctx context.Context, rec *SubscriptionRecord) error
}

// OverrideStore persists the global override singleton and per-user overrides.
// Writes are last-write-wins. Getters return ErrNotFound for missing records
// and must return expired user overrides as stored; expiry is the resolver's call.
type OverrideStore interface {
	GetGlobalOverride(ctx context.Context) (*GlobalOverride, error)
	SaveGlobalOverride(ctx context.Context, o *GlobalOverride) error
	ResetGlobalOverride(ctx context.Context) error

	GetUserOverride(ctx context.Context, userID string) (*UserOverride, error)
	SaveUserOverride(ctx context.Context, o *UserOverride) error
	DeleteUserOverride(ctx context.Context, userID string) error
	ListUserOverrides(ctx context.Context) ([]*UserOverride, error)
}
