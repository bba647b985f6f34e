package entitlement

import (
	"fmt"
	"time"
)

// Tier is the coarse subscription level reported by the billing sync.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

func (t Tier) Valid() bool {
	return t == TierFree || t == TierPremium
}

// SubscriptionRecord is the billing-derived view of a user's subscription.
// It is written by the billing sync and only read by the resolver, which
// trusts Tier as already validated against Status by its source.
type SubscriptionRecord struct {
	UserID           string     `json:"user_id"`
	Tier             Tier       `json:"tier"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at,omitzero"`
}

// IsPremium reports whether the record alone grants premium.
func (s *SubscriptionRecord) IsPremium() bool {
	return s != nil && s.Tier == TierPremium
}

// Validate checks the record shape.
func (s *SubscriptionRecord) Validate() error {
	if s.UserID == "" {
		return invalid(ErrMissingUserID)
	}
	if !s.Tier.Valid() {
		return invalid(fmt.Errorf("%w: %q", ErrInvalidTier, s.Tier))
	}
	return nil
}

func (s *SubscriptionRecord) Clone() *SubscriptionRecord {
	if s == nil {
		return nil
	}
	c := *s
	if s.CurrentPeriodEnd != nil {
		end := *s.CurrentPeriodEnd
		c.CurrentPeriodEnd = &end
	}
	return &c
}
