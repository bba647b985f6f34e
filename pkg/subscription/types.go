package subscription

import (
	"errors"
	"fmt"
	"strings"
)

// BillingInterval is the billing frequency of a paid subscription.
type BillingInterval string

const (
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

func (i BillingInterval) Valid() bool {
	return i == BillingIntervalMonthly || i == BillingIntervalAnnual
}

// ParseInterval accepts monthly and annual.
func ParseInterval(s string) (BillingInterval, error) {
	i := BillingInterval(strings.ToLower(strings.TrimSpace(s)))
	if !i.Valid() {
		return "", errors.Join(ErrInvalidArgument, fmt.Errorf("%w: %q", ErrInvalidInterval, s))
	}
	return i, nil
}

// SubscriptionStatus is the provider-reported state of a subscription.
type SubscriptionStatus string

const (
	StatusTrialing  SubscriptionStatus = "trialing"
	StatusActive    SubscriptionStatus = "active"
	StatusPastDue   SubscriptionStatus = "past_due"
	StatusPaused    SubscriptionStatus = "paused"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusExpired   SubscriptionStatus = "expired"
)

// GrantsPremium reports whether a subscription in this state unlocks the
// premium tier.
func (s SubscriptionStatus) GrantsPremium() bool {
	return s == StatusTrialing || s == StatusActive
}

// ProrationMode tells the provider how to bill an interval change.
type ProrationMode string

const (
	ProrationNone   ProrationMode = "none"
	ProrationCreate ProrationMode = "create_prorations"
)
