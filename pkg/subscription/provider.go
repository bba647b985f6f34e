package subscription

import (
	"context"
	"time"
)

// BillingProvider is the slice of a payment provider this module needs:
// reading a subscription, changing its price, and parsing signed webhooks.
//
// Implementations should use official provider SDKs and handle provider-specific
// quirks internally.
type BillingProvider interface {
	// GetSubscription fetches the live state of a provider subscription.
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)

	// ChangeInterval moves the subscription to the price of another interval,
	// applying the proration and trial handling in req.Decision.
	ChangeInterval(ctx context.Context, req ChangeIntervalRequest) error

	// ParseWebhook validates and parses incoming webhook data.
	// Must validate signature to prevent webhook spoofing attacks.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// ProviderSubscription is the normalized provider view of a subscription.
type ProviderSubscription struct {
	ID               string
	CustomerID       string // your user ID from custom data
	Status           SubscriptionStatus
	PriceID          string
	TrialEndsAt      *time.Time
	CurrentPeriodEnd *time.Time
}

// ChangeIntervalRequest carries a decided interval change to the provider.
type ChangeIntervalRequest struct {
	SubscriptionID string
	PriceID        string
	Interval       BillingInterval
	Decision       SwitchDecision
}

// WebhookEvent represents a normalized webhook event from the billing provider.
type WebhookEvent struct {
	Type             EventType          // Normalized event type
	ProviderEvent    string             // Original provider event name
	SubscriptionID   string             // Provider's subscription ID
	CustomerID       string             // Your user ID from metadata
	Status           SubscriptionStatus // Subscription status
	PriceID          string             // The price they subscribed to
	CurrentPeriodEnd *time.Time
	Raw              map[string]any // Full webhook data
}

// EventType represents the normalized billing event type.
// Each provider implementation maps their specific events to these types.
type EventType string

const (
	EventSubscriptionCreated   EventType = "subscription_created"
	EventSubscriptionUpdated   EventType = "subscription_updated"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventSubscriptionResumed   EventType = "subscription_resumed"

	EventPaymentSucceeded EventType = "payment_succeeded"
	EventPaymentFailed    EventType = "payment_failed"
)
