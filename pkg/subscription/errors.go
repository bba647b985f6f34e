package subscription

import "errors"

var (
	ErrInvalidArgument = errors.New("subscription: invalid argument")
	ErrInvalidInterval = errors.New("subscription: billing interval must be monthly or annual")

	ErrMissingSubscription = errors.New("subscription ID is required")
	ErrMissingCustomerID   = errors.New("customer ID not present in webhook")
	ErrProviderError       = errors.New("subscription provider error")
	ErrFailedToSync        = errors.New("failed to sync subscription")

	// Provider-specific errors
	ErrMissingAPIKey              = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret       = errors.New("billing provider webhook secret is required")
	ErrInvalidProviderEnvironment = errors.New("invalid billing provider environment")
	ErrWebhookVerificationFailed  = errors.New("webhook signature verification failed")
	ErrMissingPriceID             = errors.New("price ID is required")
)
