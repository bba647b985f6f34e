package entitlement

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStoreTimeout = errors.New("entitlement: store timeout must not be negative")
	ErrUnsupportedBackend  = errors.New("entitlement: unsupported backend")
	ErrInvalidRateLimit    = errors.New("entitlement: trial lookup limit needs a positive burst and refill interval")
	ErrMissingActor        = errors.New("entitlement: acting admin is required")
	ErrExpiryInPast        = errors.New("entitlement: user override expiry must be in the future")
	ErrEmptyOverride       = errors.New("entitlement: user override sets no fields")
	ErrFailedToFetch       = errors.New("entitlement: failed to fetch records")
	ErrFailedToSave        = errors.New("entitlement: failed to save record")
	ErrInvalidPaging       = errors.New("entitlement: limit and offset must be non-negative integers")
	ErrBillingUnavailable  = errors.New("entitlement: billing provider is not configured")
)

func invalidBackend(kind string, b Backend) error {
	return errors.Join(ErrUnsupportedBackend, fmt.Errorf("%s backend %q", kind, b))
}
