package entitlement

import "errors"

var (
	// ErrInvalidArgument is the umbrella error for caller mistakes: unknown capability keys,
	// malformed override records, a missing evaluation time. Every more specific error below
	// is joined with it, so errors.Is(err, ErrInvalidArgument) is enough for callers.
	ErrInvalidArgument = errors.New("entitlement: invalid argument")

	ErrUnknownCapability = errors.New("entitlement: unknown capability")
	ErrInvalidTriState   = errors.New("entitlement: invalid tri-state value")
	ErrNegativeQuota     = errors.New("entitlement: quota override must not be negative")
	ErrUserMismatch      = errors.New("entitlement: record belongs to a different user")
	ErrMissingUserID     = errors.New("entitlement: user ID is required")
	ErrMissingTime       = errors.New("entitlement: evaluation time is required")
	ErrInvalidTier       = errors.New("entitlement: invalid subscription tier")
	ErrNilRecord         = errors.New("entitlement: record is required")

	// ErrNotFound is returned by stores when a record does not exist.
	// The resolver never sees it: a missing record is passed as nil.
	ErrNotFound = errors.New("entitlement: record not found")
)

func invalid(err error) error {
	return errors.Join(ErrInvalidArgument, err)
}
