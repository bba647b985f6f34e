package trial

import "errors"

var (
	ErrInvalidArgument = errors.New("trial: invalid argument")

	ErrInvalidRule     = errors.New("trial: invalid rule")
	ErrMissingCode     = errors.New("trial: promo code is required")
	ErrNegativeDays    = errors.New("trial: trial days must not be negative")
	ErrInvalidPlan     = errors.New("trial: invalid plan")
	ErrRuleNotFound    = errors.New("trial: rule not found")
	ErrFailedToLoadYML = errors.New("trial: failed to load rules file")
	ErrMissingRuleID   = errors.New("trial: rule id is required")
	ErrDuplicateRuleID = errors.New("trial: duplicate rule id")
)
