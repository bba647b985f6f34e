package trial

import (
	"context"

	"github.com/google/uuid"
)

// Store persists trial rules.
// GetRule and DeleteRule return ErrRuleNotFound for unknown IDs.
type Store interface {
	ListRules(ctx context.Context, activeOnly bool) ([]Rule, error)
	GetRule(ctx context.Context, id uuid.UUID) (*Rule, error)
	SaveRule(ctx context.Context, r *Rule) error
	DeleteRule(ctx context.Context, id uuid.UUID) error
}
