package trial

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Plan is the billing plan a rule applies to, or that a caller is asking about.
type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanAnnual  Plan = "annual"
	// PlanAny on a rule means "every plan". As a query it means the caller
	// did not specify a plan, which only unrestricted rules match.
	PlanAny Plan = "any"
)

func (p Plan) Valid() bool {
	return p == PlanMonthly || p == PlanAnnual || p == PlanAny
}

// ParsePlan accepts monthly, annual and any. An empty string means any.
func ParsePlan(s string) (Plan, error) {
	if s == "" {
		return PlanAny, nil
	}
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", errors.Join(ErrInvalidArgument, fmt.Errorf("%w: %q", ErrInvalidPlan, s))
	}
	return p, nil
}

// Rule grants TrialDays free days to callers presenting PromoCode.
// Several rules may share a code with different plan or audience scopes.
type Rule struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	PromoCode string    `json:"promo_code" yaml:"promo_code"`
	Name      string    `json:"name" yaml:"name"`
	TrialDays int       `json:"trial_days" yaml:"trial_days"`
	IsActive  bool      `json:"is_active" yaml:"is_active"`
	Plan      Plan      `json:"plan" yaml:"plan"`
	// GroupIDs restricts the rule to an audience. Empty means anyone.
	GroupIDs  []string  `json:"group_ids,omitempty" yaml:"group_ids,omitempty"`
	CreatedBy string    `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty" yaml:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}

// Validate checks the rule shape.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.PromoCode) == "" {
		return errors.Join(ErrInvalidArgument, ErrInvalidRule, ErrMissingCode)
	}
	if r.TrialDays < 0 {
		return errors.Join(ErrInvalidArgument, ErrInvalidRule, ErrNegativeDays)
	}
	if !r.Plan.Valid() {
		return errors.Join(ErrInvalidArgument, ErrInvalidRule, fmt.Errorf("%w: %q", ErrInvalidPlan, r.Plan))
	}
	return nil
}

// Restricted reports whether the rule is limited to specific groups.
func (r Rule) Restricted() bool {
	return len(r.GroupIDs) > 0
}

// Matches reports whether the rule applies to q. A malformed rule never
// matches, and neither does a query for an unknown plan.
func (r Rule) Matches(q Query) bool {
	if !r.IsActive || r.Validate() != nil || !q.plan().Valid() {
		return false
	}
	if NormalizeCode(r.PromoCode) != NormalizeCode(q.PromoCode) {
		return false
	}
	if r.Plan != PlanAny && r.Plan != q.plan() {
		return false
	}
	if r.Restricted() {
		return q.GroupID != "" && slices.Contains(r.GroupIDs, q.GroupID)
	}
	return true
}

func (r Rule) Clone() Rule {
	r.GroupIDs = slices.Clone(r.GroupIDs)
	return r
}

// Query is a trial lookup.
type Query struct {
	PromoCode string
	Plan      Plan   // empty or PlanAny when unspecified; unknown plans match nothing
	GroupID   string // empty when the caller has no group
}

func (q Query) plan() Plan {
	if q.Plan == "" {
		return PlanAny
	}
	return q.Plan
}

// NormalizeCode folds a promo code for case-insensitive comparison.
func NormalizeCode(code string) string {
	return cases.Fold().String(strings.TrimSpace(code))
}

// EndsAt returns when a trial of days started at start ends.
func EndsAt(start time.Time, days int) time.Time {
	if days <= 0 {
		return start
	}
	return start.AddDate(0, 0, days).UTC()
}
