package pgstore

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/pg"
	"github.com/dmitrymomot/entitlekit/pkg/trial"
)

const (
	ruleColumns = `id, promo_code, name, trial_days, is_active, plan, group_ids, created_by, updated_by, created_at, updated_at`

	listRulesSQL       = `SELECT ` + ruleColumns + ` FROM trial_rules ORDER BY lower(promo_code), id`
	listActiveRulesSQL = `SELECT ` + ruleColumns + ` FROM trial_rules WHERE is_active ORDER BY lower(promo_code), id`
	getRuleSQL         = `SELECT ` + ruleColumns + ` FROM trial_rules WHERE id = $1`

	upsertRuleSQL = `
INSERT INTO trial_rules (` + ruleColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    promo_code = EXCLUDED.promo_code,
    name = EXCLUDED.name,
    trial_days = EXCLUDED.trial_days,
    is_active = EXCLUDED.is_active,
    plan = EXCLUDED.plan,
    group_ids = EXCLUDED.group_ids,
    updated_by = EXCLUDED.updated_by,
    updated_at = EXCLUDED.updated_at`

	deleteRuleSQL = `DELETE FROM trial_rules WHERE id = $1`
)

func (s *Store) ListRules(ctx context.Context, activeOnly bool) ([]trial.Rule, error) {
	query := listRulesSQL
	if activeOnly {
		query = listActiveRulesSQL
	}
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var rules []trial.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return rules, nil
}

func (s *Store) GetRule(ctx context.Context, id uuid.UUID) (*trial.Rule, error) {
	r, err := scanRule(s.db.QueryRow(ctx, getRuleSQL, id))
	if pg.IsNotFoundError(err) {
		return nil, trial.ErrRuleNotFound
	}
	return r, err
}

// SaveRule creates or replaces a rule, assigning an ID when it has none.
func (s *Store) SaveRule(ctx context.Context, r *trial.Rule) error {
	if r == nil {
		return errors.Join(trial.ErrInvalidArgument, trial.ErrInvalidRule)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	groups := r.GroupIDs
	if groups == nil {
		groups = []string{}
	}
	if _, err := s.db.Exec(ctx, upsertRuleSQL,
		r.ID, r.PromoCode, r.Name, r.TrialDays, r.IsActive, string(r.Plan), groups,
		r.CreatedBy, r.UpdatedBy, r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
	); err != nil {
		return writeError(trial.ErrInvalidArgument, err)
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, deleteRuleSQL, id)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return trial.ErrRuleNotFound
	}
	return nil
}

func scanRule(row scanner) (*trial.Rule, error) {
	var (
		r    trial.Rule
		plan string
	)
	err := row.Scan(
		&r.ID, &r.PromoCode, &r.Name, &r.TrialDays, &r.IsActive, &plan, &r.GroupIDs,
		&r.CreatedBy, &r.UpdatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	r.Plan = trial.Plan(plan)
	if len(r.GroupIDs) == 0 {
		r.GroupIDs = nil
	}
	return &r, nil
}
