package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
	"github.com/dmitrymomot/entitlekit/pkg/trial"
)

// Audit actions recorded for admin mutations.
const (
	ActionGrantUserOverride  = "user_override.grant"
	ActionRevokeUserOverride = "user_override.revoke"
	ActionSetGlobalOverride  = "global_override.set"
	ActionResetGlobal        = "global_override.reset"
	ActionCreateRule         = "trial_rule.create"
	ActionUpdateRule         = "trial_rule.update"
	ActionDeleteRule         = "trial_rule.delete"
)

// Audit resource types.
const (
	ResourceUserOverride   = "user_override"
	ResourceGlobalOverride = "global_override"
	ResourceTrialRule      = "trial_rule"
)

const globalResourceID = "global"

// GrantUserOverride stores o as the user's override, replacing any previous
// one. The override must set at least one field. A nil ExpiresAt grants it
// until revoked; a set ExpiresAt must lie in the future.
// CreatedBy and CreatedAt are stamped from actor and the service clock.
func (s *Service) GrantUserOverride(ctx context.Context, actor string, o entitlement.UserOverride) (*entitlement.UserOverride, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	o.UserID = strings.TrimSpace(o.UserID)
	if o.UserID == "" {
		return nil, errors.Join(entitlement.ErrInvalidArgument, entitlement.ErrMissingUserID)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if !o.HasFields() {
		return nil, errors.Join(entitlement.ErrInvalidArgument, ErrEmptyOverride)
	}
	now := s.now()
	if o.ExpiresAt != nil && !now.Before(*o.ExpiresAt) {
		return nil, errors.Join(entitlement.ErrInvalidArgument, ErrExpiryInPast)
	}

	rec := o.Clone()
	rec.CreatedBy = actor
	rec.CreatedAt = now
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.overrides.SaveUserOverride(ctx, rec)
	})
	s.record(ctx, ActionGrantUserOverride, actor, err,
		audit.WithResource(ResourceUserOverride, rec.UserID),
		audit.WithMetadata("premium", rec.Premium.String()),
		audit.WithMetadata("expires_at", expiryValue(rec.ExpiresAt)),
		audit.WithMetadata("reason", rec.Reason),
	)
	if err != nil {
		return nil, errors.Join(ErrFailedToSave, err)
	}

	s.logger.InfoContext(ctx, "user override granted",
		logger.Actor(actor),
		logger.UserID(rec.UserID),
		slog.String("expires_at", expiryValue(rec.ExpiresAt)),
	)
	return rec, nil
}

// RevokeUserOverride deletes the user's override. It returns
// entitlement.ErrNotFound when there is none.
func (s *Service) RevokeUserOverride(ctx context.Context, actor, userID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.Join(entitlement.ErrInvalidArgument, entitlement.ErrMissingUserID)
	}
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.overrides.DeleteUserOverride(ctx, userID)
	})
	s.record(ctx, ActionRevokeUserOverride, actor, err, audit.WithResource(ResourceUserOverride, userID))
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user override revoked", logger.Actor(actor), logger.UserID(userID))
	return nil
}

// UserOverride returns the stored override, expired or not.
func (s *Service) UserOverride(ctx context.Context, userID string) (*entitlement.UserOverride, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.Join(entitlement.ErrInvalidArgument, entitlement.ErrMissingUserID)
	}
	var o *entitlement.UserOverride
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.overrides.GetUserOverride(ctx, userID)
		return err
	})
	return o, err
}

// ListUserOverrides returns stored overrides. Expired records are skipped
// unless includeExpired is set.
func (s *Service) ListUserOverrides(ctx context.Context, includeExpired bool) ([]*entitlement.UserOverride, error) {
	var all []*entitlement.UserOverride
	if err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		all, err = s.overrides.ListUserOverrides(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	if includeExpired {
		return all, nil
	}
	now := s.now()
	active := make([]*entitlement.UserOverride, 0, len(all))
	for _, o := range all {
		if o.IsActive(now) {
			active = append(active, o)
		}
	}
	return active, nil
}

// GlobalOverride returns the live global override or entitlement.ErrNotFound.
func (s *Service) GlobalOverride(ctx context.Context) (*entitlement.GlobalOverride, error) {
	var g *entitlement.GlobalOverride
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		g, err = s.overrides.GetGlobalOverride(ctx)
		return err
	})
	return g, err
}

// SetGlobalOverride replaces the global override.
func (s *Service) SetGlobalOverride(ctx context.Context, actor string, g entitlement.GlobalOverride) (*entitlement.GlobalOverride, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	rec := g.Clone()
	rec.UpdatedBy = actor
	rec.UpdatedAt = s.now()
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.overrides.SaveGlobalOverride(ctx, rec)
	})
	s.record(ctx, ActionSetGlobalOverride, actor, err,
		audit.WithResource(ResourceGlobalOverride, globalResourceID),
		audit.WithMetadata("premium", rec.Premium.String()),
		audit.WithMetadata("premium_override_enabled", rec.PremiumOverrideEnabled),
		audit.WithMetadata("reason", rec.Reason),
	)
	if err != nil {
		return nil, errors.Join(ErrFailedToSave, err)
	}

	s.logger.InfoContext(ctx, "global override set",
		logger.Actor(actor),
		slog.Bool("premium_override_enabled", rec.PremiumOverrideEnabled),
	)
	return rec, nil
}

// ResetGlobalOverride removes the global override. Resetting when none is
// set is not an error.
func (s *Service) ResetGlobalOverride(ctx context.Context, actor string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.overrides.ResetGlobalOverride(ctx)
	})
	s.record(ctx, ActionResetGlobal, actor, err, audit.WithResource(ResourceGlobalOverride, globalResourceID))
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "global override reset", logger.Actor(actor))
	return nil
}

// Rules lists trial rules, inactive ones included.
func (s *Service) Rules(ctx context.Context) ([]trial.Rule, error) {
	var rules []trial.Rule
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		rules, err = s.rules.ListRules(ctx, false)
		return err
	})
	return rules, err
}

// Rule returns a rule by ID or trial.ErrRuleNotFound.
func (s *Service) Rule(ctx context.Context, id uuid.UUID) (*trial.Rule, error) {
	var r *trial.Rule
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		r, err = s.rules.GetRule(ctx, id)
		return err
	})
	return r, err
}

// CreateRule stores a new rule with a fresh ID and audit stamps.
func (s *Service) CreateRule(ctx context.Context, actor string, r trial.Rule) (*trial.Rule, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	rec := r.Clone()
	rec.ID = uuid.New()
	rec.PromoCode = strings.TrimSpace(rec.PromoCode)
	rec.CreatedBy, rec.UpdatedBy = actor, actor
	rec.CreatedAt, rec.UpdatedAt = now, now
	if err := s.saveRule(ctx, ActionCreateRule, actor, &rec); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "trial rule created",
		logger.Actor(actor),
		logger.PromoCode(rec.PromoCode),
		slog.String("rule_id", rec.ID.String()),
	)
	return &rec, nil
}

// UpdateRule replaces the editable fields of an existing rule. Creation
// stamps are kept from the stored rule.
func (s *Service) UpdateRule(ctx context.Context, actor string, id uuid.UUID, r trial.Rule) (*trial.Rule, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.Rule(ctx, id)
	if err != nil {
		return nil, err
	}

	rec := r.Clone()
	rec.ID = id
	rec.PromoCode = strings.TrimSpace(rec.PromoCode)
	rec.CreatedBy, rec.CreatedAt = existing.CreatedBy, existing.CreatedAt
	rec.UpdatedBy, rec.UpdatedAt = actor, s.now()
	if err := s.saveRule(ctx, ActionUpdateRule, actor, &rec); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "trial rule updated",
		logger.Actor(actor),
		logger.PromoCode(rec.PromoCode),
		slog.String("rule_id", id.String()),
	)
	return &rec, nil
}

// DeleteRule removes a rule. It returns trial.ErrRuleNotFound for unknown IDs.
func (s *Service) DeleteRule(ctx context.Context, actor string, id uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.rules.DeleteRule(ctx, id)
	})
	s.record(ctx, ActionDeleteRule, actor, err, audit.WithResource(ResourceTrialRule, id.String()))
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "trial rule deleted", logger.Actor(actor), slog.String("rule_id", id.String()))
	return nil
}

// AuditEvents returns recorded admin actions, newest first.
func (s *Service) AuditEvents(ctx context.Context, c audit.Criteria) ([]audit.Event, error) {
	var events []audit.Event
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		events, err = s.auditReader.Find(ctx, c)
		return err
	})
	return events, err
}

func (s *Service) saveRule(ctx context.Context, action, actor string, r *trial.Rule) error {
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.rules.SaveRule(ctx, r)
	})
	s.record(ctx, action, actor, err,
		audit.WithResource(ResourceTrialRule, r.ID.String()),
		audit.WithMetadata("promo_code", r.PromoCode),
		audit.WithMetadata("trial_days", r.TrialDays),
		audit.WithMetadata("is_active", r.IsActive),
		audit.WithMetadata("plan", string(r.Plan)),
	)
	if err != nil {
		return errors.Join(ErrFailedToSave, err)
	}
	return nil
}

// record writes the audit event of a mutation that reached the store. A
// failed write is logged; the mutation result is not changed by it.
func (s *Service) record(ctx context.Context, action, actor string, opErr error, opts ...audit.EventOption) {
	opts = append(opts, audit.WithActor(actor))
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		if opErr != nil {
			return s.auditLog.LogError(ctx, action, opErr, opts...)
		}
		return s.auditLog.Log(ctx, action, opts...)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record audit event",
			slog.String("action", action),
			logger.Actor(actor),
			logger.Error(err),
		)
	}
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return errors.Join(entitlement.ErrInvalidArgument, ErrMissingActor)
	}
	return nil
}

func expiryValue(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
