package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
	"github.com/dmitrymomot/entitlekit/pkg/trial"
)

// Service fetches a user's records and resolves what they are entitled to.
// It also administers overrides and trial rules, see admin.go.
type Service struct {
	subscriptions entitlement.SubscriptionStore
	overrides     entitlement.OverrideStore
	rules         trial.Store

	auditStorage audit.Storage
	auditLog     *audit.Logger
	auditReader  *audit.Reader

	logger  *slog.Logger
	now     func() time.Time
	timeout time.Duration
}

// NewService creates a Service. Panics if any store is nil.
func NewService(subs entitlement.SubscriptionStore, overrides entitlement.OverrideStore, rules trial.Store, opts ...Option) *Service {
	if subs == nil {
		panic("entitlement: SubscriptionStore is required")
	}
	if overrides == nil {
		panic("entitlement: OverrideStore is required")
	}
	if rules == nil {
		panic("entitlement: trial.Store is required")
	}

	s := &Service{
		subscriptions: subs,
		overrides:     overrides,
		rules:         rules,
		logger:        logger.Discard(),
		now:           func() time.Time { return time.Now().UTC() },
		timeout:       2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("entitlement"))
	if s.auditStorage == nil {
		s.auditStorage = audit.NewMemoryStorage()
	}
	s.auditLog = audit.NewLogger(s.auditStorage,
		audit.WithRequestIDExtractor(requestIDFromContext),
		audit.WithIPExtractor(clientIPFromContext),
		audit.WithClock(s.now),
	)
	s.auditReader = audit.NewReader(s.auditStorage)
	return s
}

// Grant is the resolved entitlement with the override metadata the user may see.
type Grant struct {
	entitlement.Entitlement
	Override *entitlement.Disclosure `json:"override,omitempty"`
}

// Resolve returns the user's effective entitlement.
//
// When the records cannot be fetched or classified the result is the
// conservative free grant with Degraded set; the failure is logged and not
// returned. Only caller mistakes produce an error.
func (s *Service) Resolve(ctx context.Context, userID string) (Grant, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Grant{}, errors.Join(entitlement.ErrInvalidArgument, entitlement.ErrMissingUserID)
	}

	now := s.now()
	in, err := s.fetch(ctx, userID)
	if err != nil {
		return Grant{Entitlement: s.degrade(ctx, userID, now, err)}, nil
	}
	ent, err := entitlement.Resolve(in, now)
	if err != nil {
		return Grant{Entitlement: s.degrade(ctx, userID, now, err)}, nil
	}
	return Grant{Entitlement: ent, Override: ent.Disclose(in.User)}, nil
}

// ResolveOne returns a single capability for the user. An unknown capability
// is ErrInvalidArgument; fetch failures degrade like Resolve.
func (s *Service) ResolveOne(ctx context.Context, userID string, c entitlement.Capability) (entitlement.Value, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entitlement.Value{}, errors.Join(entitlement.ErrInvalidArgument, entitlement.ErrMissingUserID)
	}
	if !c.Valid() {
		return entitlement.Value{}, errors.Join(entitlement.ErrInvalidArgument, entitlement.ErrUnknownCapability)
	}

	now := s.now()
	in, err := s.fetch(ctx, userID)
	if err == nil {
		var v entitlement.Value
		if v, err = entitlement.ResolveOne(in, c, now); err == nil {
			return v, nil
		}
	}
	// An empty input resolves to the free defaults, which is the conservative answer.
	s.degrade(ctx, userID, now, err)
	return entitlement.ResolveOne(entitlement.Input{UserID: userID}, c, now)
}

// TrialOffer is the answer to a promo code lookup.
type TrialOffer struct {
	PromoCode string     `json:"promo_code"`
	Plan      trial.Plan `json:"plan"`
	Days      int        `json:"trial_days"`
	RuleName  string     `json:"rule_name,omitempty"`
	// EndsAt is when a trial started now would end. Nil when Days is zero.
	EndsAt   *time.Time `json:"ends_at,omitempty"`
	Degraded bool       `json:"degraded,omitempty"`
}

// BestTrial looks up the longest trial the promo code grants for plan and
// group. Unknown codes yield zero days. A failed rule fetch yields zero days
// with Degraded set.
func (s *Service) BestTrial(ctx context.Context, promoCode string, plan trial.Plan, groupID string) (TrialOffer, error) {
	if plan == "" {
		plan = trial.PlanAny
	}
	if !plan.Valid() {
		return TrialOffer{}, errors.Join(trial.ErrInvalidArgument, trial.ErrInvalidPlan)
	}
	offer := TrialOffer{PromoCode: strings.TrimSpace(promoCode), Plan: plan}
	if offer.PromoCode == "" {
		return offer, nil
	}

	var rules []trial.Rule
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		rules, err = s.rules.ListRules(ctx, true)
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list trial rules, granting no trial",
			logger.PromoCode(offer.PromoCode),
			logger.Error(err),
		)
		offer.Degraded = true
		return offer, nil
	}

	rule, ok := trial.BestRule(rules, trial.Query{PromoCode: offer.PromoCode, Plan: plan, GroupID: groupID})
	if !ok || rule.TrialDays == 0 {
		return offer, nil
	}
	offer.Days = rule.TrialDays
	offer.RuleName = rule.Name
	endsAt := trial.EndsAt(s.now(), rule.TrialDays)
	offer.EndsAt = &endsAt
	return offer, nil
}

// fetch loads the three records. Missing records are nil.
func (s *Service) fetch(ctx context.Context, userID string) (entitlement.Input, error) {
	in := entitlement.Input{UserID: userID}
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		if in.Subscription, err = s.subscriptions.GetSubscription(ctx, userID); notFound(err) != nil {
			return errors.Join(ErrFailedToFetch, err)
		}
		if in.Global, err = s.overrides.GetGlobalOverride(ctx); notFound(err) != nil {
			return errors.Join(ErrFailedToFetch, err)
		}
		if in.User, err = s.overrides.GetUserOverride(ctx, userID); notFound(err) != nil {
			return errors.Join(ErrFailedToFetch, err)
		}
		return nil
	})
	return in, err
}

func (s *Service) degrade(ctx context.Context, userID string, now time.Time, err error) entitlement.Entitlement {
	s.logger.WarnContext(ctx, "entitlement degraded to free defaults",
		logger.UserID(userID),
		logger.Error(err),
	)
	return entitlement.Conservative(userID, now)
}

func (s *Service) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return fn(ctx)
}

// providerContext bounds a billing provider round trip like a store call.
func (s *Service) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// notFound turns a store's not-found error into nil.
func notFound(err error) error {
	if errors.Is(err, entitlement.ErrNotFound) {
		return nil
	}
	return err
}
