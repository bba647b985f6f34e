package entitlement

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
	"github.com/dmitrymomot/entitlekit/pkg/clientip"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/httpserver"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
	"github.com/dmitrymomot/entitlekit/pkg/ratelimiter"
	"github.com/dmitrymomot/entitlekit/pkg/subscription"
	"github.com/dmitrymomot/entitlekit/pkg/trial"
)

const (
	defaultMaxBodyBytes = 1 << 20
	defaultAuditLimit   = 100
	maxAuditLimit       = 1000
)

// handler serves the HTTP API on top of a Service.
type handler struct {
	svc      *Service
	syncer   *subscription.Syncer
	switcher *subscription.Switcher
	logger   *slog.Logger
	checks   []httpserver.Check
	maxBody  int64
	ips      *clientip.Resolver
	limiter  *ratelimiter.Bucket
}

// RouterOption configures NewRouter.
type RouterOption func(*handler)

// WithSyncer enables POST /v1/webhooks/paddle.
func WithSyncer(s *subscription.Syncer) RouterOption {
	return func(h *handler) { h.syncer = s }
}

// WithSwitcher enables POST /v1/subscriptions/{subscriptionID}/interval.
func WithSwitcher(s *subscription.Switcher) RouterOption {
	return func(h *handler) { h.switcher = s }
}

// WithReadinessChecks adds dependency probes to /health/ready.
func WithReadinessChecks(checks ...httpserver.Check) RouterOption {
	return func(h *handler) { h.checks = append(h.checks, checks...) }
}

// WithClientIP sets how the caller's address is resolved. The default
// trusts no proxy headers.
func WithClientIP(res *clientip.Resolver) RouterOption {
	return func(h *handler) {
		if res != nil {
			h.ips = res
		}
	}
}

// WithTrialLimiter limits GET /v1/trials/{code} per client IP.
func WithTrialLimiter(b *ratelimiter.Bucket) RouterOption {
	return func(h *handler) { h.limiter = b }
}

// WithRouterLogger sets the logger for failed requests. Nil is ignored.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(h *handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMaxBodyBytes limits request bodies. Non-positive values are ignored.
func WithMaxBodyBytes(n int64) RouterOption {
	return func(h *handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// NewRouter returns the chi router for svc. Panics if svc is nil.
func NewRouter(svc *Service, opts ...RouterOption) http.Handler {
	if svc == nil {
		panic("entitlement: Service is required")
	}
	h := &handler{svc: svc, logger: svc.logger, maxBody: defaultMaxBodyBytes, ips: clientip.New()}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.ips.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(h.logger, svc.timeout, h.checks...))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/users/{userID}/entitlement", h.getEntitlement)
		r.Get("/users/{userID}/capabilities/{capability}", h.getCapability)
		r.With(h.trialLimit()).Get("/trials/{code}", h.getTrial)
		r.Post("/subscriptions/{subscriptionID}/interval", h.switchInterval)
		r.Post("/webhooks/paddle", h.paddleWebhook)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/overrides/global", h.getGlobalOverride)
			r.Put("/overrides/global", h.setGlobalOverride)
			r.Delete("/overrides/global", h.resetGlobalOverride)

			r.Get("/overrides/users", h.listUserOverrides)
			r.Get("/overrides/users/{userID}", h.getUserOverride)
			r.Put("/overrides/users/{userID}", h.grantUserOverride)
			r.Delete("/overrides/users/{userID}", h.revokeUserOverride)

			r.Get("/trial-rules", h.listRules)
			r.Post("/trial-rules", h.createRule)
			r.Get("/trial-rules/{ruleID}", h.getRule)
			r.Put("/trial-rules/{ruleID}", h.updateRule)
			r.Delete("/trial-rules/{ruleID}", h.deleteRule)

			r.Get("/audit-events", h.listAuditEvents)
		})
	})
	return r
}

func (h *handler) trialLimit() func(http.Handler) http.Handler {
	if h.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	key := ratelimiter.Composite(
		func(*http.Request) string { return "trial" },
		func(r *http.Request) string { return clientip.FromContext(r.Context()) },
	)
	return ratelimiter.Middleware(h.limiter, key,
		ratelimiter.WithDeniedHandler(func(w http.ResponseWriter, r *http.Request, _ ratelimiter.Result) {
			h.logger.WarnContext(r.Context(), "trial lookup rate limited")
			writeJSON(w, http.StatusTooManyRequests, JSONResponse{Error: &ErrorDetail{
				Code:    "too_many_requests",
				Message: http.StatusText(http.StatusTooManyRequests),
			}})
		}),
		ratelimiter.WithErrorHandler(func(r *http.Request, err error) {
			h.logger.ErrorContext(r.Context(), "trial lookup limiter failed", logger.Error(err))
		}),
	)
}

func (h *handler) getEntitlement(w http.ResponseWriter, r *http.Request) {
	grant, err := h.svc.Resolve(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, grant)
}

func (h *handler) getCapability(w http.ResponseWriter, r *http.Request) {
	c, err := entitlement.ParseCapability(chi.URLParam(r, "capability"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	v, err := h.svc.ResolveOne(r.Context(), chi.URLParam(r, "userID"), c)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, v)
}

func (h *handler) getTrial(w http.ResponseWriter, r *http.Request) {
	plan, err := trial.ParsePlan(r.URL.Query().Get("plan"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	offer, err := h.svc.BestTrial(r.Context(), chi.URLParam(r, "code"), plan, r.URL.Query().Get("group"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, offer)
}

type switchIntervalRequest struct {
	Interval string `json:"interval"`
}

func (h *handler) switchInterval(w http.ResponseWriter, r *http.Request) {
	if h.switcher == nil {
		respondError(w, r, h.logger, ErrBillingUnavailable)
		return
	}
	var req switchIntervalRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	interval, err := subscription.ParseInterval(req.Interval)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	ctx, cancel := h.svc.providerContext(r.Context())
	defer cancel()
	decision, err := h.switcher.SwitchInterval(ctx, chi.URLParam(r, "subscriptionID"), interval)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, decision)
}

func (h *handler) paddleWebhook(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		respondError(w, r, h.logger, ErrBillingUnavailable)
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		respondError(w, r, h.logger, decodeError{field: "body", err: err})
		return
	}

	ctx, cancel := h.svc.providerContext(r.Context())
	defer cancel()
	if err := h.syncer.HandleWebhook(ctx, payload, r.Header.Get("Paddle-Signature")); err != nil {
		h.logger.WarnContext(r.Context(), "webhook rejected", logger.Error(err))
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) getGlobalOverride(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.GlobalOverride(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, g)
}

func (h *handler) setGlobalOverride(w http.ResponseWriter, r *http.Request) {
	var g entitlement.GlobalOverride
	if err := h.decode(w, r, &g); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	saved, err := h.svc.SetGlobalOverride(r.Context(), actorFromRequest(r), g)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, saved)
}

func (h *handler) resetGlobalOverride(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetGlobalOverride(r.Context(), actorFromRequest(r)); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listUserOverrides(w http.ResponseWriter, r *http.Request) {
	includeExpired, err := queryBool(r, "include_expired")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	list, err := h.svc.ListUserOverrides(r.Context(), includeExpired)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, JSONResponse{Data: list, Meta: map[string]any{"count": len(list)}})
}

func (h *handler) getUserOverride(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.UserOverride(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *handler) grantUserOverride(w http.ResponseWriter, r *http.Request) {
	var o entitlement.UserOverride
	if err := h.decode(w, r, &o); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	o.UserID = chi.URLParam(r, "userID")
	saved, err := h.svc.GrantUserOverride(r.Context(), actorFromRequest(r), o)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, saved)
}

func (h *handler) revokeUserOverride(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RevokeUserOverride(r.Context(), actorFromRequest(r), chi.URLParam(r, "userID")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.Rules(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, JSONResponse{Data: rules, Meta: map[string]any{"count": len(rules)}})
}

func (h *handler) getRule(w http.ResponseWriter, r *http.Request) {
	id, err := ruleID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	rule, err := h.svc.Rule(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, rule)
}

func (h *handler) createRule(w http.ResponseWriter, r *http.Request) {
	var rule trial.Rule
	if err := h.decode(w, r, &rule); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	saved, err := h.svc.CreateRule(r.Context(), actorFromRequest(r), rule)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, saved)
}

func (h *handler) updateRule(w http.ResponseWriter, r *http.Request) {
	id, err := ruleID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	var rule trial.Rule
	if err := h.decode(w, r, &rule); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	saved, err := h.svc.UpdateRule(r.Context(), actorFromRequest(r), id, rule)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, saved)
}

func (h *handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := ruleID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.svc.DeleteRule(r.Context(), actorFromRequest(r), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listAuditEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(r, "limit", defaultAuditLimit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	events, err := h.svc.AuditEvents(r.Context(), audit.Criteria{
		Actor:      q.Get("actor"),
		Action:     q.Get("action"),
		Resource:   q.Get("resource"),
		ResourceID: q.Get("resource_id"),
		Limit:      min(limit, maxAuditLimit),
		Offset:     offset,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, JSONResponse{Data: events, Meta: map[string]any{"count": len(events)}})
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return decodeError{field: "body", err: err}
	}
	return nil
}

func ruleID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "ruleID"))
	if err != nil {
		return uuid.Nil, decodeError{field: "rule_id", err: err}
	}
	return id, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, decodeError{field: name, err: err}
	}
	return v, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, decodeError{field: name, err: errors.Join(ErrInvalidPaging, err)}
	}
	return v, nil
}
