package entitlement

import (
	"fmt"
	"time"
)

// Input holds the records for one user, fetched by the caller.
// Any of the records may be nil; a nil record falls through to the next layer.
type Input struct {
	UserID       string
	Subscription *SubscriptionRecord
	Global       *GlobalOverride
	User         *UserOverride
}

// Validate checks that the records are well formed and belong to UserID.
func (in Input) Validate() error {
	if in.UserID == "" {
		return invalid(ErrMissingUserID)
	}
	if in.Subscription != nil {
		if err := in.Subscription.Validate(); err != nil {
			return err
		}
		if in.Subscription.UserID != in.UserID {
			return invalid(fmt.Errorf("%w: subscription", ErrUserMismatch))
		}
	}
	if in.Global != nil {
		if err := in.Global.Validate(); err != nil {
			return err
		}
	}
	if in.User != nil {
		if err := in.User.Validate(); err != nil {
			return err
		}
		if in.User.UserID != in.UserID {
			return invalid(fmt.Errorf("%w: user override", ErrUserMismatch))
		}
	}
	return nil
}

// Resolve computes the effective entitlement at now.
//
// Premium: an active user override wins, then the global override when its
// master switch is on, then the subscription tier. Each boolean capability is
// resolved independently: user override, global override, then the premium
// decision. The gallery quota follows the same order and falls back to the
// tier default.
func Resolve(in Input, now time.Time) (Entitlement, error) {
	r, err := newResolution(in, now)
	if err != nil {
		return Entitlement{}, err
	}

	ent := Entitlement{
		UserID:       in.UserID,
		Capabilities: make(map[Capability]bool, len(booleanCapabilities)),
		EvaluatedAt:  now,
	}
	ent.IsPremium, ent.PremiumSource = r.premium()
	for _, c := range booleanCapabilities {
		ent.Capabilities[c], _ = r.capability(c, ent.IsPremium)
	}
	ent.GalleryQuota, _ = r.galleryQuota(ent.IsPremium)
	ent.HasActiveOverrides = r.userContributed
	ent.Trace = r.trace
	return ent, nil
}

// ResolveOne resolves a single capability at now.
// It returns ErrInvalidArgument for a capability outside the closed set.
func ResolveOne(in Input, c Capability, now time.Time) (Value, error) {
	if !c.Valid() {
		return Value{}, invalid(fmt.Errorf("%w: %q", ErrUnknownCapability, c))
	}
	r, err := newResolution(in, now)
	if err != nil {
		return Value{}, err
	}

	isPremium, _ := r.premium()
	if c.IsNumeric() {
		limit, src := r.galleryQuota(isPremium)
		return Value{Capability: c, Enabled: limit > 0, Limit: limit, Source: src}, nil
	}
	enabled, src := r.capability(c, isPremium)
	return Value{Capability: c, Enabled: enabled, Source: src}, nil
}

// resolution carries per-call state; it is never shared between calls.
type resolution struct {
	in              Input
	user            *UserOverride // nil when absent or expired
	trace           []TraceStep
	userContributed bool
}

func newResolution(in Input, now time.Time) (*resolution, error) {
	if now.IsZero() {
		return nil, invalid(ErrMissingTime)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	r := &resolution{in: in}
	switch {
	case in.User == nil:
	case in.User.IsActive(now):
		r.user = in.User
	default:
		r.step(LayerUserOverride, "expires_at", "expired")
	}
	return r, nil
}

func (r *resolution) step(layer Layer, field string, value any) {
	r.trace = append(r.trace, TraceStep{Layer: layer, Field: field, Value: value})
}

func (r *resolution) premium() (bool, PremiumSource) {
	if v, ok := r.user.premium(); ok {
		r.userContributed = true
		r.step(LayerUserOverride, "premium", v)
		return v, LayerUserOverride
	}
	if v, ok := r.in.Global.PremiumOverride().Bool(); ok {
		r.step(LayerGlobalOverride, "premium", v)
		return v, LayerGlobalOverride
	}
	v := r.in.Subscription.IsPremium()
	r.step(LayerSubscription, "premium", v)
	return v, LayerSubscription
}

func (r *resolution) capability(c Capability, isPremium bool) (bool, Layer) {
	if v, ok := r.user.Capability(c).Bool(); ok {
		r.userContributed = true
		r.step(LayerUserOverride, string(c), v)
		return v, LayerUserOverride
	}
	if v, ok := r.in.Global.Capability(c).Bool(); ok {
		r.step(LayerGlobalOverride, string(c), v)
		return v, LayerGlobalOverride
	}
	r.step(LayerDefault, string(c), isPremium)
	return isPremium, LayerDefault
}

func (r *resolution) galleryQuota(isPremium bool) (int, Layer) {
	field := string(CapabilityGalleryQuota)
	if r.user != nil && r.user.GalleryQuota != nil {
		r.userContributed = true
		r.step(LayerUserOverride, field, *r.user.GalleryQuota)
		return *r.user.GalleryQuota, LayerUserOverride
	}
	if g := r.in.Global; g != nil && g.GalleryQuota != nil {
		r.step(LayerGlobalOverride, field, *g.GalleryQuota)
		return *g.GalleryQuota, LayerGlobalOverride
	}
	q := DefaultGalleryQuota(isPremium)
	r.step(LayerDefault, field, q)
	return q, LayerDefault
}

func (o *UserOverride) premium() (bool, bool) {
	if o == nil {
		return false, false
	}
	return o.Premium.Bool()
}
