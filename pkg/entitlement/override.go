package entitlement

import (
	"fmt"
	"maps"
	"time"
)

// GlobalOverride is the product-wide emergency override. At most one is live
// and it never expires; it stays in force until reset.
//
// PremiumOverrideEnabled gates only the Premium field. Capability and quota
// overrides on the same record apply regardless of the switch.
type GlobalOverride struct {
	Premium                TriState                `json:"premium"`
	PremiumOverrideEnabled bool                    `json:"premium_override_enabled"`
	Capabilities           map[Capability]TriState `json:"capabilities,omitempty"`
	GalleryQuota           *int                    `json:"gallery_quota,omitempty"`
	Reason                 string                  `json:"reason,omitempty"`
	UpdatedBy              string                  `json:"updated_by,omitempty"`
	UpdatedAt              time.Time               `json:"updated_at,omitzero"`
}

// UserOverride is a per-user exception. Once ExpiresAt has passed the record
// is treated as absent; it is never deleted eagerly.
type UserOverride struct {
	UserID       string                  `json:"user_id"`
	Premium      TriState                `json:"premium"`
	Capabilities map[Capability]TriState `json:"capabilities,omitempty"`
	GalleryQuota *int                    `json:"gallery_quota,omitempty"`
	ExpiresAt    *time.Time              `json:"expires_at,omitempty"`
	Reason       string                  `json:"reason,omitempty"`
	CreatedBy    string                  `json:"created_by,omitempty"`
	CreatedAt    time.Time               `json:"created_at,omitzero"`
}

// IsActive reports whether the override is in force at now.
// A nil override is never active. A record without ExpiresAt never expires;
// otherwise it is active strictly before ExpiresAt.
func (o *UserOverride) IsActive(now time.Time) bool {
	if o == nil {
		return false
	}
	if o.ExpiresAt == nil {
		return true
	}
	return now.Before(*o.ExpiresAt)
}

// Capability returns the override for c, Unset when absent.
func (o *UserOverride) Capability(c Capability) TriState {
	if o == nil {
		return Unset
	}
	return o.Capabilities[c]
}

// Capability returns the override for c, Unset when absent.
func (g *GlobalOverride) Capability(c Capability) TriState {
	if g == nil {
		return Unset
	}
	return g.Capabilities[c]
}

// PremiumOverride returns the premium tri-state that takes effect, which is
// Unset whenever the master switch is off.
func (g *GlobalOverride) PremiumOverride() TriState {
	if g == nil || !g.PremiumOverrideEnabled {
		return Unset
	}
	return g.Premium
}

func (o *UserOverride) Validate() error {
	if o.UserID == "" {
		return invalid(ErrMissingUserID)
	}
	return validateFields(o.Premium, o.Capabilities, o.GalleryQuota)
}

func (g *GlobalOverride) Validate() error {
	return validateFields(g.Premium, g.Capabilities, g.GalleryQuota)
}

func validateFields(premium TriState, caps map[Capability]TriState, quota *int) error {
	if !premium.Valid() {
		return invalid(fmt.Errorf("%w: premium", ErrInvalidTriState))
	}
	for c, v := range caps {
		if !c.Valid() {
			return invalid(fmt.Errorf("%w: %q", ErrUnknownCapability, c))
		}
		if c.IsNumeric() {
			return invalid(fmt.Errorf("%w: %q is numeric, use the quota field", ErrUnknownCapability, c))
		}
		if !v.Valid() {
			return invalid(fmt.Errorf("%w: %s", ErrInvalidTriState, c))
		}
	}
	if quota != nil && *quota < 0 {
		return invalid(ErrNegativeQuota)
	}
	return nil
}

// HasFields reports whether any override field is set.
func (o *UserOverride) HasFields() bool {
	if o == nil {
		return false
	}
	if o.Premium.IsSet() || o.GalleryQuota != nil {
		return true
	}
	for _, v := range o.Capabilities {
		if v.IsSet() {
			return true
		}
	}
	return false
}

func (o *UserOverride) Clone() *UserOverride {
	if o == nil {
		return nil
	}
	c := *o
	c.Capabilities = maps.Clone(o.Capabilities)
	if o.GalleryQuota != nil {
		q := *o.GalleryQuota
		c.GalleryQuota = &q
	}
	if o.ExpiresAt != nil {
		e := *o.ExpiresAt
		c.ExpiresAt = &e
	}
	return &c
}

func (g *GlobalOverride) Clone() *GlobalOverride {
	if g == nil {
		return nil
	}
	c := *g
	c.Capabilities = maps.Clone(g.Capabilities)
	if g.GalleryQuota != nil {
		q := *g.GalleryQuota
		c.GalleryQuota = &q
	}
	return &c
}

// Quota is a helper for building quota overrides.
func Quota(n int) *int {
	return &n
}
