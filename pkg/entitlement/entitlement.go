package entitlement

import "time"

// Layer names a precedence tier of the resolution.
type Layer string

const (
	LayerUserOverride   Layer = "user_override"
	LayerGlobalOverride Layer = "global_override"
	LayerSubscription   Layer = "subscription"
	LayerDefault        Layer = "default"
)

// PremiumSource tells which layer decided the premium flag.
// Only user_override, global_override and subscription are ever produced.
type PremiumSource = Layer

// TraceStep is one decision recorded during resolution.
type TraceStep struct {
	Layer Layer  `json:"layer"`
	Field string `json:"field"`
	Value any    `json:"value"`
}

// Entitlement is the effective grant for a user at a given instant.
// It is derived on every call and must not be cached: overrides change
// and expire between calls.
type Entitlement struct {
	UserID             string              `json:"user_id"`
	IsPremium          bool                `json:"is_premium"`
	PremiumSource      PremiumSource       `json:"premium_source"`
	Capabilities       map[Capability]bool `json:"capabilities"`
	GalleryQuota       int                 `json:"gallery_quota"`
	HasActiveOverrides bool                `json:"has_active_overrides"`
	// Degraded is set when the grant was not computed from the records
	// and fell back to the free defaults.
	Degraded    bool        `json:"degraded,omitempty"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
	Trace       []TraceStep `json:"trace,omitempty"`
}

// Has reports whether a boolean capability is granted.
// Unknown or numeric capabilities are never granted.
func (e Entitlement) Has(c Capability) bool {
	return e.Capabilities[c]
}

// Value is the resolution of a single capability.
type Value struct {
	Capability Capability `json:"capability"`
	// Enabled is the flag for boolean capabilities. For the numeric quota
	// it is true when the limit is positive.
	Enabled bool  `json:"enabled"`
	Limit   int   `json:"limit,omitempty"`
	Source  Layer `json:"source"`
}

// Disclosure is the override metadata that may be shown to the end user.
type Disclosure struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// Disclose returns override metadata only when a user override actually
// contributed to e.
func (e Entitlement) Disclose(o *UserOverride) *Disclosure {
	if !e.HasActiveOverrides || o == nil {
		return nil
	}
	d := &Disclosure{Reason: o.Reason}
	if o.ExpiresAt != nil {
		exp := *o.ExpiresAt
		d.ExpiresAt = &exp
	}
	return d
}

// Conservative returns the free-tier grant used when the inputs could not be
// classified. It never grants more than a user without any records gets.
func Conservative(userID string, now time.Time) Entitlement {
	caps := make(map[Capability]bool, len(booleanCapabilities))
	for _, c := range booleanCapabilities {
		caps[c] = false
	}
	return Entitlement{
		UserID:        userID,
		PremiumSource: LayerSubscription,
		Capabilities:  caps,
		GalleryQuota:  FreeGalleryQuota,
		Degraded:      true,
		EvaluatedAt:   now,
		Trace:         []TraceStep{{Layer: LayerDefault, Field: "degraded", Value: true}},
	}
}
