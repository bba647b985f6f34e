package entitlement

import (
	"fmt"
	"slices"
)

// Capability is a single gated feature. The set is closed.
type Capability string

const (
	CapabilityAnimatedGifs Capability = "animated_gifs"
	CapabilityPreview      Capability = "preview"
	CapabilityMultiMessage Capability = "multi_message"
	CapabilityAvatarChoice Capability = "avatar_choice"
	CapabilityPresets      Capability = "presets"
	CapabilityNoWatermark  Capability = "no_watermark"
	CapabilityGalleryQuota Capability = "gallery_quota" // numeric
)

const (
	FreeGalleryQuota    = 50
	PremiumGalleryQuota = 1000
)

var booleanCapabilities = []Capability{
	CapabilityAnimatedGifs,
	CapabilityPreview,
	CapabilityMultiMessage,
	CapabilityAvatarChoice,
	CapabilityPresets,
	CapabilityNoWatermark,
}

// camelCase spellings used by older clients.
var capabilityAliases = map[string]Capability{
	"animatedGifs": CapabilityAnimatedGifs,
	"multiMessage": CapabilityMultiMessage,
	"avatarChoice": CapabilityAvatarChoice,
	"noWatermark":  CapabilityNoWatermark,
	"galleryQuota": CapabilityGalleryQuota,
}

// Capabilities returns every known capability, boolean ones first.
func Capabilities() []Capability {
	return append(slices.Clone(booleanCapabilities), CapabilityGalleryQuota)
}

// BooleanCapabilities returns the capabilities resolved to a bool.
func BooleanCapabilities() []Capability {
	return slices.Clone(booleanCapabilities)
}

// Valid reports whether c belongs to the closed capability set.
func (c Capability) Valid() bool {
	return c == CapabilityGalleryQuota || slices.Contains(booleanCapabilities, c)
}

// IsNumeric reports whether c resolves to a quota instead of a flag.
func (c Capability) IsNumeric() bool {
	return c == CapabilityGalleryQuota
}

func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a wire name into a Capability.
// Both snake_case and the legacy camelCase spellings are accepted.
func ParseCapability(s string) (Capability, error) {
	if c := Capability(s); c.Valid() {
		return c, nil
	}
	if c, ok := capabilityAliases[s]; ok {
		return c, nil
	}
	return "", invalid(fmt.Errorf("%w: %q", ErrUnknownCapability, s))
}

// DefaultGalleryQuota is the quota granted by the tier alone.
func DefaultGalleryQuota(isPremium bool) int {
	if isPremium {
		return PremiumGalleryQuota
	}
	return FreeGalleryQuota
}
