package entitlement

import (
	"slices"
	"time"
)

// Backend names a record store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
	BackendMongo    Backend = "mongo"
)

// Config is the service configuration, loaded from the environment.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"entitlekit"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	// StoreTimeout bounds every store and billing provider call.
	StoreTimeout time.Duration `env:"ENTITLEMENT_STORE_TIMEOUT" envDefault:"2s"`

	// RulesFile, when set, loads trial rules from YAML instead of RulesBackend.
	RulesFile string `env:"ENTITLEMENT_RULES_FILE"`

	SubscriptionBackend Backend `env:"ENTITLEMENT_SUBSCRIPTION_BACKEND" envDefault:"memory"` // memory or postgres
	OverrideBackend     Backend `env:"ENTITLEMENT_OVERRIDE_BACKEND" envDefault:"memory"`     // memory, postgres or redis
	RulesBackend        Backend `env:"ENTITLEMENT_RULES_BACKEND" envDefault:"memory"`        // memory, postgres or mongo
	AuditBackend        Backend `env:"ENTITLEMENT_AUDIT_BACKEND" envDefault:"memory"`        // memory or postgres

	// Promo code lookups are limited per client IP: a burst of TrialLookupBurst,
	// then one lookup per TrialLookupRefill. A zero burst disables the limit.
	TrialLookupBurst  int           `env:"ENTITLEMENT_TRIAL_LOOKUP_BURST" envDefault:"30"`
	TrialLookupRefill time.Duration `env:"ENTITLEMENT_TRIAL_LOOKUP_REFILL" envDefault:"2s"`
	// RateLimitBackend is memory or redis.
	RateLimitBackend Backend `env:"ENTITLEMENT_RATELIMIT_BACKEND" envDefault:"memory"`
	// TrustedIPHeaders are the proxy headers consulted for the client IP, in order.
	TrustedIPHeaders []string `env:"ENTITLEMENT_TRUSTED_IP_HEADERS" envSeparator:","`

	// PaddleEnabled wires the webhook and interval switch routes.
	PaddleEnabled bool `env:"ENTITLEMENT_PADDLE_ENABLED" envDefault:"false"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.StoreTimeout < 0 {
		return ErrInvalidStoreTimeout
	}
	if !oneOf(c.SubscriptionBackend, BackendMemory, BackendPostgres) {
		return invalidBackend("subscription", c.SubscriptionBackend)
	}
	if !oneOf(c.OverrideBackend, BackendMemory, BackendPostgres, BackendRedis) {
		return invalidBackend("override", c.OverrideBackend)
	}
	if !oneOf(c.RateLimitBackend, BackendMemory, BackendRedis) {
		return invalidBackend("rate limit", c.RateLimitBackend)
	}
	if c.TrialLookupBurst < 0 || (c.TrialLookupBurst > 0 && c.TrialLookupRefill <= 0) {
		return ErrInvalidRateLimit
	}
	if !oneOf(c.RulesBackend, BackendMemory, BackendPostgres, BackendMongo) {
		return invalidBackend("rules", c.RulesBackend)
	}
	if !oneOf(c.AuditBackend, BackendMemory, BackendPostgres) {
		return invalidBackend("audit", c.AuditBackend)
	}
	return nil
}

func oneOf(b Backend, allowed ...Backend) bool {
	return slices.Contains(allowed, b)
}
