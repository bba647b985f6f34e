package entitlement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	svc "github.com/dmitrymomot/entitlekit/svc/entitlement"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := func() svc.Config {
		return svc.Config{
			StoreTimeout:        2 * time.Second,
			SubscriptionBackend: svc.BackendMemory,
			OverrideBackend:     svc.BackendMemory,
			RulesBackend:        svc.BackendMemory,
			RateLimitBackend:    svc.BackendMemory,
			AuditBackend:        svc.BackendMemory,
			TrialLookupBurst:    30,
			TrialLookupRefill:   2 * time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*svc.Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*svc.Config) {}},
		{name: "timeout disabled", mutate: func(c *svc.Config) { c.StoreTimeout = 0 }},
		{name: "limit disabled", mutate: func(c *svc.Config) { c.TrialLookupBurst, c.TrialLookupRefill = 0, 0 }},
		{name: "all remote backends", mutate: func(c *svc.Config) {
			c.SubscriptionBackend = svc.BackendPostgres
			c.OverrideBackend = svc.BackendRedis
			c.RulesBackend = svc.BackendMongo
			c.RateLimitBackend = svc.BackendRedis
			c.AuditBackend = svc.BackendPostgres
		}},
		{name: "negative timeout", mutate: func(c *svc.Config) { c.StoreTimeout = -time.Second }, wantErr: svc.ErrInvalidStoreTimeout},
		{name: "subscriptions in redis", mutate: func(c *svc.Config) { c.SubscriptionBackend = svc.BackendRedis }, wantErr: svc.ErrUnsupportedBackend},
		{name: "overrides in mongo", mutate: func(c *svc.Config) { c.OverrideBackend = svc.BackendMongo }, wantErr: svc.ErrUnsupportedBackend},
		{name: "rules in redis", mutate: func(c *svc.Config) { c.RulesBackend = svc.BackendRedis }, wantErr: svc.ErrUnsupportedBackend},
		{name: "limiter in postgres", mutate: func(c *svc.Config) { c.RateLimitBackend = svc.BackendPostgres }, wantErr: svc.ErrUnsupportedBackend},
		{name: "audit in redis", mutate: func(c *svc.Config) { c.AuditBackend = svc.BackendRedis }, wantErr: svc.ErrUnsupportedBackend},
		{name: "negative burst", mutate: func(c *svc.Config) { c.TrialLookupBurst = -1 }, wantErr: svc.ErrInvalidRateLimit},
		{name: "burst without refill", mutate: func(c *svc.Config) { c.TrialLookupRefill = 0 }, wantErr: svc.ErrInvalidRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
