// Package config loads typed configuration from environment variables.
//
// Structs describe their variables with github.com/caarlos0/env tags; a .env
// file in the working directory is read on first use through godotenv:
//
//	type Config struct {
//		StoreTimeout time.Duration `env:"ENTITLEMENT_STORE_TIMEOUT" envDefault:"2s"`
//		RulesFile    string        `env:"ENTITLEMENT_RULES_FILE"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Every struct type is parsed once and cached. Types that implement Validator
// are validated before they are cached. Tests that change the environment call
// ResetCache, or LoadEnv to read fixture files.
package config
