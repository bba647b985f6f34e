package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/config"
)

type defaultsConfig struct {
	Name    string   `env:"CFG_TEST_NAME" envDefault:"entitlekit"`
	Workers int      `env:"CFG_TEST_WORKERS" envDefault:"4"`
	Tags    []string `env:"CFG_TEST_TAGS" envSeparator:","`
}

type requiredConfig struct {
	Token string `env:"CFG_TEST_TOKEN,required"`
}

type validatedConfig struct {
	Limit int `env:"CFG_TEST_LIMIT" envDefault:"-1"`
}

func (c *validatedConfig) Validate() error {
	if c.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

func TestLoad_Defaults(t *testing.T) {
	config.ResetCache()
	t.Setenv("CFG_TEST_TAGS", "a,b")

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "entitlekit", cfg.Name)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, []string{"a", "b"}, cfg.Tags)
}

func TestLoad_Cached(t *testing.T) {
	config.ResetCache()
	t.Setenv("CFG_TEST_NAME", "first")

	var first defaultsConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("CFG_TEST_NAME", "second")
	var second defaultsConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Name)

	config.ResetCache()
	var third defaultsConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Name)
}

func TestLoad_Required(t *testing.T) {
	config.ResetCache()

	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	t.Setenv("CFG_TEST_TOKEN", "secret")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "secret", cfg.Token)
}

func TestLoad_Validator(t *testing.T) {
	config.ResetCache()

	var cfg validatedConfig
	assert.ErrorIs(t, config.Load(&cfg), config.ErrInvalidConfig)

	t.Setenv("CFG_TEST_LIMIT", "10")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 10, cfg.Limit)
}

func TestLoad_NilPointer(t *testing.T) {
	assert.ErrorIs(t, config.Load[defaultsConfig](nil), config.ErrNilPointer)
}

func TestMustLoad(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("CFG_TEST_TOKEN")

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, ".env")
	override := filepath.Join(dir, ".env.override")
	require.NoError(t, os.WriteFile(base, []byte("CFG_TEST_NAME=base\nCFG_TEST_WORKERS=8\n"), 0o600))
	require.NoError(t, os.WriteFile(override, []byte("CFG_TEST_NAME=override\n"), 0o600))

	t.Setenv("CFG_TEST_NAME", "")
	t.Setenv("CFG_TEST_WORKERS", "")
	require.NoError(t, config.LoadEnv(base, override))

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "override", cfg.Name)
	assert.Equal(t, 8, cfg.Workers)

	assert.ErrorIs(t, config.LoadEnv(filepath.Join(dir, "missing")), config.ErrLoadingEnvFile)
	config.ResetCache()
}
