package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "tok")

	c, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", c.Env)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, 10*time.Second, c.HTTP.ShutdownTimeout)
	assert.Equal(t, "postgres", c.Storage.Backend)
	assert.Equal(t, 24*time.Hour, c.Redis.MatchTTL)
	assert.Equal(t, -1, c.Redis.DB)
	assert.Equal(t, "/minecraft", c.Gateway.Path)
	assert.Equal(t, int64(1<<20), c.Gateway.ReadLimit)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "tok")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("MATCH_TTL", "90m")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("REDIS_DB", "3")

	c, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "memory", c.Storage.Backend)
	assert.Equal(t, 90*time.Minute, c.Redis.MatchTTL)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, 3, c.Redis.DB)
}

func TestLoadFromEnv_BadDuration(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "tok")
	t.Setenv("MATCH_TTL", "soon")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "tok")
	valid := func() Config {
		c, err := LoadFromEnv()
		require.NoError(t, err)
		return c
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing gateway token", func(c *Config) { c.Gateway.Token = "" }, "GATEWAY_TOKEN"},
		{"relative gateway path", func(c *Config) { c.Gateway.Path = "minecraft" }, "GATEWAY_PATH"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "mongo" }, "STORAGE_BACKEND"},
		{"memory in prod", func(c *Config) {
			c.Env = "prod"
			c.Auth.Secret = "real"
			c.Storage.Backend = "memory"
		}, "memory"},
		{"default secret outside dev", func(c *Config) { c.Env = "stage" }, "JWT_SECRET"},
		{"zero match ttl", func(c *Config) { c.Redis.MatchTTL = 0 }, "MATCH_TTL"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "LOG_FORMAT"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "LOG_LEVEL"},
		{"empty redis url", func(c *Config) { c.Redis.URL = "" }, "REDIS_URL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
