package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: 127.0.0.1:9090
huggingface:
  timeout: 5s
lmstudio:
  url: http://localhost:1234
  enabled: true
profile:
  path: ./profile.yaml
  watch: false
rate_limit:
  rps: 2.5
  burst: 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.HuggingFace.Timeout)
	assert.Equal(t, "google/gemma-7b-it", cfg.HuggingFace.Model)
	assert.Equal(t, "./profile.yaml", cfg.Profile.Path)
	assert.False(t, cfg.Profile.Watch)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	t.Setenv("HUGGINGFACE_API_KEY", "hf_from_env")
	t.Setenv("HUGGINGFACE_MODEL", "meta-llama/Llama-3.1-8B-Instruct")
	t.Setenv("LM_STUDIO_URL", "http://10.0.0.5:1234")
	t.Setenv("LM_STUDIO_MODEL", "deepseek-r1")
	t.Setenv("ENABLE_LM_STUDIO_FALLBACK", "true")
	t.Setenv("FORCE_HUGGINGFACE_402", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "hf_from_env", cfg.HuggingFace.APIKey)
	assert.Equal(t, "meta-llama/Llama-3.1-8B-Instruct", cfg.HuggingFace.Model)
	assert.Equal(t, "http://10.0.0.5:1234", cfg.LMStudio.URL)
	assert.Equal(t, "deepseek-r1", cfg.LMStudio.Model)
	assert.True(t, cfg.LMStudio.Enabled)
	assert.True(t, cfg.HuggingFace.ForceQuotaExceeded)
}

func TestLoad_PrefixedEnvironment(t *testing.T) {
	t.Setenv("PORTFOLIOCHAT_SERVER_ADDR", ":9999")
	t.Setenv("PORTFOLIOCHAT_LOGGING_LEVEL", "debug")
	t.Setenv("PORTFOLIOCHAT_HUGGINGFACE_API_KEY", "prefixed")
	t.Setenv("HUGGINGFACE_API_KEY", "legacy")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// The prefixed name is bound first and wins.
	assert.Equal(t, "prefixed", cfg.HuggingFace.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"bad addr", func(c *Config) { c.Server.Addr = "8080" }, "server.addr"},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "server.read_timeout"},
		{"zero body", func(c *Config) { c.Server.MaxBodyBytes = 0 }, "server.max_body_bytes"},
		{"bad primary url", func(c *Config) { c.HuggingFace.URL = "router.huggingface.co" }, "huggingface.url"},
		{"bad fallback url", func(c *Config) { c.LMStudio.URL = "ftp://box" }, "lmstudio.url"},
		{"negative fallback timeout", func(c *Config) { c.LMStudio.Timeout = -time.Second }, "lmstudio.timeout"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative rps", func(c *Config) { c.RateLimit.RPS = -1 }, "rate_limit.rps"},
		{"burst", func(c *Config) { c.RateLimit.RPS = 1; c.RateLimit.Burst = 0 }, "rate_limit.burst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = "bad"
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.addr")
	assert.Contains(t, err.Error(), "logging.level")
}
