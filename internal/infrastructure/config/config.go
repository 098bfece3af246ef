// Package config loads service configuration from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// PORTFOLIOCHAT_SERVER_ADDR. The provider settings also accept the
// deployment's historical names listed in legacyEnv.
const EnvPrefix = "PORTFOLIOCHAT"

// Config is the complete service configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	HuggingFace HuggingFaceConfig `mapstructure:"huggingface"`
	LMStudio    LMStudioConfig    `mapstructure:"lmstudio"`
	Profile     ProfileConfig     `mapstructure:"profile"`
	Outcomes    OutcomesConfig    `mapstructure:"outcomes"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// HuggingFaceConfig configures the primary provider.
type HuggingFaceConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// ForceQuotaExceeded makes every request behave as if the monthly quota
	// were spent. For exercising the fallback path in staging.
	ForceQuotaExceeded bool `mapstructure:"force_quota_exceeded"`
}

// LMStudioConfig configures the fallback provider.
type LMStudioConfig struct {
	URL     string        `mapstructure:"url"`
	Model   string        `mapstructure:"model"`
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ProfileConfig locates the profile. An empty Path serves the built-in one.
type ProfileConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// OutcomesConfig locates the outcome ledger. An empty DBPath keeps outcomes
// in memory only.
type OutcomesConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RateLimitConfig configures per-client limiting of /api/chat.
// RPS of zero disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 45 * time.Second,
			MaxBodyBytes: 128 << 10,
		},
		HuggingFace: HuggingFaceConfig{
			Model:   "google/gemma-7b-it",
			URL:     "https://router.huggingface.co/v1/chat/completions",
			Timeout: 15 * time.Second,
		},
		LMStudio: LMStudioConfig{
			Model:   "local-model",
			Timeout: 15 * time.Second,
		},
		Profile: ProfileConfig{Watch: true},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		RateLimit: RateLimitConfig{
			Burst: 10,
		},
	}
}

// legacyEnv maps config keys to the environment names used by earlier
// deployments of the chat endpoint.
var legacyEnv = map[string]string{
	"huggingface.api_key":              "HUGGINGFACE_API_KEY",
	"huggingface.model":                "HUGGINGFACE_MODEL",
	"huggingface.url":                  "HUGGINGFACE_URL",
	"huggingface.force_quota_exceeded": "FORCE_HUGGINGFACE_402",
	"lmstudio.url":                     "LM_STUDIO_URL",
	"lmstudio.model":                   "LM_STUDIO_MODEL",
	"lmstudio.enabled":                 "ENABLE_LM_STUDIO_FALLBACK",
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)

	v.SetDefault("huggingface.api_key", d.HuggingFace.APIKey)
	v.SetDefault("huggingface.model", d.HuggingFace.Model)
	v.SetDefault("huggingface.url", d.HuggingFace.URL)
	v.SetDefault("huggingface.timeout", d.HuggingFace.Timeout)
	v.SetDefault("huggingface.force_quota_exceeded", d.HuggingFace.ForceQuotaExceeded)

	v.SetDefault("lmstudio.url", d.LMStudio.URL)
	v.SetDefault("lmstudio.model", d.LMStudio.Model)
	v.SetDefault("lmstudio.enabled", d.LMStudio.Enabled)
	v.SetDefault("lmstudio.timeout", d.LMStudio.Timeout)

	v.SetDefault("profile.path", d.Profile.Path)
	v.SetDefault("profile.watch", d.Profile.Watch)

	v.SetDefault("outcomes.db_path", d.Outcomes.DBPath)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("rate_limit.rps", d.RateLimit.RPS)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.addr %q: %w", c.Server.Addr, err))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}

	if c.HuggingFace.Timeout <= 0 {
		errs = append(errs, errors.New("huggingface.timeout must be positive"))
	}
	if err := checkURL(c.HuggingFace.URL); err != nil || c.HuggingFace.URL == "" {
		errs = append(errs, fmt.Errorf("huggingface.url %q is not an http(s) URL", c.HuggingFace.URL))
	}
	if c.LMStudio.Timeout <= 0 {
		errs = append(errs, errors.New("lmstudio.timeout must be positive"))
	}
	if err := checkURL(c.LMStudio.URL); err != nil {
		errs = append(errs, fmt.Errorf("lmstudio.url %q is not an http(s) URL", c.LMStudio.URL))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q: want debug, info, warn or error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q: want json or console", c.Logging.Format))
	}

	if c.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("rate_limit.rps must not be negative"))
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate_limit.burst must be positive when rate limiting is on"))
	}

	return errors.Join(errs...)
}

func checkURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return errors.New("not an http(s) URL")
	}
	return nil
}
