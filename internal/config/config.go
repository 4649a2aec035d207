// Package config loads the gateway's process-wide configuration with
// viper, following the teacher's internal/infrastructure/config
// layering: a typed Config struct tagged with mapstructure, defaults
// set up front, then file + environment overrides layered on top.
// CLI flag parsing is intentionally absent — out of scope per
// spec.md §1.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the gateway's full runtime configuration, covering every
// key spec.md §6 names.
type Config struct {
	Listen     ListenConfig     `mapstructure:"listen"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Session    SessionConfig    `mapstructure:"session"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Models     ModelsConfig     `mapstructure:"models"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Log        LogConfig        `mapstructure:"log"`
	TrustProxy bool             `mapstructure:"trust_proxy"`
}

// ListenConfig controls the inbound HTTP bind address.
type ListenConfig struct {
	Port int `mapstructure:"port"`
}

// UpstreamConfig holds Qwen connection settings and credentials.
type UpstreamConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Token       string        `mapstructure:"token"`  // anti-bot token header value
	Cookie      string        `mapstructure:"cookie"` // cookie header value
	TimeoutMS   int           `mapstructure:"timeout_ms"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// Timeout returns the configured per-call upstream timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutMS) * time.Millisecond
}

// SessionConfig controls C3's lifecycle and sweeper cadence.
type SessionConfig struct {
	TimeoutMS        int `mapstructure:"timeout_ms"`
	SweepIntervalMS  int `mapstructure:"sweep_interval_ms"`
}

func (s SessionConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

func (s SessionConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalMS) * time.Millisecond
}

// RetryConfig is C2's backoff policy.
type RetryConfig struct {
	MaxAttempts  int     `mapstructure:"max_attempts"`
	InitialMS    int     `mapstructure:"initial_delay_ms"`
	CapMS        int     `mapstructure:"cap_ms"`
	Multiplier   float64 `mapstructure:"multiplier"`
}

// ModelsConfig controls C9's cache TTL.
type ModelsConfig struct {
	CacheTTLMS int `mapstructure:"cache_ttl_ms"`
}

func (m ModelsConfig) CacheTTL() time.Duration {
	return time.Duration(m.CacheTTLMS) * time.Millisecond
}

// PersistenceConfig names the embedded database file.
type PersistenceConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls the zap logger's level/format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from (in ascending priority) built-in
// defaults, an optional ./config.yaml / /etc/qwen-gateway/config.yaml,
// and QWENGW_-prefixed environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/qwen-gateway")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("QWENGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// upstream.token / upstream.cookie have no default, so bind them
	// explicitly for Unmarshal to see their env values.
	_ = v.BindEnv("upstream.token")
	_ = v.BindEnv("upstream.cookie")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Upstream.Token == "" || cfg.Upstream.Cookie == "" {
		return nil, fmt.Errorf("upstream token and cookie are required (set upstream.token / upstream.cookie or QWENGW_UPSTREAM_TOKEN / QWENGW_UPSTREAM_COOKIE)")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen.port", 3000)

	v.SetDefault("upstream.base_url", "https://chat.qwen.ai")
	v.SetDefault("upstream.timeout_ms", 60_000)
	v.SetDefault("upstream.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")

	v.SetDefault("session.timeout_ms", 30*60*1000)
	v.SetDefault("session.sweep_interval_ms", 10*60*1000)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay_ms", 1000)
	v.SetDefault("retry.cap_ms", 10_000)
	v.SetDefault("retry.multiplier", 2.0)

	v.SetDefault("models.cache_ttl_ms", 60*60*1000)

	v.SetDefault("persistence.path", "qwen-gateway.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("trust_proxy", false)
}
