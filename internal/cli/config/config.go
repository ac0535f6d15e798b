// Package config provides Viper-based configuration management for userctl
package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"user-hub/internal/domain"
)

// Config represents the complete userctl configuration
type Config struct {
	Endpoints     EndpointsConfig `mapstructure:"endpoints"`
	Session       SessionConfig   `mapstructure:"session"`
	Cache         CacheConfig     `mapstructure:"cache"`
	Output        OutputConfig    `mapstructure:"output"`
	Timeout       time.Duration   `mapstructure:"timeout"`
	PrimaryDomain string          `mapstructure:"primary_domain"`
}

// EndpointsConfig contains upstream service URLs
type EndpointsConfig struct {
	Whoami    string `mapstructure:"whoami"`
	Favorites string `mapstructure:"favorites"`
}

// SessionConfig holds the session cookie pair
type SessionConfig struct {
	User string `mapstructure:"user"`
	Sig  string `mapstructure:"sig"`
}

// CacheConfig contains cache settings. RedisURL empty means an in-process
// cache that lives for one command.
type CacheConfig struct {
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Colors bool `mapstructure:"colors"`
}

// Load reads configuration from file and environment variables
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".userctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/userctl")
	}

	// USERCTL_SESSION_USER, USERCTL_CACHE_REDIS_URL, ...
	v.SetEnvPrefix("USERCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values. Every key is registered so that
// AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoints.whoami", "https://archive.org/services/user.php?op=whoami")
	v.SetDefault("endpoints.favorites", "https://archive.org/bookmarks.php")

	v.SetDefault("session.user", "")
	v.SetDefault("session.sig", "")

	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 60*time.Second)

	v.SetDefault("output.colors", true)
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("primary_domain", domain.DefaultPrimaryDomain)
}

func validate(cfg *Config) error {
	for name, raw := range map[string]string{
		"endpoints.whoami":    cfg.Endpoints.Whoami,
		"endpoints.favorites": cfg.Endpoints.Favorites,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", cfg.Cache.TTL)
	}

	return nil
}

// Complete reports whether both session cookies are set.
func (s SessionConfig) Complete() bool {
	return s.User != "" && s.Sig != ""
}

// Cookies returns the configured session cookies. An unset value is treated
// as an absent cookie.
func (s SessionConfig) Cookies() []*http.Cookie {
	var cookies []*http.Cookie
	if s.User != "" {
		cookies = append(cookies, &http.Cookie{Name: domain.UserCookieName, Value: s.User})
	}
	if s.Sig != "" {
		cookies = append(cookies, &http.Cookie{Name: domain.SigCookieName, Value: s.Sig})
	}
	return cookies
}
