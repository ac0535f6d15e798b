package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Identity backends.
const (
	BackendWhoami = "whoami"
	BackendKratos = "kratos"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheLRU    = "lru"
	CacheRedis  = "redis"
)

// Config holds the application configuration
type Config struct {
	UserServiceURL    string        // whoami endpoint (user.php?op=whoami)
	FavoritesURL      string        // bookmarks endpoint
	KratosURL         string        // Kratos Frontend API, used when IdentityBackend is kratos
	KratosCookie      string        // Kratos session cookie forwarded alongside the session pair
	KratosUserTrait   string        // Identity trait holding the value of the logged-in-user cookie
	IdentityBackend   string        // whoami or kratos
	Port              string        // Service port
	CacheBackend      string        // memory, lru or redis
	CacheTTL          time.Duration // Identity and favorites cache TTL
	CacheKey          string        // Identity cache key prefix
	FavoritesCacheKey string        // Favorites cache key prefix
	LRUSize           int           // Max entries for the lru backend
	RedisURL          string        // redis:// URL for the redis backend
	PrimaryDomain     string        // Email domain flagging primary-domain users
	FetchTimeout      time.Duration // Upstream request timeout
	ResolverPoolSize  int           // Max sessions holding a live resolver
	ResolverIdleTTL   time.Duration // Idle time before a session's resolver is dropped
	MetricsToken      string        // Bearer token required on /metrics; empty leaves it open
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		UserServiceURL:    getEnv("USER_SERVICE_URL", "https://archive.org/services/user.php?op=whoami"),
		FavoritesURL:      getEnv("FAVORITES_URL", "https://archive.org/bookmarks.php"),
		KratosURL:         getEnv("KRATOS_URL", ""),
		KratosCookie:      getEnv("KRATOS_SESSION_COOKIE", "ory_kratos_session"),
		KratosUserTrait:   getEnv("KRATOS_USERNAME_TRAIT", "email"),
		IdentityBackend:   strings.ToLower(getEnv("IDENTITY_BACKEND", BackendWhoami)),
		Port:              getEnv("PORT", "8890"),
		CacheBackend:      strings.ToLower(getEnv("CACHE_BACKEND", CacheMemory)),
		CacheKey:          getEnv("CACHE_KEY", "loggedInUserInfo"),
		FavoritesCacheKey: getEnv("FAVORITES_CACHE_KEY", "loggedInUserFavorites"),
		RedisURL:          getEnv("REDIS_URL", ""),
		PrimaryDomain:     getEnv("PRIMARY_DOMAIN", "archive.org"),
		MetricsToken:      getEnv("METRICS_TOKEN", ""),
	}

	var err error
	if config.CacheTTL, err = getDuration("CACHE_TTL", 60*time.Second); err != nil {
		return nil, err
	}
	if config.FetchTimeout, err = getDuration("FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.ResolverIdleTTL, err = getDuration("RESOLVER_IDLE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if config.LRUSize, err = getInt("LRU_SIZE", 1024); err != nil {
		return nil, err
	}
	if config.ResolverPoolSize, err = getInt("RESOLVER_POOL_SIZE", 4096); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	switch c.IdentityBackend {
	case BackendWhoami:
		if err := validateURL("USER_SERVICE_URL", c.UserServiceURL); err != nil {
			return err
		}
	case BackendKratos:
		if err := validateURL("KRATOS_URL", c.KratosURL); err != nil {
			return err
		}
		if c.KratosCookie == "" {
			return fmt.Errorf("KRATOS_SESSION_COOKIE cannot be empty")
		}
	default:
		return fmt.Errorf("IDENTITY_BACKEND must be %q or %q, got %q", BackendWhoami, BackendKratos, c.IdentityBackend)
	}

	if err := validateURL("FAVORITES_URL", c.FavoritesURL); err != nil {
		return err
	}

	switch c.CacheBackend {
	case CacheMemory:
	case CacheLRU:
		if c.LRUSize <= 0 {
			return fmt.Errorf("LRU_SIZE must be positive")
		}
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of memory, lru, redis, got %q", c.CacheBackend)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	if c.ResolverPoolSize <= 0 {
		return fmt.Errorf("RESOLVER_POOL_SIZE must be positive")
	}
	if c.ResolverIdleTTL <= 0 {
		return fmt.Errorf("RESOLVER_IDLE_TTL must be positive")
	}

	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
	}
	return nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %w", key, err)
	}
	return n, nil
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
