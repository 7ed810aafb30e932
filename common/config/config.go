package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SiteIDMaxLen is the width of the site_id column.
const SiteIDMaxLen = 16

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Site      SiteConfig
	Database  DatabaseConfig
	Registry  RegistryConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
	Features  FeatureFlags
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
	PathPrefix  string
}

// SiteConfig identifies this deployment.
// SiteID must differ between deployments whose message tables get merged.
type SiteConfig struct {
	SiteID string
}

// DatabaseConfig holds message database connection settings
type DatabaseConfig struct {
	Driver      string // "postgres" or "sqlite"
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	Path        string // sqlite file
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RegistryConfig lists the exposure registries, searched in order.
type RegistryConfig struct {
	URIs          []string
	MatchPolicy   string // "fail" or "first"
	LookupTimeout time.Duration
}

// CacheConfig holds exposure cache settings
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Channel  string
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof   bool
	PprofPort     int
	EnableMetrics bool
	MetricsPort   int
}

// FeatureFlags toggle optional integrations
type FeatureFlags struct {
	EnableDistributedCache bool
	EnableEvents           bool
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// An optional .env file fills in variables not already set.
	_ = godotenv.Load()

	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
			PathPrefix:  getEnv("PATH_PREFIX", "/"+serviceName),
		},
		Site: SiteConfig{
			SiteID: getEnv("SITE_ID", ""),
		},
		Database: DatabaseConfig{
			Driver:      getEnv("EXPOSURELOG_DB_DRIVER", "postgres"),
			Host:        getEnv("EXPOSURELOG_DB_HOST", "localhost"),
			Port:        getEnvInt("EXPOSURELOG_DB_PORT", 5432),
			Database:    getEnv("EXPOSURELOG_DB_DATABASE", "exposurelog"),
			User:        getEnv("EXPOSURELOG_DB_USER", "exposurelog"),
			Password:    getEnv("EXPOSURELOG_DB_PASSWORD", ""),
			Path:        getEnv("EXPOSURELOG_DB_PATH", "exposurelog.sqlite3"),
			MaxConns:    getEnvInt("EXPOSURELOG_DB_MAX_CONNS", 20),
			MinConns:    getEnvInt("EXPOSURELOG_DB_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("EXPOSURELOG_DB_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("EXPOSURELOG_DB_MAX_LIFETIME", 1*time.Hour),
		},
		Registry: RegistryConfig{
			URIs:          getEnvList("BUTLER_URI_1", "BUTLER_URI_2", "BUTLER_URI_3"),
			MatchPolicy:   getEnv("MULTIPLE_MATCH_POLICY", "fail"),
			LookupTimeout: getEnvDuration("REGISTRY_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			Enabled:    getEnvBool("CACHE_ENABLED", true),
			DefaultTTL: getEnvDuration("CACHE_DEFAULT_TTL", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_EVENTS_CHANNEL", serviceName+":messages"),
		},
		Telemetry: TelemetryConfig{
			EnablePprof:   getEnvBool("ENABLE_PPROF", false),
			PprofPort:     getEnvInt("PPROF_PORT", 6060),
			EnableMetrics: getEnvBool("ENABLE_METRICS", true),
			MetricsPort:   getEnvInt("METRICS_PORT", 9090),
		},
		Features: FeatureFlags{
			EnableDistributedCache: getEnvBool("ENABLE_DISTRIBUTED_CACHE", false),
			EnableEvents:           getEnvBool("ENABLE_EVENTS", false),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Site.SiteID == "" {
		return fmt.Errorf("SITE_ID is required")
	}
	if len(c.Site.SiteID) > SiteIDMaxLen {
		return fmt.Errorf("SITE_ID=%q too long; max length=%d", c.Site.SiteID, SiteIDMaxLen)
	}

	if len(c.Registry.URIs) == 0 {
		return fmt.Errorf("BUTLER_URI_1 is required")
	}

	switch c.Registry.MatchPolicy {
	case "fail", "first":
	default:
		return fmt.Errorf("invalid MULTIPLE_MATCH_POLICY %q: must be fail or first", c.Registry.MatchPolicy)
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("max_conns must be >= min_conns")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("EXPOSURELOG_DB_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.Database.User),
		url.QueryEscape(c.Database.Password),
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns host:port for the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList collects the non-blank values of keys, in order.
func getEnvList(keys ...string) []string {
	var values []string
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			values = append(values, value)
		}
	}
	return values
}
