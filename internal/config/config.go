package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// Persistence backends
const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverMemory   = "memory"
)

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=postgres memory"`
	URL          string `mapstructure:"url" validate:"required_if=Driver postgres"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`

	// SeedUsers lists "First Last" names registered with the memory backend
	// at startup. Ignored by postgres.
	SeedUsers []string `mapstructure:"seed_users"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// Cache backends
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

// CacheConfig contains settings for the task read cache.
type CacheConfig struct {
	Driver          string `mapstructure:"driver" validate:"required,oneof=memory redis"`
	RedisAddr       string `mapstructure:"redis_addr" validate:"required_if=Driver redis"`
	RedisPassword   string `mapstructure:"redis_password"`
	RedisDB         int    `mapstructure:"redis_db" validate:"gte=0"`
	RedisPrefix     string `mapstructure:"redis_prefix"`
	ListTTLSeconds  int    `mapstructure:"list_ttl_seconds" validate:"required,gt=0"`
	AdminTTLSeconds int    `mapstructure:"admin_ttl_seconds" validate:"required,gt=0"`
	Capacity        int    `mapstructure:"capacity" validate:"required,gt=0"`
}

// ListTTL returns the lifetime of cached paginated task pages.
func (c CacheConfig) ListTTL() time.Duration {
	return time.Duration(c.ListTTLSeconds) * time.Second
}

// AdminTTL returns the lifetime of the cached admin task listing.
func (c CacheConfig) AdminTTL() time.Duration {
	return time.Duration(c.AdminTTLSeconds) * time.Second
}

// TokenLifetime returns the lifetime of issued access tokens.
func (a AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(a.TokenLifetimeMinutes) * time.Minute
}
