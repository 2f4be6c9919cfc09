package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Query store selection
	Store StoreConfig

	// Redis connection for the dashboard cache
	Redis RedisConfig

	// Dashboard cache configuration
	Cache CacheConfig

	// JWT configuration
	JWT JWTConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// CORS configuration
	CORS CORSConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// StoreConfig selects the query store implementation
type StoreConfig struct {
	Driver         string // postgres, memory
	MigrationsPath string // empty uses the migrations embedded in the binary
	AutoMigrate    bool
}

// RedisConfig holds Redis connection settings. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig holds dashboard cache settings
type CacheConfig struct {
	TTL       time.Duration
	KeyPrefix string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	WriteRPS          float64 // Stricter limit for lifecycle writes
	WriteBurst        int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongWait        time.Duration
}

// CORSConfig holds cross-origin settings for the browser front end
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string

	// Admin created at startup when no user with this email exists
	BootstrapAdminEmail string
	BootstrapAdminName  string
}

// Load reads the configuration from the environment, after merging a local
// .env file when one exists. Malformed values are reported together with the
// validation failures instead of silently falling back to defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	env := &envReader{}
	cfg := &Config{
		Server: ServerConfig{
			Port:            env.String("SERVER_PORT", ":8080"),
			ReadTimeout:     env.Duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    env.Duration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     env.Duration("SERVER_IDLE_TIMEOUT", time.Minute),
			ShutdownTimeout: env.Duration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             env.String("DATABASE_URL", ""),
			MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.Duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: env.Duration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Store: StoreConfig{
			Driver:         strings.ToLower(env.String("STORE_DRIVER", StoreDriverPostgres)),
			MigrationsPath: env.String("MIGRATIONS_PATH", ""),
			AutoMigrate:    env.Bool("AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Addr:     env.String("REDIS_ADDR", ""),
			Password: env.String("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			TTL:       env.Duration("DASHBOARD_CACHE_TTL", 5*time.Minute),
			KeyPrefix: env.String("DASHBOARD_CACHE_PREFIX", "helpdesk:"),
		},
		JWT: JWTConfig{
			Secret:         env.String("JWT_SECRET", ""),
			AccessTokenTTL: env.Duration("JWT_ACCESS_TOKEN_TTL", time.Hour),
		},
		RateLimit: RateLimitConfig{
			Enabled:           env.Bool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: env.Float("RATE_LIMIT_RPS", 10),
			BurstSize:         env.Int("RATE_LIMIT_BURST", 20),
			WriteRPS:          env.Float("RATE_LIMIT_WRITE_RPS", 2),
			WriteBurst:        env.Int("RATE_LIMIT_WRITE_BURST", 10),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:  env.List("WS_ALLOWED_ORIGINS", nil),
			ReadBufferSize:  env.Int("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: env.Int("WS_WRITE_BUFFER_SIZE", 1024),
			PingInterval:    env.Duration("WS_PING_INTERVAL", 54*time.Second),
			PongWait:        env.Duration("WS_PONG_WAIT", time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: env.List("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			MaxAge:         env.Int("CORS_MAX_AGE", 300),
		},
		Logging: LoggingConfig{
			Level:  env.String("LOG_LEVEL", "info"),
			Format: env.String("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        env.String("APP_NAME", "helpdesk"),
			Version:     env.String("APP_VERSION", "dev"),
			Environment: env.String("APP_ENV", "development"),

			BootstrapAdminEmail: env.String("BOOTSTRAP_ADMIN_EMAIL", ""),
			BootstrapAdminName:  env.String("BOOTSTRAP_ADMIN_NAME", "Administrator"),
		},
	}

	if problems := append(env.problems, cfg.problems()...); len(problems) > 0 {
		return nil, configError(problems)
	}
	return cfg, nil
}

// Validate checks cross-field rules on an assembled configuration.
func (c *Config) Validate() error {
	if problems := c.problems(); len(problems) > 0 {
		return configError(problems)
	}
	return nil
}

func (c *Config) problems() []string {
	var p []string

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.URL == "" {
			p = append(p, "DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		p = append(p, "STORE_DRIVER must be one of: postgres, memory")
	}

	if c.JWT.Secret == "" {
		p = append(p, "JWT_SECRET is required")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		p = append(p, "DB_MAX_IDLE_CONNS cannot be greater than DB_MAX_OPEN_CONNS")
	}
	if c.Cache.TTL <= 0 {
		p = append(p, "DASHBOARD_CACHE_TTL must be positive")
	}

	if c.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			p = append(p, "JWT_SECRET must be at least 32 characters in production")
		}
		if len(c.WebSocket.AllowedOrigins) == 0 {
			p = append(p, "WS_ALLOWED_ORIGINS must be set in production")
		}
		if c.Store.Driver == StoreDriverMemory {
			p = append(p, "STORE_DRIVER=memory is not allowed in production")
		}
	}
	return p
}

func configError(problems []string) error {
	return errors.New("configuration errors:\n  - " + strings.Join(problems, "\n  - "))
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// CacheEnabled reports whether dashboards are cached in Redis
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Store: %s, DB: %s, Redis: %s, JWT: [REDACTED], RateLimit: %v, Environment: %s}",
		c.Server.Port,
		c.Store.Driver,
		redactURL(c.Database.URL),
		redactURL(c.Redis.Addr),
		c.RateLimit.Enabled,
		c.App.Environment,
	)
}

// redactURL redacts sensitive parts of a database URL
func redactURL(url string) string {
	if url == "" {
		return ""
	}
	if idx := strings.Index(url, "@"); idx > 0 {
		return "[REDACTED]" + url[idx:]
	}
	return "[REDACTED]"
}
