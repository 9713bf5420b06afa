package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Code length bounds accepted by the generator and the redeem endpoint.
const (
	MinCodeLength = 8
	MaxCodeLength = 20
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Store     StoreConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Voucher   VoucherConfig
	Reserved  ReservedConfig
	S3        S3Config
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	LockTimeoutMS   int
}

// StoreConfig selects the voucher store backend.
type StoreConfig struct {
	Driver     string // "postgres" or "sqlite"
	SQLitePath string
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// VoucherConfig holds code generation settings.
type VoucherConfig struct {
	CodeLength  int
	MaxAttempts int
}

// ReservedConfig lists gzipped files of codes that must never be issued.
type ReservedConfig struct {
	Enabled   bool
	FilePaths []string
}

// S3Config holds AWS S3 configuration for reserved code files.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "reserved/")
}

// RateLimitConfig holds the Redis-backed request limiter settings.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Requests      int
	WindowSeconds int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "vouchers"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			LockTimeoutMS:   getEnvAsInt("DB_LOCK_TIMEOUT_MS", 5000),
		},
		Store: StoreConfig{
			Driver:     getEnv("STORE_DRIVER", DriverPostgres),
			SQLitePath: getEnv("SQLITE_PATH", "data/vouchers.db"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Voucher: VoucherConfig{
			CodeLength:  getEnvAsInt("VOUCHER_CODE_LENGTH", 10),
			MaxAttempts: getEnvAsInt("VOUCHER_MAX_ATTEMPTS", 20),
		},
		Reserved: ReservedConfig{
			Enabled:   getEnvAsBool("RESERVED_CODES_ENABLED", false),
			FilePaths: getEnvAsList("RESERVED_CODES_FILES", nil),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "reserved/"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required when store driver is sqlite")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be postgres or sqlite)", c.Store.Driver)
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Voucher.CodeLength < MinCodeLength || c.Voucher.CodeLength > MaxCodeLength {
		return fmt.Errorf("invalid voucher code length: %d (must be between %d and %d)",
			c.Voucher.CodeLength, MinCodeLength, MaxCodeLength)
	}

	if c.Voucher.MaxAttempts < 1 {
		return fmt.Errorf("voucher max attempts must be at least 1")
	}

	if c.Reserved.Enabled && len(c.Reserved.FilePaths) == 0 {
		return fmt.Errorf("reserved code files are required when reserved codes are enabled")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RedisAddr == "" {
			return fmt.Errorf("redis address is required when rate limiting is enabled")
		}
		if c.RateLimit.Requests < 1 {
			return fmt.Errorf("rate limit requests must be at least 1")
		}
		if c.RateLimit.WindowSeconds < 1 {
			return fmt.Errorf("rate limit window must be at least 1 second")
		}
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.LockTimeoutMS < 0 {
		return fmt.Errorf("database lock timeout cannot be negative")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// LockTimeout returns the row lock wait bound for redemption transactions.
func (c *DatabaseConfig) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Window returns the rate limit window.
func (c *RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// ObjectKey joins the S3 prefix and a reserved file name.
func (c *S3Config) ObjectKey(name string) string {
	return c.Prefix + strings.TrimPrefix(name, "/")
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
