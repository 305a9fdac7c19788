package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	PAAPI     PAAPIConfig
	Cache     CacheConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Content   ContentConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PAAPIConfig holds Product Advertising API configuration.
// Missing credentials disable product fetching; they are not a validation error.
type PAAPIConfig struct {
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	PartnerTag        string        `mapstructure:"partner_tag"`
	Region            string        `mapstructure:"region"`
	Endpoint          string        `mapstructure:"endpoint"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Verbose           bool          `mapstructure:"verbose"`
}

// CacheConfig holds ephemeral cache configuration
type CacheConfig struct {
	Type        string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL    string        `mapstructure:"redis_url"`
	TTL         time.Duration `mapstructure:"ttl"`
	NegativeTTL time.Duration `mapstructure:"negative_ttl"`
}

// StoreConfig selects the durable product store
type StoreConfig struct {
	Type             string `mapstructure:"type"` // "postgres" or "dynamodb"
	DynamoDBTable    string `mapstructure:"dynamodb_table"`
	DynamoDBRegion   string `mapstructure:"dynamodb_region"`
	DynamoDBEndpoint string `mapstructure:"dynamodb_endpoint"`
}

// DatabaseConfig holds the Postgres connection string
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ContentConfig holds content rendering configuration
type ContentConfig struct {
	AffiliateTag string `mapstructure:"affiliate_tag"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load loads configuration from .env, environment variables and the default config file locations
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file path. An empty path searches
// the default locations.
func LoadFrom(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/wtsr/")
	}

	// Environment variable settings: WTSR_CACHE_REDIS_URL -> cache.redis_url
	v.SetEnvPrefix("WTSR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvAliases(v); err != nil {
		return nil, err
	}

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env if present. Variables already set in the
// environment are never overridden.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// bindEnvAliases accepts the conventional AMAZON_PAAPI_* names alongside the prefixed ones.
// The prefixed name wins when both are set.
func bindEnvAliases(v *viper.Viper) error {
	for _, key := range []string{"access_key", "secret_key", "partner_tag", "region"} {
		upper := strings.ToUpper(key)
		if err := v.BindEnv("paapi."+key, "WTSR_PAAPI_"+upper, "AMAZON_PAAPI_"+upper); err != nil {
			return fmt.Errorf("bind env for paapi.%s: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// PA-API defaults
	v.SetDefault("paapi.region", "us-east-1")
	v.SetDefault("paapi.endpoint", "")
	v.SetDefault("paapi.timeout", "6s")
	v.SetDefault("paapi.requests_per_second", 1.0)
	v.SetDefault("paapi.verbose", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.negative_ttl", "5m")

	// Store defaults
	v.SetDefault("store.type", "postgres")
	v.SetDefault("store.dynamodb_table", "amazon_products")
	v.SetDefault("store.dynamodb_region", "us-east-1")
	v.SetDefault("store.dynamodb_endpoint", "")
	v.SetDefault("database.dsn", "postgres://localhost:5432/wtsr?sslmode=disable")

	v.SetDefault("content.affiliate_tag", "wtsr-20")

	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Store.Type != "postgres" && config.Store.Type != "dynamodb" {
		return fmt.Errorf("store type must be 'postgres' or 'dynamodb', got: %s", config.Store.Type)
	}

	if config.Store.Type == "postgres" && config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required when store type is 'postgres'")
	}

	if config.Store.Type == "dynamodb" && config.Store.DynamoDBTable == "" {
		return fmt.Errorf("DynamoDB table is required when store type is 'dynamodb'")
	}

	if config.PAAPI.Timeout < time.Second || config.PAAPI.Timeout >= 10*time.Second {
		return fmt.Errorf("PA-API timeout must be between 1s and 9s, got: %s", config.PAAPI.Timeout)
	}

	if config.PAAPI.RequestsPerSecond <= 0 {
		return fmt.Errorf("PA-API requests per second must be positive, got: %v", config.PAAPI.RequestsPerSecond)
	}

	return nil
}

// PAAPIEnabled reports whether every credential needed to call the product API is set
func (c *Config) PAAPIEnabled() bool {
	return c.PAAPI.AccessKey != "" && c.PAAPI.SecretKey != "" && c.PAAPI.PartnerTag != ""
}
