package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Signing  SigningConfig
	Rails    RailsConfig
	Security SecurityConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// SigningConfig holds the gateway's mandate signing key. The seed never
// leaves this struct except into the signer.
type SigningConfig struct {
	KeyHex string
}

// RailsConfig holds payment rail provider settings
type RailsConfig struct {
	CardAppID           string
	CardSecret          string
	CardWebhookSecret   string
	DirectWebhookSecret string
	DirectTimeout       time.Duration
	DirectMaxAmount     int64
}

// SecurityConfig holds encryption keys for cached response data
type SecurityConfig struct {
	ReplayCacheKey string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "agentgate"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", time.Hour),
		},
		Signing: SigningConfig{
			KeyHex: getEnv("SIGNING_KEY", ""),
		},
		Rails: RailsConfig{
			CardAppID:           getEnv("CARD_RAIL_APP_ID", ""),
			CardSecret:          getEnv("CARD_RAIL_SECRET", ""),
			CardWebhookSecret:   getEnv("CARD_RAIL_WEBHOOK_SECRET", ""),
			DirectWebhookSecret: getEnv("DIRECT_RAIL_WEBHOOK_SECRET", ""),
			DirectTimeout:       time.Duration(getEnvAsInt("DIRECT_RAIL_TIMEOUT_MS", 5000)) * time.Millisecond,
			DirectMaxAmount:     getEnvAsInt64("DIRECT_MAX_AMOUNT", 200),
		},
		Security: SecurityConfig{
			ReplayCacheKey: getEnv("REPLAY_CACHE_KEY", "0000000000000000000000000000000000000000000000000000000000000000"), // 32-bytes hex string
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
