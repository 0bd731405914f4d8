package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the server configuration loaded from the environment
type Config struct {
	Environment string
	Port        string
	LogLevel    string
	LogFile     string

	Database DatabaseConfig
	Redis    RedisConfig

	JWTSecret          string
	CORSAllowedOrigins []string
	CacheTTL           time.Duration

	// APIRatePerMinute is the per-IP limit on /api requests; 0 disables it
	APIRatePerMinute int

	Tracking TrackingConfig

	// AlertInterval is how often alert rules are evaluated; 0 disables alerts
	AlertInterval time.Duration

	OTelEnabled      bool
	OTelEndpoint     string
	OTelSamplingRate float64
}

// DatabaseConfig selects and configures the gorm driver
type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	URL        string
	SQLitePath string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
}

// RedisConfig configures the descriptor cache
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
}

// TrackingConfig configures the background usage tracker
type TrackingConfig struct {
	Workers       int
	QueueSize     int
	Timeout       time.Duration
	RatePerMinute int
}

// Load reads configuration from environment variables.
// Call godotenv.Load() first if a .env file should be honoured.
func Load() *Config {
	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Port:        getEnvOrDefault("PORT", "8787"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "server.log"),

		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnvOrDefault("DB_DRIVER", "postgres")),
			URL:        os.Getenv("DATABASE_URL"),
			SQLitePath: getEnvOrDefault("SQLITE_PATH", "hearthstay.db"),
			Host:       getEnvOrDefault("DB_HOST", "localhost"),
			Port:       getEnvOrDefault("DB_PORT", "5432"),
			User:       getEnvOrDefault("DB_USER", "postgres"),
			Password:   os.Getenv("DB_PASSWORD"),
			Name:       getEnvOrDefault("DB_NAME", "hearthstay"),
			SSLMode:    getEnvOrDefault("DB_SSLMODE", "disable"),
		},

		Redis: RedisConfig{
			Enabled:  getBoolOrDefault("REDIS_ENABLED", true),
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},

		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		CacheTTL:           getDurationOrDefault("CACHE_TTL", 5*time.Minute),
		APIRatePerMinute:   getIntOrDefault("API_RATE_PER_MINUTE", 300),

		Tracking: TrackingConfig{
			Workers:       getIntOrDefault("TRACKING_WORKERS", 4),
			QueueSize:     getIntOrDefault("TRACKING_QUEUE_SIZE", 1000),
			Timeout:       getDurationOrDefault("TRACKING_TIMEOUT", 5*time.Second),
			RatePerMinute: getIntOrDefault("TRACK_RATE_PER_MINUTE", 120),
		},
		AlertInterval: getDurationOrDefault("ALERT_INTERVAL", time.Minute),

		OTelEnabled:      getBoolOrDefault("OTEL_ENABLED", false),
		OTelEndpoint:     getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTelSamplingRate: getFloatOrDefault("OTEL_SAMPLING_RATE", 1.0),
	}

	return cfg
}

// Validate fails fast on settings the server cannot run without
func (c *Config) Validate() error {
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Tracking.Workers < 1 {
		return fmt.Errorf("TRACKING_WORKERS must be at least 1")
	}
	if c.Tracking.QueueSize < 1 {
		return fmt.Errorf("TRACKING_QUEUE_SIZE must be at least 1")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// DSN returns the postgres connection string
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
