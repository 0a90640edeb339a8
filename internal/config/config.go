package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mr1hm/civic-eye/internal/verification"
)

type Config struct {
	Server       ServerConfig
	Worker       WorkerConfig
	DB           DatabaseConfig
	Logging      LoggingConfig
	Verification VerificationConfig
	Photos       PhotoConfig
	Auth         AuthConfig
	Kafka        KafkaConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	RateLimitRPS    int
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// WorkerConfig sizes the event dispatcher pool.
type WorkerConfig struct {
	Count      int
	BufferSize int
}

type DatabaseConfig struct {
	Driver string // sqlite or postgres
	Path   string
	DSN    string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type VerificationConfig struct {
	Timeout             time.Duration
	ConfirmRadius       float64
	CorroborateRadius   float64
	PreviewAcceptRadius float64
	PreviewWarnRadius   float64
	HighSimilarity      float64
	MinSimilarity       float64
}

type PhotoConfig struct {
	FetchTimeout time.Duration
	MaxBytes     int64
}

type AuthConfig struct {
	AdminEmails []string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:    getEnvInt("RATE_LIMIT_RPS", 20),
			CORSOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		DB: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Path:   getEnv("DB_PATH", "./data/civic-eye.db"),
			DSN:    getEnv("DATABASE_URL", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Verification: VerificationConfig{
			Timeout:             getEnvDuration("VERIFY_TIMEOUT", verification.DefaultTimeout),
			ConfirmRadius:       getEnvFloat("VERIFY_CONFIRM_RADIUS_M", 50),
			CorroborateRadius:   getEnvFloat("VERIFY_CORROBORATE_RADIUS_M", 100),
			PreviewAcceptRadius: getEnvFloat("PREVIEW_ACCEPT_RADIUS_M", 200),
			PreviewWarnRadius:   getEnvFloat("PREVIEW_WARN_RADIUS_M", 1000),
			HighSimilarity:      getEnvFloat("VISUAL_HIGH_SIMILARITY", 0.8),
			MinSimilarity:       getEnvFloat("VISUAL_MIN_SIMILARITY", 0.6),
		},
		Photos: PhotoConfig{
			FetchTimeout: getEnvDuration("PHOTO_FETCH_TIMEOUT", 3*time.Second),
			MaxBytes:     int64(getEnvInt("PHOTO_MAX_BYTES", 20<<20)),
		},
		Auth: AuthConfig{
			AdminEmails: getEnvList("AUTHORIZED_ADMIN_EMAILS", nil),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "civic-eye.issue-events"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Policy returns the verification policy described by the configured radii
// and similarity thresholds.
func (c *Config) Policy() verification.Policy {
	v := c.Verification
	return verification.Policy{
		ConfirmRadius:       v.ConfirmRadius,
		CorroborateRadius:   v.CorroborateRadius,
		PreviewAcceptRadius: v.PreviewAcceptRadius,
		PreviewWarnRadius:   v.PreviewWarnRadius,
		HighSimilarity:      v.HighSimilarity,
		MinSimilarity:       v.MinSimilarity,
	}
}

// IsAdmin reports whether email is on the admin allow-list. Comparison is
// case-insensitive.
func (c *Config) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, allowed := range c.Auth.AdminEmails {
		if allowed == email {
			return true
		}
	}
	return false
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %d", c.Server.RateLimitRPS)
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("WORKER_COUNT must be positive, got %d", c.Worker.Count)
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("WORKER_BUFFER_SIZE must not be negative, got %d", c.Worker.BufferSize)
	}

	switch c.DB.Driver {
	case "sqlite":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("invalid DB_DRIVER: %s", c.DB.Driver)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Verification.Timeout <= 0 {
		return fmt.Errorf("VERIFY_TIMEOUT must be positive")
	}
	if c.Photos.FetchTimeout <= 0 || c.Photos.FetchTimeout > c.Verification.Timeout {
		return fmt.Errorf("PHOTO_FETCH_TIMEOUT must be positive and no longer than VERIFY_TIMEOUT")
	}
	if c.Photos.MaxBytes < 1 {
		return fmt.Errorf("PHOTO_MAX_BYTES must be positive")
	}
	if err := c.Policy().CheckThresholds(); err != nil {
		return fmt.Errorf("invalid verification policy: %w", err)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_ENABLED=true")
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, lowercasing and dropping empty
// entries.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
