package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration for both the API server and the delivery
// worker, loaded from the environment.
type Config struct {
	AppName  string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string
	RabbitMQURL string
	JWTSecret   string

	RateLimitPerMinute int
	PublishTimeout     time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	TelegramAPIBase  string
	TelegramBotToken string

	SMSGatewayURL string
	SMSAPIKey     string
	SMSFrom       string

	SenderTimeout time.Duration

	WorkerHTTPPort string
	PrefetchCount  int
	WorkerCount    int
	MaxDeliveries  int

	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
}

// Load loads configuration from environment variables and performs basic
// validation.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName:  getEnv("APP_NAME", "resto-core"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		PublishTimeout:     getEnvAsDuration("PUBLISH_TIMEOUT", 5*time.Second),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@resto.local"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		TelegramAPIBase:  getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),

		SMSGatewayURL: getEnv("SMS_GATEWAY_URL", ""),
		SMSAPIKey:     getEnv("SMS_API_KEY", ""),
		SMSFrom:       getEnv("SMS_FROM", ""),

		SenderTimeout: getEnvAsDuration("SENDER_TIMEOUT", 10*time.Second),

		WorkerHTTPPort: getEnv("WORKER_HTTP_PORT", "8082"),
		PrefetchCount:  getEnvAsInt("PREFETCH_COUNT", 50),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 5),
		MaxDeliveries:  getEnvAsInt("MAX_DELIVERIES", 5),

		RetryMaxAttempts:    getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		RetryInitialBackoff: getEnvAsDuration("RETRY_INITIAL_BACKOFF", time.Second),
		RetryMaxBackoff:     getEnvAsDuration("RETRY_MAX_BACKOFF", 15*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	if c.RabbitMQURL == "" {
		missing = append(missing, "RABBITMQ_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}

func getEnv(key, def string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return value
}

func getEnvAsInt(key string, def int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid int for %s, using default %d: %v", key, def, err)
			return def
		}
		return i
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("invalid duration for %s, using default %s: %v", key, def, err)
			return def
		}
		return d
	}
	return def
}
