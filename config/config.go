package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	// EnvMemory runs against in-process stores with no external services.
	EnvMemory = "memory"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string        `mapstructure:"APP_PORT"`
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int           `mapstructure:"MAX_REQUESTS_PER_MIN"`
	ShutdownTimeout   time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	// HealthCheckInterval is how often MongoDB and Redis are pinged for /health.
	HealthCheckInterval time.Duration `mapstructure:"HEALTH_CHECK_INTERVAL"`

	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Google Maps API Key.
	GoogleAPIKey    string        `mapstructure:"GOOGLE_API_KEY"`
	GeocodeCacheTTL time.Duration `mapstructure:"GEOCODE_CACHE_TTL"`

	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	CloudinaryURL    string `mapstructure:"CLOUDINARY_URL"`
	CloudinaryFolder string `mapstructure:"CLOUDINARY_FOLDER"`
	// FilesBaseURL serves photo references when Cloudinary is not configured.
	FilesBaseURL string `mapstructure:"FILES_BASE_URL"`

	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`

	// Coupled booking/availability writes.
	AvailabilityRetryAttempts int           `mapstructure:"AVAILABILITY_RETRY_ATTEMPTS"`
	AvailabilityRetryBackoff  time.Duration `mapstructure:"AVAILABILITY_RETRY_BACKOFF"`
	ReconcileInterval         string        `mapstructure:"RECONCILE_INTERVAL"`
}

// Load reads .env, config.yaml and the environment, in that order of precedence
// from lowest to highest.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing")
	}

	v := viper.New()
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("HEALTH_CHECK_INTERVAL", "30s")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "snapbook")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("GOOGLE_API_KEY", "")
	v.SetDefault("GEOCODE_CACHE_TTL", "720h")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("CLOUDINARY_FOLDER", "snapbook")
	v.SetDefault("FILES_BASE_URL", "http://localhost:8080/files")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("EVENTS_EXCHANGE", "snapbook.events")
	v.SetDefault("AVAILABILITY_RETRY_ATTEMPTS", 3)
	v.SetDefault("AVAILABILITY_RETRY_BACKOFF", "200ms")
	v.SetDefault("RECONCILE_INTERVAL", "@every 5m")
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvMemory:
	default:
		return fmt.Errorf("config: unknown ENV %q", c.Env)
	}
	if c.JWTSecret == "" && c.Env == EnvProduction {
		return fmt.Errorf("config: JWT_SECRET is required in production")
	}
	if c.HealthCheckInterval <= 0 {
		return fmt.Errorf("config: HEALTH_CHECK_INTERVAL must be positive")
	}
	if c.AvailabilityRetryAttempts < 1 {
		return fmt.Errorf("config: AVAILABILITY_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) IsMemory() bool {
	return c.Env == EnvMemory
}
