package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName           = "Win-Bin"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultStoreBackend      = BackendMemory
	defaultMongoDatabase     = "winbin"
	defaultSQLitePath        = "data/winbin.db"
	defaultMaxAccounts       = 100
	defaultShutdownDelay     = 10 * time.Second
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultSessionTTL        = 7 * 24 * time.Hour
	defaultClassifierTimeout = 20 * time.Second
	defaultLoginRateLimit    = 5
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMongo    = "mongo"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName           string
	AppEnv            string
	Port              string
	LogLevel          string
	LogFormat         string
	StoreBackend      string
	DatabaseURL       string
	RedisURL          string
	MongoURL          string
	MongoDatabase     string
	SQLitePath        string
	MaxAccounts       int
	SessionTTL        time.Duration
	IdempotencyTTL    time.Duration
	ShutdownPeriod    time.Duration
	ClassifierURL     string
	ClassifierAPIKey  string
	ClassifierTimeout time.Duration
	LoginRateLimit    int
	AllowedOrigins    string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:        strings.ToLower(os.Getenv("LOG_FORMAT")),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", defaultStoreBackend)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MongoURL:         os.Getenv("MONGO_URL"),
		MongoDatabase:    getEnv("MONGO_DATABASE", defaultMongoDatabase),
		SQLitePath:       getEnv("SQLITE_PATH", defaultSQLitePath),
		ClassifierURL:    os.Getenv("CLASSIFIER_URL"),
		ClassifierAPIKey: os.Getenv("CLASSIFIER_API_KEY"),
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", "*"),
	}

	var err error
	if cfg.MaxAccounts, err = intEnv("MAX_ACCOUNTS", defaultMaxAccounts); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateLimit, err = intEnv("LOGIN_RATE_LIMIT", defaultLoginRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", defaultSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.ClassifierTimeout, err = durationEnv("CLASSIFIER_TIMEOUT", defaultClassifierTimeout); err != nil {
		return Config{}, err
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
		if cfg.IsDevelopment() {
			cfg.LogFormat = "text"
		}
	}

	if cfg.MaxAccounts <= 0 {
		return Config{}, fmt.Errorf("MAX_ACCOUNTS must be positive")
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set for the redis backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set for the postgres backend")
		}
	case BackendMongo:
		if cfg.MongoURL == "" {
			return Config{}, fmt.Errorf("MONGO_URL must be set for the mongo backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment reports whether the app runs in a local development environment.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev" || c.AppEnv == "local"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// durationEnv accepts Go durations ("90s") and bare integers as seconds.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
