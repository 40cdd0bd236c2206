package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Classifier   ClassifierConfig
	Triage       TriageConfig
	Geocoder     GeocoderConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// ClassifierConfig controls the remote classification gateway.
type ClassifierConfig struct {
	APIKey             string
	Endpoint           string
	Models             []string
	CooldownMinutes    int
	RetryDelaySeconds  int
	CallTimeoutSeconds int
}

// TriageConfig exposes integrity-filter policy parameters. The thresholds are
// policy, not law; operators may tune them per deployment.
type TriageConfig struct {
	DuplicateThreshold float64
	KnownWordRatio     float64
	IntakePerHour      int
}

// GeocoderConfig points at the reverse-geocoding collaborator.
type GeocoderConfig struct {
	Endpoint       string
	TimeoutSeconds int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "complaint-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Classifier: ClassifierConfig{
			APIKey:             os.Getenv("CLASSIFIER_API_KEY"),
			Endpoint:           getEnv("CLASSIFIER_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),
			Models:             getEnvAsList("CLASSIFIER_MODELS", []string{"gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-1.5-flash"}),
			CooldownMinutes:    getEnvAsInt("CLASSIFIER_COOLDOWN_MINUTES", 5),
			RetryDelaySeconds:  getEnvAsInt("CLASSIFIER_RETRY_DELAY_SECONDS", 2),
			CallTimeoutSeconds: getEnvAsInt("CLASSIFIER_CALL_TIMEOUT_SECONDS", 20),
		},
		Triage: TriageConfig{
			DuplicateThreshold: getEnvAsFloat("TRIAGE_DUPLICATE_THRESHOLD", 0.6),
			KnownWordRatio:     getEnvAsFloat("TRIAGE_KNOWN_WORD_RATIO", 0.3),
			IntakePerHour:      getEnvAsInt("TRIAGE_INTAKE_PER_HOUR", 20),
		},
		Geocoder: GeocoderConfig{
			Endpoint:       getEnv("GEOCODER_ENDPOINT", "https://nominatim.openstreetmap.org/reverse"),
			TimeoutSeconds: getEnvAsInt("GEOCODER_TIMEOUT_SECONDS", 5),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Cooldown returns the classifier credential cooldown window.
func (c ClassifierConfig) Cooldown() time.Duration {
	if c.CooldownMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.CooldownMinutes) * time.Minute
}

// RetryDelay returns the transient-error retry delay.
func (c ClassifierConfig) RetryDelay() time.Duration {
	if c.RetryDelaySeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// CallTimeout returns the per-call network timeout.
func (c ClassifierConfig) CallTimeout() time.Duration {
	if c.CallTimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// Timeout returns the geocoder request timeout.
func (g GeocoderConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
