package config

import (
	"errors"
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
	Tracker      TrackerConfig
	Portal       PortalConfig
	Cache        CacheConfig
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

// AuthConfig defines session token and OAuth parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	OAuthClientID         string
	OAuthClientSecret     string
	OAuthRedirectURL      string
	OAuthAuthURL          string
	OAuthTokenURL         string
	OAuthUserInfoURL      string
}

// TrackerConfig holds Jira connection values.
type TrackerConfig struct {
	BaseURL        string
	Email          string
	APIToken       string
	ProjectKey     string
	TimeoutSeconds int
}

// PortalConfig holds reconciliation and verification policy.
type PortalConfig struct {
	MasterEmail         string
	BulkDelay           time.Duration
	AckMatchWindow      time.Duration
	AckRecentWindow     time.Duration
	SubmissionMinWait   time.Duration
	SubmissionMaxWait   time.Duration
	PendingMaxAttempts  int
	PendingPollInterval time.Duration
}

// CacheConfig selects the acknowledgement cache backend.
type CacheConfig struct {
	Backend string
	TTL     time.Duration
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// ErrMissing is wrapped by Validate errors for absent required settings.
var ErrMissing = errors.New("missing configuration")

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            firstEnv("POSTGRES_DSN", "DATABASE_URL"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			OAuthClientID:         os.Getenv("OAUTH_CLIENT_ID"),
			OAuthClientSecret:     os.Getenv("OAUTH_CLIENT_SECRET"),
			OAuthRedirectURL:      os.Getenv("OAUTH_REDIRECT_URL"),
			OAuthAuthURL:          getEnv("OAUTH_AUTH_URL", "https://accounts.google.com/o/oauth2/auth"),
			OAuthTokenURL:         getEnv("OAUTH_TOKEN_URL", "https://oauth2.googleapis.com/token"),
			OAuthUserInfoURL:      getEnv("OAUTH_USERINFO_URL", "https://openidconnect.googleapis.com/v1/userinfo"),
		},
		Tracker: TrackerConfig{
			BaseURL:        strings.TrimRight(os.Getenv("JIRA_BASE_URL"), "/"),
			Email:          os.Getenv("JIRA_EMAIL"),
			APIToken:       os.Getenv("JIRA_API_TOKEN"),
			ProjectKey:     os.Getenv("JIRA_PROJECT_KEY"),
			TimeoutSeconds: getEnvAsInt("JIRA_TIMEOUT_SECONDS", 15),
		},
		Portal: PortalConfig{
			MasterEmail:         strings.ToLower(strings.TrimSpace(os.Getenv("MASTER_EMAIL"))),
			BulkDelay:           getEnvAsDuration("BULK_DELAY", 300*time.Millisecond),
			AckMatchWindow:      getEnvAsDuration("ACK_MATCH_WINDOW", 10*time.Minute),
			AckRecentWindow:     getEnvAsDuration("ACK_RECENT_WINDOW", 15*time.Minute),
			SubmissionMinWait:   getEnvAsDuration("SUBMISSION_MIN_WAIT", time.Minute),
			SubmissionMaxWait:   getEnvAsDuration("SUBMISSION_MAX_WAIT", 10*time.Minute),
			PendingMaxAttempts:  getEnvAsInt("PENDING_MAX_ATTEMPTS", 30),
			PendingPollInterval: getEnvAsDuration("PENDING_POLL_INTERVAL", 5*time.Second),
		},
		Cache: CacheConfig{
			Backend: getEnv("CACHE_BACKEND", "memory"),
			TTL:     getEnvAsDuration("CACHE_TTL", 10*time.Minute),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "support@example.com"),
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

// Validate reports which tracker settings are absent.
func (t TrackerConfig) Validate() error {
	var missing []string
	if t.BaseURL == "" {
		missing = append(missing, "JIRA_BASE_URL")
	}
	if t.Email == "" {
		missing = append(missing, "JIRA_EMAIL")
	}
	if t.APIToken == "" {
		missing = append(missing, "JIRA_API_TOKEN")
	}
	if t.ProjectKey == "" {
		missing = append(missing, "JIRA_PROJECT_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

// Timeout returns the tracker HTTP timeout.
func (t TrackerConfig) Timeout() time.Duration {
	if t.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// Validate requires the master account used by bulk operations.
func (p PortalConfig) Validate() error {
	if p.MasterEmail == "" {
		return fmt.Errorf("%w: MASTER_EMAIL", ErrMissing)
	}
	return nil
}

// IsMaster reports whether email is the designated support account.
func (p PortalConfig) IsMaster(email string) bool {
	if p.MasterEmail == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(email), p.MasterEmail)
}

// OAuthEnabled reports whether the authorization-code flow is configured.
func (a AuthConfig) OAuthEnabled() bool {
	return a.OAuthClientID != "" && a.OAuthClientSecret != "" && a.OAuthRedirectURL != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
