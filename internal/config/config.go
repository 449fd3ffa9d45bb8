package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultAppName         = "TradePay"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultJWTIssuer       = "tradepay"
	defaultJWTTTL          = time.Hour
	defaultTransferTimeout = 10 * time.Second
	defaultNotifyTimeout   = 5 * time.Second
	defaultAuditTimeout    = 3 * time.Second
	defaultRateLimit       = 5
	defaultRateLimitWindow = 15 * time.Minute
	defaultSMTPPort        = 587
	defaultBackendURL      = "http://localhost:8080"
	defaultRegistrationTTL = 24 * time.Hour

	envProduction = "production"
)

// SMTP holds outbound mail settings. An empty Host disables SMTP delivery.
type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// RateLimit allows Limit requests per Window.
type RateLimit struct {
	Limit  int64
	Window time.Duration
}

// Config captures application runtime configuration.
type Config struct {
	AppName             string
	AppEnv              string
	Port                string
	LogLevel            string
	DatabaseURL         string
	RedisURL            string
	ShutdownPeriod      time.Duration
	IdempotencyTTL      time.Duration
	IdempotencyRequired bool

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	TransferTimeout time.Duration
	NotifyTimeout   time.Duration
	AuditTimeout    time.Duration

	RateLimitLogin    RateLimit
	RateLimitTransfer RateLimit

	SMTP            SMTP
	BackendURL      string
	RegistrationTTL time.Duration
	NotifyQueue     string
	AutoMigrate     bool
}

// Load reads an optional .env file, then the process environment, and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.SetDefault("APP_NAME", defaultAppName)
	v.SetDefault("APP_ENV", defaultAppEnv)
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SHUTDOWN_TIMEOUT", defaultShutdownDelay.String())
	v.SetDefault("IDEMPOTENCY_TTL", defaultIdempotencyTTL.String())
	v.SetDefault("IDEMPOTENCY_REQUIRED", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", defaultJWTIssuer)
	v.SetDefault("JWT_TTL", defaultJWTTTL.String())
	v.SetDefault("TRANSFER_TIMEOUT", defaultTransferTimeout.String())
	v.SetDefault("NOTIFY_TIMEOUT", defaultNotifyTimeout.String())
	v.SetDefault("AUDIT_TIMEOUT", defaultAuditTimeout.String())
	v.SetDefault("RATE_LIMIT_LOGIN", defaultRateLimit)
	v.SetDefault("RATE_LIMIT_LOGIN_WINDOW", defaultRateLimitWindow.String())
	v.SetDefault("RATE_LIMIT_TRANSFER", defaultRateLimit)
	v.SetDefault("RATE_LIMIT_TRANSFER_WINDOW", defaultRateLimitWindow.String())
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", defaultSMTPPort)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("BACKEND_URL", defaultBackendURL)
	v.SetDefault("REGISTRATION_TTL", defaultRegistrationTTL.String())
	v.SetDefault("NOTIFY_QUEUE", "")
	v.SetDefault("AUTO_MIGRATE", false)
	v.AutomaticEnv()

	cfg := Config{
		AppName:             v.GetString("APP_NAME"),
		AppEnv:              strings.ToLower(v.GetString("APP_ENV")),
		Port:                v.GetString("PORT"),
		LogLevel:            strings.ToLower(v.GetString("LOG_LEVEL")),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		RedisURL:            v.GetString("REDIS_URL"),
		IdempotencyRequired: v.GetBool("IDEMPOTENCY_REQUIRED"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTIssuer:           v.GetString("JWT_ISSUER"),
		RateLimitLogin:      RateLimit{Limit: v.GetInt64("RATE_LIMIT_LOGIN")},
		RateLimitTransfer:   RateLimit{Limit: v.GetInt64("RATE_LIMIT_TRANSFER")},
		SMTP: SMTP{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		BackendURL:  strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
		NotifyQueue: v.GetString("NOTIFY_QUEUE"),
		AutoMigrate: v.GetBool("AUTO_MIGRATE"),
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
		{"JWT_TTL", &cfg.JWTTTL},
		{"TRANSFER_TIMEOUT", &cfg.TransferTimeout},
		{"NOTIFY_TIMEOUT", &cfg.NotifyTimeout},
		{"AUDIT_TIMEOUT", &cfg.AuditTimeout},
		{"REGISTRATION_TTL", &cfg.RegistrationTTL},
		{"RATE_LIMIT_LOGIN_WINDOW", &cfg.RateLimitLogin.Window},
		{"RATE_LIMIT_TRANSFER_WINDOW", &cfg.RateLimitTransfer.Window},
	}
	for _, d := range durations {
		parsed, err := parseDuration(v.GetString(d.key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("invalid %s: must be positive", d.key)
		}
		*d.dst = parsed
	}

	if cfg.RateLimitLogin.Limit < 1 {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_LOGIN: must be positive")
	}
	if cfg.RateLimitTransfer.Limit < 1 {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_TRANSFER: must be positive")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if !c.IsProduction() {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	return nil
}

// IsProduction reports whether APP_ENV names the production environment.
func (c Config) IsProduction() bool {
	return c.AppEnv == envProduction
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// parseDuration accepts Go duration strings and bare integers as seconds.
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	var seconds int64
	if _, err := fmt.Sscanf(raw, "%d", &seconds); err == nil && fmt.Sprint(seconds) == raw {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(raw)
}
