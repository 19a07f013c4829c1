package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string
	RedisAddr   string

	JWTIssuer       string
	JWTAudience     string
	JWTAccessSecret string
	JWTAccessTTL    time.Duration

	CORSAllowedOrigins  []string
	BootstrapAdminEmail string

	AuthRateLimitPerMin int
	APIRateLimitPerMin  int

	UnlockTokenTTL         time.Duration
	PendingVisibilityDelay time.Duration
	VacancyTTL             time.Duration

	CodeTTL             time.Duration
	PhoneCodeResendGap  time.Duration
	DeliveryTimeout     time.Duration
	VerifyBackend       string
	HostedVerifyBaseURL string
	HostedVerifyAPIKey  string

	FromEmail      string
	ComplaintEmail string

	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		JWTIssuer:           getEnv("JWT_ISSUER", "jobapp-backend"),
		JWTAudience:         getEnv("JWT_AUDIENCE", "jobapp-api"),
		JWTAccessSecret:     os.Getenv("JWT_ACCESS_SECRET"),
		CORSAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		BootstrapAdminEmail: strings.TrimSpace(strings.ToLower(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))),
		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:  getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		VerifyBackend:       strings.ToLower(getEnv("VERIFY_BACKEND", "local")),
		HostedVerifyBaseURL: os.Getenv("HOSTED_VERIFY_BASE_URL"),
		HostedVerifyAPIKey:  os.Getenv("HOSTED_VERIFY_API_KEY"),
		FromEmail:           getEnv("FROM_EMAIL", "no-reply@jobapp.example"),
		ComplaintEmail:      getEnv("COMPLAINT_EMAIL", "support@jobapp.example"),
		StorageEndpoint:     os.Getenv("STORAGE_ENDPOINT"),
		StorageAccessKey:    os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey:    os.Getenv("STORAGE_SECRET_KEY"),
		StorageBucket:       getEnv("STORAGE_BUCKET", "vacancy-photos"),
		StorageUseSSL:       getEnvBool("STORAGE_USE_SSL", true),
	}

	durations := []struct {
		target *time.Duration
		key    string
		def    string
	}{
		{&cfg.JWTAccessTTL, "JWT_ACCESS_TTL", "15m"},
		{&cfg.UnlockTokenTTL, "UNLOCK_TOKEN_TTL", "120s"},
		{&cfg.PendingVisibilityDelay, "PENDING_VISIBILITY_DELAY", "60s"},
		{&cfg.VacancyTTL, "VACANCY_TTL", "720h"},
		{&cfg.CodeTTL, "VERIFICATION_CODE_TTL", "10m"},
		{&cfg.PhoneCodeResendGap, "PHONE_CODE_RESEND_GAP", "45s"},
		{&cfg.DeliveryTimeout, "DELIVERY_TIMEOUT", "15s"},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.target = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTAccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 chars")
	}
	if c.JWTAccessTTL <= 0 || c.JWTAccessTTL > 24*time.Hour {
		errs = append(errs, "JWT_ACCESS_TTL must be between 1s and 24h")
	}
	if c.UnlockTokenTTL <= 0 || c.UnlockTokenTTL > time.Hour {
		errs = append(errs, "UNLOCK_TOKEN_TTL must be between 1s and 1h")
	}
	if c.PendingVisibilityDelay < 0 {
		errs = append(errs, "PENDING_VISIBILITY_DELAY must be >= 0")
	}
	if c.VacancyTTL <= 0 {
		errs = append(errs, "VACANCY_TTL must be > 0")
	}
	if c.CodeTTL <= 0 {
		errs = append(errs, "VERIFICATION_CODE_TTL must be > 0")
	}
	if c.PhoneCodeResendGap < 0 {
		errs = append(errs, "PHONE_CODE_RESEND_GAP must be >= 0")
	}
	if c.DeliveryTimeout <= 0 || c.DeliveryTimeout > time.Minute {
		errs = append(errs, "DELIVERY_TIMEOUT must be between 1s and 1m")
	}
	if c.VerifyBackend != "local" && c.VerifyBackend != "hosted" {
		errs = append(errs, "VERIFY_BACKEND must be local or hosted")
	}
	if c.VerifyBackend == "hosted" && c.HostedVerifyBaseURL == "" {
		errs = append(errs, "HOSTED_VERIFY_BASE_URL is required for hosted verify backend")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
