package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config captures runtime configuration values used by the backend service.
type Config struct {
	// ServerAddress is the host:port pair the HTTP server listens on. Defaults to ":3001".
	ServerAddress string

	// DatabaseURL is the Postgres DSN used by database/sql.
	DatabaseURL string

	// LogLevel and LogFormat configure zerolog ("info", "json" by default).
	LogLevel  string
	LogFormat string

	// AllowedOrigins lists CORS origins. Empty means "*".
	AllowedOrigins []string

	Auth      AuthConfig
	Stripe    StripeConfig
	Anthropic AnthropicConfig

	// ExtractRatePerMinute bounds outbound calls to the text-generation service
	// across the whole process.
	ExtractRatePerMinute int
}

// AuthConfig selects how caller identity is resolved from a request.
type AuthConfig struct {
	// Mode is one of "none", "legacy", "token", "session".
	Mode string

	// JWTSecret verifies HS256 tokens in token/session mode.
	JWTSecret string

	// JWKSURL, when set, verifies RS* tokens against a remote key set instead.
	JWKSURL string
}

// StripeConfig holds the billing credentials and the single subscription price.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	FrontendURL   string
}

// AnthropicConfig points the extraction pipeline at the Messages API.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

const (
	defaultServerAddress        = ":3001"
	defaultLogLevel             = "info"
	defaultLogFormat            = "auto"
	defaultAuthMode             = AuthModeNone
	defaultFrontendURL          = "http://localhost:5173"
	defaultExtractRatePerMinute = 30

	envServerAddress        = "BACKEND_ADDR"
	envDatabaseURL          = "DATABASE_URL"
	envLogLevel             = "LOG_LEVEL"
	envLogFormat            = "LOG_FORMAT"
	envAllowedOrigins       = "CORS_ALLOWED_ORIGINS"
	envAuthMode             = "AUTH_MODE"
	envAuthJWTSecret        = "AUTH_JWT_SECRET"
	envAuthJWKSURL          = "AUTH_JWKS_URL"
	envStripeSecretKey      = "STRIPE_SECRET_KEY"
	envStripeWebhookSecret  = "STRIPE_WEBHOOK_SECRET"
	envStripePriceID        = "STRIPE_PRICE_ID"
	envFrontendURL          = "FRONTEND_URL"
	envAnthropicAPIKey      = "ANTHROPIC_API_KEY"
	envAnthropicModel       = "ANTHROPIC_MODEL"
	envAnthropicBaseURL     = "ANTHROPIC_BASE_URL"
	envExtractRatePerMinute = "EXTRACT_RATE_PER_MINUTE"
)

// Supported AUTH_MODE values.
const (
	AuthModeNone    = "none"
	AuthModeLegacy  = "legacy"
	AuthModeToken   = "token"
	AuthModeSession = "session"
)

// Load reads configuration from environment variables, applies defaults, and returns
// a Config structure. Required values return an error when missing.
func Load() (Config, error) {
	cfg := Config{
		ServerAddress:  firstNonEmpty(os.Getenv(envServerAddress), defaultServerAddress),
		DatabaseURL:    strings.TrimSpace(os.Getenv(envDatabaseURL)),
		LogLevel:       firstNonEmpty(os.Getenv(envLogLevel), defaultLogLevel),
		LogFormat:      firstNonEmpty(os.Getenv(envLogFormat), defaultLogFormat),
		AllowedOrigins: splitList(os.Getenv(envAllowedOrigins)),
		Auth: AuthConfig{
			Mode:      strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv(envAuthMode)), defaultAuthMode)),
			JWTSecret: os.Getenv(envAuthJWTSecret),
			JWKSURL:   strings.TrimSpace(os.Getenv(envAuthJWKSURL)),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv(envStripeSecretKey),
			WebhookSecret: os.Getenv(envStripeWebhookSecret),
			PriceID:       os.Getenv(envStripePriceID),
			FrontendURL:   strings.TrimRight(firstNonEmpty(os.Getenv(envFrontendURL), defaultFrontendURL), "/"),
		},
		Anthropic: AnthropicConfig{
			APIKey:  os.Getenv(envAnthropicAPIKey),
			Model:   os.Getenv(envAnthropicModel),
			BaseURL: os.Getenv(envAnthropicBaseURL),
		},
		ExtractRatePerMinute: defaultExtractRatePerMinute,
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("%s is required", envDatabaseURL)
	}
	if _, err := url.Parse(cfg.DatabaseURL); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", envDatabaseURL, err)
	}

	switch cfg.Auth.Mode {
	case AuthModeNone, AuthModeLegacy:
	case AuthModeToken, AuthModeSession:
		if cfg.Auth.JWTSecret == "" && cfg.Auth.JWKSURL == "" {
			return Config{}, fmt.Errorf("%s=%s requires %s or %s", envAuthMode, cfg.Auth.Mode, envAuthJWTSecret, envAuthJWKSURL)
		}
	default:
		return Config{}, fmt.Errorf("invalid %s %q", envAuthMode, cfg.Auth.Mode)
	}

	if raw := strings.TrimSpace(os.Getenv(envExtractRatePerMinute)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q", envExtractRatePerMinute, raw)
		}
		cfg.ExtractRatePerMinute = n
	}

	return cfg, nil
}

// BillingEnabled reports whether both checkout and webhook verification can run.
func (c Config) BillingEnabled() bool {
	return c.Stripe.SecretKey != "" && c.Stripe.WebhookSecret != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
