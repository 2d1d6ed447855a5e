package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	// Google OAuth. Names match what operators already deploy with.
	GoogleClientID     string `env:"CLIENT_ID"`
	GoogleClientSecret string `env:"CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"CALL_BACK_URL"`

	KeycloakIssuer        string `env:"KEYCLOAK_ISSUER"`
	KeycloakClientID      string `env:"KEYCLOAK_CLIENT_ID"`
	KeycloakRedirectURL   string `env:"KEYCLOAK_REDIRECT_URL"`
	KeycloakPublicBaseURL string `env:"KEYCLOAK_PUBLIC_BASE_URL"`

	// Mail account. Left unvalidated here: the notifier reports a missing
	// credential on every call instead of refusing to boot.
	EmailUser      string        `env:"EMAIL_USER"`
	EmailPass      string        `env:"EMAIL_PASS"`
	EmailHost      string        `env:"EMAIL_HOST" envDefault:"smtp.gmail.com"`
	EmailPort      int           `env:"EMAIL_PORT" envDefault:"587"`
	EmailTransport string        `env:"EMAIL_TRANSPORT" envDefault:"smtp"`
	EmailTimeout   time.Duration `env:"EMAIL_TIMEOUT" envDefault:"15s"`
	// Only for local relays without STARTTLS, such as a dev mail catcher.
	EmailTLSOptional bool `env:"EMAIL_TLS_OPTIONAL" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Empty DatabaseDSN selects the in-memory patient store.
	DatabaseDSN string `env:"DATABASE_DSN"`

	// Frontend origins allowed to call the API with credentials.
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"true"`
}

// Load reads .env (when present) and parses the environment into Config.
// Variables already set in the process win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the settings the process cannot start without.
func (c Config) Validate() error {
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" || c.GoogleRedirectURL == "" {
		return errors.New("config: CLIENT_ID, CLIENT_SECRET and CALL_BACK_URL must be set")
	}
	if c.KeycloakIssuer != "" && (c.KeycloakClientID == "" || c.KeycloakRedirectURL == "" || c.KeycloakPublicBaseURL == "") {
		return errors.New("config: KEYCLOAK_ISSUER requires KEYCLOAK_CLIENT_ID, KEYCLOAK_REDIRECT_URL and KEYCLOAK_PUBLIC_BASE_URL")
	}
	switch c.EmailTransport {
	case "smtp", "log":
	default:
		return fmt.Errorf("config: unknown EMAIL_TRANSPORT %q", c.EmailTransport)
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	return nil
}

// KeycloakEnabled reports whether the optional Keycloak provider is configured.
func (c Config) KeycloakEnabled() bool {
	return c.KeycloakIssuer != ""
}
