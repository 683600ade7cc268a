package auth

import (
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Default lifetimes for the three signed artifacts and the session window.
const (
	DefaultAccessTTL     = 300 * time.Second
	DefaultRefreshTTL    = 3 * 24 * time.Hour
	DefaultActivationTTL = 5 * time.Minute
	DefaultSessionTTL    = 7 * 24 * time.Hour
)

// Config holds the environment-provided settings: three signing secrets,
// four TTLs, and the cache endpoint.
type Config struct {
	Environment       string
	AccessSecret      string
	RefreshSecret     string
	ActivationSecret  string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	ActivationTTL     time.Duration
	SessionTTL        time.Duration
	RedisAddr         string
	RefreshCookiePath string
}

// ConfigFromEnv reads configuration from the process environment, filling
// in defaults for everything but the secrets.
func ConfigFromEnv() Config {
	return Config{
		Environment:       envOr("AUTH_ENVIRONMENT", "development"),
		AccessSecret:      os.Getenv("AUTH_ACCESS_SECRET"),
		RefreshSecret:     os.Getenv("AUTH_REFRESH_SECRET"),
		ActivationSecret:  os.Getenv("AUTH_ACTIVATION_SECRET"),
		AccessTTL:         envDuration("AUTH_ACCESS_TTL", DefaultAccessTTL),
		RefreshTTL:        envDuration("AUTH_REFRESH_TTL", DefaultRefreshTTL),
		ActivationTTL:     envDuration("AUTH_ACTIVATION_TTL", DefaultActivationTTL),
		SessionTTL:        envDuration("AUTH_SESSION_TTL", DefaultSessionTTL),
		RedisAddr:         envOr("AUTH_REDIS_ADDR", "localhost:6379"),
		RefreshCookiePath: os.Getenv("AUTH_REFRESH_COOKIE_PATH"),
	}
}

// Validate will run validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AccessSecret, validation.Required),
		validation.Field(&c.RefreshSecret, validation.Required),
		validation.Field(&c.ActivationSecret, validation.Required),
		validation.Field(&c.AccessTTL, validation.Required),
		validation.Field(&c.RefreshTTL, validation.Required),
		validation.Field(&c.ActivationTTL, validation.Required),
		validation.Field(&c.SessionTTL, validation.Required),
		validation.Field(&c.RedisAddr, validation.Required),
	)
}

// IsDevelopment reports whether the module runs outside production. The
// Secure cookie attribute is only dropped in development.
func (c Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// CookiePolicy derives the cookie attachment policy from the config.
func (c Config) CookiePolicy() CookiePolicy {
	return CookiePolicy{
		Secure:      !c.IsDevelopment(),
		RefreshPath: c.RefreshCookiePath,
		AccessTTL:   c.AccessTTL,
		RefreshTTL:  c.RefreshTTL,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
