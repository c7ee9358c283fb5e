package main

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Config is the process configuration, loaded from the environment with an
// optional .env file for local development
type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":9292"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`

	Persistence PersistenceConfig `envPrefix:"DB_"`
	Session     SessionConfig     `envPrefix:"SESSION_"`
	Google      GoogleConfig      `envPrefix:"GOOGLE_"`
}

// PersistenceConfig configures the database client
type PersistenceConfig struct {
	DSN         string        `env:"DSN" envDefault:"file:tracker.db?cache=shared&mode=rwc"`
	Debug       bool          `env:"DEBUG" envDefault:"false"`
	PingTimeout time.Duration `env:"PING_TIMEOUT" envDefault:"5s"`
}

func (p PersistenceConfig) GetDSN() string {
	return p.DSN
}

func (p PersistenceConfig) GetDebug() bool {
	return p.Debug
}

func (p PersistenceConfig) GetPingTimeout() time.Duration {
	return p.PingTimeout
}

func (p PersistenceConfig) GetDriver() string {
	return sqliteshim.ShimName
}

func (p PersistenceConfig) GetServer() string {
	return p.DSN
}

func (p PersistenceConfig) GetOtelIdentifier() string {
	return ""
}

// SessionConfig configures token minting and the credential cookies. It
// implements tracker.Config.
type SessionConfig struct {
	SigningKey        string        `env:"SIGNING_KEY,required"`
	Issuer            string        `env:"ISSUER" envDefault:"go-tracker"`
	Audience          []string      `env:"AUDIENCE" envSeparator:"," envDefault:"go-tracker"`
	AccessTokenTTL    time.Duration `env:"ACCESS_TTL" envDefault:"10m"`
	RefreshTokenTTL   time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
	AccessCookieName  string        `env:"ACCESS_COOKIE" envDefault:"access_token"`
	RefreshCookieName string        `env:"REFRESH_COOKIE" envDefault:"refresh_token"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"true"`
	CookieSameSite    string        `env:"COOKIE_SAME_SITE" envDefault:"Lax"`
	ContextKey        string        `env:"CONTEXT_KEY" envDefault:"session"`
}

func (s SessionConfig) GetSigningKey() string {
	return s.SigningKey
}

func (s SessionConfig) GetIssuer() string {
	return s.Issuer
}

func (s SessionConfig) GetAudience() []string {
	return s.Audience
}

func (s SessionConfig) GetAccessTokenTTL() time.Duration {
	return s.AccessTokenTTL
}

func (s SessionConfig) GetRefreshTokenTTL() time.Duration {
	return s.RefreshTokenTTL
}

func (s SessionConfig) GetAccessCookieName() string {
	return s.AccessCookieName
}

func (s SessionConfig) GetRefreshCookieName() string {
	return s.RefreshCookieName
}

func (s SessionConfig) GetCookieSecure() bool {
	return s.CookieSecure
}

func (s SessionConfig) GetCookieSameSite() string {
	return s.CookieSameSite
}

func (s SessionConfig) GetContextKey() string {
	return s.ContextKey
}

// GoogleConfig configures the Google ID token verifier. Sign in with Google
// stays disabled until a client ID is set.
type GoogleConfig struct {
	ClientID string `env:"CLIENT_ID"`
	CertsURL string `env:"CERTS_URL"`
}

func (g GoogleConfig) Enabled() bool {
	return g.ClientID != ""
}

// LoadConfig reads the environment, layering a .env file when present
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
