package sessionware

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-router"
)

// ErrMissingSession is returned when a protected route gets no credentials
var ErrMissingSession = errors.New("missing session credentials")

// Claims is the resolved identity attached to the request context.
// This mirrors the claims type from the tracker package to avoid import cycles.
type Claims interface {
	Subject() string
	TokenID() string
	Expires() time.Time
}

// RotatedPair carries replacement credentials produced by a refresh exchange
type RotatedPair struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// Resolution is what the session resolver produced for a request. A nil
// Claims with a nil error means the request is anonymous.
type Resolution struct {
	Claims  Claims
	Rotated *RotatedPair
}

// Resolver runs the session state machine over raw cookie values.
// This mirrors SessionManager.Resolve from the tracker package.
type Resolver interface {
	Resolve(ctx context.Context, accessToken, refreshToken string) (*Resolution, error)
}

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	// Resolver is required
	Resolver   Resolver
	ContextKey string
	// Optional lets unauthenticated requests through as anonymous instead of
	// failing them
	Optional bool

	AccessCookie   string
	RefreshCookie  string
	CookiePath     string
	CookieSecure   bool
	CookieSameSite string

	// ContextEnricher is an optional function to propagate claims to the
	// standard Go context. If provided, it will be called after successful
	// session resolution.
	ContextEnricher func(c context.Context, claims Claims) context.Context
}

func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			access := ctx.Cookies(cfg.AccessCookie)
			refresh := ctx.Cookies(cfg.RefreshCookie)

			res, err := cfg.Resolver.Resolve(ctx.Context(), access, refresh)
			if err != nil {
				// Optional routes only go anonymous when no credentials were
				// presented; a revoked or forged token is still a rejection.
				if cfg.Optional && access == "" && refresh == "" {
					return ctx.Next()
				}
				return cfg.ErrorHandler(ctx, err)
			}

			if res == nil || res.Claims == nil {
				if cfg.Optional {
					return ctx.Next()
				}
				return cfg.ErrorHandler(ctx, ErrMissingSession)
			}

			if res.Rotated != nil {
				cfg.attachRotation(ctx, res.Rotated)
			}

			ctx.Locals(cfg.ContextKey, res.Claims)

			if cfg.ContextEnricher != nil {
				stdCtx := ctx.Context()
				stdCtxWithClaims := cfg.ContextEnricher(stdCtx, res.Claims)
				ctx.SetContext(stdCtxWithClaims)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return c.JSON(router.StatusUnauthorized, map[string]string{
				"error": err.Error(),
			})
		}
	}

	if cfg.Resolver == nil {
		panic("SESSION: middleware configuration: Resolver is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "session"
	}

	if cfg.AccessCookie == "" {
		cfg.AccessCookie = "access_token"
	}

	if cfg.RefreshCookie == "" {
		cfg.RefreshCookie = "refresh_token"
	}

	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}

	if cfg.CookieSameSite == "" {
		cfg.CookieSameSite = "Lax"
	}

	return cfg
}

// attachRotation writes the rotated pair back as cookies. Both cookies carry
// the refresh horizon so the access token is still presented after it
// expires.
func (cfg *Config) attachRotation(c router.Context, pair *RotatedPair) {
	c.Cookie(&router.Cookie{
		Name:     cfg.AccessCookie,
		Value:    pair.AccessToken,
		Path:     cfg.CookiePath,
		Expires:  pair.RefreshExpires,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	})
	c.Cookie(&router.Cookie{
		Name:     cfg.RefreshCookie,
		Value:    pair.RefreshToken,
		Path:     cfg.CookiePath,
		Expires:  pair.RefreshExpires,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	})
}

// GetClaims extracts resolved session claims from the router context
func GetClaims(ctx router.Context, key string) (Claims, bool) {
	if key == "" {
		key = "session"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(Claims)
	return claims, ok
}
