package tracker

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-tracker/middleware/sessionware"
)

// sessionResolverAdapter bridges SessionManager to the middleware's Resolver
// interface without an import cycle.
type sessionResolverAdapter struct {
	manager *SessionManager
}

var _ sessionware.Resolver = (*sessionResolverAdapter)(nil)

func (a sessionResolverAdapter) Resolve(ctx context.Context, accessToken, refreshToken string) (*sessionware.Resolution, error) {
	res, err := a.manager.Resolve(ctx, accessToken, refreshToken)
	if err != nil {
		return nil, err
	}

	out := &sessionware.Resolution{}
	if res.Claims != nil {
		out.Claims = res.Claims
	}
	if res.Rotated != nil {
		out.Rotated = &sessionware.RotatedPair{
			AccessToken:    res.Rotated.AccessToken,
			AccessExpires:  res.Rotated.AccessExpires,
			RefreshToken:   res.Rotated.RefreshToken,
			RefreshExpires: res.Rotated.RefreshExpires,
		}
	}
	return out, nil
}

// SessionMiddlewareConfig assembles the sessionware config for this manager
func SessionMiddlewareConfig(manager *SessionManager, cfg Config, optional bool, errorHandler router.ErrorHandler) sessionware.Config {
	cookies := NewSessionCookies(cfg)
	return sessionware.Config{
		Resolver:        sessionResolverAdapter{manager: manager},
		ErrorHandler:    translateSessionError(errorHandler),
		ContextKey:      cfg.GetContextKey(),
		Optional:        optional,
		AccessCookie:    cookies.AccessName,
		RefreshCookie:   cookies.RefreshName,
		CookiePath:      cookies.Path,
		CookieSecure:    cookies.Secure,
		CookieSameSite:  cookies.SameSite,
		ContextEnricher: enrichContextWithClaims,
	}
}

// ProtectedRoute requires a resolved session; requests without one get the
// error handler.
func ProtectedRoute(manager *SessionManager, cfg Config, errorHandler router.ErrorHandler) router.MiddlewareFunc {
	return sessionware.New(SessionMiddlewareConfig(manager, cfg, false, errorHandler))
}

// OptionalRoute resolves a session when present but lets anonymous requests
// through.
func OptionalRoute(manager *SessionManager, cfg Config, errorHandler router.ErrorHandler) router.MiddlewareFunc {
	return sessionware.New(SessionMiddlewareConfig(manager, cfg, true, errorHandler))
}

// translateSessionError maps the middleware's bare no-credential sentinel to
// the error taxonomy before the caller's handler sees it, so an anonymous
// request on a protected route renders as a client error.
func translateSessionError(handler router.ErrorHandler) router.ErrorHandler {
	if handler == nil {
		return nil
	}
	return func(c router.Context, err error) error {
		if errors.Is(err, sessionware.ErrMissingSession) {
			err = ErrMissingCredentials
		}
		return handler(c, err)
	}
}

func enrichContextWithClaims(ctx context.Context, claims sessionware.Claims) context.Context {
	if tc, ok := claims.(*TokenClaims); ok {
		return WithClaimsContext(ctx, tc)
	}
	return ctx
}
