package tracker

import (
	"time"

	"github.com/goliatone/go-router"
)

// SessionCookies reads and writes the credential cookies on router contexts.
// Extraction is explicit so the cookie names and attributes live in exactly
// one place.
type SessionCookies struct {
	AccessName  string
	RefreshName string
	Path        string
	Secure      bool
	SameSite    string
}

// NewSessionCookies builds cookie settings from config
func NewSessionCookies(cfg Config) SessionCookies {
	c := SessionCookies{
		AccessName:  cfg.GetAccessCookieName(),
		RefreshName: cfg.GetRefreshCookieName(),
		Path:        "/",
		Secure:      cfg.GetCookieSecure(),
		SameSite:    cfg.GetCookieSameSite(),
	}

	if c.AccessName == "" {
		c.AccessName = "access_token"
	}
	if c.RefreshName == "" {
		c.RefreshName = "refresh_token"
	}
	if c.SameSite == "" {
		c.SameSite = "Lax"
	}

	return c
}

// ReadAccess returns the raw access token cookie value, empty when absent
func (s SessionCookies) ReadAccess(c router.Context) string {
	return c.Cookies(s.AccessName)
}

// ReadRefresh returns the raw refresh token cookie value, empty when absent
func (s SessionCookies) ReadRefresh(c router.Context) string {
	return c.Cookies(s.RefreshName)
}

// Attach sets both credential cookies. Both cookies live until the refresh
// horizon: the access cookie must outlast its token so the expired token is
// still presented for rotation.
func (s SessionCookies) Attach(c router.Context, pair *CredentialPair) {
	if pair == nil {
		return
	}
	s.set(c, s.AccessName, pair.AccessToken, pair.RefreshExpires)
	s.set(c, s.RefreshName, pair.RefreshToken, pair.RefreshExpires)
}

// Clear expires both credential cookies
func (s SessionCookies) Clear(c router.Context) {
	expired := time.Now().Add(-time.Hour * (24 * 365))
	s.set(c, s.AccessName, "", expired)
	s.set(c, s.RefreshName, "", expired)
}

func (s SessionCookies) set(c router.Context, name, val string, expires time.Time) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Path:     s.Path,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
	})
}
