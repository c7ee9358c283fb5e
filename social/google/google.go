// Package google verifies Google ID tokens against Google's published
// signing keys. The key set is cached in-process and refreshed according to
// the Cache-Control header on the certs endpoint.
package google

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

const (
	defaultCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

	// defaultCertsTTL is used when the certs response carries no usable
	// Cache-Control max-age.
	defaultCertsTTL = time.Hour
)

// Profile is the verified identity carried by a Google ID token
type Profile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
	Picture       string
}

// Config holds Google ID token verification options
type Config struct {
	CertsURL string
	Audience string

	HTTPClient *http.Client
}

// Verifier checks Google ID tokens. It holds a single cached key set guarded
// by a read/write lock; readers proceed concurrently and a stale set is
// refetched lazily on the next verification.
type Verifier struct {
	certsURL string
	audience string
	client   *http.Client

	mu      sync.RWMutex
	jwks    *keyfunc.JWKS
	expires time.Time
}

// New creates a Verifier
func New(cfg Config) *Verifier {
	if cfg.CertsURL == "" {
		cfg.CertsURL = defaultCertsURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Verifier{
		certsURL: cfg.CertsURL,
		audience: cfg.Audience,
		client:   client,
	}
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// VerifyIDToken checks the raw ID token's RS256 signature against Google's
// current keys, its audience, and its expiry, returning the verified profile.
func (v *Verifier) VerifyIDToken(ctx context.Context, raw string) (*Profile, error) {
	jwks, err := v.keySet(ctx)
	if err != nil {
		return nil, err
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(raw, &idTokenClaims{}, jwks.Keyfunc, options...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, "invalid google id token").
			WithCode(errors.CodeUnauthorized)
	}

	claims, ok := token.Claims.(*idTokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid google id token", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("google id token missing required claims", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized)
	}

	return &Profile{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		GivenName:     claims.GivenName,
		FamilyName:    claims.FamilyName,
		Picture:       claims.Picture,
	}, nil
}

// keySet returns the cached key set, fetching a fresh one when stale
func (v *Verifier) keySet(ctx context.Context) (*keyfunc.JWKS, error) {
	v.mu.RLock()
	if v.jwks != nil && time.Now().Before(v.expires) {
		jwks := v.jwks
		v.mu.RUnlock()
		return jwks, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	// Another request may have refreshed while we waited for the lock
	if v.jwks != nil && time.Now().Before(v.expires) {
		return v.jwks, nil
	}

	jwks, maxAge, err := v.fetchCerts(ctx)
	if err != nil {
		// Serve the stale set rather than failing every login while Google
		// is unreachable.
		if v.jwks != nil {
			return v.jwks, nil
		}
		return nil, err
	}

	v.jwks = jwks
	v.expires = time.Now().Add(maxAge)

	return v.jwks, nil
}

func (v *Verifier) fetchCerts(ctx context.Context) (*keyfunc.JWKS, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CategoryInternal, "failed to build certs request")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CategoryInternal, "failed to fetch google certs")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, errors.New("unexpected google certs status", errors.CategoryInternal).
			WithMetadata(map[string]any{"status": resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CategoryInternal, "failed to read google certs")
	}

	jwks, err := keyfunc.NewJSON(body)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CategoryInternal, "failed to parse google certs")
	}

	return jwks, certsMaxAge(resp.Header.Get("Cache-Control")), nil
}

// certsMaxAge extracts the max-age directive from a Cache-Control header
func certsMaxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		directive = strings.TrimSpace(directive)
		value, ok := strings.CutPrefix(directive, "max-age=")
		if !ok {
			continue
		}
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds <= 0 {
			break
		}
		return time.Duration(seconds) * time.Second
	}
	return defaultCertsTTL
}
