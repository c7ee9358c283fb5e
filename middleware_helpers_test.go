package tracker_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sessionConfigStub struct{}

func (sessionConfigStub) GetSigningKey() string             { return "middleware-test-signing-key" }
func (sessionConfigStub) GetIssuer() string                 { return "go-tracker-test" }
func (sessionConfigStub) GetAudience() []string             { return nil }
func (sessionConfigStub) GetAccessTokenTTL() time.Duration  { return 10 * time.Minute }
func (sessionConfigStub) GetRefreshTokenTTL() time.Duration { return time.Hour }
func (sessionConfigStub) GetAccessCookieName() string       { return "access_token" }
func (sessionConfigStub) GetRefreshCookieName() string      { return "refresh_token" }
func (sessionConfigStub) GetCookieSecure() bool             { return false }
func (sessionConfigStub) GetCookieSameSite() string         { return "Lax" }
func (sessionConfigStub) GetContextKey() string             { return "session" }

func TestProtectedRoute_NoCredentials(t *testing.T) {
	service := newTestTokenService()
	manager := tracker.NewSessionManager(service, newMemoryLedger(), noopLogger{})

	var captured error
	errorHandler := func(c router.Context, err error) error {
		captured = err
		return c.JSON(tracker.HTTPStatus(err), map[string]string{"error": err.Error()})
	}

	protected := tracker.ProtectedRoute(manager, sessionConfigStub{}, errorHandler)

	ctx := router.NewMockContext()
	ctx.CookiesM["access_token"] = ""
	ctx.CookiesM["refresh_token"] = ""
	ctx.On("Context").Return(context.Background())
	ctx.On("JSON", router.StatusBadRequest, mock.Anything).Return(nil)

	handler := protected(func(c router.Context) error { return nil })
	require.NoError(t, handler(ctx))

	// The handler sees the taxonomy error, not the middleware sentinel, so
	// an anonymous request renders as a client error
	require.ErrorIs(t, captured, tracker.ErrMissingCredentials)
	assert.Equal(t, router.StatusBadRequest, tracker.HTTPStatus(captured))
	assert.False(t, ctx.NextCalled)
	ctx.AssertExpectations(t)
}
