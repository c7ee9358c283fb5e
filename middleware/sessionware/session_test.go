package sessionware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-tracker/middleware/sessionware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, accessToken, refreshToken string) (*sessionware.Resolution, error) {
	return &sessionware.Resolution{}, nil
}

type failingResolver struct {
	err error
}

func (r failingResolver) Resolve(ctx context.Context, accessToken, refreshToken string) (*sessionware.Resolution, error) {
	return nil, r.err
}

func TestGetDefaultConfig(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		cfg := sessionware.GetDefaultConfig(sessionware.Config{
			Resolver: stubResolver{},
		})

		assert.Equal(t, "session", cfg.ContextKey)
		assert.Equal(t, "access_token", cfg.AccessCookie)
		assert.Equal(t, "refresh_token", cfg.RefreshCookie)
		assert.Equal(t, "/", cfg.CookiePath)
		assert.Equal(t, "Lax", cfg.CookieSameSite)
		assert.NotNil(t, cfg.SuccessHandler)
		assert.NotNil(t, cfg.ErrorHandler)
	})

	t.Run("keeps explicit settings", func(t *testing.T) {
		cfg := sessionware.GetDefaultConfig(sessionware.Config{
			Resolver:      stubResolver{},
			ContextKey:    "identity",
			AccessCookie:  "at",
			RefreshCookie: "rt",
			CookieSecure:  true,
		})

		assert.Equal(t, "identity", cfg.ContextKey)
		assert.Equal(t, "at", cfg.AccessCookie)
		assert.Equal(t, "rt", cfg.RefreshCookie)
		assert.True(t, cfg.CookieSecure)
	})

	t.Run("panics without a resolver", func(t *testing.T) {
		assert.Panics(t, func() {
			sessionware.GetDefaultConfig(sessionware.Config{})
		})
	})
}

func TestNew_OptionalRoutes(t *testing.T) {
	t.Run("anonymous request passes through", func(t *testing.T) {
		mw := sessionware.New(sessionware.Config{
			Resolver: stubResolver{},
			Optional: true,
		})

		ctx := router.NewMockContext()
		ctx.CookiesM["access_token"] = ""
		ctx.CookiesM["refresh_token"] = ""
		ctx.On("Context").Return(context.Background())

		handler := mw(func(c router.Context) error { return nil })
		require.NoError(t, handler(ctx))
		assert.True(t, ctx.NextCalled)
	})

	t.Run("revoked token is still rejected", func(t *testing.T) {
		sentinel := errors.New("session revoked")

		var captured error
		mw := sessionware.New(sessionware.Config{
			Resolver: failingResolver{err: sentinel},
			Optional: true,
			ErrorHandler: func(c router.Context, err error) error {
				captured = err
				return nil
			},
		})

		ctx := router.NewMockContext()
		ctx.CookiesM["access_token"] = "revoked-access-token"
		ctx.CookiesM["refresh_token"] = ""
		ctx.On("Context").Return(context.Background())

		handler := mw(func(c router.Context) error { return nil })
		require.NoError(t, handler(ctx))

		assert.False(t, ctx.NextCalled)
		assert.ErrorIs(t, captured, sentinel)
	})
}
