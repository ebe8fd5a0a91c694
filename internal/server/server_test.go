package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"aaronromeo.com/sievefilters/handlers"
	"aaronromeo.com/sievefilters/internal/config"
	"aaronromeo.com/sievefilters/pkg/base"
	"aaronromeo.com/sievefilters/pkg/mock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := mock.SetupLogger(t)
	h, err := handlers.New(
		handlers.WithSieveDialer(func(context.Context, string, string) (base.SieveClient, error) {
			return nil, errors.New("offline")
		}),
		handlers.WithIMAPDialer(func(context.Context, string, string) (base.MailboxLister, error) {
			return nil, errors.New("offline")
		}),
		handlers.WithSessionStore(NewSessionStore(config.Config{})),
		handlers.WithLogger(logger),
	)
	require.NoError(t, err)
	return NewApp(h, logger, "")
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"respmsg"`)
}

func TestRootRedirectsToIndex(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handlers.IndexPath, resp.Header.Get(fiber.HeaderLocation))
}

func TestLoginPage(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/accounts/login/?next=/sfilters/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `name="password"`)
	assert.Contains(t, string(body), `value="/sfilters/"`)
}

func TestNewSessionStore(t *testing.T) {
	cfg := config.Config{Session: config.Session{Lifetime: "2h", CookieSecure: true}}
	store := NewSessionStore(cfg)

	assert.Equal(t, cfg.SessionLifetime(), store.Expiration)
	assert.True(t, store.CookieSecure)
	assert.True(t, store.CookieHTTPOnly)
}
