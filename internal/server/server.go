// Package server assembles the fiber application serving the filters
// editor.
package server

import (
	"context"
	"log/slog"
	"time"

	"aaronromeo.com/sievefilters/handlers"
	"aaronromeo.com/sievefilters/internal/config"
	"aaronromeo.com/sievefilters/pkg/base"
	"aaronromeo.com/sievefilters/pkg/utils"
	"aaronromeo.com/sievefilters/views"
	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/pkg/errors"
)

const shutdownTimeout = 10 * time.Second

// NewSessionStore keeps sessions in memory, with the cookie settings of cfg.
func NewSessionStore(cfg config.Config) *session.Store {
	return session.New(session.Config{
		Expiration:     cfg.SessionLifetime(),
		KeyLookup:      "cookie:sievefilters_session",
		CookieSecure:   cfg.Session.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	})
}

// NewApp returns the application with every view registered. A non-empty
// cookieKey encrypts the session cookie.
func NewApp(h *handlers.Handlers, logger *slog.Logger, cookieKey string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               base.ServiceName,
		Views:                 views.NewEngine(),
		UnescapePath:          true,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	if cookieKey != "" {
		app.Use(encryptcookie.New(encryptcookie.Config{Key: cookieKey}))
	}

	h.Register(app)
	return app
}

func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		if status >= fiber.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "Unhandled error",
				slog.String("path", c.Path()),
				slog.Any("error", utils.WrapError(err)))
		}
		return c.Status(status).JSON(fiber.Map{"respmsg": err.Error()})
	}
}

// Run serves app on addr until ctx is cancelled.
func Run(ctx context.Context, app *fiber.App, addr string, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "Listening", slog.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serving HTTP")
	case <-ctx.Done():
	}

	logger.InfoContext(ctx, "Shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return errors.Wrap(err, "shutting down")
	}
	return nil
}
