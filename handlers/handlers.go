// Package handlers implements the web views of the filters editor.
package handlers

import (
	"bytes"
	"context"
	"log/slog"

	"aaronromeo.com/sievefilters/pkg/base"
	"aaronromeo.com/sievefilters/pkg/repositories"
	"aaronromeo.com/sievefilters/pkg/services"
	"aaronromeo.com/sievefilters/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/pkg/errors"
)

const (
	localUsername = "username"
	localPassword = "password"
)

type Option func(*Handlers)

// Handlers serves the views. Every request opens its own ManageSieve
// session with the credentials kept in the user session.
type Handlers struct {
	sieveDialer base.SieveDialer
	imapDialer  base.MailboxDialer
	sessions    *session.Store
	logger      *slog.Logger
	filtersOpts []services.FiltersOption
}

func WithSieveDialer(d base.SieveDialer) Option {
	return func(h *Handlers) {
		h.sieveDialer = d
	}
}

func WithIMAPDialer(d base.MailboxDialer) Option {
	return func(h *Handlers) {
		h.imapDialer = d
	}
}

func WithSessionStore(store *session.Store) Option {
	return func(h *Handlers) {
		h.sessions = store
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) {
		h.logger = logger
	}
}

// WithFiltersOptions configures the filters service built per request.
func WithFiltersOptions(opts ...services.FiltersOption) Option {
	return func(h *Handlers) {
		h.filtersOpts = append(h.filtersOpts, opts...)
	}
}

func New(opts ...Option) (*Handlers, error) {
	h := &Handlers{}
	for _, opt := range opts {
		opt(h)
	}
	if h.sessions == nil {
		h.sessions = session.New()
	}
	if err := validateDeps(h); err != nil {
		return nil, err
	}
	return h, nil
}

func validateDeps(h *Handlers) error {
	if h.sieveDialer == nil {
		return errors.New("handlers require a ManageSieve dialer")
	}
	if h.imapDialer == nil {
		return errors.New("handlers require an IMAP dialer")
	}
	if h.logger == nil {
		return errors.New("handlers require a logger")
	}
	return nil
}

func credentials(c *fiber.Ctx) (string, string) {
	username, _ := c.Locals(localUsername).(string)
	password, _ := c.Locals(localPassword).(string)
	return username, password
}

// withFilters runs fn with a filters service bound to a fresh ManageSieve
// session of the logged in user.
func (h *Handlers) withFilters(c *fiber.Ctx, fn func(ctx context.Context, svc services.FiltersService) error) error {
	ctx := c.UserContext()
	username, password := credentials(c)

	client, err := h.sieveDialer(ctx, username, password)
	if err != nil {
		return h.respondError(c, errors.Wrap(err, "connecting to the ManageSieve server"))
	}
	defer func() {
		if err := client.Logout(); err != nil {
			h.logger.WarnContext(ctx, "ManageSieve logout failed", slog.Any("error", utils.WrapError(err)))
		}
	}()

	repo := repositories.NewSieveFiltersSetRepository(client, h.logger)
	return fn(ctx, services.NewFiltersService(repo, h.logger, h.filtersOpts...))
}

func (h *Handlers) withFolders(c *fiber.Ctx, fn func(ctx context.Context, svc services.FoldersService) error) error {
	ctx := c.UserContext()
	username, password := credentials(c)

	lister, err := h.imapDialer(ctx, username, password)
	if err != nil {
		return h.respondError(c, errors.Wrap(err, "connecting to the IMAP server"))
	}
	defer func() {
		if err := lister.Close(); err != nil {
			h.logger.WarnContext(ctx, "IMAP logout failed", slog.Any("error", utils.WrapError(err)))
		}
	}()

	return fn(ctx, services.NewFoldersService(lister, h.logger))
}

// respondError maps err to a JSON error response.
func (h *Handlers) respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadGateway
	var invalid *services.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrFiltersSetNotFound), errors.Is(err, services.ErrFilterNotFound):
		status = fiber.StatusNotFound
	}

	level := slog.LevelInfo
	if status == fiber.StatusBadGateway {
		level = slog.LevelError
	}
	h.logger.Log(c.UserContext(), level, "Request failed",
		slog.String("path", c.Path()),
		slog.Int("status", status),
		slog.Any("error", utils.WrapError(err)))

	return c.Status(status).JSON(fiber.Map{"respmsg": err.Error()})
}

func respond(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{"respmsg": msg})
}

// renderPartial renders a template without layout.
func renderPartial(c *fiber.Ctx, name string, bind fiber.Map) (string, error) {
	var buf bytes.Buffer
	if err := c.App().Config().Views.Render(&buf, name, bind); err != nil {
		return "", errors.Wrapf(err, "rendering %s", name)
	}
	return buf.String(), nil
}

func page(c *fiber.Ctx, title string, bind fiber.Map) fiber.Map {
	if bind == nil {
		bind = fiber.Map{}
	}
	user, _ := credentials(c)
	bind["Title"] = title
	bind["User"] = user
	return bind
}
