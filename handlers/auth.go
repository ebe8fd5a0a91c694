package handlers

import (
	"log/slog"
	"net/url"
	"strings"

	"aaronromeo.com/sievefilters/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

const (
	LoginPath = "/accounts/login/"
	IndexPath = "/sfilters/"
)

var ErrLoginFailed = errors.New("wrong username or password")

func isXHR(c *fiber.Ctx) bool {
	return c.Get(fiber.HeaderXRequestedWith) == "XMLHttpRequest"
}

// RequireLogin loads the credentials of the session into the request, or
// sends the user to the login page.
func (h *Handlers) RequireLogin(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return errors.Wrap(err, "loading session")
	}
	username, _ := sess.Get(localUsername).(string)
	password, _ := sess.Get(localPassword).(string)
	if username == "" {
		if isXHR(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"respmsg": "Authentication required"})
		}
		return c.Redirect(LoginPath + "?next=" + url.QueryEscape(c.OriginalURL()))
	}

	c.Locals(localUsername, username)
	c.Locals(localPassword, password)
	return c.Next()
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(c *fiber.Ctx) error {
	return c.Render("login", page(c, "Log in", fiber.Map{
		"Next": c.Query("next"),
	}), "layouts/main")
}

// Login authenticates against the ManageSieve server and opens a session.
func (h *Handlers) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	next := safeNext(c.FormValue("next"))

	client, err := h.sieveDialer(ctx, username, password)
	if err != nil {
		h.logger.InfoContext(ctx, "Login failed",
			slog.String("username", username),
			slog.Any("error", utils.WrapError(err)))
		return c.Status(fiber.StatusUnauthorized).Render("login", page(c, "Log in", fiber.Map{
			"Error":    ErrLoginFailed.Error(),
			"Username": username,
			"Next":     next,
		}), "layouts/main")
	}
	if err := client.Logout(); err != nil {
		h.logger.WarnContext(ctx, "ManageSieve logout failed", slog.Any("error", utils.WrapError(err)))
	}

	sess, err := h.sessions.Get(c)
	if err != nil {
		return errors.Wrap(err, "loading session")
	}
	if err := sess.Regenerate(); err != nil {
		return errors.Wrap(err, "regenerating session")
	}
	sess.Set(localUsername, username)
	sess.Set(localPassword, password)
	if err := sess.Save(); err != nil {
		return errors.Wrap(err, "saving session")
	}

	h.logger.InfoContext(ctx, "User logged in", slog.String("username", username))
	return c.Redirect(next)
}

func (h *Handlers) Logout(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return errors.Wrap(err, "loading session")
	}
	if err := sess.Destroy(); err != nil {
		return errors.Wrap(err, "destroying session")
	}
	return c.Redirect(LoginPath)
}

// safeNext only follows local redirects.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return IndexPath
	}
	return next
}
