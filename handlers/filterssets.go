package handlers

import (
	"context"
	"strings"

	"aaronromeo.com/sievefilters/pkg/models/filtersset"
	"aaronromeo.com/sievefilters/pkg/services"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// Index lists the filters sets of the user.
func (h *Handlers) Index(c *fiber.Ctx) error {
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		sets, err := svc.ListSets(ctx)
		if err != nil {
			return h.respondError(c, err)
		}
		return c.Render("index", page(c, "Filters sets", fiber.Map{
			"Sets": sets,
		}), "layouts/main")
	})
}

// GetFiltersSet returns the editor of a set: the filters table, or the raw
// script when the filters editor cannot represent it.
func (h *Handlers) GetFiltersSet(c *fiber.Ctx) error {
	name := c.Params("name")
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		fs, err := svc.GetSet(ctx, name)
		if errors.Is(err, filtersset.ErrUnsupportedScript) {
			content, rerr := renderPartial(c, "partials/raw_editor", fiber.Map{
				"Set":     name,
				"Content": fs.Raw,
			})
			if rerr != nil {
				return rerr
			}
			return c.JSON(fiber.Map{"content": content, "mode": "raw"})
		}
		if err != nil {
			return h.respondError(c, err)
		}
		content, err := filtersTable(c, fs)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"content": content, "mode": "gui"})
	})
}

func filtersTable(c *fiber.Ctx, fs *filtersset.FiltersSet) (string, error) {
	return renderPartial(c, "partials/filters_table", fiber.Map{
		"Set":     fs.Name,
		"Filters": fs.Filters,
	})
}

func (h *Handlers) NewFiltersSetForm(c *fiber.Ctx) error {
	return c.Render("fs_form", page(c, "Create a new filters set", fiber.Map{
		"MaxNameLength": filtersset.MaxNameLength,
	}), "layouts/main")
}

func (h *Handlers) NewFiltersSet(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("name"))
	activate := formBool(c.FormValue("active"))
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		if err := svc.CreateSet(ctx, name, activate); err != nil {
			return h.respondError(c, err)
		}
		return respond(c, "Filters set created")
	})
}

// SaveFiltersSet stores the raw script typed by the user.
func (h *Handlers) SaveFiltersSet(c *fiber.Ctx) error {
	name := c.Params("name")
	content := c.FormValue("scriptcontent")
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		if err := svc.SaveSet(ctx, name, content); err != nil {
			return h.respondError(c, err)
		}
		return respond(c, "Filters set saved")
	})
}

func (h *Handlers) RemoveFiltersSet(c *fiber.Ctx) error {
	name := c.Params("name")
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		if err := svc.DeleteSet(ctx, name); err != nil {
			return h.respondError(c, err)
		}
		return respond(c, "Filters set deleted")
	})
}

func (h *Handlers) ActivateFiltersSet(c *fiber.Ctx) error {
	name := c.Params("name")
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		if err := svc.ActivateSet(ctx, name); err != nil {
			return h.respondError(c, err)
		}
		return respond(c, "Filters set activated")
	})
}

// DownloadFiltersSet sends the script unchanged as an attachment.
func (h *Handlers) DownloadFiltersSet(c *fiber.Ctx) error {
	name := c.Params("name")
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		content, err := svc.DownloadSet(ctx, name)
		if err != nil {
			return h.respondError(c, err)
		}
		c.Attachment(name + ".txt")
		return c.SendString(content)
	})
}

// Submailboxes lists the folders under the topmailbox query parameter.
func (h *Handlers) Submailboxes(c *fiber.Ctx) error {
	parent := c.Query("topmailbox")
	return h.withFolders(c, func(ctx context.Context, svc services.FoldersService) error {
		mailboxes, err := svc.Submailboxes(ctx, parent)
		if err != nil {
			return h.respondError(c, err)
		}
		return c.JSON(mailboxes)
	})
}
