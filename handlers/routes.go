package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Register mounts the views on app. The set view matches any name, so it
// comes last.
func (h *Handlers) Register(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(IndexPath)
	})

	accounts := app.Group("/accounts")
	accounts.Get("/login/", h.LoginForm).Name("core.login")
	accounts.Post("/login/", h.Login)
	accounts.Get("/logout/", h.Logout).Name("core.logout")

	sf := app.Group("/sfilters", h.RequireLogin)
	sf.Get("/", h.Index).Name("sfilters.index")
	sf.Get("/submailboxes/", h.Submailboxes).Name("sfilters.submailboxes")
	sf.Get("/newfs/", h.NewFiltersSetForm).Name("sfilters.fs_add")
	sf.Post("/newfs/", h.NewFiltersSet)
	sf.Post("/savefs/:name/", h.SaveFiltersSet).Name("sfilters.fs_save")
	sf.Get("/:name/remove/", h.RemoveFiltersSet).Name("sfilters.fs_delete")
	sf.Get("/:name/activate/", h.ActivateFiltersSet).Name("sfilters.fs_activate")
	sf.Get("/:name/download/", h.DownloadFiltersSet).Name("sfilters.fs_download")
	sf.Get("/:setname/newfilter/", h.NewFilterForm).Name("sfilters.filter_add")
	sf.Post("/:setname/newfilter/", h.NewFilter)
	sf.Get("/:setname/editfilter/:fname/", h.EditFilterForm).Name("sfilters.filter_change")
	sf.Post("/:setname/editfilter/:fname/", h.EditFilter)
	sf.Get("/:setname/removefilter/:fname/", h.RemoveFilter).Name("sfilters.filter_delete")
	sf.Get("/:setname/togglestate/:fname/", h.ToggleFilterState).Name("sfilters.filter_toggle_state")
	sf.Get("/:setname/moveup/:fname/", h.MoveFilterUp).Name("sfilters.filter_move_up")
	sf.Get("/:setname/movedown/:fname/", h.MoveFilterDown).Name("sfilters.filter_move_down")
	sf.Get("/:name/", h.GetFiltersSet).Name("sfilters.fs_get")
}
