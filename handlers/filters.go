package handlers

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"aaronromeo.com/sievefilters/pkg/models/filtersset"
	"aaronromeo.com/sievefilters/pkg/services"
	"github.com/gofiber/fiber/v2"
)

// maxFormRows bounds the condition and action rows read from a form.
const maxFormRows = 64

func formBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// parseFilterForm builds a filter from the cond_* and action_* fields.
func parseFilterForm(c *fiber.Ctx) *filtersset.Filter {
	f := &filtersset.Filter{
		Name:      strings.TrimSpace(c.FormValue("name")),
		MatchType: c.FormValue("match_type", filtersset.MatchAnyOf),
		Enabled:   formBool(c.FormValue("enabled")),
	}

	if f.MatchType != filtersset.MatchAll {
		for i := 0; i < maxFormRows; i++ {
			target := c.FormValue(fmt.Sprintf("cond_target_%d", i))
			operator := c.FormValue(fmt.Sprintf("cond_operator_%d", i))
			if target == "" && operator == "" {
				break
			}
			f.Conditions = append(f.Conditions, filtersset.Condition{
				Target:   strings.TrimSpace(target),
				Operator: operator,
				Value:    c.FormValue(fmt.Sprintf("cond_value_%d", i)),
			})
		}
	}

	for i := 0; i < maxFormRows; i++ {
		name := c.FormValue(fmt.Sprintf("action_name_%d", i))
		if name == "" {
			break
		}
		action := filtersset.Action{Name: name}
		if filtersset.ActionArity[name] > 0 {
			action.Args = []string{strings.TrimSpace(c.FormValue(fmt.Sprintf("action_arg_%d", i)))}
		}
		f.Actions = append(f.Actions, action)
	}
	return f
}

func filterFormBind(action string, f *filtersset.Filter) fiber.Map {
	operators := make([]string, 0, len(filtersset.HeaderOperators)+len(filtersset.SizeOperators))
	for op := range filtersset.HeaderOperators {
		operators = append(operators, op)
	}
	sort.Strings(operators)
	operators = append(operators, filtersset.SizeOperators...)

	actions := make([]string, 0, len(filtersset.ActionArity))
	for name := range filtersset.ActionArity {
		actions = append(actions, name)
	}
	sort.Strings(actions)

	return fiber.Map{
		"Action":        action,
		"Filter":        f,
		"MatchTypes":    []string{filtersset.MatchAnyOf, filtersset.MatchAllOf, filtersset.MatchAll},
		"Operators":     operators,
		"Actions":       actions,
		"MaxNameLength": filtersset.MaxNameLength,
	}
}

func filterPath(set string, parts ...string) string {
	p := "/sfilters/" + url.PathEscape(set) + "/"
	for _, part := range parts {
		p += url.PathEscape(part) + "/"
	}
	return p
}

func (h *Handlers) NewFilterForm(c *fiber.Ctx) error {
	set := c.Params("setname")
	f := &filtersset.Filter{
		MatchType:  filtersset.MatchAnyOf,
		Enabled:    true,
		Conditions: []filtersset.Condition{{Operator: "contains"}},
		Actions:    []filtersset.Action{{Name: "fileinto"}},
	}
	bind := filterFormBind(filterPath(set, "newfilter"), f)
	return c.Render("filter_form", page(c, "New filter", bind), "layouts/main")
}

func (h *Handlers) NewFilter(c *fiber.Ctx) error {
	set := c.Params("setname")
	f := parseFilterForm(c)
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		if err := svc.AddFilter(ctx, set, f); err != nil {
			return h.respondError(c, err)
		}
		return respond(c, "Filter created")
	})
}

func (h *Handlers) EditFilterForm(c *fiber.Ctx) error {
	set, name := c.Params("setname"), c.Params("fname")
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		f, err := svc.GetFilter(ctx, set, name)
		if err != nil {
			return h.respondError(c, err)
		}
		bind := filterFormBind(filterPath(set, "editfilter", name), f)
		return c.Render("filter_form", page(c, "Edit filter", bind), "layouts/main")
	})
}

func (h *Handlers) EditFilter(c *fiber.Ctx) error {
	set, name := c.Params("setname"), c.Params("fname")
	f := parseFilterForm(c)
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		if err := svc.UpdateFilter(ctx, set, name, f); err != nil {
			return h.respondError(c, err)
		}
		return respond(c, "Filter modified")
	})
}

func (h *Handlers) RemoveFilter(c *fiber.Ctx) error {
	set, name := c.Params("setname"), c.Params("fname")
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		if err := svc.RemoveFilter(ctx, set, name); err != nil {
			return h.respondError(c, err)
		}
		return c.JSON("Filter removed")
	})
}

// ToggleFilterState answers with the color and label of the new state.
func (h *Handlers) ToggleFilterState(c *fiber.Ctx) error {
	set, name := c.Params("setname"), c.Params("fname")
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		enabled, err := svc.ToggleFilter(ctx, set, name)
		if err != nil {
			return h.respondError(c, err)
		}
		if enabled {
			return c.JSON(fiber.Map{"color": "green", "label": "enabled"})
		}
		return c.JSON(fiber.Map{"color": "red", "label": "disabled"})
	})
}

func (h *Handlers) MoveFilterUp(c *fiber.Ctx) error {
	return h.moveFilter(c, services.FiltersService.MoveFilterUp)
}

func (h *Handlers) MoveFilterDown(c *fiber.Ctx) error {
	return h.moveFilter(c, services.FiltersService.MoveFilterDown)
}

func (h *Handlers) moveFilter(c *fiber.Ctx, move func(services.FiltersService, context.Context, string, string) (*filtersset.FiltersSet, error)) error {
	set, name := c.Params("setname"), c.Params("fname")
	return h.withFilters(c, func(ctx context.Context, svc services.FiltersService) error {
		fs, err := move(svc, ctx, set, name)
		if err != nil {
			return h.respondError(c, err)
		}
		content, err := filtersTable(c, fs)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"content": content})
	})
}
