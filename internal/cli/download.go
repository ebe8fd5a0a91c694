package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"aaronromeo.com/sievefilters/internal/config"
	"aaronromeo.com/sievefilters/pkg/repositories"
	"github.com/pkg/errors"
	urfavecli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func download(deps *Deps) commandFunc {
	return func(ctx context.Context, c *urfavecli.Context, cfg config.Config) error {
		span := trace.SpanFromContext(ctx)

		name := c.Args().First()
		if name == "" {
			return errors.New("a filters set name is required")
		}
		output := c.String("output")
		if output == "" {
			output = name + ".sieve"
		}

		client, _, err := dialAccount(ctx, deps, cfg)
		if err != nil {
			return err
		}
		defer client.Logout() //nolint:errcheck

		repo := repositories.NewSieveFiltersSetRepository(client, deps.logger(cfg))
		content, err := repo.LoadRaw(ctx, name)
		if err != nil {
			return errors.Wrap(err, "downloading filters set")
		}

		if dir := filepath.Dir(output); dir != "." {
			if err := deps.FileMgr.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrap(err, "creating output directory")
			}
		}
		span.SetAttributes(
			attribute.String("script.name", name),
			attribute.Int("script.size", len(content)),
		)
		if err := deps.FileMgr.WriteFile(output, []byte(content), 0o644); err != nil {
			return errors.Wrap(err, "writing filters set")
		}

		fmt.Fprintf(deps.Out, "Wrote %s (%d bytes)\n", output, len(content))
		return nil
	}
}
