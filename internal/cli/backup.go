package cli

import (
	"context"
	"fmt"

	"aaronromeo.com/sievefilters/internal/backup"
	"aaronromeo.com/sievefilters/internal/config"
	"aaronromeo.com/sievefilters/pkg/repositories"
	"github.com/pkg/errors"
	urfavecli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func runBackup(deps *Deps) commandFunc {
	return func(ctx context.Context, c *urfavecli.Context, cfg config.Config) error {
		span := trace.SpanFromContext(ctx)

		s3Env, err := config.S3EnvFromEnv()
		if err != nil {
			return err
		}
		uploader, err := deps.NewUploader(s3Env, cfg.Backup.ForcePathStyle)
		if err != nil {
			return err
		}

		client, creds, err := dialAccount(ctx, deps, cfg)
		if err != nil {
			return err
		}
		defer client.Logout() //nolint:errcheck

		logger := deps.logger(cfg)
		runner, err := backup.New(
			backup.WithRepository(repositories.NewSieveFiltersSetRepository(client, logger)),
			backup.WithUploader(uploader),
			backup.WithBucket(s3Env.Bucket),
			backup.WithPrefix(cfg.Backup.Prefix),
			backup.WithAccount(creds.User),
			backup.WithLogger(logger),
		)
		if err != nil {
			return err
		}

		objects, err := runner.Run(ctx)
		span.SetAttributes(attribute.Int("backup.objects", len(objects)))
		if err != nil {
			return errors.Wrap(err, "backing up filters sets")
		}

		for _, obj := range objects {
			marker := ""
			if obj.Active {
				marker = " (active)"
			}
			fmt.Fprintf(deps.Out, "s3://%s/%s%s\n", s3Env.Bucket, obj.Key, marker)
		}
		return nil
	}
}
