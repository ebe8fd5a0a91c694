package cli

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"aaronromeo.com/sievefilters/handlers"
	"aaronromeo.com/sievefilters/internal/config"
	"aaronromeo.com/sievefilters/internal/imapclient"
	"aaronromeo.com/sievefilters/internal/server"
	"aaronromeo.com/sievefilters/pkg/services"
	urfavecli "github.com/urfave/cli/v2"
)

func serve(ctx context.Context, deps *Deps) func(c *urfavecli.Context) error {
	return func(c *urfavecli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		sessionKey := config.SessionKey()
		if err := config.ValidateSessionKey(sessionKey); err != nil {
			return err
		}
		fmt.Fprintln(deps.Out, config.Summary(cfg))

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		stopTelemetry, err := startTelemetry(ctx, deps, cfg)
		if err != nil {
			return err
		}
		defer stopTelemetry()

		logger := deps.logger(cfg)
		imapTLS := &tls.Config{
			ServerName:         cfg.IMAP.Host,
			InsecureSkipVerify: cfg.IMAP.InsecureSkipVerify, //nolint:gosec
		}

		h, err := handlers.New(
			handlers.WithSieveDialer(deps.SieveDialer(cfg)),
			handlers.WithIMAPDialer(imapclient.NewDialer(cfg.IMAPAddr(), cfg.IMAP.Security, imapTLS)),
			handlers.WithSessionStore(server.NewSessionStore(cfg)),
			handlers.WithLogger(logger),
			handlers.WithFiltersOptions(services.WithLocalValidation(cfg.ValidateLocally())),
		)
		if err != nil {
			return err
		}

		app := server.NewApp(h, logger, sessionKey)
		logger.InfoContext(ctx, "Starting web interface",
			slog.String("listen", cfg.Listen),
			slog.String("managesieve", cfg.ManageSieveAddr()))
		return server.Run(ctx, app, cfg.Listen, logger)
	}
}
