// Package cli holds the sievefilters command line.
package cli

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"aaronromeo.com/sievefilters/internal/backup"
	"aaronromeo.com/sievefilters/internal/config"
	"aaronromeo.com/sievefilters/internal/managesieve"
	"aaronromeo.com/sievefilters/pkg/base"
	"aaronromeo.com/sievefilters/pkg/utils"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	urfavecli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
)

const defaultEnvFile = ".env"

// Deps are the collaborators of the commands. Tests replace them.
type Deps struct {
	Out            io.Writer
	FileMgr        utils.FileManager
	SieveDialer    func(cfg config.Config) base.SieveDialer
	NewUploader    func(env config.S3Env, forcePathStyle bool) (s3manageriface.UploaderAPI, error)
	SetupTelemetry func(ctx context.Context, cfg config.Telemetry) (func(context.Context) error, error)
	Logger         *slog.Logger
}

func DefaultDeps() *Deps {
	return &Deps{
		Out:            os.Stdout,
		FileMgr:        utils.OSFileManager{},
		SieveDialer:    sieveDialer,
		NewUploader:    backup.NewUploader,
		SetupTelemetry: utils.SetupOTelSDK,
	}
}

func sieveDialer(cfg config.Config) base.SieveDialer {
	tlsConfig := &tls.Config{
		ServerName:         cfg.ManageSieve.Host,
		InsecureSkipVerify: cfg.ManageSieve.InsecureSkipVerify, //nolint:gosec
	}
	return managesieve.NewDialer(cfg.ManageSieveAddr(), tlsConfig, cfg.ManageSieve.StartTLS, cfg.Timeout())
}

// NewApp returns the command line application.
func NewApp(ctx context.Context, deps *Deps) *urfavecli.App {
	return &urfavecli.App{
		Name:  base.ServiceName,
		Usage: "Manage Sieve filters sets over ManageSieve",
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "config",
				Usage:   "Path to YAML config file",
				EnvVars: []string{config.EnvConfigPath},
			},
		},
		Writer: deps.Out,
		Commands: []*urfavecli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the web interface",
				Action: serve(ctx, deps),
			},
			{
				Name:      "download",
				Usage:     "Write a filters set to a file",
				ArgsUsage: "<set>",
				Flags: []urfavecli.Flag{
					&urfavecli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Destination file (default <set>.sieve)"},
				},
				Action: traced(ctx, deps, download(deps)),
			},
			{
				Name:   "backup",
				Usage:  "Upload every filters set to S3-compatible storage",
				Action: traced(ctx, deps, runBackup(deps)),
			},
			{
				Name:      "check",
				Usage:     "Validate a sieve script locally",
				ArgsUsage: "<file>",
				Action:    check(deps),
			},
		},
	}
}

// loadConfig reads .env, then the YAML config named by --config.
func loadConfig(c *urfavecli.Context) (config.Config, error) {
	if err := loadEnvFile(); err != nil {
		return config.Config{}, err
	}
	cfgPath, err := resolveConfigPath(c)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func resolveConfigPath(c *urfavecli.Context) (string, error) {
	cfgPath := c.String("config")
	if strings.TrimSpace(cfgPath) == "" {
		cfgPath = os.Getenv(config.EnvConfigPath)
	}
	if strings.TrimSpace(cfgPath) == "" {
		return "", errors.Errorf("config path is required via --config or %s", config.EnvConfigPath)
	}
	return cfgPath, nil
}

func loadEnvFile() error {
	if _, err := os.Stat(defaultEnvFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(defaultEnvFile)
}

// commandFunc is a command body run by traced.
type commandFunc func(ctx context.Context, c *urfavecli.Context, cfg config.Config) error

// startTelemetry sets up the OpenTelemetry pipeline for cfg. The returned
// stop flushes and shuts it down.
func startTelemetry(ctx context.Context, deps *Deps, cfg config.Config) (func(), error) {
	shutdown, err := deps.SetupTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return nil, errors.Wrap(err, "setting up telemetry")
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, "telemetry shutdown:", err)
		}
	}, nil
}

// traced loads the config, starts telemetry and runs fn inside a span
// named after the command.
func traced(ctx context.Context, deps *Deps, fn commandFunc) urfavecli.ActionFunc {
	return func(c *urfavecli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		stop, err := startTelemetry(ctx, deps, cfg)
		if err != nil {
			return err
		}
		defer stop()

		ctx, span := otel.Tracer(base.ServiceName).Start(ctx, c.Command.Name)
		defer span.End()

		if err := fn(ctx, c, cfg); err != nil {
			span.RecordError(err)
			return err
		}
		return nil
	}
}

func (d *Deps) logger(cfg config.Config) *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return utils.NewLogger(os.Stderr, cfg.Telemetry.Enabled)
}

// dialAccount opens a ManageSieve session with the account from the
// environment.
func dialAccount(ctx context.Context, deps *Deps, cfg config.Config) (base.SieveClient, config.Credentials, error) {
	creds, err := config.CredentialsFromEnv()
	if err != nil {
		return nil, config.Credentials{}, err
	}
	client, err := deps.SieveDialer(cfg)(ctx, creds.User, creds.Pass)
	if err != nil {
		return nil, config.Credentials{}, errors.Wrap(err, "connecting to the ManageSieve server")
	}
	return client, creds, nil
}
