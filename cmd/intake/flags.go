package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kurochkinivan/partner_intake/internal/app"
	"github.com/kurochkinivan/partner_intake/internal/config"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

var version = "dev"

func cmd() *cli.Command {
	return &cli.Command{
		Name:    "partner_intake",
		Usage:   "partner onboarding form intake service",
		Version: version,
		Flags:   flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log, ok := ctx.Value(loggerKey{}).(*slog.Logger)
			if !ok {
				return errors.New("failed to get logger from context")
			}

			cfg := config.Load(cmd)

			return app.New(log, cfg).Run(ctx)
		},
	}
}

func flags() []cli.Flag {
	var configFile string

	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Validator:   validateConfig,
			Usage:       "Load configuration from `FILE`",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:    "http-host",
			Usage:   "Set HTTP server host",
			Value:   "0.0.0.0",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_HTTP_HOST"), yaml.YAML("http.host", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "http-port",
			Usage:   "Set HTTP server port",
			Value:   "8080",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_HTTP_PORT"), yaml.YAML("http.port", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.DurationFlag{
			Name:    "http-idle-timeout",
			Usage:   "Set HTTP server idle timeout",
			Value:   1 * time.Minute,
			Sources: cli.NewValueSourceChain(yaml.YAML("http.idle_timeout", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.DurationFlag{
			Name:    "http-read-timeout",
			Usage:   "Set HTTP server read timeout",
			Value:   5 * time.Minute,
			Sources: cli.NewValueSourceChain(yaml.YAML("http.read_timeout", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.DurationFlag{
			Name:    "http-write-timeout",
			Usage:   "Set HTTP server write timeout",
			Value:   1 * time.Minute,
			Sources: cli.NewValueSourceChain(yaml.YAML("http.write_timeout", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "allowed-origin",
			Usage:   "Set allowed frontend origin for CORS",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_ALLOWED_ORIGIN"), yaml.YAML("app.allowed_origin", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "uploads-dir",
			Usage:   "Set directory uploaded files are stored in (disk mode)",
			Value:   "uploads",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_UPLOADS_DIR"), yaml.YAML("app.uploads_dir", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "receipts-dir",
			Usage:   "Set directory submission receipts are written to",
			Value:   "receipts",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_RECEIPTS_DIR"), yaml.YAML("app.receipts_dir", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.IntFlag{
			Name:    "max-upload-bytes",
			Usage:   "Set per-file upload size limit in bytes",
			Value:   20 << 20,
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_MAX_UPLOAD_BYTES"), yaml.YAML("app.max_upload_bytes", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.BoolFlag{
			Name:    "unique-email",
			Usage:   "Reject submissions reusing an already submitted email",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_UNIQUE_EMAIL"), yaml.YAML("app.unique_email", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:      "storage-mode",
			Usage:     "Set file storage mode: disk, object or metadata",
			Value:     config.StorageDisk,
			Validator: validateStorageMode,
			Sources:   cli.NewValueSourceChain(cli.EnvVar("INTAKE_STORAGE_MODE"), yaml.YAML("storage.mode", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "minio-endpoint",
			Usage:   "Set MinIO endpoint (object mode)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_MINIO_ENDPOINT"), yaml.YAML("storage.minio.endpoint", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "minio-access-key",
			Usage:   "Set MinIO access key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_MINIO_ACCESS_KEY"), yaml.YAML("storage.minio.access_key", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "minio-secret-key",
			Usage:   "Set MinIO secret key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_MINIO_SECRET_KEY"), yaml.YAML("storage.minio.secret_key", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "minio-bucket",
			Usage:   "Set MinIO bucket name",
			Value:   "submissions",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_MINIO_BUCKET"), yaml.YAML("storage.minio.bucket", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.BoolFlag{
			Name:    "minio-use-ssl",
			Usage:   "Use TLS for MinIO connections",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_MINIO_USE_SSL"), yaml.YAML("storage.minio.use_ssl", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:     "pg-host",
			Usage:    "Set PostgreSQL host",
			Value:    "localhost",
			Sources:  cli.NewValueSourceChain(cli.EnvVar("INTAKE_PG_HOST"), yaml.YAML("postgresql.host", altsrc.NewStringPtrSourcer(&configFile))),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "pg-port",
			Usage:    "Set PostgreSQL port",
			Value:    "5432",
			Sources:  cli.NewValueSourceChain(cli.EnvVar("INTAKE_PG_PORT"), yaml.YAML("postgresql.port", altsrc.NewStringPtrSourcer(&configFile))),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "pg-username",
			Usage:    "Set PostgreSQL username",
			Sources:  cli.NewValueSourceChain(cli.EnvVar("INTAKE_PG_USERNAME"), yaml.YAML("postgresql.username", altsrc.NewStringPtrSourcer(&configFile))),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "pg-password",
			Usage:    "Set PostgreSQL password",
			Sources:  cli.NewValueSourceChain(cli.EnvVar("INTAKE_PG_PASSWORD"), yaml.YAML("postgresql.password", altsrc.NewStringPtrSourcer(&configFile))),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "pg-dbname",
			Usage:    "Set PostgreSQL database name",
			Value:    "partner_intake",
			Sources:  cli.NewValueSourceChain(cli.EnvVar("INTAKE_PG_DBNAME"), yaml.YAML("postgresql.dbname", altsrc.NewStringPtrSourcer(&configFile))),
			Required: true,
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "Set SMTP host for confirmation emails",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_SMTP_HOST"), yaml.YAML("mail.host", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "smtp-port",
			Usage:   "Set SMTP port",
			Value:   "587",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_SMTP_PORT"), yaml.YAML("mail.port", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "Set SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_SMTP_USERNAME"), yaml.YAML("mail.username", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "Set SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_SMTP_PASSWORD"), yaml.YAML("mail.password", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Set confirmation email sender address",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_SMTP_FROM"), yaml.YAML("mail.from", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.BoolFlag{
			Name:    "mail-enabled",
			Usage:   "Enable outbound confirmation emails",
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_MAIL_ENABLED"), yaml.YAML("mail.enabled", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.IntFlag{
			Name:    "rate-limit-max",
			Usage:   "Set max submissions per client IP per window",
			Value:   100,
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_RATE_LIMIT_MAX"), yaml.YAML("rate_limit.max", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.DurationFlag{
			Name:    "rate-limit-window",
			Usage:   "Set rate limit window duration",
			Value:   15 * time.Minute,
			Sources: cli.NewValueSourceChain(cli.EnvVar("INTAKE_RATE_LIMIT_WINDOW"), yaml.YAML("rate_limit.window", altsrc.NewStringPtrSourcer(&configFile))),
		},
	}
}

func validateStorageMode(mode string) error {
	switch mode {
	case config.StorageDisk, config.StorageObject, config.StorageMetadata:
		return nil
	}

	return fmt.Errorf("invalid storage mode %q", mode)
}

func validateConfig(configFile string) error {
	info, err := os.Stat(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%q does not exist", configFile)
		}
		return fmt.Errorf("failed to stat %q: %w", configFile, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%q is a directory, not a file", configFile)
	}

	ext := filepath.Ext(info.Name())
	if ext != ".yml" && ext != ".yaml" {
		return fmt.Errorf("invalid extension %q", ext)
	}

	return nil
}
