package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/kurochkinivan/partner_intake/internal/config"
	v1 "github.com/kurochkinivan/partner_intake/internal/controller/http/v1"
	"github.com/kurochkinivan/partner_intake/internal/infrastructure/receipt"
	"github.com/kurochkinivan/partner_intake/internal/intake"
	"github.com/kurochkinivan/partner_intake/internal/notify"
	"github.com/kurochkinivan/partner_intake/internal/repository/postgresql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	log *slog.Logger
	cfg *config.Config
}

func New(log *slog.Logger, cfg *config.Config) *App {
	return &App{
		log: log,
		cfg: cfg,
	}
}

func (a *App) Run(ctx context.Context) error {
	a.log.InfoContext(ctx, "starting app",
		slog.String("storage_mode", a.cfg.Storage.Mode),
		slog.Bool("unique_email", a.cfg.App.UniqueEmail),
		slog.Bool("mail_enabled", a.cfg.Mail.Enabled),
	)

	if err := a.ensureDirectories(); err != nil {
		return err
	}

	a.log.InfoContext(ctx, "establishing postgresql connection",
		slog.String("postgresql_host", a.cfg.PostgreSQL.Host),
		slog.String("postgresql_port", a.cfg.PostgreSQL.Port),
		slog.String("postgresql_dbname", a.cfg.PostgreSQL.DBName),
	)

	pool, err := postgresql.NewConnection(ctx, a.log, a.cfg.PostgreSQL)
	if err != nil {
		return fmt.Errorf("failed to create db connection: %w", err)
	}
	defer pool.Close()

	sink, err := a.buildSink(ctx)
	if err != nil {
		return fmt.Errorf("failed to build file sink: %w", err)
	}

	repository := postgresql.NewSubmissionsRepository(pool, a.cfg.App.UniqueEmail)
	assembler := intake.NewAssembler(a.log, sink)
	mailer := notify.NewMailer(a.log, a.cfg.Mail)

	handler := v1.NewSubmissionsHandler(
		a.log,
		assembler,
		repository,
		mailer,
		receipt.New(),
		a.cfg.App.ReceiptsDirectory,
	)

	server := v1.NewServer(a.log, a.cfg.HTTP, a.cfg.App.AllowedOrigin, a.cfg.RateLimit, handler)

	return a.serve(ctx, server)
}

func (a *App) serve(ctx context.Context, server *v1.Server) error {
	erg, ctx := errgroup.WithContext(ctx)

	erg.Go(func() error {
		a.log.InfoContext(ctx, "starting http server",
			slog.String("addr", net.JoinHostPort(a.cfg.HTTP.Host, a.cfg.HTTP.Port)),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}

		return nil
	})

	erg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := erg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.log.ErrorContext(ctx, "app stopped with error", slog.String("err", err.Error()))

		return err
	}

	a.log.InfoContext(ctx, "app stopped gracefully")

	return nil
}

func (a *App) ensureDirectories() error {
	dirs := []string{a.cfg.App.ReceiptsDirectory}
	if a.cfg.Storage.Mode == config.StorageDisk {
		dirs = append(dirs, a.cfg.App.UploadsDirectory)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	return nil
}

func (a *App) buildSink(ctx context.Context) (intake.FileSink, error) {
	maxBytes := a.cfg.App.MaxUploadBytes

	switch a.cfg.Storage.Mode {
	case config.StorageDisk:
		return intake.NewDiskSink(a.log, a.cfg.App.UploadsDirectory, maxBytes), nil

	case config.StorageObject:
		client, err := minio.New(a.cfg.Storage.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(a.cfg.Storage.MinioAccessKey, a.cfg.Storage.MinioSecretKey, ""),
			Secure: a.cfg.Storage.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}

		if err := intake.EnsureBucket(ctx, client, a.cfg.Storage.MinioBucket); err != nil {
			return nil, err
		}

		return intake.NewObjectSink(a.log, client, a.cfg.Storage.MinioBucket, maxBytes), nil

	case config.StorageMetadata:
		return intake.NewDiscardSink(maxBytes), nil
	}

	return nil, fmt.Errorf("unknown storage mode %q", a.cfg.Storage.Mode)
}
