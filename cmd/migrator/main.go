package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	migrationTypeUp   = "up"
	migrationTypeDown = "down"
)

const (
	exitCodeOK = iota
	exitCodeInputErr
	exitCodeInternalErr
)

type options struct {
	migrationType string
	username      string
	password      string
	host          string
	port          string
	db            string
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	exitCode, err := run(ctx, log)
	if err != nil {
		log.ErrorContext(ctx, "failed to apply migrations", slog.String("err", err.Error()))
	}

	stop()
	os.Exit(exitCode)
}

func run(ctx context.Context, log *slog.Logger) (exitCode int, err error) {
	opts, err := parseOptions()
	if err != nil {
		return exitCodeInputErr, fmt.Errorf("invalid flags: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return exitCodeInternalErr, fmt.Errorf("failed to create migrations source: %w", err)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", src, opts.databaseURL())
	if err != nil {
		return exitCodeInternalErr, fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := migrator.Close()
		if closeErr := errors.Join(srcErr, dbErr); closeErr != nil {
			if err == nil {
				exitCode = exitCodeInternalErr
			}
			err = errors.Join(err, closeErr)
		}
	}()

	if err := applyMigration(migrator, opts.migrationType); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.InfoContext(ctx, "no migrations to apply")
			return exitCodeOK, nil
		}

		return exitCodeInternalErr, fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.InfoContext(ctx, "migrations applied successfully", slog.String("type", opts.migrationType))

	return exitCodeOK, nil
}

func applyMigration(migrator *migrate.Migrate, migrationType string) error {
	switch migrationType {
	case migrationTypeUp:
		return migrator.Up()
	case migrationTypeDown:
		return migrator.Down()
	default:
		return fmt.Errorf("unknown migration type %q", migrationType)
	}
}

func parseOptions() (*options, error) {
	opts := &options{}
	flag.StringVar(&opts.migrationType, "type", migrationTypeUp, "migration type: up/down")
	flag.StringVar(&opts.username, "username", "", "database username")
	flag.StringVar(&opts.password, "password", "", "database password")
	flag.StringVar(&opts.host, "host", "127.0.0.1", "database host")
	flag.StringVar(&opts.port, "port", "5432", "database port")
	flag.StringVar(&opts.db, "db", "partner_intake", "database name")
	flag.Parse()

	if opts.migrationType != migrationTypeUp && opts.migrationType != migrationTypeDown {
		return nil, fmt.Errorf("type must be %q or %q, got %q", migrationTypeUp, migrationTypeDown, opts.migrationType)
	}

	for _, req := range []struct{ name, value string }{
		{"username", opts.username},
		{"password", opts.password},
		{"db", opts.db},
		{"port", opts.port},
	} {
		if req.value == "" {
			return nil, fmt.Errorf("%s is required", req.name)
		}
	}

	return opts, nil
}

func (o *options) databaseURL() string {
	return (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(o.username, o.password),
		Host:     net.JoinHostPort(o.host, o.port),
		Path:     o.db,
		RawQuery: "sslmode=disable",
	}).String()
}
