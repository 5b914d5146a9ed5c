package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Storage modes picked at deployment, never at runtime.
const (
	StorageDisk     = "disk"
	StorageObject   = "object"
	StorageMetadata = "metadata"
)

type Config struct {
	App
	PostgreSQL
	HTTP
	Storage
	Mail
	RateLimit
}

type App struct {
	AllowedOrigin     string
	UploadsDirectory  string
	ReceiptsDirectory string
	MaxUploadBytes    int64
	UniqueEmail       bool
}

type PostgreSQL struct {
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

type HTTP struct {
	Host         string
	Port         string
	IdleTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Storage struct {
	Mode           string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

type Mail struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
}

type RateLimit struct {
	Max    int
	Window time.Duration
}

func Load(cmd *cli.Command) *Config {
	return &Config{
		App: App{
			AllowedOrigin:     cmd.String("allowed-origin"),
			UploadsDirectory:  cmd.String("uploads-dir"),
			ReceiptsDirectory: cmd.String("receipts-dir"),
			MaxUploadBytes:    int64(cmd.Int("max-upload-bytes")),
			UniqueEmail:       cmd.Bool("unique-email"),
		},
		PostgreSQL: PostgreSQL{
			Host:     cmd.String("pg-host"),
			Port:     cmd.String("pg-port"),
			Username: cmd.String("pg-username"),
			Password: cmd.String("pg-password"),
			DBName:   cmd.String("pg-dbname"),
		},
		HTTP: HTTP{
			Host:         cmd.String("http-host"),
			Port:         cmd.String("http-port"),
			IdleTimeout:  cmd.Duration("http-idle-timeout"),
			ReadTimeout:  cmd.Duration("http-read-timeout"),
			WriteTimeout: cmd.Duration("http-write-timeout"),
		},
		Storage: Storage{
			Mode:           cmd.String("storage-mode"),
			MinioEndpoint:  cmd.String("minio-endpoint"),
			MinioAccessKey: cmd.String("minio-access-key"),
			MinioSecretKey: cmd.String("minio-secret-key"),
			MinioBucket:    cmd.String("minio-bucket"),
			MinioUseSSL:    cmd.Bool("minio-use-ssl"),
		},
		Mail: Mail{
			Host:     cmd.String("smtp-host"),
			Port:     cmd.String("smtp-port"),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			Enabled:  cmd.Bool("mail-enabled"),
		},
		RateLimit: RateLimit{
			Max:    int(cmd.Int("rate-limit-max")),
			Window: cmd.Duration("rate-limit-window"),
		},
	}
}
