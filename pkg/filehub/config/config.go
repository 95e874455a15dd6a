// Package config loads server configuration from the environment and builds
// the wired filehub service from it.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filehub/filehub/pkg/filehub"
	"github.com/filehub/filehub/pkg/filehub/cleanup"
	repomemory "github.com/filehub/filehub/pkg/filehub/repo/memory"
	repopg "github.com/filehub/filehub/pkg/filehub/repo/postgres"
	memorystorage "github.com/filehub/filehub/pkg/filehub/storage/memory"
	miniostorage "github.com/filehub/filehub/pkg/filehub/storage/minio"
	s3storage "github.com/filehub/filehub/pkg/filehub/storage/s3"
)

// ServerConfig represents server configuration for the filehub service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Database configuration
	DatabaseType string `env:"DATABASE_TYPE" env-default:"memory"` // "memory", "postgres"
	DatabaseURL  string `env:"DATABASE_URL"`

	// Storage configuration
	StorageType string `env:"STORAGE_TYPE" env-default:"memory"` // "memory", "s3", "minio"

	S3Region          string `env:"S3_REGION" env-default:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`

	MinioEndpoint        string `env:"MINIO_ENDPOINT"`
	MinioAccessKeyID     string `env:"MINIO_ACCESS_KEY_ID"`
	MinioSecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY"`
	MinioBucket          string `env:"MINIO_BUCKET"`
	MinioUseSSL          bool   `env:"MINIO_USE_SSL" env-default:"false"`
	MinioCreateBucket    bool   `env:"MINIO_CREATE_BUCKET" env-default:"false"`

	// Presign lifetimes in seconds
	UploadURLTTLSeconds   int `env:"UPLOAD_URL_TTL_SECONDS" env-default:"600"`
	DownloadURLTTLSeconds int `env:"DOWNLOAD_URL_TTL_SECONDS" env-default:"300"`

	// Listing
	MaxPageSize int `env:"MAX_PAGE_SIZE" env-default:"100"`

	// Durable cleanup queue (requires postgres). When disabled, deleted
	// objects are removed inline on a best-effort basis.
	DurableCleanup         bool `env:"DURABLE_CLEANUP" env-default:"false"`
	CleanupIntervalSeconds int  `env:"CLEANUP_INTERVAL_SECONDS" env-default:"30"`

	// Auth
	JWTSecret   string `env:"JWT_SECRET"`
	DisableAuth bool   `env:"DISABLE_AUTH" env-default:"false"`
}

// Load reads configuration from the environment.
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when using postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	switch c.StorageType {
	case "memory":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when using s3 storage")
		}
	case "minio":
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required when using minio storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}

	if c.UploadURLTTLSeconds <= 0 || c.DownloadURLTTLSeconds <= 0 {
		return errors.New("presign TTLs must be positive")
	}
	if c.MaxPageSize <= 0 {
		return errors.New("MAX_PAGE_SIZE must be positive")
	}
	if c.DurableCleanup && c.DatabaseType != "postgres" {
		return errors.New("DURABLE_CLEANUP requires postgres")
	}
	// The worker builds its own store client, which only reaches the same
	// objects when the store is an external service.
	if c.DurableCleanup && c.StorageType == "memory" {
		return errors.New("DURABLE_CLEANUP requires s3 or minio storage")
	}
	if !c.DisableAuth && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required unless DISABLE_AUTH is set")
	}

	return nil
}

// UploadTTL returns the configured upload presign lifetime.
func (c *ServerConfig) UploadTTL() time.Duration {
	return time.Duration(c.UploadURLTTLSeconds) * time.Second
}

// DownloadTTL returns the configured download presign lifetime.
func (c *ServerConfig) DownloadTTL() time.Duration {
	return time.Duration(c.DownloadURLTTLSeconds) * time.Second
}

// CleanupInterval returns the configured cleanup worker poll interval.
func (c *ServerConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// BuildPool creates a pgx connection pool from the configuration. Returns
// nil when the database type is memory.
func (c *ServerConfig) BuildPool(ctx context.Context) (*pgxpool.Pool, error) {
	if c.DatabaseType != "postgres" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// BuildRepository creates a Repository based on the configuration
func (c *ServerConfig) BuildRepository(pool *pgxpool.Pool) (filehub.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		if pool == nil {
			return nil, errors.New("postgres repository requires a connection pool")
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// BuildObjectStore creates an ObjectStore based on the configuration
func (c *ServerConfig) BuildObjectStore() (filehub.ObjectStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:          c.S3Region,
			Bucket:          c.S3Bucket,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretAccessKey,
			Endpoint:        c.S3Endpoint,
			UsePathStyle:    c.S3UsePathStyle,
		})
	case "minio":
		return miniostorage.New(miniostorage.Config{
			Endpoint:        c.MinioEndpoint,
			AccessKeyID:     c.MinioAccessKeyID,
			SecretAccessKey: c.MinioSecretAccessKey,
			Bucket:          c.MinioBucket,
			UseSSL:          c.MinioUseSSL,
			CreateBucket:    c.MinioCreateBucket,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}

// BuildService creates a Service instance from the server configuration.
// The returned pool is non-nil only for postgres and must be closed by the
// caller on shutdown.
func (c *ServerConfig) BuildService(ctx context.Context) (filehub.Service, *pgxpool.Pool, error) {
	pool, err := c.BuildPool(ctx)
	if err != nil {
		return nil, nil, err
	}

	repo, err := c.BuildRepository(pool)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.BuildObjectStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build object store: %w", err)
	}

	options := []filehub.Option{
		filehub.WithRepository(repo),
		filehub.WithObjectStore(store),
		filehub.WithUploadTTL(c.UploadTTL()),
		filehub.WithDownloadTTL(c.DownloadTTL()),
		filehub.WithMaxPageSize(c.MaxPageSize),
	}
	if c.DurableCleanup {
		options = append(options, filehub.WithCleanupQueue(cleanup.NewQueue(pool)))
	}

	svc, err := filehub.New(options...)
	if err != nil {
		return nil, nil, err
	}
	return svc, pool, nil
}

// PingPostgres verifies connectivity to Postgres.
func PingPostgres(databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
