package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISABLE_AUTH", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, 10*time.Minute, cfg.UploadTTL())
	assert.Equal(t, 5*time.Minute, cfg.DownloadTTL())
	assert.Equal(t, 100, cfg.MaxPageSize)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("UPLOAD_URL_TTL_SECONDS", "120")
	t.Setenv("MAX_PAGE_SIZE", "25")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Minute, cfg.UploadTTL())
	assert.Equal(t, 25, cfg.MaxPageSize)
}

func TestValidate(t *testing.T) {
	base := func() ServerConfig {
		return ServerConfig{
			Port:                  "8080",
			DatabaseType:          "memory",
			StorageType:           "memory",
			UploadURLTTLSeconds:   600,
			DownloadURLTTLSeconds: 300,
			MaxPageSize:           100,
			DisableAuth:           true,
		}
	}

	t.Run("valid", func(t *testing.T) {
		cfg := base()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("postgres requires url", func(t *testing.T) {
		cfg := base()
		cfg.DatabaseType = "postgres"
		assert.Error(t, cfg.Validate())
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		cfg := base()
		cfg.StorageType = "s3"
		assert.Error(t, cfg.Validate())
	})

	t.Run("minio requires endpoint and bucket", func(t *testing.T) {
		cfg := base()
		cfg.StorageType = "minio"
		cfg.MinioBucket = "files"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown storage type", func(t *testing.T) {
		cfg := base()
		cfg.StorageType = "tape"
		assert.Error(t, cfg.Validate())
	})

	t.Run("durable cleanup requires postgres", func(t *testing.T) {
		cfg := base()
		cfg.DurableCleanup = true
		assert.Error(t, cfg.Validate())
	})

	t.Run("durable cleanup requires external storage", func(t *testing.T) {
		cfg := base()
		cfg.DurableCleanup = true
		cfg.DatabaseType = "postgres"
		cfg.DatabaseURL = "postgres://localhost/filehub"
		assert.Error(t, cfg.Validate())

		cfg.StorageType = "s3"
		cfg.S3Bucket = "files"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("auth requires secret", func(t *testing.T) {
		cfg := base()
		cfg.DisableAuth = false
		assert.Error(t, cfg.Validate())

		cfg.JWTSecret = "s3cret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		cfg := base()
		cfg.DownloadURLTTLSeconds = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestBuildServiceMemory(t *testing.T) {
	t.Setenv("DISABLE_AUTH", "true")

	cfg, err := Load()
	require.NoError(t, err)

	svc, pool, err := cfg.BuildService(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, svc)
	assert.Nil(t, pool)
}
