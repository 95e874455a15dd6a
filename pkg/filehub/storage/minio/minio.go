package minio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/filehub/filehub/pkg/filehub"
)

// Config options for the MinIO backend
type Config struct {
	Endpoint        string // MinIO server host:port
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	CreateBucket    bool // Create the bucket if it doesn't exist
}

// Backend is a MinIO implementation of the filehub.ObjectStore interface,
// for S3-compatible deployments that are reached through the MinIO client.
type Backend struct {
	client *minio.Client
	bucket string
}

// New creates a new MinIO object store
func New(config Config) (filehub.ObjectStore, error) {
	if config.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	if config.CreateBucket {
		ctx := context.Background()
		exists, err := client.BucketExists(ctx, config.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to check bucket existence: %w", err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, config.Bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("failed to create bucket: %w", err)
			}
		}
	}

	return &Backend{client: client, bucket: config.Bucket}, nil
}

// PresignUpload returns a presigned PUT URL for the given key. The MinIO
// presign API does not bind the content type into the signature; the declared
// type is advisory for MinIO deployments.
func (b *Backend) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	u, err := b.client.PresignedPutObject(ctx, b.bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}
	return u.String(), nil
}

// PresignDownload returns a presigned GET URL for the given key, overriding
// the response content type and disposition.
func (b *Backend) PresignDownload(ctx context.Context, key string, ttl time.Duration, responseContentType, responseDisposition string) (string, error) {
	reqParams := make(url.Values)
	if responseContentType != "" {
		reqParams.Set("response-content-type", responseContentType)
	}
	if responseDisposition != "" {
		reqParams.Set("response-content-disposition", responseDisposition)
	}

	u, err := b.client.PresignedGetObject(ctx, b.bucket, key, ttl, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return u.String(), nil
}

// StatObject retrieves metadata for an object in MinIO
func (b *Backend) StatObject(ctx context.Context, key string) (*filehub.ObjectStat, error) {
	info, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return nil, filehub.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object metadata: %w", err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = filehub.DefaultContentType
	}

	return &filehub.ObjectStat{
		Key:         key,
		SizeBytes:   info.Size,
		ContentType: contentType,
		ETag:        info.ETag,
		UpdatedAt:   info.LastModified,
	}, nil
}

// DeleteObject deletes an object from MinIO
func (b *Backend) DeleteObject(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete from MinIO: %w", err)
	}
	return nil
}
