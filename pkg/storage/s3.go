package storage

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

//S3Publisher uploads to an S3 compatible bucket
type S3Publisher struct {
	client *miniogo.Client
	bucket string
}

//NewS3Publisher connects to cfg.Endpoint and creates the bucket when it does not exist yet
func NewS3Publisher(ctx context.Context, cfg Config) (*S3Publisher, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, miniogo.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &S3Publisher{client: client, bucket: cfg.Bucket}, nil
}

func (p *S3Publisher) Put(ctx context.Context, key, localPath string) error {
	_, err := p.client.FPutObject(ctx, p.bucket, key, localPath, miniogo.PutObjectOptions{
		ContentType: contentType(localPath),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func contentType(localPath string) string {
	switch ext := filepath.Ext(localPath); ext {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
