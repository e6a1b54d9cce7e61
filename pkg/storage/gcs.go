package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
)

//GCSPublisher uploads to a Google Cloud Storage bucket using application default credentials
type GCSPublisher struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
}

func NewGCSPublisher(ctx context.Context, cfg Config) (*GCSPublisher, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSPublisher{client: client, bucket: client.Bucket(cfg.Bucket)}, nil
}

func (p *GCSPublisher) Put(ctx context.Context, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := p.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType(localPath)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

//Close releases the underlying client
func (p *GCSPublisher) Close() error {
	return p.client.Close()
}
