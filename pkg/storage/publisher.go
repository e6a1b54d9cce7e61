package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/chenBenjamin97/ballannotate/pkg/metrics"
	"github.com/chenBenjamin97/ballannotate/pkg/utils"
	"github.com/chenBenjamin97/ballannotate/pkg/video"
)

const (
	SchemeS3   = "s3"
	SchemeGCS  = "gs"
	SchemeFile = "file"
)

//TablesPrefix is the key prefix tables are published under, below Config.Prefix
const TablesPrefix = "tables"

var ErrUnknownScheme = errors.New("unknown storage scheme")

//Publisher uploads one local file to object storage under key
type Publisher interface {
	Put(ctx context.Context, key, localPath string) error
}

type Config struct {
	Scheme    string
	Bucket    string
	Prefix    string
	Publish   bool
	Endpoint  string //s3 only
	AccessKey string //s3 only
	SecretKey string //s3 only
	UseSSL    bool   //s3 only
}

//NewPublisher returns the publisher matching cfg.Scheme, or nil when publishing is disabled
func NewPublisher(ctx context.Context, cfg Config) (Publisher, error) {
	if !cfg.Publish {
		return nil, nil
	}

	switch cfg.Scheme {
	case SchemeS3:
		pub, err := NewS3Publisher(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return pub, nil
	case SchemeGCS:
		pub, err := NewGCSPublisher(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return pub, nil
	case SchemeFile:
		return NewDirPublisher(filepath.Join(cfg.Bucket, cfg.Prefix)), nil
	default:
		return nil, fmt.Errorf("NewPublisher: '%v': %w", cfg.Scheme, ErrUnknownScheme)
	}
}

//AnnotationKey is the object key of one per-frame annotation file of seq
func AnnotationKey(prefix string, seq video.Sequence, name string) string {
	return path.Join(prefix, seq.Relative+utils.AnnotationDirSuffix, name)
}

//TableKey is the object key of a sequence table
func TableKey(prefix, tablePath string) string {
	return path.Join(prefix, TablesPrefix, filepath.Base(tablePath))
}

//PublishSequence uploads the annotation files and the table of a processed sequence.
//Returns how many objects were uploaded.
func PublishSequence(ctx context.Context, pub Publisher, prefix string, res *video.SequenceResult) (int, error) {
	if pub == nil || res == nil {
		return 0, nil
	}

	seq := res.Sequence
	names, err := utils.ListDir(seq.AnnotationDir)
	if err != nil {
		return 0, err
	}

	uploaded := 0
	for _, name := range names {
		if !strings.EqualFold(filepath.Ext(name), ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}
		if err := pub.Put(ctx, AnnotationKey(prefix, seq, name), filepath.Join(seq.AnnotationDir, name)); err != nil {
			return uploaded, fmt.Errorf("PublishSequence: Error uploading '%v', got '%w'", name, err)
		}
		uploaded++
		metrics.PublishedObjectsTotal.Inc()
	}

	if res.Table != nil {
		if err := pub.Put(ctx, TableKey(prefix, res.Table.TablePath), res.Table.TablePath); err != nil {
			return uploaded, fmt.Errorf("PublishSequence: Error uploading table, got '%w'", err)
		}
		uploaded++
		metrics.PublishedObjectsTotal.Inc()
	}

	return uploaded, nil
}
