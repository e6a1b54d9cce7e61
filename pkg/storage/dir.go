package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

//DirPublisher mirrors objects into a local directory, keys become relative paths.
//Used for the 'file' scheme, e.g. a mounted bucket.
type DirPublisher struct {
	root string
}

func NewDirPublisher(root string) *DirPublisher {
	return &DirPublisher{root: root}
}

func (p *DirPublisher) Put(ctx context.Context, key, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dst := filepath.Join(p.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", key, err)
	}
	return out.Close()
}
