// Package storage writes files to a named disk. Two drivers exist:
//
//   - "local": a directory on the host
//   - "s3":    an S3-compatible bucket (AWS S3, MinIO, R2)
//
// Receipts are archived through Open(), which picks the disk named by
// STORAGE_DISK.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/apotek/config"
)

var ErrNotExist = errors.New("storage: file does not exist")

// Disk is a flat key/value file store. Paths use forward slashes.
type Disk interface {
	Put(ctx context.Context, path string, content []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// Open returns the disk selected by STORAGE_DISK.
func Open(ctx context.Context) (Disk, error) {
	switch name := config.StorageDefault(); name {
	case "local":
		return NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())
	case "s3":
		return NewS3Disk(ctx, S3Options{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
	default:
		return nil, fmt.Errorf("storage: unknown disk %q", name)
	}
}
