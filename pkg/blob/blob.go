// Package blob defines the object storage used for import backups.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

var ErrExists = errors.New("blob already exists")

type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored blob. Location is where an operator finds it:
// a file path or an s3:// URL.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	Location     string            `json:"location"`
}

// Store is a create-only object store.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Driver() Driver
}
