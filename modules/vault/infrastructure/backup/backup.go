package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/vault-import/pkg/blob"
	blobfs "github.com/iota-uz/vault-import/pkg/blob/fs"
	blobs3 "github.com/iota-uz/vault-import/pkg/blob/s3"
	"github.com/iota-uz/vault-import/pkg/configuration"
)

// Source is the part of the store a backup reads and a delete clears.
type Source interface {
	Dump(ctx context.Context, w io.Writer) error
	DeleteAll(ctx context.Context) error
}

// Service snapshots and clears the store on behalf of the importer.
type Service struct {
	source Source
	blobs  blob.Store
	prefix string
	now    func() time.Time
}

func NewService(source Source, blobs blob.Store, prefix string) *Service {
	return &Service{source: source, blobs: blobs, prefix: prefix, now: time.Now}
}

// BackupStore dumps the store into a new blob and returns its location.
func (s *Service) BackupStore(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := s.source.Dump(ctx, &buf); err != nil {
		return "", fmt.Errorf("dump store: %w", err)
	}
	key := path.Join(s.prefix, fmt.Sprintf("vault-%s-%s.jsonl",
		s.now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8]))
	info, err := s.blobs.Put(ctx, key, bytes.NewReader(buf.Bytes()), blob.PutOptions{
		ContentType: "application/x-ndjson",
		Metadata:    map[string]string{"kind": "vault-backup"},
	})
	if err != nil {
		return "", fmt.Errorf("store backup %s: %w", key, err)
	}
	return info.Location, nil
}

func (s *Service) DeleteStore(ctx context.Context) error {
	return s.source.DeleteAll(ctx)
}

// OpenBlobStore returns the blob driver selected by opts.
func OpenBlobStore(ctx context.Context, opts configuration.BackupOptions) (blob.Store, error) {
	switch blob.Driver(opts.Driver) {
	case blob.DriverS3:
		return blobs3.New(ctx, blobs3.Config{
			Region:    opts.Region,
			Bucket:    opts.Bucket,
			Endpoint:  opts.Endpoint,
			PathStyle: opts.PathStyle,
		})
	case blob.DriverFilesystem, "":
		return blobfs.New(opts.Dir)
	default:
		return nil, fmt.Errorf("unsupported backup driver %q", opts.Driver)
	}
}
