package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iota-uz/vault-import/pkg/blob"
)

// Store keeps blobs as files under root with a .meta sidecar holding content type and metadata.
type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if root == "" {
		root = "./backups"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Store{root: abs}, nil
}

func (s *Store) Driver() blob.Driver { return blob.DriverFilesystem }

func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

type metaFile struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return blob.Info{}, err
	}
	dataPath := filepath.Join(s.root, filepath.FromSlash(k))
	if _, err := os.Stat(dataPath); err == nil {
		return blob.Info{}, fmt.Errorf("%w: %s", blob.ErrExists, key)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return blob.Info{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return blob.Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	size, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return blob.Info{}, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return blob.Info{}, err
	}
	if err := tmp.Close(); err != nil {
		return blob.Info{}, err
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return blob.Info{}, err
	}

	now := time.Now().UTC()
	meta := metaFile{ContentType: opts.ContentType, Metadata: opts.Metadata, Size: size, CreatedAt: now}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return blob.Info{}, err
	}
	if err := os.WriteFile(dataPath+".meta", b, 0o644); err != nil {
		return blob.Info{}, err
	}
	return blob.Info{
		Key:          k,
		Size:         size,
		ContentType:  opts.ContentType,
		Metadata:     opts.Metadata,
		LastModified: now,
		Location:     dataPath,
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return blob.Info{}, nil, err
	}
	dataPath := filepath.Join(s.root, filepath.FromSlash(k))
	f, err := os.Open(dataPath)
	if err != nil {
		return blob.Info{}, nil, err
	}
	var meta metaFile
	if b, err := os.ReadFile(dataPath + ".meta"); err == nil {
		if err := json.Unmarshal(b, &meta); err != nil {
			_ = f.Close()
			return blob.Info{}, nil, err
		}
	}
	return blob.Info{
		Key:          k,
		Size:         meta.Size,
		ContentType:  meta.ContentType,
		Metadata:     meta.Metadata,
		LastModified: meta.CreatedAt,
		Location:     dataPath,
	}, f, nil
}
