package fs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/vault-import/pkg/blob"
)

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, blob.DriverFilesystem, s.Driver())

	info, err := s.Put(ctx, "backups/run-1.json", strings.NewReader("hello"), blob.PutOptions{ContentType: "application/json"})
	require.NoError(t, err)
	require.Equal(t, int64(5), info.Size)
	require.FileExists(t, info.Location)

	got, rc, err := s.Get(ctx, "backups/run-1.json")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))
	require.Equal(t, "application/json", got.ContentType)

	_, err = s.Put(ctx, "backups/run-1.json", strings.NewReader("again"), blob.PutOptions{})
	require.ErrorIs(t, err, blob.ErrExists)
}

func TestStore_RejectsTraversal(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	for _, key := range []string{"", "../x", "/etc/passwd"} {
		_, err := s.Put(context.Background(), key, strings.NewReader("x"), blob.PutOptions{})
		require.Error(t, err, key)
	}
}
