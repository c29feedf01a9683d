package preferences

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/vault-import/modules/vault/domain/manager"
	"github.com/iota-uz/vault-import/pkg/configuration"
)

func TestFilePreferences_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	p := NewFilePreferences(path)

	rule, err := p.ManagerRule(ctx)
	require.NoError(t, err)
	require.Equal(t, manager.Undetermined, rule)

	require.NoError(t, p.SetManagerRule(ctx, manager.ContractBased))
	rule, err = NewFilePreferences(path).ManagerRule(ctx)
	require.NoError(t, err)
	require.Equal(t, manager.ContractBased, rule)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "manager_rule: contract")
}

func TestFilePreferences_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("manager_rule: [oops"), 0o600))
	_, err := NewFilePreferences(path).ManagerRule(context.Background())
	require.Error(t, err)
}

func TestOpen_File(t *testing.T) {
	p, closeFn, err := Open(context.Background(), configuration.PreferencesOptions{
		Driver: "file",
		Path:   filepath.Join(t.TempDir(), "p.yaml"),
	})
	require.NoError(t, err)
	defer closeFn()
	require.IsType(t, &FilePreferences{}, p)

	_, _, err = Open(context.Background(), configuration.PreferencesOptions{Driver: "etcd"})
	require.Error(t, err)
}

func TestRedisPreferences_RoundTrip(t *testing.T) {
	addr := os.Getenv("VAULT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VAULT_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	key := "vault:test:" + t.Name()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	p := NewRedisPreferences(client, key)
	rule, err := p.ManagerRule(ctx)
	require.NoError(t, err)
	require.Equal(t, manager.Undetermined, rule)

	require.NoError(t, p.SetManagerRule(ctx, manager.DepartmentBased))
	rule, err = p.ManagerRule(ctx)
	require.NoError(t, err)
	require.Equal(t, manager.DepartmentBased, rule)
}
