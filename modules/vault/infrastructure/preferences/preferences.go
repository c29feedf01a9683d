package preferences

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/vault-import/modules/vault/domain/manager"
	"github.com/iota-uz/vault-import/pkg/configuration"
)

// Open returns the preferences backend selected by opts and a function releasing it.
func Open(ctx context.Context, opts configuration.PreferencesOptions) (manager.Preferences, func(), error) {
	switch opts.Driver {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: opts.RedisURL})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return NewRedisPreferences(client, opts.RedisKey), func() { _ = client.Close() }, nil
	case "file", "":
		return NewFilePreferences(opts.Path), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported preferences driver %q", opts.Driver)
	}
}
