package preferences

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/vault-import/modules/vault/domain/manager"
)

const (
	fieldManagerRule = "manager_rule"
	fieldDetectedAt  = "detected_at"
)

// RedisPreferences keeps preferences in one Redis hash.
type RedisPreferences struct {
	redis *redis.Client
	key   string
}

var _ manager.Preferences = (*RedisPreferences)(nil)

func NewRedisPreferences(client *redis.Client, key string) *RedisPreferences {
	if key == "" {
		key = "vault:preferences"
	}
	return &RedisPreferences{redis: client, key: key}
}

func (p *RedisPreferences) ManagerRule(ctx context.Context) (manager.Rule, error) {
	v, err := p.redis.HGet(ctx, p.key, fieldManagerRule).Result()
	if errors.Is(err, redis.Nil) {
		return manager.Undetermined, nil
	}
	if err != nil {
		return manager.Undetermined, err
	}
	return manager.ParseRule(v)
}

func (p *RedisPreferences) SetManagerRule(ctx context.Context, rule manager.Rule) error {
	return p.redis.HSet(ctx, p.key,
		fieldManagerRule, string(rule),
		fieldDetectedAt, time.Now().UTC().Format(time.RFC3339),
	).Err()
}
