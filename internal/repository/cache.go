package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// TTL кэша снимка подписки
const userCacheTTL = 15 * time.Minute

const userCacheKeyPrefix = "user:"

// UserCache кэш снимков записи пользователя
type UserCache interface {
	Get(ctx context.Context, uid string) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
	Invalidate(ctx context.Context, uid string) error
}

// RedisUserCache реализация UserCache поверх Redis
type RedisUserCache struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisUserCache создает кэш
func NewRedisUserCache(client *redis.Client, log *logger.Logger) *RedisUserCache {
	return &RedisUserCache{client: client, log: log}
}

// Get возвращает снимок из кэша; промах — (nil, nil)
func (c *RedisUserCache) Get(ctx context.Context, uid string) (*domain.User, error) {
	data, err := c.client.Get(ctx, userCacheKeyPrefix+uid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		// Битый снимок выбрасываем и идем в базу
		c.log.Warnw("Dropping corrupted user cache entry", "uid", uid, "error", err)
		_ = c.client.Del(ctx, userCacheKeyPrefix+uid).Err()
		return nil, nil
	}

	return &user, nil
}

// Set записывает снимок с TTL
func (c *RedisUserCache) Set(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, userCacheKeyPrefix+user.UID, data, userCacheTTL).Err()
}

// Invalidate удаляет снимок
func (c *RedisUserCache) Invalidate(ctx context.Context, uid string) error {
	return c.client.Del(ctx, userCacheKeyPrefix+uid).Err()
}
