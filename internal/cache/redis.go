package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stayfinder/config"
	"stayfinder/internal/domain"
)

type RedisCache struct {
	client            *redis.Client
	accommodationsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, accommodationsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:            redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		accommodationsTTL: accommodationsTTL,
	}
}

func (c *RedisCache) GetAccommodations(ctx context.Context) ([]domain.Accommodation, error) {
	data, err := c.client.Get(ctx, accommodationsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var accommodations []domain.Accommodation
	if err := json.Unmarshal(data, &accommodations); err != nil {
		return nil, err
	}
	return accommodations, nil
}

func (c *RedisCache) SetAccommodations(ctx context.Context, accommodations []domain.Accommodation) error {
	payload, err := json.Marshal(accommodations)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, accommodationsKey(), payload, c.accommodationsTTL).Err()
}

func (c *RedisCache) InvalidateAccommodations(ctx context.Context) error {
	return c.client.Del(ctx, accommodationsKey()).Err()
}

// AcquireAdmissionLock serializes the overlap check and the following insert
// for one accommodation across processes. The TTL is a safety bound in case
// the holder dies before releasing.
func (c *RedisCache) AcquireAdmissionLock(ctx context.Context, accommodationID int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, admissionLockKey(accommodationID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseAdmissionLock(ctx context.Context, accommodationID int64) error {
	return c.client.Del(ctx, admissionLockKey(accommodationID)).Err()
}

func accommodationsKey() string {
	return "cache:accommodations"
}

func admissionLockKey(accommodationID int64) string {
	return fmt.Sprintf("lock:accommodation:%d", accommodationID)
}
