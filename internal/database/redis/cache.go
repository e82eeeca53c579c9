package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ds124wfegd/assetrouter/internal/entity"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "edge:"

// CacheRepository is the Redis backed edge cache for origin objects.
type CacheRepository struct {
	client   redis.Cmdable
	maxBytes int64
}

func NewCacheRepository(client redis.Cmdable, maxBytes int64) *CacheRepository {
	return &CacheRepository{
		client:   client,
		maxBytes: maxBytes,
	}
}

func (r *CacheRepository) Get(ctx context.Context, key string) (*entity.CachedObject, error) {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, entity.ErrCacheMiss
		}
		return nil, err
	}

	var obj entity.CachedObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}

	return &obj, nil
}

func (r *CacheRepository) Set(ctx context.Context, key string, obj *entity.CachedObject, ttl time.Duration) error {
	if r.maxBytes > 0 && int64(len(obj.Body)) > r.maxBytes {
		return entity.ErrObjectTooLarge
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, keyPrefix+key, data, ttl).Err()
}

func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}
