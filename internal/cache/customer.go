package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/umalmyha/customers-kyc/internal/model"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	customerKeyPrefix   = "customer:"
	generationKeySuffix = ":gen"
)

// cacheIfGeneration stores entry only when no eviction happened since generation was read
var cacheIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if not gen then
	gen = '0'
end
if gen ~= ARGV[2] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// CustomerCache is read-through cache of customer records. Missing entry is reported as nil customer.
// Every eviction bumps customer generation, so record read from store before an eviction is never cached after it.
type CustomerCache interface {
	FindByID(context.Context, string) (*model.Customer, error)
	EvictByID(context.Context, string) error
	Generation(context.Context, string) (int64, error)
	Cache(context.Context, *model.Customer, int64) error
}

type redisCustomerCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCustomerCache(client *redis.Client, ttl time.Duration) CustomerCache {
	return &redisCustomerCache{client: client, ttl: ttl}
}

func (r *redisCustomerCache) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	res, err := r.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var c model.Customer
	if err := msgpack.Unmarshal(res, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cached customer %s - %w", id, err)
	}

	// msgpack restores timestamps in local time zone
	c.DateOfBirth = c.DateOfBirth.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// EvictByID drops cached entry and bumps customer generation
func (r *redisCustomerCache) EvictByID(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key(id))
		pipe.Incr(ctx, generationKey(id))
		pipe.PExpire(ctx, generationKey(id), r.ttl)
		return nil
	})
	return err
}

// Generation returns current customer generation, it must be read before customer is loaded from store
func (r *redisCustomerCache) Generation(ctx context.Context, id string) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return gen, nil
}

// Cache stores customer unless it was evicted after generation had been read
func (r *redisCustomerCache) Cache(ctx context.Context, c *model.Customer, generation int64) error {
	encoded, err := msgpack.Marshal(c)
	if err != nil {
		return err
	}

	keys := []string{key(c.ID), generationKey(c.ID)}
	return cacheIfGeneration.Run(ctx, r.client, keys, encoded, strconv.FormatInt(generation, 10), r.ttl.Milliseconds()).Err()
}

func key(id string) string {
	return customerKeyPrefix + id
}

func generationKey(id string) string {
	return customerKeyPrefix + id + generationKeySuffix
}
