package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"photomap/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is a Redis-backed read-through wrapper around a Resolver. A
// cache failure degrades to a delegate call; it never fails the lookup.
type Cache struct {
	delegate Resolver
	rdb      *redis.Client
	ttl      time.Duration
	log      *zap.Logger
}

func NewCache(delegate Resolver, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *Cache {
	return &Cache{delegate: delegate, rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("geocode:%.6f,%.6f", lat, lng)
}

func (c *Cache) ReverseGeocode(ctx context.Context, lat, lng float64) (model.Place, error) {
	key := cacheKey(lat, lng)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		var place model.Place
		if err := json.Unmarshal([]byte(cached), &place); err == nil {
			c.log.Debug("geocode cache hit", zap.String("key", key))
			return place, nil
		}
	} else if err != redis.Nil {
		c.log.Warn("geocode cache read failed", zap.String("key", key), zap.Error(err))
	}

	place, err := c.delegate.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return model.Place{}, err
	}

	if data, err := json.Marshal(place); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return place, nil
}
