package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"PairStream/internal/domain/models"
	domrepo "PairStream/internal/domain/repository"
)

const (
	livePriceTTL  = 60 * time.Second
	liveTickLimit = 1000
)

// RedisLiveCache implements LiveCache on Redis: a string key per latest
// price and a capped list per symbol for recent ticks.
type RedisLiveCache struct {
	client *redis.Client
	prefix string
}

// NewRedisLiveCache wraps an existing Redis client.
func NewRedisLiveCache(client *redis.Client, prefix string) domrepo.LiveCache {
	if prefix == "" {
		prefix = "pairstream"
	}
	return &RedisLiveCache{client: client, prefix: prefix}
}

func (c *RedisLiveCache) priceKey(symbol string) string {
	return fmt.Sprintf("%s:price:%s", c.prefix, symbol)
}

func (c *RedisLiveCache) ticksKey(symbol string) string {
	return fmt.Sprintf("%s:ticks:%s", c.prefix, symbol)
}

func (c *RedisLiveCache) SetLatestPrice(ctx context.Context, symbol string, price float64) error {
	return c.client.Set(ctx, c.priceKey(symbol), strconv.FormatFloat(price, 'f', -1, 64), livePriceTTL).Err()
}

func (c *RedisLiveCache) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	v, err := c.client.Get(ctx, c.priceKey(symbol)).Result()
	if err != nil {
		return 0, fmt.Errorf("latest price %s: %w", symbol, err)
	}
	return strconv.ParseFloat(v, 64)
}

func (c *RedisLiveCache) PushTick(ctx context.Context, t *models.Tick) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	key := c.ticksKey(t.Symbol)
	pipe := c.client.Pipeline()
	pipe.LPush(ctx, key, b)
	pipe.LTrim(ctx, key, 0, liveTickLimit-1)
	pipe.Expire(ctx, key, time.Hour)
	_, err = pipe.Exec(ctx)
	return err
}

// RecentTicks returns up to count recent ticks, oldest first.
func (c *RedisLiveCache) RecentTicks(ctx context.Context, symbol string, count int) ([]*models.Tick, error) {
	if count <= 0 || count > liveTickLimit {
		count = liveTickLimit
	}
	raw, err := c.client.LRange(ctx, c.ticksKey(symbol), 0, int64(count-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("recent ticks %s: %w", symbol, err)
	}
	// list head is newest; reverse to oldest-first
	out := make([]*models.Tick, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var t models.Tick
		if err := json.Unmarshal([]byte(raw[i]), &t); err != nil {
			continue
		}
		out = append(out, &t)
	}
	return out, nil
}

func (c *RedisLiveCache) Close() error { return nil }
