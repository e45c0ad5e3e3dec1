package gateway

import (
	"context"
	"time"

	"cakery_api/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const tokenKeyPrefix = "payment:token:"

// refreshMargin is shaved off the advertised token lifetime so a cached
// token never reaches the gateway moments before expiring.
const refreshMargin = 30 * time.Second

// TokenCache caches gateway bearer tokens in Redis, keyed per gateway, with
// expiry-aware TTLs. Refreshes are guarded by singleflight so concurrent
// initiations trigger at most one token request per gateway.
type TokenCache struct {
	rdb   *redis.Client
	group singleflight.Group
}

func NewTokenCache(rdb *redis.Client) *TokenCache {
	return &TokenCache{rdb: rdb}
}

// Token returns a valid bearer token for gw, fetching and caching one when
// the cache misses.
func (c *TokenCache) Token(ctx context.Context, gw Gateway) (string, error) {
	key := tokenKeyPrefix + gw.Name()

	if cached := c.lookup(ctx, key); cached != "" {
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have refreshed while we waited on the group.
		if cached := c.lookup(ctx, key); cached != "" {
			return cached, nil
		}

		tok, err := gw.Authenticate(ctx)
		if err != nil {
			return nil, err
		}

		ttl := tok.ExpiresIn - refreshMargin
		if c.rdb != nil && ttl > 0 {
			if err := c.rdb.Set(ctx, key, tok.Value, ttl).Err(); err != nil {
				logger.Log.Warn("token cache write failed",
					zap.String("gateway", gw.Name()), zap.Error(err))
			}
		}
		return tok.Value, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *TokenCache) lookup(ctx context.Context, key string) string {
	if c.rdb == nil {
		return ""
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return ""
	}
	return val
}
