package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/md-ataur/watch-redux-server/shared/pkg/cache"
)

// AdminCache is a cache-aside layer in front of the admin-status lookup.
// A nil *AdminCache is valid and caches nothing. Redis errors degrade to a
// miss.
type AdminCache struct {
	Redis *cache.Redis
	TTL   time.Duration
}

func adminKey(email string) string { return "user:admin:" + email }

func (c *AdminCache) Lookup(ctx context.Context, log zerolog.Logger, email string) (admin bool, ok bool) {
	if c == nil || c.Redis == nil {
		return false, false
	}
	v, err := c.Redis.GetString(ctx, adminKey(email))
	if errors.Is(err, redis.Nil) {
		return false, false
	}
	if err != nil {
		log.Warn().Err(err).Msg("admin cache get failed")
		return false, false
	}
	return v == "1", true
}

func (c *AdminCache) Remember(ctx context.Context, log zerolog.Logger, email string, admin bool) {
	if c == nil || c.Redis == nil {
		return
	}
	v := "0"
	if admin {
		v = "1"
	}
	if err := c.Redis.SetString(ctx, adminKey(email), v, c.TTL); err != nil {
		log.Warn().Err(err).Msg("admin cache set failed")
	}
}

func (c *AdminCache) Forget(ctx context.Context, log zerolog.Logger, email string) {
	if c == nil || c.Redis == nil {
		return
	}
	if err := c.Redis.Del(ctx, adminKey(email)); err != nil {
		log.Warn().Err(err).Msg("admin cache delete failed")
	}
}
