package httpapi

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	refreshFetchTimeout = 15 * time.Second
	cacheWriteTimeout   = 5 * time.Second
)

// readThrough coordinates cached reads for a single key. Hits schedule a
// refresh-ahead fetch so the entry stays warm; misses collapse concurrent
// loaders onto one fetch via singleflight.
type readThrough[T any] struct {
	cache  Cacher
	sf     *singleflight.Group
	key    string
	ttl    time.Duration
	logger *zap.Logger
	fetch  func(ctx context.Context) (T, error)
}

func (rt readThrough[T]) Load(ctx context.Context) (T, error) {
	var zero T
	if rt.logger == nil {
		rt.logger = zap.NewNop()
	}

	var cached T
	err := rt.cache.Get(ctx, rt.key, &cached)
	switch {
	case err == nil:
		rt.logger.Debug("cache hit", zap.String("key", rt.key))
		rt.refreshAhead()
		return cached, nil

	case errors.Is(err, redis.Nil):
		rt.logger.Debug("cache miss", zap.String("key", rt.key))

	default:
		rt.logger.Warn("cache get error (treating as miss)", zap.String("key", rt.key), zap.Error(err))
	}

	v, err, shared := rt.sf.Do(rt.key, func() (any, error) {
		return rt.loadAndPopulate(ctx)
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		rt.logger.Error("singleflight type mismatch", zap.String("key", rt.key))
		return zero, fmt.Errorf("type mismatch for key %q", rt.key)
	}

	if shared {
		rt.logger.Debug("singleflight shared result", zap.String("key", rt.key))
	}

	return value, nil
}

// loadAndPopulate fetches the value and writes it back asynchronously so the
// caller never waits on the cache.
func (rt readThrough[T]) loadAndPopulate(ctx context.Context) (T, error) {
	var zero T

	value, err := rt.fetch(ctx)
	if err != nil {
		rt.logger.Error("fetch failed", zap.String("key", rt.key), zap.Error(err))
		return zero, err
	}

	go func(v T) {
		setCtx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()

		if err := rt.cache.Set(setCtx, rt.key, v, rt.jitteredTTL()); err != nil {
			rt.logger.Warn("failed to set cache on miss", zap.String("key", rt.key), zap.Error(err))
		} else {
			rt.logger.Debug("cache populated on miss", zap.String("key", rt.key))
		}
	}(value)

	return value, nil
}

// refreshAhead re-fetches a hit entry in the background after a small random
// delay. The delay plus the refresh singleflight key keeps a burst of hits
// from stampeding the loader.
func (rt readThrough[T]) refreshAhead() {
	go func() {
		time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)

		_, _, _ = rt.sf.Do(rt.key+":refresh", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), refreshFetchTimeout)
			defer cancel()

			value, err := rt.fetch(ctx)
			if err != nil {
				rt.logger.Warn("background refresh failed",
					zap.String("key", rt.key),
					zap.Error(err))
				return nil, err
			}

			setCtx, cancelSet := context.WithTimeout(context.Background(), cacheWriteTimeout)
			defer cancelSet()

			ttl := rt.jitteredTTL()
			if err := rt.cache.Set(setCtx, rt.key, value, ttl); err != nil {
				rt.logger.Warn("failed to update cache in background",
					zap.String("key", rt.key),
					zap.Error(err))
			} else {
				rt.logger.Debug("cache refreshed in background",
					zap.String("key", rt.key),
					zap.Duration("ttl", ttl))
			}

			return value, nil
		})
	}()
}

// jitteredTTL spreads expirations by up to ±15s so warm entries do not all
// lapse on the same tick.
func (rt readThrough[T]) jitteredTTL() time.Duration {
	if rt.ttl <= 0 {
		return rt.ttl
	}
	jitter := time.Duration(rand.Intn(30)-15) * time.Second
	return rt.ttl + jitter
}
