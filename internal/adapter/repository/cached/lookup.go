package cached

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ledger-service/internal/adapter/cache"
)

type lookupResult[T any] struct {
	value T
	found bool
}

// lookup reads id through c using the cache-aside pattern. Concurrent misses for the
// same id share one call to load. Cache failures fall back to load; absent rows are
// not cached.
func lookup[T any](
	ctx context.Context,
	c cache.Cache[T],
	group *singleflight.Group,
	log *zap.Logger,
	prefix string,
	id int64,
	load func(ctx context.Context, id int64) (T, bool, error),
) (T, bool, error) {
	if c != nil {
		v, found, err := c.Get(ctx, id)
		if err != nil {
			log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		} else if found {
			return v, true, nil
		}
	}

	res, err, _ := group.Do(fmt.Sprintf("%s:%d", prefix, id), func() (any, error) {
		// another caller may have filled the cache while this one waited
		if c != nil {
			if v, found, err := c.Get(ctx, id); err == nil && found {
				return lookupResult[T]{value: v, found: true}, nil
			}
		}

		v, found, err := load(ctx, id)
		if err != nil {
			return nil, err
		}
		if found && c != nil {
			if err := c.Set(ctx, id, v); err != nil {
				log.Warn("failed to populate cache", zap.Int64("id", id), zap.Error(err))
			}
		}
		return lookupResult[T]{value: v, found: found}, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}

	r := res.(lookupResult[T])
	return r.value, r.found, nil
}

// invalidate drops ids from c, logging failures.
func invalidate[T any](ctx context.Context, c cache.Cache[T], log *zap.Logger, ids ...int64) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, ids...); err != nil {
		log.Warn("failed to invalidate cache", zap.Int64s("ids", ids), zap.Error(err))
	}
}
