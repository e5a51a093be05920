package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/layerstack/pkg/observability"
)

// Observed wraps c so that every Get and Set is reported to the registered
// observability cache hooks. The key type reported is the segment before the
// hash ("document" or "render").
func Observed(c Cache) Cache {
	if _, ok := c.(*observed); ok {
		return c
	}
	return &observed{Cache: c}
}

type observed struct {
	Cache
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := o.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

func (o *observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

// Clear forwards to the wrapped backend when it supports clearing.
func (o *observed) Clear(ctx context.Context) (int, error) {
	if cl, ok := o.Cache.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return 0, nil
}

func keyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[len(parts)-2]
}
