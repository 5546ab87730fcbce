package cache

import (
	"context"

	"golang.org/x/sync/singleflight"

	"nutrition/internal/log"
)

// ReadThrough returns cached values and loads missing ones. Concurrent misses
// on the same key share a single load so only one value is ever stored.
type ReadThrough[V any] struct {
	store *Store[V]
	group singleflight.Group
}

func NewReadThrough[V any](store *Store[V]) *ReadThrough[V] {
	return &ReadThrough[V]{store: store}
}

func (r *ReadThrough[V]) Get(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := r.store.Get(key); ok {
		log.Debug(log.CatRegistry, "cache hit", "cache", r.store.UseCase(), "key", key)
		return v, nil
	}

	res, err, _ := r.group.Do(key, func() (any, error) {
		// Another caller may have stored the value between our miss and Do.
		if v, ok := r.store.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		r.store.Set(key, v)
		log.Debug(log.CatRegistry, "loaded", "cache", r.store.UseCase(), "key", key)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (r *ReadThrough[V]) Store() *Store[V] {
	return r.store
}
