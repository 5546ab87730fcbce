// Package cache wraps go-cache with typed accessors and a read-through layer
// that loads each missing key at most once.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"nutrition/internal/log"
)

// NoExpiration keeps entries until they are deleted or flushed.
const NoExpiration = gocache.NoExpiration

// Store is a typed view over a go-cache instance.
type Store[V any] struct {
	useCase string
	cache   *gocache.Cache
}

// NewStore creates a store. A cleanupInterval of 0 disables the janitor.
func NewStore[V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *Store[V] {
	return &Store[V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get retrieves an item from the cache by its key
func (s *Store[V]) Get(key string) (V, bool) {
	var zeroValue V

	value, found := s.cache.Get(key)
	if !found {
		return zeroValue, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatRegistry, "wrong type assertion when getting value", "cache", s.useCase, "key", key)
		return zeroValue, false
	}
	return v, true
}

func (s *Store[V]) Set(key string, value V) {
	s.cache.Set(key, value, gocache.DefaultExpiration)
}

func (s *Store[V]) Delete(keys ...string) {
	for _, key := range keys {
		s.cache.Delete(key)
	}
}

func (s *Store[V]) Flush() {
	s.cache.Flush()
}

func (s *Store[V]) Len() int {
	return s.cache.ItemCount()
}

func (s *Store[V]) UseCase() string {
	return s.useCase
}
