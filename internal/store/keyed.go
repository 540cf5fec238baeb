package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyedConfig binds a Keyed store to its cache namespace and durable table.
type KeyedConfig struct {
	Namespace string
	Table     string
	// TTL of cache entries; zero means entries never expire on their own.
	TTL time.Duration
}

// Keyed is a write-through store for one entity kind: Redis in front of a
// Durable. It is the only writer of "<namespace>:*" cache keys.
//
// Writes go to the cache first and then, when asked, to the durable store.
// There is no transaction across the two: a failure between them leaves the
// cache ahead of the durable copy until the next persisting Set.
type Keyed[T Entity] struct {
	namespace string
	ttl       time.Duration
	cache     redis.Cmdable
	docs      *Collection[T]
}

func NewKeyed[T Entity](cfg KeyedConfig, cache redis.Cmdable, db Durable) *Keyed[T] {
	return &Keyed[T]{
		namespace: cfg.Namespace,
		ttl:       cfg.TTL,
		cache:     cache,
		docs:      NewCollection[T](cfg.Table, db),
	}
}

func (s *Keyed[T]) Namespace() string { return s.namespace }

func (s *Keyed[T]) TTL() time.Duration { return s.ttl }

func (s *Keyed[T]) cacheKey(key string) string {
	return s.namespace + ":" + key
}

// Get returns the cached value for key, or falls back to the durable store,
// matching key against the entity id or its lowercased name. A durable hit
// is not written back to the cache.
func (s *Keyed[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	data, err := s.cache.Get(ctx, s.cacheKey(key)).Bytes()
	switch {
	case err == nil:
		v, err := decode[T](data)
		if err != nil {
			return zero, fmt.Errorf("%s: decode cached %q: %w", s.namespace, key, err)
		}
		return v, nil
	case errors.Is(err, redis.Nil):
	default:
		return zero, unavailable(LayerCache, "get "+s.namespace, err)
	}

	return s.docs.FindByIDOrName(ctx, key)
}

// Set caches v under key and, if persist is true, upserts it into the
// durable store by v's own id. A cache failure aborts before the durable
// write.
func (s *Keyed[T]) Set(ctx context.Context, key string, v T, persist bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: encode %q: %w", s.namespace, key, err)
	}
	if err := s.cache.Set(ctx, s.cacheKey(key), data, s.ttl).Err(); err != nil {
		return unavailable(LayerCache, "set "+s.namespace, err)
	}
	if !persist {
		return nil
	}
	return s.docs.Save(ctx, v)
}

// Persist flushes the current value of key to the durable store without
// touching the cache.
func (s *Keyed[T]) Persist(ctx context.Context, key string) error {
	v, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return s.docs.Save(ctx, v)
}

// Delete removes key from the cache and the entity it resolves to from the
// durable store.
func (s *Keyed[T]) Delete(ctx context.Context, key string) error {
	v, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	keys := []string{s.cacheKey(key)}
	if id := v.EntityID(); id != key {
		keys = append(keys, s.cacheKey(id))
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		return unavailable(LayerCache, "delete "+s.namespace, err)
	}
	return s.docs.Delete(ctx, v.EntityID())
}

// Query lists durable entities; the cache is not consulted.
func (s *Keyed[T]) Query(ctx context.Context, filters ...Filter) ([]T, error) {
	return s.docs.List(ctx, filters...)
}
