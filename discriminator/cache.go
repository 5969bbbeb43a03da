package discriminator

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/speakeasy-api/serverlessworkflow/errors"
)

// Cache memoizes bindings per abstract type.
// Concurrent first requests for the same type may each build a binding; only one is kept and
// the others are discarded, which is harmless as builds are deterministic.
type Cache struct {
	universe *Universe
	policy   UnknownValuePolicy

	mu       sync.RWMutex
	bindings map[reflect.Type]*Binding
	builds   atomic.Int64
}

// Option configures a Cache.
type Option func(c *Cache)

// WithUnknownValuePolicy sets how unknown discriminator values are handled.
func WithUnknownValuePolicy(policy UnknownValuePolicy) Option {
	return func(c *Cache) {
		c.policy = policy
	}
}

// NewCache creates a binding cache over universe.
func NewCache(universe *Universe, opts ...Option) *Cache {
	c := &Cache{
		universe: universe,
		bindings: map[reflect.Type]*Binding{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCache = NewCache(defaultUniverse)

// DefaultCache returns the process wide cache over DefaultUniverse.
func DefaultCache() *Cache {
	return defaultCache
}

// Resolve returns the binding for the abstract type typ, building it on first use.
func (c *Cache) Resolve(typ reflect.Type) (*Binding, error) {
	c.mu.RLock()
	b, ok := c.bindings[typ]
	c.mu.RUnlock()
	if ok {
		return b, nil
	}

	decl, ok := c.universe.Lookup(typ)
	if !ok {
		return nil, &errors.MissingDiscriminatorBindingError{AbstractType: typ.String(), Reason: "no discriminator declared"}
	}

	built, err := buildBinding(decl, c.policy)
	if err != nil {
		return nil, err
	}
	c.builds.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.bindings[typ]; ok {
		return existing, nil
	}
	c.bindings[typ] = built

	return built, nil
}

// ResolveFor is Resolve for the abstract type T.
func ResolveFor[T any](c *Cache) (*Binding, error) {
	return c.Resolve(reflect.TypeOf((*T)(nil)).Elem())
}

// Len returns the number of memoized bindings.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bindings)
}

// Builds returns how many bindings have been constructed, including discarded duplicates.
func (c *Cache) Builds() int64 {
	return c.builds.Load()
}

// Clear drops all memoized bindings.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = map[reflect.Type]*Binding{}
}

type cacheKey struct{}

// ContextWithCache returns a context carrying c for use by decoders and encoders.
func ContextWithCache(ctx context.Context, c *Cache) context.Context {
	return context.WithValue(ctx, cacheKey{}, c)
}

// CacheFromContext returns the cache carried by ctx, or DefaultCache.
func CacheFromContext(ctx context.Context) *Cache {
	if ctx != nil {
		if c, ok := ctx.Value(cacheKey{}).(*Cache); ok && c != nil {
			return c
		}
	}
	return defaultCache
}
