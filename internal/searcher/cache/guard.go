package cache

import (
	"context"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

// guardedStore bounds every backend call by timeout and routes it through a
// breaker. Key-not-found replies count as healthy.
type guardedStore struct {
	next    Store
	breaker *resilience.Breaker
	timeout time.Duration
}

// Guard wraps store so an unreachable backend is skipped while br is open.
// A zero timeout leaves calls bounded only by the caller's context.
func Guard(store Store, br *resilience.Breaker, timeout time.Duration) Store {
	return &guardedStore{next: store, breaker: br, timeout: timeout}
}

func (g *guardedStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *guardedStore) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		data []byte
		miss error
	)
	err := g.breaker.Do(func() error {
		ctx, cancel := g.bound(ctx)
		defer cancel()
		v, err := g.next.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			miss = err
			return nil
		}
		data = v
		return err
	})
	if err != nil {
		return nil, err
	}
	if miss != nil {
		return nil, miss
	}
	return data, nil
}

func (g *guardedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.breaker.Do(func() error {
		ctx, cancel := g.bound(ctx)
		defer cancel()
		return g.next.Set(ctx, key, value, ttl)
	})
}

func (g *guardedStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := g.breaker.Do(func() error {
		var err error
		n, err = g.next.FlushByPattern(ctx, pattern)
		return err
	})
	return n, err
}
