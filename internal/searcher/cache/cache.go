// Package cache memoises search results for processes that host the engine
// and answer repeated queries. Keys include the content ID of the index, so
// swapping in a new index never serves results computed against the old one.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

const keyPrefix = "docsearch:"

// Store is the key/value backend. *pkgredis.Client implements it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a QueryCache over store. m may be nil.
func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, key string) (*executor.SearchResult, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		switch {
		case pkgredis.IsNilError(err):
		case errors.Is(err, resilience.ErrOpen):
			c.logger.Debug("cache bypassed", "key", key)
		default:
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.recordMiss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	c.logger.Debug("cache hit", "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, key string, result *executor.SearchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil && !errors.Is(err, resilience.ErrOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for key or runs computeFn once per
// key across concurrent callers and caches its result. Backend failures
// degrade to computing the result directly.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	key string,
	computeFn func() *executor.SearchResult,
) (*executor.SearchResult, bool) {
	if result, ok := c.Get(ctx, key); ok {
		return result, true
	}
	val, _, _ := c.group.Do(key, func() (interface{}, error) {
		result := computeFn()
		c.Set(ctx, key, result)
		return result, nil
	})
	return val.(*executor.SearchResult), false
}

// Invalidate deletes every cached result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BuildKey derives the cache key for running plan with opts against the
// index identified by indexID. Term order is preserved because it fixes the
// order of floating-point accumulation.
func BuildKey(indexID string, plan *parser.QueryPlan, opts executor.Options) string {
	categories := slices.Clone(opts.Categories)
	slices.Sort(categories)
	parts := []string{
		indexID,
		plan.Type.String(),
		strings.Join(plan.Terms, ","),
		"NOT:" + strings.Join(plan.ExcludeTerms, ","),
		"offset=" + strconv.Itoa(opts.Offset),
		"limit=" + strconv.Itoa(opts.Limit),
		"cat=" + strings.Join(categories, ","),
	}
	if opts.FieldWeights != nil {
		weights := make([]string, 0, len(opts.FieldWeights))
		for _, w := range opts.FieldWeights {
			weights = append(weights, strconv.FormatFloat(w, 'g', -1, 64))
		}
		parts = append(parts, "w="+strings.Join(weights, ","))
	}
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
