package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
)

type Option func(*Engine)

// WithCache makes Search consult c before executing a query.
func WithCache(c *cache.QueryCache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// active is the index currently served together with its content ID.
type active struct {
	ix *index.Index
	id string
}

// Engine owns the tokenizer shared by index building and query parsing and
// serves searches against one active Index. Swapping the index is a single
// atomic store; searches in flight keep using the index they started with.
type Engine struct {
	cfg      *config.Config
	tok      *tokenizer.Tokenizer
	executor *executor.Executor
	current  atomic.Pointer[active]
	cache    *cache.QueryCache
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewEngine(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		tok:      tokenizer.New(cfg.Tokenizer),
		executor: executor.New(ranker.ParamsFromConfig(cfg.Ranking)),
		logger:   slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Tokenizer() *tokenizer.Tokenizer {
	return e.tok
}

// Build indexes docs with the engine's tokenizer without activating the
// result.
func (e *Engine) Build(docs []index.Document) (*index.Index, error) {
	start := time.Now()
	ix, err := index.Build(docs, e.tok)
	if err != nil {
		e.recordBuild("error", 0, time.Since(start))
		return nil, fmt.Errorf("building index: %w", err)
	}
	e.recordBuild("ok", ix.DocCount(), time.Since(start))
	e.logger.Info("index built",
		"docs", ix.DocCount(),
		"terms", ix.TermCount(),
		"duration", time.Since(start),
	)
	return ix, nil
}

// Rebuild builds a new index from docs and activates it. On failure the
// previously active index stays in place.
func (e *Engine) Rebuild(docs []index.Document) error {
	ix, err := e.Build(docs)
	if err != nil {
		return err
	}
	return e.Swap(ix)
}

// Swap activates ix. It fails with ErrTokenizerMismatch when ix was built
// with a different tokenizer configuration than the engine parses queries
// with.
func (e *Engine) Swap(ix *index.Index) error {
	if got, want := ix.TokenizerFingerprint(), e.tok.Fingerprint(); got != want {
		return fmt.Errorf("%w: index built with %s, engine uses %s",
			apperrors.ErrTokenizerMismatch, got, want)
	}
	next := &active{ix: ix}
	if e.cache != nil {
		id, err := contentID(ix)
		if err != nil {
			return fmt.Errorf("computing index id: %w", err)
		}
		next.id = id
	}
	prev := e.current.Swap(next)
	if e.metrics != nil {
		e.metrics.ActiveIndexDocs.Set(float64(ix.DocCount()))
		e.metrics.ActiveIndexTerms.Set(float64(ix.TermCount()))
	}
	prevDocs := 0
	if prev != nil {
		prevDocs = prev.ix.DocCount()
	}
	e.logger.Info("index activated",
		"docs", ix.DocCount(),
		"terms", ix.TermCount(),
		"previous_docs", prevDocs,
	)
	return nil
}

// Load decodes a serialized index and activates it.
func (e *Engine) Load(data []byte) error {
	ix, err := segment.Decode(data)
	if err != nil {
		e.recordLoad("error")
		return fmt.Errorf("decoding index: %w", err)
	}
	if err := e.Swap(ix); err != nil {
		e.recordLoad("error")
		return err
	}
	e.recordLoad("ok")
	return nil
}

func (e *Engine) LoadFile(path string) error {
	ix, err := segment.ReadFile(path)
	if err != nil {
		e.recordLoad("error")
		return err
	}
	if err := e.Swap(ix); err != nil {
		e.recordLoad("error")
		return err
	}
	e.recordLoad("ok")
	e.logger.Info("index loaded", "path", path)
	return nil
}

// Current returns the active index, or nil before the first Swap.
func (e *Engine) Current() *index.Index {
	if a := e.current.Load(); a != nil {
		return a.ix
	}
	return nil
}

// Search parses query with the engine's tokenizer and runs it against the
// active index. Without an active index the result is empty.
//
// Unlike executor.Execute, Engine results are always capped: a Limit of 0 or
// less means search.defaultLimit, and any Limit is clamped to
// search.maxResults when that is positive. TotalHits still counts every
// match.
func (e *Engine) Search(ctx context.Context, query string, opts executor.Options) *executor.SearchResult {
	start := time.Now()
	opts = e.clampOptions(opts)
	plan := parser.Parse(query, e.tok, parser.WithOperators(e.cfg.Search.Operators))

	a := e.current.Load()
	if a == nil {
		e.recordQuery("no_index", "none", 0, start)
		return &executor.SearchResult{Query: query, Results: []executor.Result{}, TermStats: map[string]int{}}
	}
	if plan.Empty() {
		e.recordQuery("empty_query", "none", 0, start)
		return e.executor.Execute(a.ix, plan, opts)
	}

	var (
		result *executor.SearchResult
		hit    bool
	)
	cacheStatus := "none"
	if e.cache != nil {
		key := cache.BuildKey(a.id, plan, opts)
		result, hit = e.cache.GetOrCompute(ctx, key, func() *executor.SearchResult {
			return e.executor.Execute(a.ix, plan, opts)
		})
		cacheStatus = "miss"
		if hit {
			cacheStatus = "hit"
		}
		// Equal plans share a key, so the stored result may echo another
		// caller's spelling of the query.
		if result.Query != query {
			shared := *result
			shared.Query = query
			result = &shared
		}
	} else {
		result = e.executor.Execute(a.ix, plan, opts)
	}

	resultType := "hit"
	if result.TotalHits == 0 {
		resultType = "zero_result"
	}
	e.recordQuery(resultType, cacheStatus, result.TotalHits, start)
	e.logger.Debug("search completed",
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache", cacheStatus,
		"duration", time.Since(start),
	)
	return result
}

// clampOptions applies the configured default limit and result cap and
// drops invalid field weights.
func (e *Engine) clampOptions(opts executor.Options) executor.Options {
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Limit <= 0 {
		opts.Limit = e.cfg.Search.DefaultLimit
	}
	if capped := e.cfg.Search.MaxResults; capped > 0 && opts.Limit > capped {
		opts.Limit = capped
	}
	if err := opts.Validate(); err != nil {
		e.logger.Warn("ignoring field weights", "error", err)
		opts.FieldWeights = nil
	}
	return opts
}

func (e *Engine) recordBuild(status string, docs int, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.IndexBuildsTotal.WithLabelValues(status).Inc()
	e.metrics.IndexBuildDuration.Observe(elapsed.Seconds())
	e.metrics.DocsIndexedTotal.Add(float64(docs))
}

func (e *Engine) recordLoad(status string) {
	if e.metrics != nil {
		e.metrics.IndexLoadsTotal.WithLabelValues(status).Inc()
	}
}

func (e *Engine) recordQuery(resultType, cacheStatus string, hits int, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	e.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	e.metrics.SearchResultsCount.Observe(float64(hits))
}

// contentID identifies an index by the hash of its uncompressed encoding, so
// equal indices share cached results and different ones never do.
func contentID(ix *index.Index) (string, error) {
	data, err := segment.Encode(ix, segment.EncodeOptions{})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16]), nil
}
