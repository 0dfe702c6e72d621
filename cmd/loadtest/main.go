package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
)

var defaultQueries = []string{
	"abundance",
	"E. coli",
	"relative abundance",
	"distance matrix",
	"taxonomy rank",
	"sample metadata",
	"diversity",
	"principal coordinates",
	"community profile",
	"feature table",
	"shannon entropy",
	"ginisimpson",
}

type stats struct {
	queries   atomic.Int64
	withHits  atomic.Int64
	zeroHits  atomic.Int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (s *stats) record(d time.Duration, res *executor.SearchResult) {
	s.queries.Add(1)
	if res.TotalHits > 0 {
		s.withHits.Add(1)
	} else {
		s.zeroHits.Add(1)
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.mu.Unlock()
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	indexPath := flag.String("index", "", "path to a serialized .dsix index")
	queriesPath := flag.String("queries", "", "file with one query per line (defaults to a built-in set)")
	concurrency := flag.Int("concurrency", 8, "number of concurrent workers")
	duration := flag.Duration("duration", 10*time.Second, "test duration")
	limit := flag.Int("limit", 10, "results per query")
	flag.Parse()

	if *indexPath == "" {
		fmt.Fprintln(os.Stderr, "-index is required")
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup("warn", cfg.Logging.Format)

	queries := defaultQueries
	if *queriesPath != "" {
		if queries, err = readQueries(*queriesPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to read queries: %v\n", err)
			os.Exit(1)
		}
	}

	engine := indexer.NewEngine(cfg)
	if err := engine.LoadFile(*indexPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load index: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Search Load Test ===")
	fmt.Printf("Index:       %s (%d docs, %d terms)\n", *indexPath, engine.Current().DocCount(), engine.Current().TermCount())
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Printf("Queries:     %d unique\n", len(queries))
	fmt.Println()

	s := run(engine, queries, *concurrency, *duration, executor.Options{Limit: *limit})
	if !report(s, *duration) {
		os.Exit(1)
	}
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if q := strings.TrimSpace(sc.Text()); q != "" && !strings.HasPrefix(q, "#") {
			out = append(out, q)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s contains no queries", path)
	}
	return out, nil
}

func run(engine *indexer.Engine, queries []string, concurrency int, d time.Duration, opts executor.Options) *stats {
	s := &stats{latencies: make([]time.Duration, 0, 1<<16)}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				start := time.Now()
				res := engine.Search(ctx, queries[i%len(queries)], opts)
				s.record(time.Since(start), res)
			}
			return nil
		})
	}
	_ = g.Wait()
	return s
}

func report(s *stats, d time.Duration) bool {
	total := s.queries.Load()
	fmt.Println("=== Results ===")
	fmt.Printf("Total Queries:  %d\n", total)
	fmt.Printf("With Hits:      %d\n", s.withHits.Load())
	fmt.Printf("Zero Results:   %d\n", s.zeroHits.Load())
	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: no queries completed")
		return false
	}
	fmt.Printf("Queries/sec:    %.2f\n", float64(total)/d.Seconds())

	s.mu.Lock()
	latencies := slices.Clone(s.latencies)
	s.mu.Unlock()
	slices.Sort(latencies)

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg := sum / time.Duration(len(latencies))
	var sq float64
	for _, l := range latencies {
		diff := float64(l - avg)
		sq += diff * diff
	}

	fmt.Println()
	fmt.Println("=== Latency ===")
	fmt.Printf("Min:    %s\n", latencies[0])
	fmt.Printf("Avg:    %s\n", avg)
	fmt.Printf("P50:    %s\n", percentile(latencies, 50))
	fmt.Printf("P90:    %s\n", percentile(latencies, 90))
	fmt.Printf("P99:    %s\n", percentile(latencies, 99))
	fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])
	fmt.Printf("StdDev: %s\n", time.Duration(math.Sqrt(sq/float64(len(latencies)))))
	return true
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[min(max(idx, 0), len(sorted)-1)]
}
