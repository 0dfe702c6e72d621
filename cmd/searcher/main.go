package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	indexPath := flag.String("index", "", "path to a serialized .dsix index")
	query := flag.String("q", "", "search query")
	limit := flag.Int("limit", 0, "maximum results (0 uses the configured default)")
	offset := flag.Int("offset", 0, "number of ranked results to skip")
	category := flag.String("category", "", "comma-separated categories to restrict results to")
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
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []indexer.Option
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := resilience.NewBreaker("redis", resilience.BreakerConfig{
				Threshold: cfg.Redis.BreakerThreshold,
				Cooldown:  cfg.Redis.BreakerCooldown,
			})
			store := cache.Guard(redisClient, breaker, cfg.Redis.OpTimeout)
			opts = append(opts, indexer.WithCache(cache.New(store, cfg.Redis.CacheTTL, nil)))
			slog.Info("search cache enabled",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
			)
		}
	}

	engine := indexer.NewEngine(cfg, opts...)
	if err := engine.LoadFile(*indexPath); err != nil {
		slog.Error("failed to load index", "error", err)
		os.Exit(1)
	}

	searchOpts := executor.Options{Limit: *limit, Offset: *offset}
	if *category != "" {
		for _, c := range strings.Split(*category, ",") {
			if c = strings.TrimSpace(c); c != "" {
				searchOpts.Categories = append(searchOpts.Categories, c)
			}
		}
	}
	result := engine.Search(ctx, *query, searchOpts)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		slog.Error("failed to write results", "error", err)
		os.Exit(1)
	}
}
