package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	metricsFile := flag.String("metrics-file", "", "write Prometheus metrics to this textfile after building")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if cfg.Corpus.Versions == nil {
		cfg.Corpus.Versions = map[string]string{}
	}
	// Positional arguments of the form version=path extend the configured
	// corpus list.
	for _, arg := range flag.Args() {
		version, path, ok := strings.Cut(arg, "=")
		if !ok || version == "" || path == "" {
			fmt.Fprintf(os.Stderr, "invalid corpus argument %q, want version=path\n", arg)
			os.Exit(1)
		}
		cfg.Corpus.Versions[version] = path
	}
	if len(cfg.Corpus.Versions) == 0 {
		fmt.Fprintln(os.Stderr, "no corpus versions configured")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	var m *metrics.Metrics
	if cfg.Metrics.Enabled || *metricsFile != "" {
		m = metrics.New(reg)
	}

	start := time.Now()
	slog.Info("starting index build",
		"versions", len(cfg.Corpus.Versions),
		"output_dir", cfg.Index.OutputDir,
	)
	if err := buildAll(ctx, cfg, m); err != nil {
		if apperrors.IsBuildError(err) {
			slog.Error("corpus rejected", "error", err)
		} else {
			slog.Error("index build failed", "error", err)
		}
		os.Exit(1)
	}
	slog.Info("index build complete", "duration", time.Since(start))

	if *metricsFile != "" {
		if err := metrics.WriteTextfile(*metricsFile, reg); err != nil {
			slog.Error("writing metrics textfile failed", "error", err)
			os.Exit(1)
		}
	}
}

// buildAll builds one index per corpus version concurrently. The first
// failure cancels the remaining builds.
func buildAll(ctx context.Context, cfg *config.Config, m *metrics.Metrics) error {
	adapter := corpus.NewAdapter(corpus.Options{
		Lenient:     cfg.Corpus.Lenient,
		StripMarkup: cfg.Corpus.StripMarkup,
	})
	var opts []indexer.Option
	if m != nil {
		opts = append(opts, indexer.WithMetrics(m))
	}
	engine := indexer.NewEngine(cfg, opts...)
	writer := segment.NewWriter(cfg.Index.OutputDir, segment.EncodeOptions{Compress: cfg.Index.Compress})

	versions := make([]string, 0, len(cfg.Corpus.Versions))
	for v := range cfg.Corpus.Versions {
		versions = append(versions, v)
	}
	slices.Sort(versions)

	g, ctx := errgroup.WithContext(ctx)
	for _, version := range versions {
		path := cfg.Corpus.Versions[version]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			log := logger.WithComponent("indexer").With("version", version, "corpus", path)
			docs, report, err := adapter.LoadFile(path)
			if err != nil {
				return fmt.Errorf("version %s: %w", version, err)
			}
			if len(report.Rejected) > 0 {
				log.Warn("records rejected", "count", len(report.Rejected))
			}
			ix, err := engine.Build(docs)
			if err != nil {
				return fmt.Errorf("version %s: %w", version, err)
			}
			out, err := writer.Write(version, ix)
			if err != nil {
				return fmt.Errorf("version %s: %w", version, err)
			}
			log.Info("index written",
				"path", out,
				"docs", ix.DocCount(),
				"terms", ix.TermCount(),
			)
			return nil
		})
	}
	return g.Wait()
}
