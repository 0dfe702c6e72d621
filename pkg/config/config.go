// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Tokenizer, Ranking, Search, Corpus, Index, Redis, etc.).
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Search    SearchConfig    `yaml:"search"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Index     IndexConfig     `yaml:"index"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// TokenizerConfig is shared by index building and query parsing. It must be
// identical at both points.
type TokenizerConfig struct {
	MinLength int      `yaml:"minLength"`
	StopWords []string `yaml:"stopWords"`
	Stem      bool     `yaml:"stem"`
}

// RankingConfig holds the BM25 constants and per-field weights.
type RankingConfig struct {
	K1          float64 `yaml:"k1"`
	B           float64 `yaml:"b"`
	TitleWeight float64 `yaml:"titleWeight"`
	TextWeight  float64 `yaml:"textWeight"`
}

// SearchConfig controls result windowing for the Engine. Operators turns the
// upper-case AND, OR and NOT query keywords into operators; it is off by
// default so those words match as ordinary terms.
type SearchConfig struct {
	DefaultLimit int  `yaml:"defaultLimit"`
	MaxResults   int  `yaml:"maxResults"`
	Operators    bool `yaml:"operators"`
}

// CorpusConfig lists the corpus files to index, keyed by docs version, and
// how strictly their records are validated.
type CorpusConfig struct {
	Versions    map[string]string `yaml:"versions"`
	Lenient     bool              `yaml:"lenient"`
	StripMarkup bool              `yaml:"stripMarkup"`
}

// IndexConfig controls where serialized indices are written.
type IndexConfig struct {
	OutputDir string `yaml:"outputDir"`
	Compress  bool   `yaml:"compress"`
}

// RedisConfig holds Redis connection and result-caching parameters.
type RedisConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Addr             string        `yaml:"addr"`
	Password         string        `yaml:"password"`
	DB               int           `yaml:"db"`
	PoolSize         int           `yaml:"poolSize"`
	CacheTTL         time.Duration `yaml:"cacheTTL"`
	ConnectAttempts  int           `yaml:"connectAttempts"`
	OpTimeout        time.Duration `yaml:"opTimeout"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerCooldown  time.Duration `yaml:"breakerCooldown"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig toggles Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values, and fails if the result does not validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with the documented defaults.
func Default() *Config {
	return &Config{
		Tokenizer: TokenizerConfig{
			MinLength: 1,
		},
		Ranking: DefaultRanking(),
		Search: SearchConfig{
			DefaultLimit: 20,
			MaxResults:   200,
		},
		Corpus: CorpusConfig{
			Versions: map[string]string{},
		},
		Index: IndexConfig{
			OutputDir: "dist/search",
		},
		Redis: RedisConfig{
			Addr:             "localhost:6379",
			PoolSize:         10,
			CacheTTL:         5 * time.Minute,
			ConnectAttempts:  3,
			OpTimeout:        200 * time.Millisecond,
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultRanking returns BM25 k1=1.2, b=0.75 with a 4x title weight.
func DefaultRanking() RankingConfig {
	return RankingConfig{
		K1:          1.2,
		B:           0.75,
		TitleWeight: 4,
		TextWeight:  1,
	}
}

// Validate rejects settings that would make scoring meaningless.
func (c *Config) Validate() error {
	if err := c.Ranking.Validate(); err != nil {
		return err
	}
	if c.Tokenizer.MinLength < 0 {
		return fmt.Errorf("tokenizer.minLength must not be negative, got %d", c.Tokenizer.MinLength)
	}
	if c.Search.DefaultLimit < 0 || c.Search.MaxResults < 0 {
		return fmt.Errorf("search limits must not be negative")
	}
	return nil
}

// Validate checks the BM25 constants and field weights.
func (r RankingConfig) Validate() error {
	if r.K1 <= 0 {
		return fmt.Errorf("ranking.k1 must be positive, got %v", r.K1)
	}
	if r.B < 0 || r.B > 1 {
		return fmt.Errorf("ranking.b must be within [0,1], got %v", r.B)
	}
	if err := CheckWeight("ranking.titleWeight", r.TitleWeight); err != nil {
		return err
	}
	return CheckWeight("ranking.textWeight", r.TextWeight)
}

// CheckWeight rejects field weights that are negative, NaN or infinite. A
// negative weight would rank text matches above title matches.
func CheckWeight(name string, w float64) error {
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", apperrors.ErrInvalidWeight, name, w)
	}
	return nil
}

// applyEnvOverrides reads DS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DS_TOKENIZER_MIN_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tokenizer.MinLength = n
		}
	}
	if v := os.Getenv("DS_TOKENIZER_STOP_WORDS"); v != "" {
		cfg.Tokenizer.StopWords = strings.Split(v, ",")
	}
	if v := os.Getenv("DS_TOKENIZER_STEM"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tokenizer.Stem = b
		}
	}
	if v := os.Getenv("DS_RANKING_K1"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Ranking.K1 = f
		}
	}
	if v := os.Getenv("DS_RANKING_B"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Ranking.B = f
		}
	}
	if v := os.Getenv("DS_RANKING_TITLE_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Ranking.TitleWeight = f
		}
	}
	if v := os.Getenv("DS_RANKING_TEXT_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Ranking.TextWeight = f
		}
	}
	if v := os.Getenv("DS_SEARCH_OPERATORS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Search.Operators = b
		}
	}
	if v := os.Getenv("DS_CORPUS_LENIENT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Corpus.Lenient = b
		}
	}
	if v := os.Getenv("DS_INDEX_OUTPUT_DIR"); v != "" {
		cfg.Index.OutputDir = v
	}
	if v := os.Getenv("DS_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("DS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("DS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("DS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
