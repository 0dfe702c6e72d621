// Package docsearch is the embeddable surface of the search engine: build an
// index from documentation records, query it, and move it between build and
// query time as bytes.
//
//	docs, err := docsearch.AdaptAll(records)
//	ix, err := docsearch.BuildIndex(docs, cfg)
//	data, err := docsearch.Serialize(ix)
//	...
//	ix, err = docsearch.Deserialize(data)
//	res, err := docsearch.Search(ix, "E. coli", docsearch.Options{Limit: 10}, cfg)
//
// Build and load failures are reported with the typed errors re-exported
// here; searching a valid index never fails.
package docsearch

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

type (
	Record       = corpus.Record
	Document     = index.Document
	Index        = index.Index
	Options      = executor.Options
	SearchResult = executor.SearchResult
	ScoredResult = executor.Result
	Config       = config.Config

	DuplicateLocationError  = apperrors.DuplicateLocationError
	InvalidRecordError      = apperrors.InvalidRecordError
	CorruptIndexError       = apperrors.CorruptIndexError
	UnsupportedVersionError = apperrors.UnsupportedVersionError
)

var (
	ErrDuplicateLocation  = apperrors.ErrDuplicateLocation
	ErrInvalidRecord      = apperrors.ErrInvalidRecord
	ErrCorruptIndex       = apperrors.ErrCorruptIndex
	ErrUnsupportedVersion = apperrors.ErrUnsupportedVersion
	ErrTokenizerMismatch  = apperrors.ErrTokenizerMismatch
	ErrInvalidWeight      = apperrors.ErrInvalidWeight
)

// DefaultConfig returns the default tokenizer, ranking and search settings.
func DefaultConfig() *Config {
	return config.Default()
}

// Adapt converts one corpus record into a Document.
func Adapt(rec Record) (Document, error) {
	return corpus.Adapt(rec)
}

// AdaptAll converts records in order and stops at the first invalid one.
func AdaptAll(recs []Record) ([]Document, error) {
	docs, _, err := corpus.NewAdapter(corpus.Options{}).AdaptAll(recs)
	return docs, err
}

// BuildIndex indexes docs with the tokenizer described by cfg. A nil cfg
// uses the defaults.
func BuildIndex(docs []Document, cfg *Config) (*Index, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	return index.Build(docs, tokenizer.New(cfg.Tokenizer))
}

// Search runs query against ix. The query is tokenized with cfg's tokenizer,
// which must match the one ix was built with; a mismatch is reported as
// ErrTokenizerMismatch. Negative, NaN or infinite field weights in opts are
// reported as ErrInvalidWeight. A nil cfg uses the defaults.
func Search(ix *Index, query string, opts Options, cfg *Config) (*SearchResult, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tok := tokenizer.New(cfg.Tokenizer)
	if got, want := ix.TokenizerFingerprint(), tok.Fingerprint(); got != want {
		return nil, fmt.Errorf("%w: index built with %s, query uses %s",
			apperrors.ErrTokenizerMismatch, got, want)
	}
	plan := parser.Parse(query, tok, parser.WithOperators(cfg.Search.Operators))
	return executor.New(ranker.ParamsFromConfig(cfg.Ranking)).Execute(ix, plan, opts), nil
}

// Serialize encodes ix into its versioned binary form.
func Serialize(ix *Index) ([]byte, error) {
	return segment.Encode(ix, segment.EncodeOptions{})
}

// Deserialize decodes data produced by Serialize.
func Deserialize(data []byte) (*Index, error) {
	return segment.Decode(data)
}
