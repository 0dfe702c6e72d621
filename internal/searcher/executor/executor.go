package executor

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

// Result is a ranked document hydrated with its display metadata.
type Result struct {
	DocID        uint32   `json:"doc_id"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matched_terms"`
	Location     string   `json:"location"`
	Page         string   `json:"page"`
	Title        string   `json:"title"`
	Category     string   `json:"category"`
}

type SearchResult struct {
	Query     string         `json:"query"`
	TotalHits int            `json:"total_hits"`
	Results   []Result       `json:"results"`
	TermStats map[string]int `json:"term_stats"`
}

// Options bound and filter a single search. Limit 0 returns every match.
// Offset and Limit apply after full ranking and category filtering.
type Options struct {
	Limit        int
	Offset       int
	Categories   []string
	FieldWeights *[len(tokenizer.Fields)]float64
}

// Validate rejects per-field weights that are negative, NaN or infinite.
func (o Options) Validate() error {
	if o.FieldWeights == nil {
		return nil
	}
	for i, w := range o.FieldWeights {
		if err := config.CheckWeight(tokenizer.Field(i).String()+" weight", w); err != nil {
			return err
		}
	}
	return nil
}

type Executor struct {
	params ranker.Params
	logger *slog.Logger
}

func New(params ranker.Params) *Executor {
	return &Executor{
		params: params,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute evaluates plan against ix. It never fails: a plan without terms,
// or with terms absent from the index, yields an empty result.
func (e *Executor) Execute(ix *index.Index, plan *parser.QueryPlan, opts Options) *SearchResult {
	result := &SearchResult{
		Query:     plan.RawQuery,
		Results:   []Result{},
		TermStats: map[string]int{},
	}
	if plan.Empty() {
		return result
	}

	postingsPerTerm := make([]ranker.TermPostings, 0, len(plan.Terms))
	for _, term := range plan.Terms {
		postings := ix.Postings(term)
		if len(postings) == 0 {
			continue
		}
		postingsPerTerm = append(postingsPerTerm, ranker.TermPostings{Term: term, Postings: postings})
		result.TermStats[term] = countDocs(postings)
	}

	var candidates map[uint32]struct{}
	switch plan.Type {
	case parser.QueryAND:
		if len(postingsPerTerm) < len(plan.Terms) {
			candidates = map[uint32]struct{}{}
		} else {
			candidates = intersectPostings(postingsPerTerm)
		}
	default:
		candidates = unionPostings(postingsPerTerm)
	}
	for _, term := range plan.ExcludeTerms {
		for _, p := range ix.Postings(term) {
			delete(candidates, p.DocID)
		}
	}
	if len(opts.Categories) > 0 {
		allowed := make(map[string]struct{}, len(opts.Categories))
		for _, c := range opts.Categories {
			allowed[c] = struct{}{}
		}
		for docID := range candidates {
			doc, _ := ix.Document(docID)
			if _, ok := allowed[doc.Category]; !ok {
				delete(candidates, docID)
			}
		}
	}

	filtered := make([]ranker.TermPostings, 0, len(postingsPerTerm))
	for _, tp := range postingsPerTerm {
		kept := make(index.PostingList, 0, len(tp.Postings))
		for _, p := range tp.Postings {
			if _, ok := candidates[p.DocID]; ok {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			filtered = append(filtered, ranker.TermPostings{Term: tp.Term, Postings: kept})
		}
	}

	params := e.params
	if opts.FieldWeights != nil {
		if err := opts.Validate(); err != nil {
			e.logger.Warn("ignoring field weights", "error", err)
		} else {
			params.Weights = *opts.FieldWeights
		}
	}
	ranked := ranker.Rank(filtered, ix, params)
	result.TotalHits = len(ranked)

	for _, sd := range window(ranked, opts.Offset, opts.Limit) {
		doc, _ := ix.Document(sd.DocID)
		result.Results = append(result.Results, Result{
			DocID:        sd.DocID,
			Score:        sd.Score,
			MatchedTerms: sd.MatchedTerms,
			Location:     doc.Location,
			Page:         doc.Page,
			Title:        doc.Title,
			Category:     doc.Category,
		})
	}
	e.logger.Debug("query executed",
		"query", plan.RawQuery,
		"terms", plan.Terms,
		"mode", plan.Type.String(),
		"candidates", len(candidates),
		"results", len(result.Results),
	)
	return result
}

func window(ranked []ranker.ScoredDoc, offset, limit int) []ranker.ScoredDoc {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ranked) {
		return nil
	}
	ranked = ranked[offset:]
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func countDocs(postings index.PostingList) int {
	n := 0
	for i, p := range postings {
		if i == 0 || postings[i-1].DocID != p.DocID {
			n++
		}
	}
	return n
}

func intersectPostings(postingsPerTerm []ranker.TermPostings) map[uint32]struct{} {
	if len(postingsPerTerm) == 0 {
		return make(map[uint32]struct{})
	}
	shortest := 0
	for i, tp := range postingsPerTerm {
		if len(tp.Postings) < len(postingsPerTerm[shortest].Postings) {
			shortest = i
		}
	}
	candidates := make(map[uint32]struct{})
	for _, p := range postingsPerTerm[shortest].Postings {
		candidates[p.DocID] = struct{}{}
	}
	for i, tp := range postingsPerTerm {
		if i == shortest {
			continue
		}
		docSet := make(map[uint32]struct{}, len(tp.Postings))
		for _, p := range tp.Postings {
			docSet[p.DocID] = struct{}{}
		}
		for docID := range candidates {
			if _, exists := docSet[docID]; !exists {
				delete(candidates, docID)
			}
		}
	}
	return candidates
}

func unionPostings(postingsPerTerm []ranker.TermPostings) map[uint32]struct{} {
	result := make(map[uint32]struct{})
	for _, tp := range postingsPerTerm {
		for _, p := range tp.Postings {
			result[p.DocID] = struct{}{}
		}
	}
	return result
}
