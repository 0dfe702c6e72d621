// Package ranker scores documents with a per-field BM25 function and
// combines fields with configurable weights.
package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

type ScoredDoc struct {
	DocID        uint32   `json:"doc_id"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matched_terms"`
}

// Params are the BM25 constants and per-field weights, indexed by
// tokenizer.Field.
type Params struct {
	K1      float64
	B       float64
	Weights [len(tokenizer.Fields)]float64
}

// ParamsFromConfig converts ranking configuration into Params.
func ParamsFromConfig(cfg config.RankingConfig) Params {
	var p Params
	p.K1 = cfg.K1
	p.B = cfg.B
	p.Weights[tokenizer.FieldTitle] = cfg.TitleWeight
	p.Weights[tokenizer.FieldText] = cfg.TextWeight
	return p
}

// DefaultParams returns k1=1.2, b=0.75, title weight 4, text weight 1.
func DefaultParams() Params {
	return ParamsFromConfig(config.DefaultRanking())
}

// Corpus supplies the statistics BM25 needs. *index.Index implements it.
type Corpus interface {
	FieldStats(field tokenizer.Field) index.FieldStats
	DocFreq(term string, field tokenizer.Field) int
	DocLength(id uint32, field tokenizer.Field) int
}

// TermPostings pairs a query term with the postings to score for it.
type TermPostings struct {
	Term     string
	Postings index.PostingList
}

// Rank scores every document that appears in terms and returns them by
// descending score, ties broken by ascending DocID. Terms are visited in the
// given order so floating-point sums are reproducible.
func Rank(terms []TermPostings, corpus Corpus, params Params) []ScoredDoc {
	type accumulator struct {
		score   float64
		matched []string
	}
	scores := make(map[uint32]*accumulator)
	for _, tp := range terms {
		var idf [len(tokenizer.Fields)]float64
		var avgLen [len(tokenizer.Fields)]float64
		for _, f := range tokenizer.Fields {
			stats := corpus.FieldStats(f)
			idf[f] = computeIDF(int64(stats.DocCount), int64(corpus.DocFreq(tp.Term, f)))
			avgLen[f] = stats.AvgLength()
		}
		for _, posting := range tp.Postings {
			if !posting.Field.Valid() {
				continue
			}
			acc, ok := scores[posting.DocID]
			if !ok {
				acc = &accumulator{}
				scores[posting.DocID] = acc
			}
			if n := len(acc.matched); n == 0 || acc.matched[n-1] != tp.Term {
				acc.matched = append(acc.matched, tp.Term)
			}
			tfNorm := computeTFNorm(
				float64(posting.Frequency),
				float64(corpus.DocLength(posting.DocID, posting.Field)),
				avgLen[posting.Field],
				params,
			)
			acc.score += params.Weights[posting.Field] * idf[posting.Field] * tfNorm
		}
	}
	result := make([]ScoredDoc, 0, len(scores))
	for docID, acc := range scores {
		result = append(result, ScoredDoc{
			DocID:        docID,
			Score:        acc.score,
			MatchedTerms: acc.matched,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].DocID < result[j].DocID
	})
	return result
}

// computeIDF uses the +0.5 smoothed form so a term present in every
// document still scores above zero.
func computeIDF(totalDocs int64, docFreq int64) float64 {
	if docFreq <= 0 || totalDocs <= 0 {
		return 0
	}
	numerator := float64(totalDocs) - float64(docFreq) + 0.5
	denominator := float64(docFreq) + 0.5
	return math.Log(1 + numerator/denominator)
}

func computeTFNorm(termFreq float64, docLength float64, avgDocLength float64, params Params) float64 {
	if avgDocLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgDocLength
	denominator := termFreq + params.K1*(1-params.B+params.B*lengthRatio)
	return (termFreq * (params.K1 + 1)) / denominator
}
