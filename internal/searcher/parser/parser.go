// Package parser turns a raw query string into a QueryPlan using the same
// tokenizer the index was built with.
//
// By default every word of the query is tokenized exactly like indexed text
// and matching is OR over all terms. With WithOperators the upper-case
// keywords AND, OR and NOT become operators: AND/OR set the match mode for
// the whole query and NOT excludes the terms of the word that follows it.
// Lower-case "and", "or" and "not" are always ordinary terms.
package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
)

type QueryType int

const (
	QueryOR QueryType = iota
	QueryAND
)

func (q QueryType) String() string {
	if q == QueryAND {
		return "AND"
	}
	return "OR"
}

// QueryPlan holds the normalised, de-duplicated query terms in order of
// first occurrence.
type QueryPlan struct {
	Terms        []string
	Type         QueryType
	ExcludeTerms []string
	RawQuery     string
}

// Empty reports whether the plan has no positive terms to match.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}

type settings struct {
	operators bool
}

// Option configures Parse.
type Option func(*settings)

// WithOperators enables the upper-case AND, OR and NOT keywords. When
// enabled those words can no longer be searched for as terms.
func WithOperators(enabled bool) Option {
	return func(s *settings) { s.operators = enabled }
}

func Parse(query string, tok *tokenizer.Tokenizer, opts ...Option) *QueryPlan {
	var cfg settings
	for _, opt := range opts {
		opt(&cfg)
	}
	plan := &QueryPlan{
		Terms:        make([]string, 0),
		ExcludeTerms: make([]string, 0),
		Type:         QueryOR,
		RawQuery:     query,
	}
	if strings.TrimSpace(query) == "" {
		return plan
	}
	seen := make(map[string]struct{})
	excluded := make(map[string]struct{})
	excludeNext := false
	for _, word := range strings.Fields(query) {
		if cfg.operators {
			switch word {
			case "AND":
				plan.Type = QueryAND
				continue
			case "OR":
				plan.Type = QueryOR
				continue
			case "NOT":
				excludeNext = true
				continue
			}
		}
		terms := tok.Terms(word, tokenizer.FieldText)
		if excludeNext {
			for _, term := range terms {
				if _, dup := excluded[term]; !dup {
					excluded[term] = struct{}{}
					plan.ExcludeTerms = append(plan.ExcludeTerms, term)
				}
			}
			excludeNext = false
			continue
		}
		for _, term := range terms {
			if _, dup := seen[term]; !dup {
				seen[term] = struct{}{}
				plan.Terms = append(plan.Terms, term)
			}
		}
	}
	return plan
}
