// Package tokenizer provides text tokenisation for the search engine.
// It normalises input to NFKC, case-folds it, splits on anything that is not
// a letter, digit or combining mark, drops short tokens and configured
// stop-words, and optionally applies an English snowball stemmer.
//
// The same Tokenizer value must be used at build time and at query time;
// Fingerprint identifies a configuration so mismatches can be detected.
package tokenizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

// Field names an indexed textual attribute of a document.
type Field uint8

const (
	FieldTitle Field = iota
	FieldText
)

// Fields lists every indexed field in storage order.
var Fields = [...]Field{FieldTitle, FieldText}

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldText:
		return "text"
	default:
		return fmt.Sprintf("field(%d)", uint8(f))
	}
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	return f == FieldTitle || f == FieldText
}

// Token represents a single normalised term and its position among the
// tokens emitted for one input.
type Token struct {
	Term     string
	Position int
}

// Tokenizer turns raw text into normalised terms. It is immutable and safe
// for concurrent use.
type Tokenizer struct {
	minLength   int
	stopWords   map[string]struct{}
	stem        bool
	fingerprint string
}

// New creates a Tokenizer from cfg. A MinLength below 1 is treated as 1.
func New(cfg config.TokenizerConfig) *Tokenizer {
	t := &Tokenizer{
		minLength: cfg.MinLength,
		stopWords: make(map[string]struct{}, len(cfg.StopWords)),
		stem:      cfg.Stem,
	}
	if t.minLength < 1 {
		t.minLength = 1
	}
	for _, w := range cfg.StopWords {
		for _, term := range splitWords(normalize(w)) {
			t.stopWords[term] = struct{}{}
		}
	}
	t.fingerprint = t.computeFingerprint()
	return t
}

// Default returns a Tokenizer with the default configuration: minimum
// length 1, no stop-words, no stemming.
func Default() *Tokenizer {
	return New(config.TokenizerConfig{MinLength: 1})
}

// Tokens returns a lazy sequence of the tokens in text, in left-to-right
// order. The sequence may be ranged over any number of times.
func (t *Tokenizer) Tokens(text string, field Field) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		if text == "" {
			return
		}
		s := normalize(text)
		pos := 0
		start := -1
		for i, r := range s {
			if isWordRune(r) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				if term, ok := t.accept(s[start:i]); ok {
					if !yield(Token{Term: term, Position: pos}) {
						return
					}
					pos++
				}
				start = -1
			}
		}
		if start >= 0 {
			if term, ok := t.accept(s[start:]); ok {
				yield(Token{Term: term, Position: pos})
			}
		}
	}
}

// Terms collects the terms of text into a slice.
func (t *Tokenizer) Terms(text string, field Field) []string {
	terms := make([]string, 0, 8)
	for tok := range t.Tokens(text, field) {
		terms = append(terms, tok.Term)
	}
	return terms
}

// Fingerprint identifies the tokenizer configuration. Two tokenizers with the
// same fingerprint produce identical terms for every input.
func (t *Tokenizer) Fingerprint() string {
	return t.fingerprint
}

// IsStopWord reports whether the normalised term is filtered as a stop-word.
func (t *Tokenizer) IsStopWord(term string) bool {
	_, ok := t.stopWords[term]
	return ok
}

func (t *Tokenizer) accept(word string) (string, bool) {
	if utf8.RuneCountInString(word) < t.minLength {
		return "", false
	}
	if _, stop := t.stopWords[word]; stop {
		return "", false
	}
	if t.stem {
		word = english.Stem(word, true)
		if word == "" {
			return "", false
		}
	}
	return word, true
}

func (t *Tokenizer) computeFingerprint() string {
	stops := make([]string, 0, len(t.stopWords))
	for w := range t.stopWords {
		stops = append(stops, w)
	}
	sort.Strings(stops)
	h := sha256.New()
	fmt.Fprintf(h, "nfkc+fold|min=%d|stem=%t|stop=%s", t.minLength, t.stem, strings.Join(stops, ","))
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// normalize applies NFKC and Unicode case folding. cases.Caser is stateful,
// so a fresh one is used per call.
func normalize(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !isWordRune(r)
	})
}

// isWordRune accepts letters, decimal digits and both nonspacing and spacing
// combining marks, so vowel signs in Indic scripts stay inside their word.
func isWordRune(r rune) bool {
	return unicode.In(r, unicode.L, unicode.Nd, unicode.Mn, unicode.Mc)
}
