// Package index holds the immutable inverted index and the builder that
// produces it from an ordered document sequence.
package index

import (
	"slices"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

// Index is an immutable inverted index over one corpus snapshot. It has no
// mutation methods and may be shared between goroutines without locking.
// Stored documents carry display metadata only; body text is not retained.
type Index struct {
	docs        []Document
	lengths     []FieldLengths
	locations   map[string]uint32
	terms       map[string]PostingList
	termList    []string
	docFreq     map[string][len(tokenizer.Fields)]int
	fields      [len(tokenizer.Fields)]FieldStats
	fingerprint string
}

// Parts is the complete content of an Index, as produced by Snapshot-style
// inspection or by a decoder.
type Parts struct {
	TokenizerFingerprint string
	Documents            []Document
	Lengths              []FieldLengths
	Fields               [len(tokenizer.Fields)]FieldStats
	Terms                []TermEntry
}

// FromParts validates p and assembles an Index from it. Any structural
// inconsistency is reported as a CorruptIndexError.
func FromParts(p Parts) (*Index, error) {
	if len(p.Lengths) != len(p.Documents) {
		return nil, apperrors.NewCorrupt("documents", "%d documents but %d length records", len(p.Documents), len(p.Lengths))
	}
	ix := &Index{
		docs:        make([]Document, len(p.Documents)),
		lengths:     slices.Clone(p.Lengths),
		locations:   make(map[string]uint32, len(p.Documents)),
		terms:       make(map[string]PostingList, len(p.Terms)),
		termList:    make([]string, 0, len(p.Terms)),
		docFreq:     make(map[string][len(tokenizer.Fields)]int, len(p.Terms)),
		fingerprint: p.TokenizerFingerprint,
	}
	var want [len(tokenizer.Fields)]FieldStats
	for i, doc := range p.Documents {
		if doc.ID != uint32(i) {
			return nil, apperrors.NewCorrupt("documents", "document %d has id %d", i, doc.ID)
		}
		if doc.Location == "" {
			return nil, apperrors.NewCorrupt("documents", "document %d has empty location", i)
		}
		if _, dup := ix.locations[doc.Location]; dup {
			return nil, apperrors.NewCorrupt("documents", "location %q appears twice", doc.Location)
		}
		doc.Text = ""
		ix.docs[i] = doc
		ix.locations[doc.Location] = doc.ID
		for _, f := range tokenizer.Fields {
			if n := p.Lengths[i][f]; n > 0 {
				want[f].DocCount++
				want[f].TotalTokens += int64(n)
			}
		}
	}
	if want != p.Fields {
		return nil, apperrors.NewCorrupt("stats", "field statistics %v do not match document lengths %v", p.Fields, want)
	}
	ix.fields = want

	var seen [len(tokenizer.Fields)]int64
	for i, entry := range p.Terms {
		if entry.Term == "" {
			return nil, apperrors.NewCorrupt("terms", "empty term at position %d", i)
		}
		if i > 0 && p.Terms[i-1].Term >= entry.Term {
			return nil, apperrors.NewCorrupt("terms", "term %q out of order", entry.Term)
		}
		if len(entry.Postings) == 0 {
			return nil, apperrors.NewCorrupt("terms", "term %q has no postings", entry.Term)
		}
		var df [len(tokenizer.Fields)]int
		for j, posting := range entry.Postings {
			if int(posting.DocID) >= len(p.Documents) {
				return nil, apperrors.NewCorrupt("postings", "term %q references document %d of %d", entry.Term, posting.DocID, len(p.Documents))
			}
			if !posting.Field.Valid() {
				return nil, apperrors.NewCorrupt("postings", "term %q has unknown field %d", entry.Term, posting.Field)
			}
			if posting.Frequency == 0 {
				return nil, apperrors.NewCorrupt("postings", "term %q has zero frequency for document %d", entry.Term, posting.DocID)
			}
			if j > 0 && !less(entry.Postings[j-1], posting) {
				return nil, apperrors.NewCorrupt("postings", "postings for term %q out of order", entry.Term)
			}
			df[posting.Field]++
			seen[posting.Field] += int64(posting.Frequency)
		}
		ix.terms[entry.Term] = slices.Clone(entry.Postings)
		ix.termList = append(ix.termList, entry.Term)
		ix.docFreq[entry.Term] = df
	}
	for _, f := range tokenizer.Fields {
		if seen[f] != want[f].TotalTokens {
			return nil, apperrors.NewCorrupt("postings", "%s postings sum to %d tokens, statistics say %d", f, seen[f], want[f].TotalTokens)
		}
	}
	return ix, nil
}

// DocCount returns the number of documents in the index.
func (ix *Index) DocCount() int {
	return len(ix.docs)
}

// Document returns the stored metadata for id.
func (ix *Index) Document(id uint32) (Document, bool) {
	if int(id) >= len(ix.docs) {
		return Document{}, false
	}
	return ix.docs[id], true
}

// Documents returns a copy of the document table in ID order.
func (ix *Index) Documents() []Document {
	return slices.Clone(ix.docs)
}

// LookupLocation maps an external location back to its document ID.
func (ix *Index) LookupLocation(location string) (uint32, bool) {
	id, ok := ix.locations[location]
	return id, ok
}

// Postings returns a copy of the postings for term, or nil when the term is
// not indexed.
func (ix *Index) Postings(term string) PostingList {
	return slices.Clone(ix.terms[term])
}

// Contains reports whether term is in the dictionary.
func (ix *Index) Contains(term string) bool {
	_, ok := ix.terms[term]
	return ok
}

// DocFreq returns the number of documents whose field contains term.
func (ix *Index) DocFreq(term string, field tokenizer.Field) int {
	if !field.Valid() {
		return 0
	}
	return ix.docFreq[term][field]
}

// FieldStats returns corpus-wide statistics for field.
func (ix *Index) FieldStats(field tokenizer.Field) FieldStats {
	if !field.Valid() {
		return FieldStats{}
	}
	return ix.fields[field]
}

// DocLength returns the token count of field in document id.
func (ix *Index) DocLength(id uint32, field tokenizer.Field) int {
	if int(id) >= len(ix.lengths) || !field.Valid() {
		return 0
	}
	return int(ix.lengths[id][field])
}

// Terms returns the sorted term dictionary.
func (ix *Index) Terms() []string {
	return slices.Clone(ix.termList)
}

// TermCount returns the number of distinct terms.
func (ix *Index) TermCount() int {
	return len(ix.termList)
}

// TokenizerFingerprint identifies the tokenizer configuration the index was
// built with.
func (ix *Index) TokenizerFingerprint() string {
	return ix.fingerprint
}

// Snapshot returns every term with its postings, sorted by term.
func (ix *Index) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(ix.termList))
	for _, term := range ix.termList {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: slices.Clone(ix.terms[term]),
		})
	}
	return entries
}

// Parts returns a deep copy of the index content suitable for FromParts.
func (ix *Index) Parts() Parts {
	return Parts{
		TokenizerFingerprint: ix.fingerprint,
		Documents:            slices.Clone(ix.docs),
		Lengths:              slices.Clone(ix.lengths),
		Fields:               ix.fields,
		Terms:                ix.Snapshot(),
	}
}

func sortedKeys(m map[string]PostingList) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
