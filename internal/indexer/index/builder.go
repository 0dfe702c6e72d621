package index

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

// Builder accumulates documents in a single forward pass. Postings are
// appended in increasing DocID order, so nothing is re-sorted at Finish.
// A Builder is not safe for concurrent use.
type Builder struct {
	tok       *tokenizer.Tokenizer
	docs      []Document
	lengths   []FieldLengths
	locations map[string]uint32
	terms     map[string]PostingList
	fields    [len(tokenizer.Fields)]FieldStats
	err       error
	finished  bool
}

// NewBuilder creates a Builder that tokenizes with tok.
func NewBuilder(tok *tokenizer.Tokenizer) *Builder {
	return &Builder{
		tok:       tok,
		locations: make(map[string]uint32),
		terms:     make(map[string]PostingList),
	}
}

// Add assigns the next ID to doc and indexes its title and text. The
// incoming doc.ID is ignored. After the first error every later call
// returns that same error.
func (b *Builder) Add(doc Document) error {
	if b.finished {
		return fmt.Errorf("builder already finished")
	}
	if b.err != nil {
		return b.err
	}
	if doc.Location == "" {
		b.err = &apperrors.InvalidRecordError{
			Index:  len(b.docs),
			Field:  "location",
			Reason: "location is required",
		}
		return b.err
	}
	if first, dup := b.locations[doc.Location]; dup {
		b.err = &apperrors.DuplicateLocationError{
			Location:    doc.Location,
			FirstIndex:  int(first),
			SecondIndex: len(b.docs),
		}
		return b.err
	}

	id := uint32(len(b.docs))
	var lengths FieldLengths
	for _, field := range tokenizer.Fields {
		source := doc.Title
		if field == tokenizer.FieldText {
			source = doc.Text
		}
		counts := make(map[string]uint32)
		var n uint32
		for tok := range b.tok.Tokens(source, field) {
			counts[tok.Term]++
			n++
		}
		for term, freq := range counts {
			b.terms[term] = append(b.terms[term], Posting{
				DocID:     id,
				Field:     field,
				Frequency: freq,
			})
		}
		lengths[field] = n
		if n > 0 {
			b.fields[field].DocCount++
			b.fields[field].TotalTokens += int64(n)
		}
	}

	doc.ID = id
	doc.Text = ""
	b.docs = append(b.docs, doc)
	b.lengths = append(b.lengths, lengths)
	b.locations[doc.Location] = id
	return nil
}

// Finish returns the built Index, or the first error seen by Add. The
// Builder cannot be reused afterwards.
func (b *Builder) Finish() (*Index, error) {
	if b.finished {
		return nil, fmt.Errorf("builder already finished")
	}
	b.finished = true
	if b.err != nil {
		return nil, b.err
	}
	ix := &Index{
		docs:        b.docs,
		lengths:     b.lengths,
		locations:   b.locations,
		terms:       b.terms,
		termList:    sortedKeys(b.terms),
		docFreq:     make(map[string][len(tokenizer.Fields)]int, len(b.terms)),
		fields:      b.fields,
		fingerprint: b.tok.Fingerprint(),
	}
	for term, postings := range b.terms {
		var df [len(tokenizer.Fields)]int
		for _, p := range postings {
			df[p.Field]++
		}
		ix.docFreq[term] = df
	}
	b.docs, b.lengths, b.locations, b.terms = nil, nil, nil, nil
	return ix, nil
}

// Build indexes docs in order with tok. It fails without returning an Index
// if any document has an empty or repeated location.
func Build(docs []Document, tok *tokenizer.Tokenizer) (*Index, error) {
	b := NewBuilder(tok)
	for _, doc := range docs {
		if err := b.Add(doc); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}
