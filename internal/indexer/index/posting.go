package index

import "github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"

// Posting records how often a term occurs in one field of one document.
type Posting struct {
	DocID     uint32
	Field     tokenizer.Field
	Frequency uint32
}

// PostingList is ordered by ascending DocID, title before text within a
// document.
type PostingList []Posting

type TermEntry struct {
	Term     string
	Postings PostingList
}

// FieldLengths holds a document's token count per field, indexed by
// tokenizer.Field.
type FieldLengths [len(tokenizer.Fields)]uint32

// FieldStats aggregates one field across the corpus. DocCount counts
// documents with at least one token in the field.
type FieldStats struct {
	DocCount    int
	TotalTokens int64
}

// AvgLength is the mean token count over documents where the field is
// non-empty.
func (s FieldStats) AvgLength() float64 {
	if s.DocCount == 0 {
		return 0
	}
	return float64(s.TotalTokens) / float64(s.DocCount)
}

func less(a, b Posting) bool {
	if a.DocID != b.DocID {
		return a.DocID < b.DocID
	}
	return a.Field < b.Field
}
