package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

func sampleDocs() []Document {
	return []Document{
		{Location: "a#1", Page: "A", Title: "E. coli", Category: "section", Text: "E. coli is a bacterium"},
		{Location: "b#1", Page: "B", Title: "Bacteroides fragilis", Category: "section", Text: "Another bacterium"},
		{Location: "c#", Page: "C", Title: "Home", Category: "page", Text: ""},
	}
}

func mustBuild(t *testing.T, docs []Document) *Index {
	t.Helper()
	ix, err := Build(docs, tokenizer.Default())
	require.NoError(t, err)
	return ix
}

func TestBuildAssignsSequentialIDs(t *testing.T) {
	docs := sampleDocs()
	docs[0].ID = 42
	ix := mustBuild(t, docs)

	require.Equal(t, 3, ix.DocCount())
	for i, doc := range ix.Documents() {
		assert.Equal(t, uint32(i), doc.ID)
		assert.Empty(t, doc.Text)
	}
	id, ok := ix.LookupLocation("b#1")
	require.True(t, ok)
	assert.Equal(t, uint32(1), id)

	doc, ok := ix.Document(1)
	require.True(t, ok)
	assert.Equal(t, "Bacteroides fragilis", doc.Title)
	assert.Equal(t, "section", doc.Category)

	_, ok = ix.Document(3)
	assert.False(t, ok)
}

func TestBuildPostings(t *testing.T) {
	ix := mustBuild(t, sampleDocs())

	assert.Equal(t, PostingList{
		{DocID: 0, Field: tokenizer.FieldText, Frequency: 1},
		{DocID: 1, Field: tokenizer.FieldText, Frequency: 1},
	}, ix.Postings("bacterium"))
	assert.Equal(t, PostingList{
		{DocID: 0, Field: tokenizer.FieldTitle, Frequency: 1},
		{DocID: 0, Field: tokenizer.FieldText, Frequency: 1},
	}, ix.Postings("coli"), "title posting precedes text posting for the same document")

	assert.Nil(t, ix.Postings("missing"))
	assert.False(t, ix.Contains("missing"))
	assert.True(t, ix.Contains("fragilis"))

	assert.Equal(t, 2, ix.DocFreq("bacterium", tokenizer.FieldText))
	assert.Equal(t, 0, ix.DocFreq("bacterium", tokenizer.FieldTitle))
}

func TestBuildFieldStats(t *testing.T) {
	ix := mustBuild(t, sampleDocs())

	title := ix.FieldStats(tokenizer.FieldTitle)
	assert.Equal(t, 3, title.DocCount)
	assert.Equal(t, int64(5), title.TotalTokens)

	// The home page has no text, so it does not count towards text stats.
	text := ix.FieldStats(tokenizer.FieldText)
	assert.Equal(t, 2, text.DocCount)
	assert.Equal(t, int64(7), text.TotalTokens)
	assert.InDelta(t, 3.5, text.AvgLength(), 1e-12)

	assert.Equal(t, 2, ix.DocLength(0, tokenizer.FieldTitle))
	assert.Equal(t, 0, ix.DocLength(2, tokenizer.FieldText))
	assert.Equal(t, 0, ix.DocLength(9, tokenizer.FieldText))
}

func TestTermsSorted(t *testing.T) {
	ix := mustBuild(t, sampleDocs())
	terms := ix.Terms()
	require.Equal(t, ix.TermCount(), len(terms))
	assert.IsNonDecreasing(t, terms)

	snap := ix.Snapshot()
	require.Len(t, snap, len(terms))
	for i, entry := range snap {
		assert.Equal(t, terms[i], entry.Term)
		assert.NotEmpty(t, entry.Postings)
	}
}

func TestBuildDuplicateLocation(t *testing.T) {
	docs := sampleDocs()
	docs[2].Location = "a#1"

	ix, err := Build(docs, tokenizer.Default())
	require.Error(t, err)
	assert.Nil(t, ix)
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateLocation))

	var dup *apperrors.DuplicateLocationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a#1", dup.Location)
	assert.Equal(t, 0, dup.FirstIndex)
	assert.Equal(t, 2, dup.SecondIndex)
}

func TestBuildEmptyLocation(t *testing.T) {
	docs := sampleDocs()
	docs[1].Location = ""

	ix, err := Build(docs, tokenizer.Default())
	assert.Nil(t, ix)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRecord)
}

func TestBuilderErrorIsSticky(t *testing.T) {
	b := NewBuilder(tokenizer.Default())
	require.NoError(t, b.Add(Document{Location: "x"}))
	first := b.Add(Document{Location: "x"})
	require.Error(t, first)
	assert.Equal(t, first, b.Add(Document{Location: "y"}))

	ix, err := b.Finish()
	assert.Nil(t, ix)
	assert.Equal(t, first, err)

	_, err = b.Finish()
	assert.Error(t, err)
}

func TestBuildEmptyCorpus(t *testing.T) {
	ix := mustBuild(t, nil)
	assert.Equal(t, 0, ix.DocCount())
	assert.Equal(t, 0, ix.TermCount())
	assert.Equal(t, 0.0, ix.FieldStats(tokenizer.FieldText).AvgLength())
}

func TestRecordsTokenizerFingerprint(t *testing.T) {
	tok := tokenizer.Default()
	ix, err := Build(sampleDocs(), tok)
	require.NoError(t, err)
	assert.Equal(t, tok.Fingerprint(), ix.TokenizerFingerprint())
}

func TestFromPartsRoundTrip(t *testing.T) {
	ix := mustBuild(t, sampleDocs())
	again, err := FromParts(ix.Parts())
	require.NoError(t, err)
	assert.Equal(t, ix.Parts(), again.Parts())
	assert.Equal(t, ix.Postings("bacterium"), again.Postings("bacterium"))
	assert.Equal(t, ix.DocFreq("coli", tokenizer.FieldTitle), again.DocFreq("coli", tokenizer.FieldTitle))
}

func TestFromPartsRejectsInconsistentContent(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Parts)
	}{
		{"document id gap", func(p *Parts) { p.Documents[1].ID = 5 }},
		{"duplicate location", func(p *Parts) { p.Documents[1].Location = p.Documents[0].Location }},
		{"length count mismatch", func(p *Parts) { p.Lengths = p.Lengths[:1] }},
		{"field stats mismatch", func(p *Parts) { p.Fields[tokenizer.FieldText].TotalTokens++ }},
		{"terms out of order", func(p *Parts) { p.Terms[0], p.Terms[1] = p.Terms[1], p.Terms[0] }},
		{"posting out of range", func(p *Parts) { p.Terms[0].Postings[0].DocID = 99 }},
		{"zero frequency", func(p *Parts) { p.Terms[0].Postings[0].Frequency = 0 }},
		{"unknown field", func(p *Parts) { p.Terms[0].Postings[0].Field = 9 }},
		{"term without postings", func(p *Parts) { p.Terms[0].Postings = nil }},
		{"postings reversed", func(p *Parts) {
			for i, e := range p.Terms {
				if len(e.Postings) > 1 {
					e.Postings[0], e.Postings[1] = e.Postings[1], e.Postings[0]
					p.Terms[i] = e
					return
				}
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := mustBuild(t, sampleDocs()).Parts()
			tt.mutate(&parts)
			ix, err := FromParts(parts)
			assert.Nil(t, ix)
			assert.ErrorIs(t, err, apperrors.ErrCorruptIndex)
		})
	}
}
