package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

func TestAdaptMapsFields(t *testing.T) {
	doc, err := Adapt(Record{
		Location: "index.html#Description-1",
		Page:     "Home",
		Title:    "Description",
		Category: "section",
		Text:     "Microbiome.jl is a package",
	})
	require.NoError(t, err)
	assert.Equal(t, "index.html#Description-1", doc.Location)
	assert.Equal(t, "Home", doc.Page)
	assert.Equal(t, "Description", doc.Title)
	assert.Equal(t, "section", doc.Category)
	assert.Equal(t, "Microbiome.jl is a package", doc.Text)
	assert.Zero(t, doc.ID)
}

func TestAdaptRejectsMissingLocation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		reason   string
	}{
		{"empty", "", "location is required"},
		{"blank", "  \t", "location must not be blank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Adapt(Record{Location: tt.location, Title: "x"})
			require.ErrorIs(t, err, apperrors.ErrInvalidRecord)
			var invalid *apperrors.InvalidRecordError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, "location", invalid.Field)
			assert.Equal(t, tt.reason, invalid.Reason)
			assert.Equal(t, -1, invalid.Index)
		})
	}
}

func TestAdaptAllStrict(t *testing.T) {
	a := NewAdapter(Options{})
	recs := []Record{
		{Location: "a"},
		{Location: ""},
		{Location: "c"},
	}
	docs, report, err := a.AdaptAll(recs)
	assert.Nil(t, docs)
	require.ErrorIs(t, err, apperrors.ErrInvalidRecord)
	var invalid *apperrors.InvalidRecordError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Index)
	assert.Equal(t, 1, report.Accepted)
}

func TestAdaptAllLenient(t *testing.T) {
	a := NewAdapter(Options{Lenient: true})
	recs := []Record{
		{Location: "a", Title: "A"},
		{Location: ""},
		{Location: "c", Title: "C"},
		{Location: " "},
	}
	docs, report, err := a.AdaptAll(recs)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Location)
	assert.Equal(t, "c", docs[1].Location)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Accepted)
	require.Len(t, report.Rejected, 2)
	assert.Equal(t, 1, report.Rejected[0].Index)
	assert.Equal(t, 3, report.Rejected[1].Index)
}

func TestAdaptStripMarkup(t *testing.T) {
	a := NewAdapter(Options{StripMarkup: true})
	doc, err := a.Adapt(Record{
		Location: "index.html#top",
		Title:    "Microbiome.jl <small>For analysis of microbiome data</small>",
		Page:     "<em>Home</em>",
		Text:     "julia> x<y && y<z\nif a<b then c",
	})
	require.NoError(t, err)
	assert.Equal(t, "Microbiome.jl For analysis of microbiome data", doc.Title)
	assert.Equal(t, "Home", doc.Page)
	assert.Equal(t, "julia> x<y && y<z\nif a<b then c", doc.Text, "body text is indexed verbatim")
	assert.Equal(t, "index.html#top", doc.Location, "location is never rewritten")
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"julia> x = 1", "julia> x = 1"},
		{"a <b>bold</b> word", "a bold word"},
		{"line<br/>break", "line break"},
		{"<style>p { color: red }</style>styled", "styled"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"if a<b then c", "if a<b then c"},
		{"x<y && y<z", "x<y && y<z"},
		{"a<b>bold</b> b<c", "a bold b<c"},
		{"vec<T> is generic", "vec<T> is generic"},
		{"1 < 2 <em>always</em>", "1 < 2 always"},
		{"<p>Uses <code>DataFrames</code> &amp; friends</p><script>var x = 1;</script>", "Uses DataFrames & friends"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripMarkup(tt.in), tt.in)
	}
}
