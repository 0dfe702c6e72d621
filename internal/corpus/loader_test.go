package corpus

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

func TestLoadDocumenterIndex(t *testing.T) {
	a := NewAdapter(Options{StripMarkup: true})
	docs, report, err := a.LoadFile(filepath.Join("testdata", "search_index.js"))
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Accepted)

	assert.Equal(t, "index.html#", docs[0].Location)
	assert.Equal(t, "page", docs[0].Category)
	assert.Empty(t, docs[0].Text)

	assert.Equal(t, "Microbiome.jl For analysis of microbiome and microbial community data", docs[1].Title)
	assert.Contains(t, docs[2].Text, "there's a convenience function")
	assert.Contains(t, docs[2].Text, `abundancetable("x")`)
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"array", `[{"location":"a"},{"location":"b"}]`, []string{"a", "b"}},
		{"object", `{"docs":[{"location":"a"}]}`, []string{"a"}},
		{"const assignment", `const idx = {"docs":[{"location":"a"},]};`, []string{"a"}},
		{"empty docs", `{"docs":[]}`, []string{}},
		{"unknown fields ignored", `[{"location":"a","extra":1}]`, []string{"a"}},
		{"escaped quote kept", `[{"location":"a","text":"say \"hi\", it\'s fine,]"}]`, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, _, err := NewAdapter(Options{}).Load(strings.NewReader(tt.input))
			require.NoError(t, err)
			got := make([]string, 0, len(docs))
			for _, d := range docs {
				got = append(got, d.Location)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadPreservesStringContent(t *testing.T) {
	docs, _, err := NewAdapter(Options{}).Load(strings.NewReader(
		`[{"location":"a","text":"say \"hi\", it\'s fine,]"}]`))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, `say "hi", it's fine,]`, docs[0].Text)
}

func TestLoadRejectsMalformedCorpus(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not json", "hello"},
		{"object without docs", `{"pages":[]}`},
		{"broken array", `[{"location":"a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, _, err := NewAdapter(Options{Lenient: true}).Load(strings.NewReader(tt.input))
			assert.Nil(t, docs)
			assert.ErrorIs(t, err, apperrors.ErrInvalidRecord)
		})
	}
}

func TestLoadBadRecord(t *testing.T) {
	input := `[{"location":"a"},{"location":42},{"location":""},{"location":"d"}]`

	_, _, err := NewAdapter(Options{}).Load(strings.NewReader(input))
	var invalid *apperrors.InvalidRecordError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Index)

	docs, report, err := NewAdapter(Options{Lenient: true}).Load(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d", docs[1].Location)
	require.Len(t, report.Rejected, 2)
	assert.Equal(t, 1, report.Rejected[0].Index)
	assert.Equal(t, 2, report.Rejected[1].Index)
}

func TestLoadFileMissing(t *testing.T) {
	_, _, err := NewAdapter(Options{}).LoadFile(filepath.Join(t.TempDir(), "missing.js"))
	assert.Error(t, err)
}
