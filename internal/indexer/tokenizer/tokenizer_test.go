package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

func TestTerms(t *testing.T) {
	tok := Default()
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"punctuation only", " .,;:!? ", []string{}},
		{"species name", "E. coli", []string{"e", "coli"}},
		{"case folding", "Microbiome MICROBIOME microbiome", []string{"microbiome", "microbiome", "microbiome"}},
		{"digits kept", "release 0.1 of v2", []string{"release", "0", "1", "of", "v2"}},
		{"code punctuation", "Pkg.add(\"Microbiome\")", []string{"pkg", "add", "microbiome"}},
		{"full width letters", "ＡＢＣ", []string{"abc"}},
		{"german sharp s", "Straße", []string{"strasse"}},
		{"accents kept", "Café naïve", []string{"café", "naïve"}},
		{"devanagari vowel signs", "हिन्दी भाषा", []string{"हिन्दी", "भाषा"}},
		{"tamil vowel signs", "தமிழ் மொழி", []string{"தமிழ்", "மொழி"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Terms(tt.input, FieldText))
		})
	}
}

func TestTokenPositions(t *testing.T) {
	tok := Default()
	var got []Token
	for tk := range tok.Tokens("alpha, beta; gamma", FieldTitle) {
		got = append(got, tk)
	}
	assert.Equal(t, []Token{
		{Term: "alpha", Position: 0},
		{Term: "beta", Position: 1},
		{Term: "gamma", Position: 2},
	}, got)
}

func TestTokensRestartable(t *testing.T) {
	tok := Default()
	seq := tok.Tokens("Bacteroides fragilis and E. coli", FieldText)

	first := make([]string, 0)
	for tk := range seq {
		first = append(first, tk.Term)
	}
	second := make([]string, 0)
	for tk := range seq {
		second = append(second, tk.Term)
	}
	assert.Equal(t, first, second)
	assert.Len(t, first, 5)
}

func TestTokensEarlyStop(t *testing.T) {
	tok := Default()
	count := 0
	for range tok.Tokens("one two three four", FieldText) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestMinLength(t *testing.T) {
	tok := New(config.TokenizerConfig{MinLength: 3})
	assert.Equal(t, []string{"coli", "abundance"}, tok.Terms("E. coli of abundance", FieldText))
}

func TestStopWords(t *testing.T) {
	tok := New(config.TokenizerConfig{MinLength: 1, StopWords: []string{"The", "of"}})
	assert.Equal(t, []string{"analysis", "microbiome"}, tok.Terms("The analysis of THE microbiome", FieldText))
	assert.True(t, tok.IsStopWord("the"))
	assert.False(t, tok.IsStopWord("analysis"))
	assert.Empty(t, tok.Terms("the OF the", FieldText))
}

func TestStemming(t *testing.T) {
	tok := New(config.TokenizerConfig{MinLength: 1, Stem: true})
	terms := tok.Terms("running runs", FieldText)
	require.Len(t, terms, 2)
	assert.Equal(t, "run", terms[0])
	assert.Equal(t, "run", terms[1])
}

func TestTitleAndTextTokenizeAlike(t *testing.T) {
	tok := Default()
	in := "Microbial Abundances"
	assert.Equal(t, tok.Terms(in, FieldTitle), tok.Terms(in, FieldText))
}

func TestFingerprint(t *testing.T) {
	a := New(config.TokenizerConfig{MinLength: 1, StopWords: []string{"a", "the"}})
	b := New(config.TokenizerConfig{MinLength: 1, StopWords: []string{"THE", "a"}})
	c := New(config.TokenizerConfig{MinLength: 2, StopWords: []string{"a", "the"}})
	d := New(config.TokenizerConfig{MinLength: 1, StopWords: []string{"a", "the"}, Stem: true})

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
	assert.Equal(t, Default().Fingerprint(), New(config.TokenizerConfig{}).Fingerprint())
}

func TestFieldString(t *testing.T) {
	assert.Equal(t, "title", FieldTitle.String())
	assert.Equal(t, "text", FieldText.String())
	assert.False(t, Field(7).Valid())
	assert.Equal(t, "field(7)", Field(7).String())
}
