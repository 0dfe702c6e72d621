// Package benchmark contains Go benchmarks for index building,
// serialization and the search pipeline, measuring throughput and
// allocation behaviour.
package benchmark

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
)

var topics = []string{"microbiome", "abundance", "taxonomy", "diversity", "distance", "ordination", "sample", "feature"}

func syntheticCorpus(n int) []index.Document {
	docs := make([]index.Document, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, index.Document{
			Location: fmt.Sprintf("page%d.html#section-%d", i/10, i),
			Page:     fmt.Sprintf("Page %d", i/10),
			Title:    fmt.Sprintf("Working with %s and %s", topics[i%len(topics)], topics[(i+1)%len(topics)]),
			Category: "section",
			Text: fmt.Sprintf("This section covers %s %s %s for microbial community data analysis in Julia.",
				topics[i%len(topics)], topics[(i+2)%len(topics)], topics[(i+3)%len(topics)]),
		})
	}
	return docs
}

// BenchmarkBuild measures index build throughput at various corpus sizes.
func BenchmarkBuild(b *testing.B) {
	tok := tokenizer.Default()
	for _, size := range []int{100, 1000, 5000} {
		docs := syntheticCorpus(size)
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := index.Build(docs, tok); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkEncode measures serialization with and without compression.
func BenchmarkEncode(b *testing.B) {
	ix, err := index.Build(syntheticCorpus(5000), tokenizer.Default())
	if err != nil {
		b.Fatal(err)
	}
	for _, compress := range []bool{false, true} {
		b.Run(fmt.Sprintf("compress_%t", compress), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				data, err := segment.Encode(ix, segment.EncodeOptions{Compress: compress})
				if err != nil {
					b.Fatal(err)
				}
				b.SetBytes(int64(len(data)))
			}
		})
	}
}

// BenchmarkDecode measures loading a serialized 5 000 document index.
func BenchmarkDecode(b *testing.B) {
	ix, err := index.Build(syntheticCorpus(5000), tokenizer.Default())
	if err != nil {
		b.Fatal(err)
	}
	for _, compress := range []bool{false, true} {
		data, err := segment.Encode(ix, segment.EncodeOptions{Compress: compress})
		if err != nil {
			b.Fatal(err)
		}
		b.Run(fmt.Sprintf("compress_%t", compress), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				if _, err := segment.Decode(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkPostingsLookup measures concurrent term lookups against one
// shared index.
func BenchmarkPostingsLookup(b *testing.B) {
	ix, err := index.Build(syntheticCorpus(10000), tokenizer.Default())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = ix.Postings(topics[i%len(topics)])
			i++
		}
	})
}
