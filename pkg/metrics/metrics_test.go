package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.IndexBuildsTotal.WithLabelValues("ok").Inc()
	m.DocsIndexedTotal.Add(42)
	m.ActiveIndexTerms.Set(7)

	path := filepath.Join(t.TempDir(), "docsearch.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `docsearch_index_builds_total{status="ok"} 1`)
	assert.Contains(t, out, "docsearch_docs_indexed_total 42")
	assert.Contains(t, out, "docsearch_active_index_terms 7")
}

func TestIndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
