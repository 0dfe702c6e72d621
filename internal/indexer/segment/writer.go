// Package segment converts an index.Index to and from its transportable
// binary form (.dsix). The layout is a fixed 64-byte header, a body holding
// the stats, document table, term dictionary and postings sections (snappy
// compressed when FlagSnappy is set), and an 8-byte footer carrying a CRC32
// of the uncompressed body.
package segment

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
)

// MagicBytes identifies a serialized index ("DSIX").
const (
	MagicBytes    uint32 = 0x44534958
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FooterSize    int    = 8
	FileExt              = ".dsix"
)

// FlagSnappy marks a body compressed with snappy block encoding.
const FlagSnappy uint32 = 1 << 0

// Header is the fixed 64-byte prefix of every serialized index. Section
// sizes refer to the uncompressed body, where sections are laid out in
// order: stats, documents, dictionary, postings.
type Header struct {
	Magic     uint32
	Version   uint32
	Flags     uint32
	DocCount  uint32
	TermCount uint32
	StatsSize uint64
	DocsSize  uint64
	DictSize  uint64
	PostSize  uint64
	BodySize  uint64
}

// DictEntry maps a term to its postings block and posting count.
type DictEntry struct {
	Term       string `json:"t"`
	PostOffset int64  `json:"o"`
	PostLen    int    `json:"l"`
	Count      int    `json:"n"`
}

type fieldSection struct {
	Field  string `json:"field"`
	Docs   int    `json:"docs"`
	Tokens int64  `json:"tokens"`
}

type statsSection struct {
	Tokenizer string         `json:"tokenizer"`
	Fields    []fieldSection `json:"fields"`
}

type docRecord struct {
	ID       uint32   `json:"id"`
	Location string   `json:"location"`
	Page     string   `json:"page"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Lengths  []uint32 `json:"len"`
}

// EncodeOptions controls optional features of the encoded form.
type EncodeOptions struct {
	Compress bool
}

// Encode serializes ix. The output is a pure function of the index content
// and opts, so equal indices encode to equal bytes.
func Encode(ix *index.Index, opts EncodeOptions) ([]byte, error) {
	parts := ix.Parts()

	stats := statsSection{Tokenizer: parts.TokenizerFingerprint}
	for _, f := range tokenizer.Fields {
		stats.Fields = append(stats.Fields, fieldSection{
			Field:  f.String(),
			Docs:   parts.Fields[f].DocCount,
			Tokens: parts.Fields[f].TotalTokens,
		})
	}
	statsData, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("marshaling stats: %w", err)
	}

	docs := make([]docRecord, 0, len(parts.Documents))
	for i, d := range parts.Documents {
		docs = append(docs, docRecord{
			ID:       d.ID,
			Location: d.Location,
			Page:     d.Page,
			Title:    d.Title,
			Category: d.Category,
			Lengths:  parts.Lengths[i][:],
		})
	}
	docsData, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("marshaling documents: %w", err)
	}

	var postings bytes.Buffer
	dict := make([]DictEntry, 0, len(parts.Terms))
	for _, entry := range parts.Terms {
		triples := make([][3]uint32, 0, len(entry.Postings))
		for _, p := range entry.Postings {
			triples = append(triples, [3]uint32{p.DocID, uint32(p.Field), p.Frequency})
		}
		data, err := json.Marshal(triples)
		if err != nil {
			return nil, fmt.Errorf("marshaling postings for term %q: %w", entry.Term, err)
		}
		dict = append(dict, DictEntry{
			Term:       entry.Term,
			PostOffset: int64(postings.Len()),
			PostLen:    len(data),
			Count:      len(entry.Postings),
		})
		postings.Write(data)
	}
	dictData, err := json.Marshal(dict)
	if err != nil {
		return nil, fmt.Errorf("marshaling dictionary: %w", err)
	}

	body := make([]byte, 0, len(statsData)+len(docsData)+len(dictData)+postings.Len())
	body = append(body, statsData...)
	body = append(body, docsData...)
	body = append(body, dictData...)
	body = append(body, postings.Bytes()...)
	checksum := crc32.ChecksumIEEE(body)

	header := Header{
		Magic:     MagicBytes,
		Version:   FormatVersion,
		DocCount:  uint32(len(docs)),
		TermCount: uint32(len(dict)),
		StatsSize: uint64(len(statsData)),
		DocsSize:  uint64(len(docsData)),
		DictSize:  uint64(len(dictData)),
		PostSize:  uint64(postings.Len()),
	}
	stored := body
	if opts.Compress {
		header.Flags |= FlagSnappy
		stored = snappy.Encode(nil, body)
	}
	header.BodySize = uint64(len(stored))

	out := make([]byte, 0, HeaderSize+len(stored)+FooterSize)
	out = append(out, header.marshal()...)
	out = append(out, stored...)
	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], checksum)
	binary.LittleEndian.PutUint32(footer[4:8], MagicBytes)
	out = append(out, footer...)
	return out, nil
}

func (h Header) marshal() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.Flags)
	binary.LittleEndian.PutUint32(b[12:16], h.DocCount)
	binary.LittleEndian.PutUint32(b[16:20], h.TermCount)
	binary.LittleEndian.PutUint64(b[24:32], h.StatsSize)
	binary.LittleEndian.PutUint64(b[32:40], h.DocsSize)
	binary.LittleEndian.PutUint64(b[40:48], h.DictSize)
	binary.LittleEndian.PutUint64(b[48:56], h.PostSize)
	binary.LittleEndian.PutUint64(b[56:64], h.BodySize)
	return b
}

// Writer writes serialized indices into a directory.
type Writer struct {
	dataDir string
	opts    EncodeOptions
}

// NewWriter creates a Writer that writes into dataDir.
func NewWriter(dataDir string, opts EncodeOptions) *Writer {
	return &Writer{dataDir: dataDir, opts: opts}
}

// Write atomically creates <name>.dsix containing ix. It writes to a .tmp
// file first and renames on success, returning the final path.
func (w *Writer) Write(name string, ix *index.Index) (string, error) {
	data, err := Encode(ix, w.opts)
	if err != nil {
		return "", fmt.Errorf("encoding index: %w", err)
	}
	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating index directory: %w", err)
	}
	finalPath := filepath.Join(w.dataDir, name+FileExt)
	tmpPath := finalPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp index file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing index file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("syncing index file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing index file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("renaming index file: %w", err)
	}
	return finalPath, nil
}
