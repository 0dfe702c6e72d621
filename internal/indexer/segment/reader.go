package segment

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/golang/snappy"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

// Decode parses data produced by Encode. It never returns a partially
// populated index: structural problems yield a CorruptIndexError and an
// unknown format version yields an UnsupportedVersionError.
func Decode(data []byte) (*index.Index, error) {
	if len(data) < 8 {
		return nil, apperrors.NewCorrupt("header", "input is %d bytes", len(data))
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != MagicBytes {
		return nil, apperrors.NewCorrupt("header", "bad magic bytes %x", magic)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != FormatVersion {
		return nil, &apperrors.UnsupportedVersionError{Version: version, Supported: FormatVersion}
	}
	if len(data) < HeaderSize+FooterSize {
		return nil, apperrors.NewCorrupt("header", "input is %d bytes, need at least %d", len(data), HeaderSize+FooterSize)
	}
	header := parseHeader(data[:HeaderSize])
	if header.Flags&^FlagSnappy != 0 {
		return nil, apperrors.NewCorrupt("header", "unknown flags %x", header.Flags)
	}
	if uint64(len(data)-HeaderSize-FooterSize) != header.BodySize {
		return nil, apperrors.NewCorrupt("header", "body size %d does not match input length %d", header.BodySize, len(data))
	}
	footer := data[len(data)-FooterSize:]
	if binary.LittleEndian.Uint32(footer[4:8]) != MagicBytes {
		return nil, apperrors.NewCorrupt("footer", "missing end marker")
	}

	body := data[HeaderSize : len(data)-FooterSize]
	if header.Flags&FlagSnappy != 0 {
		decoded, err := snappy.Decode(nil, body)
		if err != nil {
			return nil, apperrors.NewCorrupt("body", "snappy: %v", err)
		}
		body = decoded
	}
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(footer[0:4]) {
		return nil, apperrors.NewCorrupt("footer", "checksum mismatch")
	}
	bodyLen := uint64(len(body))
	for _, size := range []uint64{header.StatsSize, header.DocsSize, header.DictSize, header.PostSize} {
		if size > bodyLen {
			return nil, apperrors.NewCorrupt("body", "section of %d bytes exceeds body of %d", size, bodyLen)
		}
	}
	total := header.StatsSize + header.DocsSize + header.DictSize + header.PostSize
	if total != bodyLen {
		return nil, apperrors.NewCorrupt("body", "sections total %d bytes, body is %d", total, len(body))
	}

	offset := uint64(0)
	next := func(size uint64) []byte {
		section := body[offset : offset+size]
		offset += size
		return section
	}
	statsData := next(header.StatsSize)
	docsData := next(header.DocsSize)
	dictData := next(header.DictSize)
	postData := next(header.PostSize)

	var stats statsSection
	if err := strictUnmarshal(statsData, &stats); err != nil {
		return nil, apperrors.NewCorrupt("stats", "%v", err)
	}
	if len(stats.Fields) != len(tokenizer.Fields) {
		return nil, apperrors.NewCorrupt("stats", "expected %d fields, got %d", len(tokenizer.Fields), len(stats.Fields))
	}
	parts := index.Parts{TokenizerFingerprint: stats.Tokenizer}
	for i, f := range tokenizer.Fields {
		fs := stats.Fields[i]
		if fs.Field != f.String() {
			return nil, apperrors.NewCorrupt("stats", "field %d is %q, expected %q", i, fs.Field, f.String())
		}
		parts.Fields[f] = index.FieldStats{DocCount: fs.Docs, TotalTokens: fs.Tokens}
	}

	var docs []docRecord
	if err := strictUnmarshal(docsData, &docs); err != nil {
		return nil, apperrors.NewCorrupt("documents", "%v", err)
	}
	if uint64(len(docs)) != uint64(header.DocCount) {
		return nil, apperrors.NewCorrupt("documents", "header declares %d documents, table has %d", header.DocCount, len(docs))
	}
	parts.Documents = make([]index.Document, 0, len(docs))
	parts.Lengths = make([]index.FieldLengths, 0, len(docs))
	for _, d := range docs {
		if len(d.Lengths) != len(tokenizer.Fields) {
			return nil, apperrors.NewCorrupt("documents", "document %d has %d field lengths", d.ID, len(d.Lengths))
		}
		var lengths index.FieldLengths
		copy(lengths[:], d.Lengths)
		parts.Documents = append(parts.Documents, index.Document{
			ID:       d.ID,
			Location: d.Location,
			Page:     d.Page,
			Title:    d.Title,
			Category: d.Category,
		})
		parts.Lengths = append(parts.Lengths, lengths)
	}

	var dict []DictEntry
	if err := strictUnmarshal(dictData, &dict); err != nil {
		return nil, apperrors.NewCorrupt("dictionary", "%v", err)
	}
	if uint64(len(dict)) != uint64(header.TermCount) {
		return nil, apperrors.NewCorrupt("dictionary", "header declares %d terms, dictionary has %d", header.TermCount, len(dict))
	}
	parts.Terms = make([]index.TermEntry, 0, len(dict))
	for _, entry := range dict {
		if entry.PostOffset < 0 || entry.PostLen < 0 || uint64(entry.PostOffset)+uint64(entry.PostLen) > uint64(len(postData)) {
			return nil, apperrors.NewCorrupt("dictionary", "term %q points outside postings section", entry.Term)
		}
		var triples [][3]uint32
		block := postData[entry.PostOffset : entry.PostOffset+int64(entry.PostLen)]
		if err := strictUnmarshal(block, &triples); err != nil {
			return nil, apperrors.NewCorrupt("postings", "term %q: %v", entry.Term, err)
		}
		if len(triples) != entry.Count {
			return nil, apperrors.NewCorrupt("postings", "term %q declares %d postings, block has %d", entry.Term, entry.Count, len(triples))
		}
		postings := make(index.PostingList, 0, len(triples))
		for _, tr := range triples {
			if tr[1] > 0xff {
				return nil, apperrors.NewCorrupt("postings", "term %q has unknown field %d", entry.Term, tr[1])
			}
			postings = append(postings, index.Posting{
				DocID:     tr[0],
				Field:     tokenizer.Field(tr[1]),
				Frequency: tr[2],
			})
		}
		parts.Terms = append(parts.Terms, index.TermEntry{Term: entry.Term, Postings: postings})
	}

	return index.FromParts(parts)
}

// ReadFile loads and decodes a serialized index from path.
func ReadFile(path string) (*index.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}
	ix, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return ix, nil
}

// ReadHeader returns the header of a serialized index without decoding the
// body. Useful for inspecting version and counts.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, apperrors.NewCorrupt("header", "input is %d bytes", len(data))
	}
	h := parseHeader(data[:HeaderSize])
	if h.Magic != MagicBytes {
		return Header{}, apperrors.NewCorrupt("header", "bad magic bytes %x", h.Magic)
	}
	return h, nil
}

func parseHeader(b []byte) Header {
	return Header{
		Magic:     binary.LittleEndian.Uint32(b[0:4]),
		Version:   binary.LittleEndian.Uint32(b[4:8]),
		Flags:     binary.LittleEndian.Uint32(b[8:12]),
		DocCount:  binary.LittleEndian.Uint32(b[12:16]),
		TermCount: binary.LittleEndian.Uint32(b[16:20]),
		StatsSize: binary.LittleEndian.Uint64(b[24:32]),
		DocsSize:  binary.LittleEndian.Uint64(b[32:40]),
		DictSize:  binary.LittleEndian.Uint64(b[40:48]),
		PostSize:  binary.LittleEndian.Uint64(b[48:56]),
		BodySize:  binary.LittleEndian.Uint64(b[56:64]),
	}
}

// strictUnmarshal rejects unknown fields and trailing data, so a section
// that merely looks like JSON cannot pass as a valid one.
func strictUnmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("section is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.InputOffset() != int64(len(data)) {
		return fmt.Errorf("trailing data after section")
	}
	return nil
}
