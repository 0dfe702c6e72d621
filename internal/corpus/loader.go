package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

// Load reads a corpus and adapts every record. Accepted inputs are a JSON
// array of records, an object {"docs": [...]}, or the JavaScript assignment
// `var documenterSearchIndex = {"docs": [...]}` emitted by Documenter.
// Records that fail to decode are treated like records that fail validation.
func (a *Adapter) Load(r io.Reader) ([]index.Document, *Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading corpus: %w", err)
	}
	raw, err := splitRecords(data)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{Total: len(raw)}
	docs := make([]index.Document, 0, len(raw))
	for i, msg := range raw {
		var rec Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			derr := &apperrors.InvalidRecordError{Index: i, Field: "record", Reason: err.Error()}
			if rerr := a.reject(report, derr); rerr != nil {
				return nil, report, rerr
			}
			continue
		}
		doc, err := a.adapt(rec, i)
		if err != nil {
			if rerr := a.reject(report, err); rerr != nil {
				return nil, report, rerr
			}
			continue
		}
		docs = append(docs, doc)
		report.Accepted++
	}
	a.logger.Info("corpus loaded",
		"records", report.Total,
		"accepted", report.Accepted,
		"rejected", len(report.Rejected),
	)
	return docs, report, nil
}

// LoadFile opens path and calls Load.
func (a *Adapter) LoadFile(path string) ([]index.Document, *Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer f.Close()
	docs, report, err := a.Load(f)
	if err != nil {
		return nil, report, fmt.Errorf("loading corpus %s: %w", path, err)
	}
	return docs, report, nil
}

func splitRecords(data []byte) ([]json.RawMessage, error) {
	payload := relaxJSON(bytes.TrimSpace(stripScriptPrefix(data)))
	if len(payload) == 0 {
		return nil, &apperrors.InvalidRecordError{Index: -1, Field: "corpus", Reason: "corpus is empty"}
	}
	switch payload[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, &apperrors.InvalidRecordError{Index: -1, Field: "corpus", Reason: err.Error()}
		}
		return raw, nil
	case '{':
		var wrapper struct {
			Docs *[]json.RawMessage `json:"docs"`
		}
		if err := json.Unmarshal(payload, &wrapper); err != nil {
			return nil, &apperrors.InvalidRecordError{Index: -1, Field: "corpus", Reason: err.Error()}
		}
		if wrapper.Docs == nil {
			return nil, &apperrors.InvalidRecordError{Index: -1, Field: "docs", Reason: "corpus object has no docs array"}
		}
		return *wrapper.Docs, nil
	default:
		return nil, &apperrors.InvalidRecordError{Index: -1, Field: "corpus", Reason: fmt.Sprintf("unexpected leading character %q", payload[0])}
	}
}

// stripScriptPrefix removes a leading `var name =` assignment and a trailing
// semicolon, leaving the JSON value.
func stripScriptPrefix(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("var ")) &&
		!bytes.HasPrefix(trimmed, []byte("const ")) &&
		!bytes.HasPrefix(trimmed, []byte("let ")) {
		return trimmed
	}
	eq := bytes.IndexByte(trimmed, '=')
	if eq < 0 {
		return trimmed
	}
	value := bytes.TrimSpace(trimmed[eq+1:])
	return bytes.TrimSuffix(value, []byte(";"))
}

// relaxJSON rewrites the JavaScript object-literal leniencies Documenter
// emits into strict JSON: trailing commas before ] or } are dropped and the
// \' escape inside strings becomes a plain quote.
func relaxJSON(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			switch c {
			case '\\':
				if i+1 < len(data) && data[i+1] == '\'' {
					out = append(out, '\'')
					i++
					continue
				}
				out = append(out, c)
				if i+1 < len(data) {
					out = append(out, data[i+1])
					i++
				}
				continue
			case '"':
				inString = false
			}
			out = append(out, c)
			continue
		}
		switch c {
		case '"':
			inString = true
		case ',':
			j := i + 1
			for j < len(data) && isSpace(data[j]) {
				j++
			}
			if j < len(data) && (data[j] == ']' || data[j] == '}') {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
