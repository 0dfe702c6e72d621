// Package corpus maps external documentation records onto index.Document
// values. It validates the record schema, optionally strips HTML markup, and
// reads corpus files in the formats documentation generators emit.
package corpus

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

// Record is one entry of the external corpus schema.
type Record struct {
	Location string `json:"location" validate:"required,notblank"`
	Page     string `json:"page"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Options controls record handling. In lenient mode invalid records are
// collected into the Report instead of aborting the whole corpus.
// StripMarkup cleans titles and page names; body text is indexed as given,
// since it routinely contains code such as "x<y".
type Options struct {
	Lenient     bool
	StripMarkup bool
}

// Report summarises an AdaptAll or Load run.
type Report struct {
	Total    int
	Accepted int
	Rejected []*apperrors.InvalidRecordError
}

// Adapter converts records to documents. It is safe for concurrent use.
type Adapter struct {
	validate *validator.Validate
	opts     Options
	logger   *slog.Logger
}

// NewAdapter creates an Adapter with opts.
func NewAdapter(opts Options) *Adapter {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("registering notblank validation: %v", err))
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Adapter{
		validate: v,
		opts:     opts,
		logger:   slog.Default().With("component", "corpus-adapter"),
	}
}

var defaultAdapter = NewAdapter(Options{})

// Adapt converts rec with the default strict adapter.
func Adapt(rec Record) (index.Document, error) {
	return defaultAdapter.Adapt(rec)
}

// Adapt validates rec and maps it onto a Document. Category is kept as
// metadata; the ID is left for the index builder to assign.
func (a *Adapter) Adapt(rec Record) (index.Document, error) {
	return a.adapt(rec, -1)
}

func (a *Adapter) adapt(rec Record, pos int) (index.Document, error) {
	if err := a.validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return index.Document{}, &apperrors.InvalidRecordError{
				Index:  pos,
				Field:  fe.Field(),
				Reason: describe(fe),
			}
		}
		return index.Document{}, &apperrors.InvalidRecordError{Index: pos, Field: "record", Reason: err.Error()}
	}
	doc := index.Document{
		Location: rec.Location,
		Page:     rec.Page,
		Title:    rec.Title,
		Category: rec.Category,
		Text:     rec.Text,
	}
	if a.opts.StripMarkup {
		doc.Page = StripMarkup(doc.Page)
		doc.Title = StripMarkup(doc.Title)
	}
	return doc, nil
}

// AdaptAll converts records in order. In strict mode the first invalid
// record aborts with its error; in lenient mode it is logged, reported and
// skipped.
func (a *Adapter) AdaptAll(recs []Record) ([]index.Document, *Report, error) {
	report := &Report{Total: len(recs)}
	docs := make([]index.Document, 0, len(recs))
	for i, rec := range recs {
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
	return docs, report, nil
}

// reject records err in lenient mode and returns nil, or returns err
// unchanged in strict mode.
func (a *Adapter) reject(report *Report, err error) error {
	if !a.opts.Lenient {
		return err
	}
	var invalid *apperrors.InvalidRecordError
	if !errors.As(err, &invalid) {
		return err
	}
	report.Rejected = append(report.Rejected, invalid)
	a.logger.Warn("skipping invalid record",
		"index", invalid.Index,
		"field", invalid.Field,
		"reason", invalid.Reason,
	)
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "notblank":
		return fe.Field() + " must not be blank"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// tagPattern matches a complete start, end or self-closing tag at the start
// of its input and captures the element name.
var tagPattern = regexp.MustCompile(`^</?([A-Za-z][A-Za-z0-9]*)(?:\s[^<>]*)?/?>`)

// StripMarkup removes HTML tags and decodes entities, collapsing the
// resulting whitespace. Content of script and style elements is dropped.
// Only complete tags naming a known HTML element count as markup; any other
// '<' is kept as text, so "if a<b then c" comes back unchanged.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(escapeStrayLT(s)))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawText(name) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawText(name) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

func isRawText(tag []byte) bool {
	switch string(tag) {
	case "script", "style":
		return true
	}
	return false
}

// escapeStrayLT rewrites every '<' that does not open a well-formed tag of a
// known element as "&lt;", which the tokenizer then decodes back to text.
func escapeStrayLT(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for {
		i := strings.IndexByte(s, '<')
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i:]
		if m := tagPattern.FindStringSubmatchIndex(s); m != nil && atom.Lookup([]byte(strings.ToLower(s[m[2]:m[3]]))) != 0 {
			b.WriteString(s[:m[1]])
			s = s[m[1]:]
			continue
		}
		b.WriteString("&lt;")
		s = s[1:]
	}
}
