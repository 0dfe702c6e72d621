// Package errors defines the build- and load-time failures of the search
// engine. Every typed error unwraps to a package sentinel so callers can use
// errors.Is for the category and errors.As for the details.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateLocation  = errors.New("duplicate location")
	ErrInvalidRecord      = errors.New("invalid record")
	ErrCorruptIndex       = errors.New("corrupt index")
	ErrUnsupportedVersion = errors.New("unsupported index version")
	ErrTokenizerMismatch  = errors.New("tokenizer configuration mismatch")
	ErrInvalidWeight      = errors.New("invalid field weight")
)

// DuplicateLocationError reports two documents sharing one location.
type DuplicateLocationError struct {
	Location    string
	FirstIndex  int
	SecondIndex int
}

func (e *DuplicateLocationError) Error() string {
	return fmt.Sprintf("%s: %q at positions %d and %d",
		ErrDuplicateLocation.Error(), e.Location, e.FirstIndex, e.SecondIndex)
}

func (e *DuplicateLocationError) Unwrap() error {
	return ErrDuplicateLocation
}

// InvalidRecordError reports a corpus record that cannot become a Document.
// Index is the record's position in its input, or -1 when unknown.
type InvalidRecordError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s: %s", ErrInvalidRecord.Error(), e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %d: %s: %s", ErrInvalidRecord.Error(), e.Index, e.Field, e.Reason)
}

func (e *InvalidRecordError) Unwrap() error {
	return ErrInvalidRecord
}

// CorruptIndexError reports structurally invalid serialized index data.
type CorruptIndexError struct {
	Section string
	Reason  string
}

func (e *CorruptIndexError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCorruptIndex.Error(), e.Section, e.Reason)
}

func (e *CorruptIndexError) Unwrap() error {
	return ErrCorruptIndex
}

// NewCorrupt builds a CorruptIndexError with a formatted reason.
func NewCorrupt(section string, format string, args ...any) *CorruptIndexError {
	return &CorruptIndexError{
		Section: section,
		Reason:  fmt.Sprintf(format, args...),
	}
}

// UnsupportedVersionError reports a serialized index whose format version
// this build cannot read.
type UnsupportedVersionError struct {
	Version   uint32
	Supported uint32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s: got %d, supported %d",
		ErrUnsupportedVersion.Error(), e.Version, e.Supported)
}

func (e *UnsupportedVersionError) Unwrap() error {
	return ErrUnsupportedVersion
}

// IsBuildError reports whether err is one of the deterministic input
// failures raised while building or loading an index.
func IsBuildError(err error) bool {
	switch {
	case errors.Is(err, ErrDuplicateLocation),
		errors.Is(err, ErrInvalidRecord),
		errors.Is(err, ErrCorruptIndex),
		errors.Is(err, ErrUnsupportedVersion),
		errors.Is(err, ErrTokenizerMismatch):
		return true
	default:
		return false
	}
}
