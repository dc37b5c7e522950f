package usage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFormat means the file structure is not the expected program's export.
	ErrFormat = errors.New("unrecognized format")
	// ErrParse means a single date, duration or value could not be interpreted.
	ErrParse = errors.New("parse error")
	// ErrNegativeDuration means a source reported a negative amount.
	ErrNegativeDuration = errors.New("negative duration")
	// ErrDuplicateRecord means two records share a (date, entity, device) key.
	ErrDuplicateRecord = errors.New("duplicate record")
)

// FormatError reports an export whose structure is not recognized.
type FormatError struct {
	Sheet  string // sheet, archive member or table, if any
	Reason string
}

func (e *FormatError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("unrecognized format in %q: %s", e.Sheet, e.Reason)
	}
	return "unrecognized format: " + e.Reason
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// ParseError locates a cell or line that could not be interpreted.
// Row and Line are 1-based; zero means unknown.
type ParseError struct {
	File   string
	Sheet  string
	Row    int
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	var loc []string
	if e.File != "" {
		loc = append(loc, "file "+e.File)
	}
	if e.Sheet != "" {
		loc = append(loc, fmt.Sprintf("sheet %q", e.Sheet))
	}
	if e.Row > 0 {
		loc = append(loc, fmt.Sprintf("row %d", e.Row))
	}
	if e.Line > 0 {
		loc = append(loc, fmt.Sprintf("line %d", e.Line))
	}
	if e.Column != "" {
		loc = append(loc, "column "+e.Column)
	}
	msg := "parse error"
	if len(loc) > 0 {
		msg += " at " + strings.Join(loc, ", ")
	}
	if e.Value != "" {
		msg += fmt.Sprintf(": value %q", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

type NegativeDurationError struct {
	Amount float64
	Unit   Unit
}

func (e *NegativeDurationError) Error() string {
	return fmt.Sprintf("negative duration: %v %s", e.Amount, e.Unit)
}

func (e *NegativeDurationError) Is(target error) bool { return target == ErrNegativeDuration }

// Key is the primary key of a normalized row.
type Key struct {
	Date   Date
	Entity string
	Device string
}

func (k Key) String() string {
	if k.Device == "" {
		return fmt.Sprintf("(%s, %q)", k.Date, k.Entity)
	}
	return fmt.Sprintf("(%s, %q, %q)", k.Date, k.Entity, k.Device)
}

type DuplicateRecordError struct {
	Key Key
}

func (e *DuplicateRecordError) Error() string {
	return "duplicate record " + e.Key.String()
}

func (e *DuplicateRecordError) Is(target error) bool { return target == ErrDuplicateRecord }

// SourceError attaches the source path to a reader failure.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
