package errors

import "fmt"

// ParseError wraps a specific error with context about where it occurred.
type ParseError struct {
	Table  string
	Line   int
	Record []string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s at line %d: %v (record: %v)", e.Table, e.Line, e.Err, e.Record)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingInputError reports a required upstream file that does not exist.
type MissingInputError struct {
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingInput, e.Path)
}

func (e *MissingInputError) Unwrap() error {
	return ErrMissingInput
}

// SchemaError reports a required column absent from a table.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: %q in %s", ErrMissingColumn, e.Column, e.Table)
}

func (e *SchemaError) Unwrap() error {
	return ErrMissingColumn
}

// UndefinedOffsetError is returned when a segment has no complete
// (anchor, travel start) pair to estimate the mean response offset from.
type UndefinedOffsetError struct {
	Segment string
}

func (e *UndefinedOffsetError) Error() string {
	return fmt.Sprintf("%v for segment %s", ErrUndefinedOffset, e.Segment)
}

func (e *UndefinedOffsetError) Unwrap() error {
	return ErrUndefinedOffset
}

// JoinLossWarning counts rows dropped by an inner join on a lookup dimension.
// It is reported, never returned as a failure.
type JoinLossWarning struct {
	Segment   string
	Dimension string
	Dropped   int
}

func (w *JoinLossWarning) Error() string {
	return fmt.Sprintf("%s: %d rows dropped, no %s lookup match", w.Segment, w.Dropped, w.Dimension)
}

// UnbalanceableSegmentWarning reports a segment missing one of the two
// effectiveness classes; training proceeds on the unbalanced rows.
type UnbalanceableSegmentWarning struct {
	Segment string
	Class0  int
	Class1  int
}

func (w *UnbalanceableSegmentWarning) Error() string {
	return fmt.Sprintf("%s cannot be balanced (class 0=%d, class 1=%d)", w.Segment, w.Class0, w.Class1)
}

// SkippedRowsWarning counts source rows the loader could not use.
type SkippedRowsWarning struct {
	Table  string
	Reason string
	Count  int
}

func (w *SkippedRowsWarning) Error() string {
	return fmt.Sprintf("%s: %d rows skipped (%s)", w.Table, w.Count, w.Reason)
}

// Define specific error types for better error handling
var (
	ErrMissingInput      = fmt.Errorf("missing input")
	ErrMissingColumn     = fmt.Errorf("missing column")
	ErrUndefinedOffset   = fmt.Errorf("undefined mean travel offset")
	ErrEmptyTable        = fmt.Errorf("empty table")
	ErrUnsupportedFormat = fmt.Errorf("unsupported input format")
	ErrNoTrainingRows    = fmt.Errorf("no training rows")
	ErrFeatureDrift      = fmt.Errorf("feature list does not match artifact")
	ErrLengthMismatch    = fmt.Errorf("row count mismatch")
	ErrModelNotFitted    = fmt.Errorf("model not fitted")
	ErrInvalidParameter  = fmt.Errorf("invalid parameter")
)
