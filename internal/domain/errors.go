package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFile signals a file whose extension or content type is not a spreadsheet.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrFileTooLarge signals an upload above the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidSchema signals a spreadsheet that lacks mandatory columns or a header row.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrUnauthorized signals a missing, unknown, expired or revoked credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound signals a missing resource, or one the caller does not own.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDate signals an unparseable post date.
	ErrInvalidDate = errors.New("invalid date")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrWrite signals a failed item store transaction.
	ErrWrite = errors.New("write failed")
)

// SchemaError lists every mandatory column missing from an uploaded sheet.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing mandatory columns: %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrInvalidSchema }

// RowError attaches spreadsheet position to a failure inside the per-row pipeline.
// Segment is -1 when the failure happened before segmentation.
type RowError struct {
	Line      int
	Segment   int
	CreatorID string
	Err       error
}

func (e *RowError) Error() string {
	if e.Segment >= 0 {
		return fmt.Sprintf("row %d segment %d (creator %q): %v", e.Line, e.Segment, e.CreatorID, e.Err)
	}
	return fmt.Sprintf("row %d (creator %q): %v", e.Line, e.CreatorID, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// WriteError identifies the item whose insert broke the batch transaction.
type WriteError struct {
	Line      int
	Segment   int
	CreatorID string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("insert row %d segment %d (creator %q): %v", e.Line, e.Segment, e.CreatorID, e.Err)
}

// Unwrap exposes both ErrWrite and the driver error.
func (e *WriteError) Unwrap() []error { return []error{ErrWrite, e.Err} }
