package textset

import "github.com/kailas-cloud/textset/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnsupportedFile        = domain.ErrUnsupportedFile
	ErrInvalidSchema          = domain.ErrInvalidSchema
	ErrInvalidDate            = domain.ErrInvalidDate
	ErrNotFound               = domain.ErrNotFound
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrWrite                  = domain.ErrWrite
)

// SchemaError lists the mandatory columns missing from a sheet. Use errors.As.
type SchemaError = domain.SchemaError

// RowError locates a date or embedding failure in the sheet. Use errors.As.
type RowError = domain.RowError
