package chi

// ErrorResponseCode is the machine-readable error code in every error body.
type ErrorResponseCode string

// Error codes returned by the upload API.
const (
	ErrorResponseCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnsupportedFileType    ErrorResponseCode = "unsupported_file_type"
	ErrorResponseCodeMissingColumns         ErrorResponseCode = "missing_columns"
	ErrorResponseCodeInvalidSpreadsheet     ErrorResponseCode = "invalid_spreadsheet"
	ErrorResponseCodeInvalidPostDate        ErrorResponseCode = "invalid_post_date"
	ErrorResponseCodeUnauthorized           ErrorResponseCode = "unauthorized"
	ErrorResponseCodeTextSetNotFound        ErrorResponseCode = "text_set_not_found"
	ErrorResponseCodeFileTooLarge           ErrorResponseCode = "file_too_large"
	ErrorResponseCodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeVectorDimMismatch      ErrorResponseCode = "vector_dim_mismatch"
	ErrorResponseCodeWriteFailed            ErrorResponseCode = "write_failed"
	ErrorResponseCodeUploadTimeout          ErrorResponseCode = "upload_timeout"
	ErrorResponseCodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code           ErrorResponseCode `json:"code"`
	Message        string            `json:"message"`
	MissingColumns []string          `json:"missing_columns,omitempty"`
	Line           int               `json:"line,omitempty"`
}

// UploadResponse is returned after a committed upload.
type UploadResponse struct {
	Message       string `json:"message"`
	InsertedCount int    `json:"inserted_count"`
	SkippedRows   int    `json:"skipped_rows"`
	TotalRows     int    `json:"total_rows"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
