package textset

import (
	"github.com/google/uuid"

	"github.com/kailas-cloud/textset/internal/spreadsheet"
)

// Accepted content types.
const (
	ContentTypeXLSX = spreadsheet.MIMETypeXLSX
	ContentTypeXLS  = spreadsheet.MIMETypeXLS
)

// Upload is one spreadsheet to ingest into a text set owned by Owner.
// An empty ContentType is inferred from FileName.
type Upload struct {
	Owner       uuid.UUID
	TextSet     uuid.UUID
	FileName    string
	ContentType string
	Data        []byte
}

// Summary reports a committed upload.
type Summary struct {
	TotalRows     int
	SkippedRows   int
	InsertedCount int
}
