// Package ingest holds the value types exchanged by the spreadsheet ingestion pipeline.
package ingest

import "github.com/google/uuid"

// Request is one upload of a spreadsheet into a text set. Not persisted.
type Request struct {
	OwnerID     uuid.UUID
	TextSetID   uuid.UUID
	FileName    string
	ContentType string
	Data        []byte
}

// Row is one typed spreadsheet line. Line is 1-based and counts the header as line 1.
type Row struct {
	Line                 int
	CreatorID            string
	CreatorName          string
	TextContent          string
	PostDate             string
	ExternalItemID       string
	ParentExternalItemID string
}

// Summary is the outcome of a successful ingestion.
type Summary struct {
	TotalRows       int
	SkippedRows     int
	InsertedCount   int
	EmbeddingTokens int
}
