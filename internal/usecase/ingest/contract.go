package ingest

import (
	"context"
	"iter"

	"github.com/google/uuid"

	"github.com/kailas-cloud/textset/internal/domain"
	domingest "github.com/kailas-cloud/textset/internal/domain/ingest"
	"github.com/kailas-cloud/textset/internal/domain/item"
	"github.com/kailas-cloud/textset/internal/domain/textset"
	"github.com/kailas-cloud/textset/internal/segment"
	"github.com/kailas-cloud/textset/internal/spreadsheet"
)

// TextSetFinder verifies that the caller owns the target text set.
type TextSetFinder interface {
	FindOwned(ctx context.Context, textSetID, ownerID uuid.UUID) (textset.TextSet, error)
}

// SheetReader decodes an uploaded workbook into typed rows.
type SheetReader interface {
	Read(format spreadsheet.Format, data []byte) ([]domingest.Row, error)
}

// Segmenter splits row text into token windows.
type Segmenter interface {
	Windows(text string) iter.Seq[segment.Window]
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ItemWriter commits a batch of items atomically.
type ItemWriter interface {
	WriteAll(ctx context.Context, items []item.Item) (int, error)
}
