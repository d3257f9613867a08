// Package ingest turns one uploaded spreadsheet into embedded text items,
// committed all-or-nothing.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/textset/internal/domain"
	domingest "github.com/kailas-cloud/textset/internal/domain/ingest"
	"github.com/kailas-cloud/textset/internal/domain/item"
	"github.com/kailas-cloud/textset/internal/logger"
	"github.com/kailas-cloud/textset/internal/metrics"
	"github.com/kailas-cloud/textset/internal/postdate"
	"github.com/kailas-cloud/textset/internal/spreadsheet"
)

// Service runs the upload pipeline: type check, ownership, parse, per-row
// date/segment/embed, then a single batch write.
type Service struct {
	textSets  TextSetFinder
	sheets    SheetReader
	segmenter Segmenter
	embedder  Embedder
	items     ItemWriter
}

// New creates an ingestion service.
func New(textSets TextSetFinder, sheets SheetReader, segmenter Segmenter, embedder Embedder, items ItemWriter) *Service {
	return &Service{
		textSets:  textSets,
		sheets:    sheets,
		segmenter: segmenter,
		embedder:  embedder,
		items:     items,
	}
}

// Ingest processes req. On error nothing has been written.
func (s *Service) Ingest(ctx context.Context, req domingest.Request) (summary domingest.Summary, err error) {
	start := time.Now()
	ctx, log := logger.WithUpload(ctx, req.TextSetID, req.FileName)
	defer func() {
		metrics.ObserveIngest(outcome(err), time.Since(start).Seconds(), summary.InsertedCount, summary.SkippedRows)
	}()

	format, err := spreadsheet.CheckType(req.FileName, req.ContentType)
	if err != nil {
		return domingest.Summary{}, fmt.Errorf("check file type: %w", err)
	}

	if _, err := s.textSets.FindOwned(ctx, req.TextSetID, req.OwnerID); err != nil {
		return domingest.Summary{}, fmt.Errorf("find text set: %w", err)
	}

	rows, err := s.sheets.Read(format, req.Data)
	if err != nil {
		return domingest.Summary{}, fmt.Errorf("read spreadsheet: %w", err)
	}

	var (
		items   []item.Item
		skipped int
		tokens  int
	)
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return domingest.Summary{}, fmt.Errorf("ingest interrupted at row %d: %w", row.Line, err)
		}

		if strings.TrimSpace(row.TextContent) == "" {
			skipped++
			log.Warn("Skipping row without text_content",
				zap.Int("row", row.Line),
				zap.String("creator_id", row.CreatorID),
			)
			continue
		}

		rowItems, used, err := s.buildRow(ctx, req, row)
		if err != nil {
			log.Error("Row failed, aborting upload", zap.Int("row", row.Line), zap.Error(err))
			return domingest.Summary{}, err
		}
		items = append(items, rowItems...)
		tokens += used
	}

	inserted := 0
	if len(items) > 0 {
		if inserted, err = s.items.WriteAll(ctx, items); err != nil {
			log.Error("Batch write failed", zap.Int("items", len(items)), zap.Error(err))
			return domingest.Summary{}, fmt.Errorf("write items: %w", err)
		}
	}

	summary = domingest.Summary{
		TotalRows:       len(rows),
		SkippedRows:     skipped,
		InsertedCount:   inserted,
		EmbeddingTokens: tokens,
	}
	log.Info("Upload ingested",
		zap.Int("total_rows", summary.TotalRows),
		zap.Int("skipped_rows", summary.SkippedRows),
		zap.Int("inserted", summary.InsertedCount),
		zap.Int("embedding_tokens", summary.EmbeddingTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return summary, nil
}

// buildRow normalizes the date, then segments and embeds the text of one row.
func (s *Service) buildRow(ctx context.Context, req domingest.Request, row domingest.Row) ([]item.Item, int, error) {
	postDate, err := postdate.Normalize(row.PostDate)
	if err != nil {
		return nil, 0, &domain.RowError{Line: row.Line, Segment: -1, CreatorID: row.CreatorID, Err: err}
	}

	var (
		out    []item.Item
		tokens int
	)
	for w := range s.segmenter.Windows(row.TextContent) {
		if err := ctx.Err(); err != nil {
			return nil, 0, fmt.Errorf("ingest interrupted at row %d: %w", row.Line, err)
		}

		res, err := s.embedder.Embed(ctx, w.Text)
		if err != nil {
			return nil, 0, &domain.RowError{Line: row.Line, Segment: w.Index, CreatorID: row.CreatorID, Err: err}
		}

		it, err := item.New(item.Params{
			TextSetID:            req.TextSetID,
			CreatorID:            row.CreatorID,
			CreatorName:          row.CreatorName,
			Text:                 w.Text,
			PostDate:             postDate,
			ExternalItemID:       row.ExternalItemID,
			ParentExternalItemID: row.ParentExternalItemID,
			Embedding:            res.Embedding,
			Line:                 row.Line,
			Segment:              w.Index,
		})
		if err != nil {
			return nil, 0, &domain.RowError{
				Line: row.Line, Segment: w.Index, CreatorID: row.CreatorID,
				Err: fmt.Errorf("build item: %w: %w", domain.ErrEmbeddingProviderError, err),
			}
		}
		out = append(out, it)
		tokens += res.TotalTokens
	}
	return out, tokens, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, domain.ErrEmbeddingProviderError), errors.Is(err, domain.ErrVectorDimMismatch):
		return metrics.ResultEmbeddingError
	case errors.Is(err, domain.ErrWrite):
		return metrics.ResultWriteError
	default:
		return metrics.ResultRejected
	}
}
