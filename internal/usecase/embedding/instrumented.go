// Package embedding holds the provider-agnostic layers of the embedder chain.
package embedding

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/textset/internal/domain"
	"github.com/kailas-cloud/textset/internal/metrics"
)

const sampleText = "dimension check"

// InstrumentedEmbedder enforces the configured vector width and logs every call.
// Transport metrics are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner      domain.Embedder
	provider   string
	model      string
	dimensions atomic.Int64
	logger     *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. dimensions may be 0 until DetectDimensions runs.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	dimensions int, logger *zap.Logger,
) *InstrumentedEmbedder {
	p := &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		logger:   logger,
	}
	p.dimensions.Store(int64(dimensions))
	return p
}

// Dimensions returns the enforced vector width, 0 when not yet known.
func (p *InstrumentedEmbedder) Dimensions() int {
	return int(p.dimensions.Load())
}

// DetectDimensions learns the vector width from one live call when none is configured.
func (p *InstrumentedEmbedder) DetectDimensions(ctx context.Context) (int, error) {
	if d := p.Dimensions(); d > 0 {
		return d, nil
	}
	res, err := p.inner.Embed(ctx, sampleText)
	if err != nil {
		return 0, fmt.Errorf("detect dimensions: %w", err)
	}
	if len(res.Embedding) == 0 {
		return 0, fmt.Errorf("detect dimensions: empty vector: %w", domain.ErrEmbeddingProviderError)
	}
	p.dimensions.CompareAndSwap(0, int64(len(res.Embedding)))
	return p.Dimensions(), nil
}

// Embed delegates to the inner embedder and rejects vectors of the wrong width.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	if want := p.Dimensions(); want > 0 && len(result.Embedding) != want {
		metrics.EmbeddingErrorsTotal.WithLabelValues(p.provider, p.model, "dimension_mismatch").Inc()
		p.logger.Error("Embedding has unexpected dimensions",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Int("expected", want),
			zap.Int("got", len(result.Embedding)),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("expected %d dimensions, got %d: %w",
			want, len(result.Embedding), domain.ErrVectorDimMismatch)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}
