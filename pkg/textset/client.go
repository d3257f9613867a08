package textset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/textset/internal/db/sqlite"
	"github.com/kailas-cloud/textset/internal/domain"
	domingest "github.com/kailas-cloud/textset/internal/domain/ingest"
	"github.com/kailas-cloud/textset/internal/segment"
	"github.com/kailas-cloud/textset/internal/spreadsheet"
	"github.com/kailas-cloud/textset/internal/tokenizer"
	embeddinguc "github.com/kailas-cloud/textset/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/textset/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/textset/internal/usecase/ingest"
)

const defaultBusyTimeout = 5 * time.Second

// Internal interfaces, swapped in tests.
type (
	ingestUseCase interface {
		Ingest(ctx context.Context, req domingest.Request) (domingest.Summary, error)
	}
	healthUseCase interface {
		Check(ctx context.Context) healthuc.Report
	}
)

// Client is the textset SDK entry point.
type Client struct {
	store     *sqlite.Store
	ingestSvc ingestUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New opens the store, runs pending migrations and builds the pipeline.
// The provided context bounds the open and the dimension detection.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:        sqlite.DriverModernc,
		busyTimeout:   defaultBusyTimeout,
		maxTokens:     segment.DefaultMaxTokens,
		overlapTokens: segment.DefaultOverlapTokens,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.path == "" {
		return nil, errors.New("textset: database path required (use WithSQLite)")
	}

	measurer, err := buildMeasurer(cfg)
	if err != nil {
		return nil, err
	}
	seg, err := segment.New(measurer, cfg.maxTokens, cfg.overlapTokens)
	if err != nil {
		return nil, fmt.Errorf("textset: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(ctx, sqlite.Config{
		Driver:      cfg.driver,
		Path:        cfg.path,
		BusyTimeout: cfg.busyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("textset: open store: %w", err)
	}

	c, err := wireClient(ctx, store, seg, cfg, obs)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return c, nil
}

func buildMeasurer(cfg *clientConfig) (TextMeasurer, error) {
	if cfg.measurer != nil {
		return cfg.measurer, nil
	}
	name := cfg.encoding
	if name == "" {
		name = tokenizer.FallbackEncoding
	}
	t, err := tokenizer.ForEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("textset: %w", err)
	}
	return t, nil
}

func wireClient(
	ctx context.Context, store *sqlite.Store, seg *segment.Segmenter,
	cfg *clientConfig, obs *observer,
) (*Client, error) {
	// Embedder: noop when not set (health works, Ingest fails at the first row)
	var domEmb domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
	}
	instrumented := embeddinguc.NewInstrumentedEmbedder(domEmb, "sdk", "", cfg.vectorDimensions, zap.NewNop())
	if cfg.embedder != nil {
		if _, err := instrumented.DetectDimensions(ctx); err != nil {
			return nil, fmt.Errorf("textset: %w", err)
		}
	}

	var checker healthuc.EmbeddingChecker
	if hc, ok := cfg.embedder.(domain.HealthChecker); ok {
		checker = hc
	}

	return &Client{
		store:     store,
		ingestSvc: ingestuc.New(store, spreadsheet.Decoder{}, seg, instrumented, store),
		healthSvc: healthuc.New(store, nil, checker),
		obs:       obs,
	}, nil
}

// Close releases the store.
func (c *Client) Close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ingest parses u and commits one item per token window of every non-empty row.
// On error nothing is written.
func (c *Client) Ingest(ctx context.Context, u Upload) (sum Summary, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("ingest", start, err, "file_name", u.FileName, "inserted", sum.InsertedCount)
	}()

	ct := u.ContentType
	if ct == "" {
		ct = spreadsheet.ContentTypeFor(u.FileName)
	}
	res, err := c.ingestSvc.Ingest(ctx, domingest.Request{
		OwnerID:     u.Owner,
		TextSetID:   u.TextSet,
		FileName:    u.FileName,
		ContentType: ct,
		Data:        u.Data,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("ingest: %w", err)
	}
	c.obs.itemsInserted(res.InsertedCount)
	return Summary{
		TotalRows:     res.TotalRows,
		SkippedRows:   res.SkippedRows,
		InsertedCount: res.InsertedCount,
	}, nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingProviderError) || errors.Is(err, context.Canceled) {
			return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"textset: embedder not configured (use WithEmbedder): %w", domain.ErrEmbeddingProviderError,
	)
}
