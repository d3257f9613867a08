// Package app wires configuration into the running ingestion stack.
// It is the composition root shared by the HTTP server and the operator CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/textset/internal/config"
	dbRedis "github.com/kailas-cloud/textset/internal/db/redis"
	"github.com/kailas-cloud/textset/internal/db/sqlite"
	"github.com/kailas-cloud/textset/internal/domain"
	"github.com/kailas-cloud/textset/internal/metrics"
	"github.com/kailas-cloud/textset/internal/repository/embcache"
	"github.com/kailas-cloud/textset/internal/segment"
	"github.com/kailas-cloud/textset/internal/spreadsheet"
	"github.com/kailas-cloud/textset/internal/tokenizer"
	openaiEmb "github.com/kailas-cloud/textset/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/textset/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/textset/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/textset/internal/usecase/ingest"
)

// App holds the long-lived dependencies of one process.
type App struct {
	Store     *sqlite.Store
	Cache     *dbRedis.Store // nil when cache.addrs is empty
	Embedder  *embeddinguc.InstrumentedEmbedder
	Segmenter *segment.Segmenter
	Ingest    *ingestuc.Service
	Health    *healthuc.Service
}

// New opens the store, builds the embedder chain and the ingestion service.
// A window or tokenizer that cannot be built fails here, before any request.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.Register()

	openCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
	defer cancel()
	store, err := sqlite.Open(openCtx, sqlite.Config{
		Driver:      cfg.Database.Driver,
		Path:        cfg.Database.Path,
		BusyTimeout: time.Duration(cfg.Database.BusyTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &App{Store: store}
	logger.Info("Connected to database",
		zap.String("driver", store.Driver()),
		zap.String("path", store.Path()),
	)

	if cfg.Cache.Enabled() {
		a.Cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		timeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := a.Cache.WaitForReady(ctx, timeout); err != nil {
			// misses fall through to the provider
			logger.Warn("Embedding cache not ready", zap.Error(err))
		} else {
			logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
		}
	}

	measurer, err := buildTokenizer(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Segmenter, err = segment.New(measurer, cfg.Ingest.Segment.MaxTokens, cfg.Ingest.Segment.Overlap())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build segmenter: %w", err)
	}
	logger.Info("Segmenter ready",
		zap.String("encoding", measurer.Encoding()),
		zap.Int("max_tokens", a.Segmenter.MaxTokens()),
		zap.Int("overlap_tokens", a.Segmenter.Overlap()),
	)

	base, embedder := buildEmbedder(cfg, a.Cache, logger)
	a.Embedder = embedder
	dims, err := embedder.DetectDimensions(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", dims),
	)

	var outer domain.Embedder = embedder
	if cfg.Embedding.Instruction != "" {
		// outermost, so the cache key covers the instruction
		outer = domain.NewInstructionEmbedder(embedder, cfg.Embedding.Instruction)
	}

	a.Ingest = ingestuc.New(store, spreadsheet.Decoder{}, a.Segmenter, outer, store)

	// Pass nil interface (not typed nil pointer!) when the cache is disabled.
	var cachePinger healthuc.Pinger
	if a.Cache != nil {
		cachePinger = a.Cache
	}
	a.Health = healthuc.New(store, cachePinger, base)

	return a, nil
}

// Close releases the store and the cache client.
func (a *App) Close() {
	if a.Cache != nil {
		a.Cache.Close()
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
}

func buildTokenizer(cfg config.Config) (*tokenizer.Tiktoken, error) {
	if enc := cfg.Ingest.Segment.Encoding; enc != "" {
		t, err := tokenizer.ForEncoding(enc)
		if err != nil {
			return nil, fmt.Errorf("build tokenizer: %w", err)
		}
		return t, nil
	}
	t, err := tokenizer.ForModel(cfg.Embedding.Model)
	if err != nil {
		return nil, fmt.Errorf("build tokenizer: %w", err)
	}
	return t, nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
// The base client is returned separately for health checks.
func buildEmbedder(
	cfg config.Config,
	cache *dbRedis.Store,
	logger *zap.Logger,
) (*openaiEmb.Embedder, *embeddinguc.InstrumentedEmbedder) {
	ec := cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		User:       ec.User,
		Provider:   ec.Provider,
		Timeout:    ec.Timeout(),
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cache != nil {
		embedder = embcache.New(base, cache, embcache.Options{
			KeyPrefix:  cfg.Cache.KeyPrefix,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			TTL:        cfg.Cache.TTL(),
		}, metrics.EmbeddingCacheTotal, logger)
	}

	return base, embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, ec.Dimensions, logger)
}
