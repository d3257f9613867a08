package textset

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver      string // "sqlite" (pure Go) or "sqlite3" (cgo)
	path        string
	busyTimeout time.Duration

	embedder         Embedder
	vectorDimensions int

	measurer      TextMeasurer
	encoding      string
	maxTokens     int
	overlapTokens int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithSQLite opens the store at path with the pure Go driver.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.path = path
	})
}

// WithSQLiteCGO opens the store at path with the cgo driver.
func WithSQLiteCGO(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite3"
		c.path = path
	})
}

// WithBusyTimeout sets how long a write waits on a locked database. Default: 5s.
func WithBusyTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.busyTimeout = d
	})
}

// WithEmbedder sets the text embedding provider. Required for Ingest.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithVectorDimensions fixes the expected vector width.
// When unset, New queries the embedder once.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithMeasurer sets the tokenizer used to cut windows.
// Defaults to the tiktoken encoding named by WithEncoding, or cl100k_base.
func WithMeasurer(m TextMeasurer) Option {
	return optionFunc(func(c *clientConfig) {
		c.measurer = m
	})
}

// WithEncoding selects a tiktoken encoding by name, e.g. "o200k_base".
func WithEncoding(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.encoding = name
	})
}

// WithSegmentWindow sets the window size and the overlap between consecutive windows.
// Defaults: 300 and 50.
func WithSegmentWindow(maxTokens, overlapTokens int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTokens = maxTokens
		c.overlapTokens = overlapTokens
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts, durations and
// inserted items) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
