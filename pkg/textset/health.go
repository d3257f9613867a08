package textset

import (
	"context"

	healthuc "github.com/kailas-cloud/textset/internal/usecase/health"
)

// Health is the state of the store and, when the embedder exposes
// HealthCheck(ctx) error, of the embedding provider.
type Health struct {
	Status    string // "ok", "degraded" or "error"
	Database  string // "ok" or "error"
	Embedding string // "ok", "error", or empty when not checked
}

// OK reports whether every checked component answered.
func (h Health) OK() bool { return h.Status == string(healthuc.Healthy) }

// Health pings the store and the embedder.
func (c *Client) Health(ctx context.Context) Health {
	report := c.healthSvc.Check(ctx)
	return Health{
		Status:    string(report.Status),
		Database:  string(report.Checks[healthuc.ComponentDatabase]),
		Embedding: string(report.Checks[healthuc.ComponentEmbedding]),
	}
}
