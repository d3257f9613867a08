package logger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Field keys shared by the request log line and the ingestion logs.
const (
	FieldRequestID = "request_id"
	FieldUserID    = "user_id"
	FieldTextSetID = "text_set_id"
	FieldFileName  = "file_name"
)

type ctxKey struct{}

// WithRequest stores base tagged with requestID in ctx and returns both.
func WithRequest(ctx context.Context, base *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	l := base.With(zap.String(FieldRequestID, requestID))
	return context.WithValue(ctx, ctxKey{}, l), l
}

// WithUser tags the context logger with the authenticated user.
func WithUser(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, FromContext(ctx).With(zap.Stringer(FieldUserID, userID)))
}

// WithUpload tags the context logger with the target text set and the uploaded file.
func WithUpload(ctx context.Context, textSetID uuid.UUID, fileName string) (context.Context, *zap.Logger) {
	l := FromContext(ctx).With(
		zap.Stringer(FieldTextSetID, textSetID),
		zap.String(FieldFileName, fileName),
	)
	return context.WithValue(ctx, ctxKey{}, l), l
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
