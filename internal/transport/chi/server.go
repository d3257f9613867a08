package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/textset/internal/domain"
	domingest "github.com/kailas-cloud/textset/internal/domain/ingest"
	"github.com/kailas-cloud/textset/internal/metrics"
	healthuc "github.com/kailas-cloud/textset/internal/usecase/health"
)

const (
	// DefaultMaxUploadBytes caps the request body when no limit is configured.
	DefaultMaxUploadBytes int64 = 32 << 20

	uploadFormField      = "file"
	multipartMemory      = 8 << 20
	uploadSuccessMessage = "File uploaded and processed successfully"
)

// Ingester runs the spreadsheet ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, req domingest.Request) (domingest.Summary, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Limits bound a single upload.
type Limits struct {
	// MaxUploadBytes caps the request body; <= 0 selects DefaultMaxUploadBytes.
	MaxUploadBytes int64
	// UploadTimeout bounds processing; the context deadline rolls back the
	// batch write. Zero means no deadline beyond the client connection.
	UploadTimeout time.Duration
}

// Server serves the text set upload API.
type Server struct {
	ingest        Ingester
	health        *healthuc.Service
	logger        *zap.Logger
	limits        Limits
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(ingest Ingester, health *healthuc.Service, limits Limits, logger *zap.Logger) *Server {
	if limits.MaxUploadBytes <= 0 {
		limits.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		ingest: ingest,
		health: health,
		logger: logger,
		limits: limits,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorResponseCodeUploadTimeout),
		schemaErrorHandler,
		sentinelHandler(domain.ErrUnsupportedFile, http.StatusBadRequest, ErrorResponseCodeUnsupportedFileType),
		sentinelHandler(domain.ErrInvalidDate, http.StatusBadRequest, ErrorResponseCodeInvalidPostDate),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, ErrorResponseCodeUnauthorized),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeTextSetNotFound),
		sentinelHandler(domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, ErrorResponseCodeFileTooLarge),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, ErrorResponseCodeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrWrite, http.StatusInternalServerError, ErrorResponseCodeWriteFailed),
	}
	return s
}

// Router builds the HTTP handler. Upload routes require a Bearer token
// resolved by identities; /health and /metrics are public.
func (s *Server) Router(identities IdentityResolver) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorResponseCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorResponseCodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(identities))
		r.Post("/textsets/{text_set_id}/upload-file", s.UploadFile)
		r.Post("/TextSet/{text_set_id}/upload-file/", s.UploadFile)
	})
	return r
}

// UploadFile handles POST /textsets/{text_set_id}/upload-file.
func (s *Server) UploadFile(w http.ResponseWriter, r *http.Request) {
	var textSetID openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "text_set_id", chi.URLParam(r, "text_set_id"),
		&textSetID, runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "text_set_id must be a UUID")
		return
	}

	ownerID, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorResponseCodeUnauthorized, "unauthenticated request")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.limits.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			s.handleDomainError(w, fmt.Errorf("upload body: %w", domain.ErrFileTooLarge))
			return
		}
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "expected multipart/form-data body")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "form field \"file\" is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("read upload: %w", err))
		return
	}

	ctx := r.Context()
	if s.limits.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.limits.UploadTimeout)
		defer cancel()
	}

	summary, err := s.ingest.Ingest(ctx, domingest.Request{
		OwnerID:     ownerID,
		TextSetID:   textSetID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Message:       uploadSuccessMessage,
		InsertedCount: summary.InsertedCount,
		SkippedRows:   summary.SkippedRows,
		TotalRows:     summary.TotalRows,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
// Date failures carry the offending row and value since the client sent both.
func safeDomainMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "upload processing timed out; nothing was stored"
	}
	if errors.Is(err, domain.ErrInvalidDate) {
		var re *domain.RowError
		if errors.As(err, &re) {
			return re.Error()
		}
	}
	sentinels := []error{
		domain.ErrUnsupportedFile,
		domain.ErrFileTooLarge,
		domain.ErrInvalidSchema,
		domain.ErrInvalidDate,
		domain.ErrUnauthorized,
		domain.ErrNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
		domain.ErrWrite,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// errorLine returns the spreadsheet line a row or write failure points at.
func errorLine(err error) int {
	var re *domain.RowError
	if errors.As(err, &re) {
		return re.Line
	}
	var we *domain.WriteError
	if errors.As(err, &we) {
		return we.Line
	}
	return 0
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeJSON(w, status, ErrorResponse{
			Code:    code,
			Message: msg,
			Line:    errorLine(err),
		})
		return true
	}
}

// schemaErrorHandler lists the missing columns, or reports an unreadable workbook.
func schemaErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidSchema) {
		return false
	}
	var se *domain.SchemaError
	if errors.As(err, &se) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:           ErrorResponseCodeMissingColumns,
			Message:        se.Error(),
			MissingColumns: se.Missing,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeInvalidSpreadsheet, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
