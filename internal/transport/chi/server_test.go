package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/textset/internal/domain"
	domingest "github.com/kailas-cloud/textset/internal/domain/ingest"
	"github.com/kailas-cloud/textset/internal/metrics"
	"github.com/kailas-cloud/textset/internal/postdate"
	healthuc "github.com/kailas-cloud/textset/internal/usecase/health"
)

const (
	xlsxMIME  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	testToken = "tok-123"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

type fakeIngester struct {
	got     domingest.Request
	calls   int
	summary domingest.Summary
	err     error
	// waitForCtx makes Ingest block until the request context ends.
	waitForCtx bool
	ctxErr     error
}

func (f *fakeIngester) Ingest(ctx context.Context, req domingest.Request) (domingest.Summary, error) {
	f.calls++
	f.got = req
	if f.waitForCtx {
		<-ctx.Done()
		f.ctxErr = ctx.Err()
		return domingest.Summary{}, fmt.Errorf("ingest interrupted at row 2: %w", ctx.Err())
	}
	return f.summary, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fixture struct {
	ingester *fakeIngester
	user     uuid.UUID
	handler  http.Handler
}

func newFixture(t *testing.T, maxUpload int64, dbErr error) *fixture {
	t.Helper()
	return newFixtureWithLimits(t, Limits{MaxUploadBytes: maxUpload}, dbErr)
}

func newFixtureWithLimits(t *testing.T, limits Limits, dbErr error) *fixture {
	t.Helper()
	f := &fixture{ingester: &fakeIngester{}, user: uuid.New()}
	health := healthuc.New(fakePinger{err: dbErr}, nil, nil)
	srv := NewServer(f.ingester, health, limits, nil)
	f.handler = srv.Router(&fakeResolver{tokens: map[string]uuid.UUID{testToken: f.user}})
	return f
}

func multipartBody(t *testing.T, field, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, fileName))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (f *fixture) upload(t *testing.T, path string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, "file", "posts.xlsx", xlsxMIME, data)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v (body %q)", err, rr.Body.String())
	}
	return resp
}

func TestUploadFile_Success(t *testing.T) {
	f := newFixture(t, 0, nil)
	f.ingester.summary = domingest.Summary{TotalRows: 5, SkippedRows: 1, InsertedCount: 6}
	textSetID := uuid.New()

	rr := f.upload(t, "/textsets/"+textSetID.String()+"/upload-file", []byte("workbook bytes"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	var resp UploadResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := UploadResponse{Message: uploadSuccessMessage, InsertedCount: 6, SkippedRows: 1, TotalRows: 5}
	if resp != want {
		t.Errorf("response: got %+v, want %+v", resp, want)
	}

	got := f.ingester.got
	if got.OwnerID != f.user || got.TextSetID != textSetID {
		t.Errorf("ids: owner %s text set %s", got.OwnerID, got.TextSetID)
	}
	if got.FileName != "posts.xlsx" || got.ContentType != xlsxMIME || string(got.Data) != "workbook bytes" {
		t.Errorf("unexpected request: %+v", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestUploadFile_LegacyRoute(t *testing.T) {
	f := newFixture(t, 0, nil)

	rr := f.upload(t, "/TextSet/"+uuid.NewString()+"/upload-file/", []byte("x"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	if f.ingester.calls != 1 {
		t.Errorf("expected one ingest call, got %d", f.ingester.calls)
	}
}

func TestUploadFile_InvalidTextSetID(t *testing.T) {
	f := newFixture(t, 0, nil)

	rr := f.upload(t, "/textsets/not-a-uuid/upload-file", []byte("x"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != ErrorResponseCodeBadRequest {
		t.Errorf("code: got %q", resp.Code)
	}
	if f.ingester.calls != 0 {
		t.Error("ingest must not run for a malformed id")
	}
}

func TestUploadFile_RequiresAuth(t *testing.T) {
	f := newFixture(t, 0, nil)
	body, ct := multipartBody(t, "file", "posts.xlsx", xlsxMIME, []byte("x"))

	req := httptest.NewRequest(http.MethodPost, "/textsets/"+uuid.NewString()+"/upload-file", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer someone-else")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != ErrorResponseCodeUnauthorized {
		t.Errorf("code: got %q", resp.Code)
	}
	if f.ingester.calls != 0 {
		t.Error("ingest must not run without a valid token")
	}
}

func TestUploadFile_AuthRunsBeforeFileTypeCheck(t *testing.T) {
	f := newFixture(t, 0, nil)
	body, ct := multipartBody(t, "file", "notes.csv", "text/csv", []byte("a,b"))

	req := httptest.NewRequest(http.MethodPost, "/textsets/"+uuid.NewString()+"/upload-file", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer someone-else")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401 for a bad token even with a bad file", rr.Code)
	}
	if f.ingester.calls != 0 {
		t.Error("body must not be processed for an unauthenticated request")
	}
}

func TestUploadFile_TimeoutCancelsIngest(t *testing.T) {
	f := newFixtureWithLimits(t, Limits{UploadTimeout: 20 * time.Millisecond}, nil)
	f.ingester.waitForCtx = true

	rr := f.upload(t, "/textsets/"+uuid.NewString()+"/upload-file", []byte("workbook"))

	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("status: got %d, want 504 (body %s)", rr.Code, rr.Body.String())
	}
	if resp := decodeError(t, rr); resp.Code != ErrorResponseCodeUploadTimeout {
		t.Errorf("code: got %q", resp.Code)
	}
	if !errors.Is(f.ingester.ctxErr, context.DeadlineExceeded) {
		t.Errorf("ingest context: got %v, want deadline exceeded", f.ingester.ctxErr)
	}
}

func TestUploadFile_MissingFileField(t *testing.T) {
	f := newFixture(t, 0, nil)
	body, ct := multipartBody(t, "attachment", "posts.xlsx", xlsxMIME, []byte("x"))

	req := httptest.NewRequest(http.MethodPost, "/textsets/"+uuid.NewString()+"/upload-file", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestUploadFile_NotMultipart(t *testing.T) {
	f := newFixture(t, 0, nil)

	req := httptest.NewRequest(http.MethodPost, "/textsets/"+uuid.NewString()+"/upload-file",
		strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestUploadFile_TooLarge(t *testing.T) {
	f := newFixture(t, 1024, nil)

	rr := f.upload(t, "/textsets/"+uuid.NewString()+"/upload-file", bytes.Repeat([]byte("a"), 64<<10))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, want 413 (body %s)", rr.Code, rr.Body.String())
	}
	if resp := decodeError(t, rr); resp.Code != ErrorResponseCodeFileTooLarge {
		t.Errorf("code: got %q", resp.Code)
	}
	if f.ingester.calls != 0 {
		t.Error("ingest must not run for an oversized body")
	}
}

func TestUploadFile_ErrorMapping(t *testing.T) {
	dateErr := &domain.RowError{Line: 12, Segment: -1, CreatorID: "c1", Err: &postdate.ParseError{Value: "yesterday"}}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorResponseCode
		wantLine   int
	}{
		{"unsupported type", fmt.Errorf("check: %w", domain.ErrUnsupportedFile),
			http.StatusBadRequest, ErrorResponseCodeUnsupportedFileType, 0},
		{"unreadable workbook", fmt.Errorf("read: %w", domain.ErrInvalidSchema),
			http.StatusBadRequest, ErrorResponseCodeInvalidSpreadsheet, 0},
		{"invalid date", fmt.Errorf("ingest: %w", dateErr),
			http.StatusBadRequest, ErrorResponseCodeInvalidPostDate, 12},
		{"foreign text set", fmt.Errorf("find: %w", domain.ErrNotFound),
			http.StatusNotFound, ErrorResponseCodeTextSetNotFound, 0},
		{"unauthorized", domain.ErrUnauthorized,
			http.StatusUnauthorized, ErrorResponseCodeUnauthorized, 0},
		{"embedding failure", &domain.RowError{Line: 3, Segment: 1, Err: domain.ErrEmbeddingProviderError},
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError, 3},
		{"dimension mismatch", &domain.RowError{Line: 4, Segment: 0, Err: domain.ErrVectorDimMismatch},
			http.StatusBadGateway, ErrorResponseCodeVectorDimMismatch, 4},
		{"write failure", &domain.WriteError{Line: 7, Segment: 2, Err: errors.New("constraint failed")},
			http.StatusInternalServerError, ErrorResponseCodeWriteFailed, 7},
		{"unknown", errors.New("boom"),
			http.StatusInternalServerError, ErrorResponseCodeInternalError, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 0, nil)
			f.ingester.err = tc.err

			rr := f.upload(t, "/textsets/"+uuid.NewString()+"/upload-file", []byte("x"))

			if rr.Code != tc.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tc.wantStatus)
			}
			resp := decodeError(t, rr)
			if resp.Code != tc.wantCode {
				t.Errorf("code: got %q, want %q", resp.Code, tc.wantCode)
			}
			if resp.Line != tc.wantLine {
				t.Errorf("line: got %d, want %d", resp.Line, tc.wantLine)
			}
			if strings.Contains(resp.Message, "constraint failed") || strings.Contains(resp.Message, "boom") {
				t.Errorf("message leaks internals: %q", resp.Message)
			}
		})
	}
}

func TestUploadFile_InvalidDateMessageNamesRow(t *testing.T) {
	f := newFixture(t, 0, nil)
	f.ingester.err = &domain.RowError{Line: 12, Segment: -1, CreatorID: "c1", Err: &postdate.ParseError{Value: "yesterday"}}

	resp := decodeError(t, f.upload(t, "/textsets/"+uuid.NewString()+"/upload-file", []byte("x")))

	if !strings.Contains(resp.Message, "row 12") || !strings.Contains(resp.Message, "yesterday") {
		t.Errorf("message should name row and value, got %q", resp.Message)
	}
}

func TestUploadFile_MissingColumns(t *testing.T) {
	f := newFixture(t, 0, nil)
	f.ingester.err = fmt.Errorf("read: %w", &domain.SchemaError{Missing: []string{"post_date", "creator_id"}})

	rr := f.upload(t, "/textsets/"+uuid.NewString()+"/upload-file", []byte("x"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Code != ErrorResponseCodeMissingColumns {
		t.Errorf("code: got %q", resp.Code)
	}
	if len(resp.MissingColumns) != 2 || resp.MissingColumns[0] != "post_date" {
		t.Errorf("missing columns: got %v", resp.MissingColumns)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		wantStatus int
		wantBody   string
	}{
		{"healthy", nil, http.StatusOK, "ok"},
		{"database down", errors.New("disk I/O error"), http.StatusServiceUnavailable, "error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 0, tc.dbErr)

			rr := httptest.NewRecorder()
			f.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if rr.Code != tc.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tc.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tc.wantBody || resp.Checks[healthuc.ComponentDatabase] == "" {
				t.Errorf("unexpected body: %+v", resp)
			}
		})
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	f := newFixture(t, 0, nil)

	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestUnknownRoute_JSON404(t *testing.T) {
	f := newFixture(t, 0, nil)

	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/collections", http.NoBody))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
}
