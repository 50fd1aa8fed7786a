package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hrkit/interview-analyzer/internal/config"
	"hrkit/interview-analyzer/internal/models"
	"hrkit/interview-analyzer/internal/services"
)

type stubBlob struct {
	uploads map[string][]byte
	err     *services.ServiceError
}

func (s *stubBlob) Upload(ctx context.Context, key string, content []byte) *services.ServiceError {
	if s.err != nil {
		return s.err
	}
	if s.uploads == nil {
		s.uploads = map[string][]byte{}
	}
	s.uploads[key] = content
	return nil
}

func (s *stubBlob) Download(ctx context.Context, key string) ([]byte, *services.ServiceError) {
	data, ok := s.uploads[key]
	if !ok {
		return nil, &services.ServiceError{Kind: services.KindTransient, Message: "missing"}
	}
	return data, nil
}

func (s *stubBlob) ListByPrefix(ctx context.Context, prefix string) ([]models.BlobFileInfo, *services.ServiceError) {
	var files []models.BlobFileInfo
	for key, data := range s.uploads {
		if strings.HasPrefix(key, prefix) {
			files = append(files, models.BlobFileInfo{Name: key, Size: int64(len(data))})
		}
	}
	return files, nil
}

func (s *stubBlob) Delete(ctx context.Context, key string) *services.ServiceError { return nil }

func (s *stubBlob) Configured() bool { return true }

type stubLocator struct {
	texts map[string]string
	calls []string
}

func (s *stubLocator) LocateDocument(ctx context.Context, logicalFilename, rolePrefix string) (string, *services.ServiceError) {
	s.calls = append(s.calls, logicalFilename)
	if text, ok := s.texts[logicalFilename]; ok {
		return text, nil
	}
	return "", &services.ServiceError{
		Kind:      services.KindNotFound,
		Message:   "document was not found in the search index",
		Available: []string{"resume_other.pdf"},
	}
}

type stubIndexing struct{}

func (s *stubIndexing) SelectActiveIndex(ctx context.Context) string { return "rag-1" }

func (s *stubIndexing) RunIndexingJobs(ctx context.Context) (map[string]string, *services.ServiceError) {
	return map[string]string{"blob-indexer": "started"}, nil
}

func (s *stubIndexing) WaitUntilIndexed(ctx context.Context, index, blobKey string, timeout time.Duration) bool {
	return true
}

// recordingIndexing captures the readiness waits the composite flow issues.
type recordingIndexing struct {
	indexed   bool
	waitDelay time.Duration
	waitCalls []waitCall
}

type waitCall struct {
	blobKey string
	timeout time.Duration
}

func (s *recordingIndexing) SelectActiveIndex(ctx context.Context) string { return "rag-1" }

func (s *recordingIndexing) RunIndexingJobs(ctx context.Context) (map[string]string, *services.ServiceError) {
	return map[string]string{"blob-indexer": "started"}, nil
}

func (s *recordingIndexing) WaitUntilIndexed(ctx context.Context, index, blobKey string, timeout time.Duration) bool {
	s.waitCalls = append(s.waitCalls, waitCall{blobKey: blobKey, timeout: timeout})
	if s.waitDelay > 0 {
		time.Sleep(s.waitDelay)
	}
	return s.indexed
}

type stubGenerator struct{}

func (s *stubGenerator) GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error) {
	return "## 📊 종합 평가\n적합한 후보자입니다", nil
}

func newTestApp(t *testing.T, blob services.BlobStorageService, locator services.DocumentLocatorService) *fiber.App {
	t.Helper()

	logger := zap.NewNop().Sugar()
	analyzer := services.NewMatchAnalyzerService(&stubGenerator{}, 1, logger)

	handler := NewDocumentHandler(
		blob,
		services.NewSearchService(config.SearchConfig{}),
		&stubIndexing{},
		locator,
		analyzer,
		config.IndexingConfig{PollInterval: time.Millisecond, FastTimeout: time.Millisecond, FullTimeout: time.Millisecond},
		logger,
	)

	app := fiber.New()
	api := app.Group("/api/v1/document")
	api.Post("/upload-resume", handler.HandleUploadResume)
	api.Post("/analyze-files", handler.HandleAnalyzeFiles)
	api.Post("/analyze-text", handler.HandleAnalyzeText)
	api.Get("/files-list", handler.HandleListFiles)
	return app
}

func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, target))
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestHandleUploadResume_PrefixesBlobKey(t *testing.T) {
	blob := &stubBlob{}
	app := newTestApp(t, blob, &stubLocator{})

	body, contentType := multipartBody(t, "file", "kim.pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/document/upload-resume", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.StatusResult
	decodeJSON(t, resp, &result)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, "resume_kim.pdf", result.Filename)
	assert.Contains(t, blob.uploads, "resume_kim.pdf")
}

func TestHandleUploadResume_MissingFileIsBadRequest(t *testing.T) {
	app := newTestApp(t, &stubBlob{}, &stubLocator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/document/upload-resume", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleAnalyzeFiles_Success(t *testing.T) {
	locator := &stubLocator{texts: map[string]string{
		"kim.pdf":     strings.Repeat("이력서 내용입니다. ", 20),
		"backend.pdf": strings.Repeat("채용공고 내용입니다. ", 20),
	}}
	app := newTestApp(t, &stubBlob{}, locator)

	payload, _ := json.Marshal(models.AnalyzeFilesRequest{
		ResumeFilename: "kim.pdf",
		JobFilename:    "backend.pdf",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/document/analyze-files", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.AnalysisResponse
	decodeJSON(t, resp, &result)
	assert.Equal(t, "success", result.Status)
	assert.Contains(t, result.Analysis, "종합 평가")
}

func TestHandleAnalyzeFiles_NotFoundIsStructuredResult(t *testing.T) {
	app := newTestApp(t, &stubBlob{}, &stubLocator{})

	payload, _ := json.Marshal(models.AnalyzeFilesRequest{
		ResumeFilename: "missing.pdf",
		JobFilename:    "backend.pdf",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/document/analyze-files", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	// Collaborator failures surface as a structured error payload, not an
	// HTTP failure status.
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.AnalysisResponse
	decodeJSON(t, resp, &result)
	assert.Equal(t, "error", result.Status)
	assert.Equal(t, string(services.KindNotFound), result.ErrorKind)
	assert.Contains(t, result.Available, "resume_other.pdf")
}

func TestHandleAnalyzeFiles_MissingFieldsIsBadRequest(t *testing.T) {
	app := newTestApp(t, &stubBlob{}, &stubLocator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/document/analyze-files", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleAnalyzeText_ShortInputRejectedBeforeAnalysis(t *testing.T) {
	app := newTestApp(t, &stubBlob{}, &stubLocator{})

	payload, _ := json.Marshal(models.AnalyzeTextRequest{
		ResumeText:     "짧은 글",
		JobPostingText: strings.Repeat("채용공고 내용입니다. ", 20),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/document/analyze-text", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.AnalysisResponse
	decodeJSON(t, resp, &result)
	assert.Equal(t, "error", result.Status)
	assert.Equal(t, string(services.KindValidation), result.ErrorKind)
	assert.Contains(t, result.Message, "너무 짧습니다")
}

func TestHandleListFiles_SplitsByRole(t *testing.T) {
	blob := &stubBlob{uploads: map[string][]byte{
		"resume_kim.pdf":  []byte("a"),
		"job_backend.pdf": []byte("b"),
	}}
	app := newTestApp(t, blob, &stubLocator{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/document/files-list", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)

	var result models.FilesListResponse
	decodeJSON(t, resp, &result)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, 2, result.TotalFiles)
	require.Len(t, result.ResumeFiles, 1)
	require.Len(t, result.JobFiles, 1)
	assert.Equal(t, "resume_kim.pdf", result.ResumeFiles[0].Name)
}

func newUploadAndAnalyzeApp(t *testing.T, locator *stubLocator, indexing *recordingIndexing, timeout time.Duration) *fiber.App {
	t.Helper()

	logger := zap.NewNop().Sugar()
	analyzer := services.NewMatchAnalyzerService(&stubGenerator{}, 1, logger)

	handler := NewDocumentHandler(
		&stubBlob{},
		services.NewSearchService(config.SearchConfig{}),
		indexing,
		locator,
		analyzer,
		config.IndexingConfig{PollInterval: time.Millisecond, FastTimeout: timeout, FullTimeout: timeout},
		logger,
	)

	app := fiber.New()
	app.Post("/api/v1/document/upload-and-analyze", handler.HandleUploadAndAnalyze)
	return app
}

func pairBody(t *testing.T, resumeName, jobName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for field, name := range map[string]string{"resume": resumeName, "job_posting": jobName} {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("file bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestHandleUploadAndAnalyze_FailedWaitStillRunsAnalysis(t *testing.T) {
	locator := &stubLocator{texts: map[string]string{
		"kim.pdf":     strings.Repeat("이력서 내용입니다. ", 20),
		"backend.pdf": strings.Repeat("채용공고 내용입니다. ", 20),
	}}
	indexing := &recordingIndexing{indexed: false}
	app := newUploadAndAnalyzeApp(t, locator, indexing, 50*time.Millisecond)

	body, contentType := pairBody(t, "kim.pdf", "backend.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/document/upload-and-analyze", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.UploadAndAnalyzeResponse
	decodeJSON(t, resp, &result)

	// Readiness polling timed out for both documents, but the flow presses
	// on: the locator has its own fallbacks past the index.
	require.NotNil(t, result.Indexing)
	assert.False(t, result.Indexing.ResumeIndexed)
	assert.False(t, result.Indexing.JobIndexed)
	assert.Contains(t, locator.calls, "kim.pdf")
	assert.Contains(t, locator.calls, "backend.pdf")

	assert.Equal(t, "success", result.Status)
	require.NotNil(t, result.Analysis)
	assert.Contains(t, result.Analysis.Analysis, "종합 평가")
}

func TestHandleUploadAndAnalyze_WaitsShareOneBudget(t *testing.T) {
	locator := &stubLocator{texts: map[string]string{
		"kim.pdf":     strings.Repeat("이력서 내용입니다. ", 20),
		"backend.pdf": strings.Repeat("채용공고 내용입니다. ", 20),
	}}
	indexing := &recordingIndexing{indexed: true, waitDelay: 10 * time.Millisecond}
	app := newUploadAndAnalyzeApp(t, locator, indexing, 500*time.Millisecond)

	body, contentType := pairBody(t, "kim.pdf", "backend.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/document/upload-and-analyze", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, indexing.waitCalls, 2)
	assert.Equal(t, "resume_kim.pdf", indexing.waitCalls[0].blobKey)
	assert.Equal(t, "job_backend.pdf", indexing.waitCalls[1].blobKey)
	// The first wait gets the full wall-clock budget; the second only what
	// the first left over.
	assert.Equal(t, 500*time.Millisecond, indexing.waitCalls[0].timeout)
	assert.Less(t, indexing.waitCalls[1].timeout, 500*time.Millisecond)
	assert.Greater(t, indexing.waitCalls[1].timeout, time.Duration(0))
}

func TestHandleUploadAndAnalyze_ExhaustedBudgetSkipsSecondWait(t *testing.T) {
	locator := &stubLocator{texts: map[string]string{
		"kim.pdf":     strings.Repeat("이력서 내용입니다. ", 20),
		"backend.pdf": strings.Repeat("채용공고 내용입니다. ", 20),
	}}
	indexing := &recordingIndexing{indexed: false, waitDelay: 20 * time.Millisecond}
	app := newUploadAndAnalyzeApp(t, locator, indexing, 5*time.Millisecond)

	body, contentType := pairBody(t, "kim.pdf", "backend.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/document/upload-and-analyze", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.UploadAndAnalyzeResponse
	decodeJSON(t, resp, &result)

	// The resume wait consumed the whole budget, so the job wait is skipped
	// and reported as not indexed; the analysis still runs.
	require.Len(t, indexing.waitCalls, 1)
	require.NotNil(t, result.Indexing)
	assert.False(t, result.Indexing.JobIndexed)
	assert.Equal(t, "success", result.Status)
}
