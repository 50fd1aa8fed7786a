package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"hrkit/interview-analyzer/internal/config"
	"hrkit/interview-analyzer/internal/models"
	"hrkit/interview-analyzer/internal/services"
)

type DocumentHandler struct {
	blob        services.BlobStorageService
	search      services.SearchService
	indexing    services.IndexingService
	locator     services.DocumentLocatorService
	analyzer    services.MatchAnalyzerService
	indexingCfg config.IndexingConfig
	logger      *zap.SugaredLogger
}

func NewDocumentHandler(
	blob services.BlobStorageService,
	search services.SearchService,
	indexing services.IndexingService,
	locator services.DocumentLocatorService,
	analyzer services.MatchAnalyzerService,
	indexingCfg config.IndexingConfig,
	logger *zap.SugaredLogger,
) *DocumentHandler {
	return &DocumentHandler{
		blob:        blob,
		search:      search,
		indexing:    indexing,
		locator:     locator,
		analyzer:    analyzer,
		indexingCfg: indexingCfg,
		logger:      logger,
	}
}

// HandleUploadResume handles POST /document/upload-resume
func (h *DocumentHandler) HandleUploadResume(c *fiber.Ctx) error {
	return h.handleRoleUpload(c, services.RolePrefixResume)
}

// HandleUploadJob handles POST /document/upload-job
func (h *DocumentHandler) HandleUploadJob(c *fiber.Ctx) error {
	return h.handleRoleUpload(c, services.RolePrefixJob)
}

func (h *DocumentHandler) handleRoleUpload(c *fiber.Ctx, rolePrefix string) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	result := h.uploadOne(c, fileHeader, rolePrefix)
	return c.JSON(result)
}

// HandleUploadBoth handles POST /document/upload-both
func (h *DocumentHandler) HandleUploadBoth(c *fiber.Ctx) error {
	resumeFile, jobFile, badReq := h.extractPair(c)
	if badReq != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": badReq,
		})
	}

	pair := models.UploadPairResult{
		ResumeUpload: h.uploadOne(c, resumeFile, services.RolePrefixResume),
		JobUpload:    h.uploadOne(c, jobFile, services.RolePrefixJob),
	}

	status := "success"
	if pair.ResumeUpload.Status != "success" || pair.JobUpload.Status != "success" {
		status = "error"
	}

	return c.JSON(fiber.Map{
		"status":         status,
		"upload_results": pair,
	})
}

// HandleAnalyzeFiles handles POST /document/analyze-files
func (h *DocumentHandler) HandleAnalyzeFiles(c *fiber.Ctx) error {
	var req models.AnalyzeFilesRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if req.ResumeFilename == "" || req.JobFilename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resume_filename and job_filename are required",
		})
	}

	resumeText, serr := h.locator.LocateDocument(c.Context(), req.ResumeFilename, services.RolePrefixResume)
	if serr != nil {
		return c.JSON(analysisFailure(serr))
	}

	jobText, serr := h.locator.LocateDocument(c.Context(), req.JobFilename, services.RolePrefixJob)
	if serr != nil {
		return c.JSON(analysisFailure(serr))
	}

	analysis, serr := h.analyzer.AnalyzeMatch(c.Context(), resumeText, jobText)
	if serr != nil {
		return c.JSON(analysisFailure(serr))
	}

	return c.JSON(models.AnalysisResponse{
		Status:   "success",
		Analysis: analysis,
	})
}

// HandleAnalyzeText handles POST /document/analyze-text
func (h *DocumentHandler) HandleAnalyzeText(c *fiber.Ctx) error {
	var req models.AnalyzeTextRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	analysis, serr := h.analyzer.AnalyzeMatch(c.Context(), req.ResumeText, req.JobPostingText)
	if serr != nil {
		return c.JSON(analysisFailure(serr))
	}

	return c.JSON(models.AnalysisResponse{
		Status:   "success",
		Analysis: analysis,
	})
}

// HandleUploadAndAnalyze handles POST /document/upload-and-analyze
func (h *DocumentHandler) HandleUploadAndAnalyze(c *fiber.Ctx) error {
	return h.handleUploadAndAnalyze(c, h.indexingCfg.FullTimeout)
}

// HandleUploadAndAnalyzeFast handles POST /document/upload-and-analyze-fast.
// Same flow with a shorter indexing budget for interactive callers.
func (h *DocumentHandler) HandleUploadAndAnalyzeFast(c *fiber.Ctx) error {
	return h.handleUploadAndAnalyze(c, h.indexingCfg.FastTimeout)
}

func (h *DocumentHandler) handleUploadAndAnalyze(c *fiber.Ctx, timeout time.Duration) error {
	resumeFile, jobFile, badReq := h.extractPair(c)
	if badReq != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": badReq,
		})
	}

	resp := models.UploadAndAnalyzeResponse{Status: "success"}

	resp.UploadResults.ResumeUpload = h.uploadOne(c, resumeFile, services.RolePrefixResume)
	resp.UploadResults.JobUpload = h.uploadOne(c, jobFile, services.RolePrefixJob)
	if resp.UploadResults.ResumeUpload.Status != "success" || resp.UploadResults.JobUpload.Status != "success" {
		resp.Status = "error"
		resp.Message = "file upload failed"
		return c.JSON(resp)
	}

	resumeKey := services.RoleKey(services.RolePrefixResume, resumeFile.Filename)
	jobKey := services.RoleKey(services.RolePrefixJob, jobFile.Filename)

	indexing := &models.IndexingFlowResult{TimeoutSeconds: timeout.Seconds()}
	resp.Indexing = indexing

	jobs, serr := h.indexing.RunIndexingJobs(c.Context())
	if serr != nil {
		h.logger.Warnf("⚠️ Indexer trigger failed, relying on scheduled runs: %v", serr)
	}
	indexing.JobsTriggered = jobs

	index := h.indexing.SelectActiveIndex(c.Context())

	// The two waits share one wall-clock budget: whatever the resume wait
	// consumes is no longer available to the job wait.
	started := time.Now()
	indexing.ResumeIndexed = h.indexing.WaitUntilIndexed(c.Context(), index, resumeKey, timeout)
	if remaining := timeout - time.Since(started); remaining > 0 {
		indexing.JobIndexed = h.indexing.WaitUntilIndexed(c.Context(), index, jobKey, remaining)
	}
	indexing.WaitedSeconds = time.Since(started).Seconds()

	resumeText, serr := h.locator.LocateDocument(c.Context(), resumeFile.Filename, services.RolePrefixResume)
	if serr != nil {
		resp.Status = "error"
		resp.Message = serr.Message
		resp.Analysis = analysisFailurePtr(serr)
		return c.JSON(resp)
	}

	jobText, serr := h.locator.LocateDocument(c.Context(), jobFile.Filename, services.RolePrefixJob)
	if serr != nil {
		resp.Status = "error"
		resp.Message = serr.Message
		resp.Analysis = analysisFailurePtr(serr)
		return c.JSON(resp)
	}

	analysis, serr := h.analyzer.AnalyzeMatch(c.Context(), resumeText, jobText)
	if serr != nil {
		resp.Status = "error"
		resp.Message = serr.Message
		resp.Analysis = analysisFailurePtr(serr)
		return c.JSON(resp)
	}

	resp.Analysis = &models.AnalysisResponse{
		Status:   "success",
		Analysis: analysis,
	}
	return c.JSON(resp)
}

// HandleListFiles handles GET /document/files-list
func (h *DocumentHandler) HandleListFiles(c *fiber.Ctx) error {
	resumes, serr := h.blob.ListByPrefix(c.Context(), services.RolePrefixResume+"_")
	if serr != nil {
		return c.JSON(models.FilesListResponse{Status: "error", Message: serr.Message})
	}

	jobs, serr := h.blob.ListByPrefix(c.Context(), services.RolePrefixJob+"_")
	if serr != nil {
		return c.JSON(models.FilesListResponse{Status: "error", Message: serr.Message})
	}

	return c.JSON(models.FilesListResponse{
		Status:      "success",
		ResumeFiles: resumes,
		JobFiles:    jobs,
		TotalFiles:  len(resumes) + len(jobs),
	})
}

// HandleRunIndexer handles POST /document/run-indexer
func (h *DocumentHandler) HandleRunIndexer(c *fiber.Ctx) error {
	results, serr := h.indexing.RunIndexingJobs(c.Context())
	if serr != nil {
		return c.JSON(models.IndexerRunResponse{Status: "error", Message: serr.Message})
	}

	return c.JSON(models.IndexerRunResponse{
		Status:  "success",
		Results: results,
	})
}

// HandleIndexerStatus handles GET /document/indexer-status/:name
func (h *DocumentHandler) HandleIndexerStatus(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "indexer name is required",
		})
	}

	status, serr := h.search.GetIndexerStatus(c.Context(), name)
	if serr != nil {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": serr.Message,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"indexer": status,
	})
}

// HandleDebugIndex handles GET /document/debug-index. It reports which index
// is active, its schema, and a small unranked sample of documents.
func (h *DocumentHandler) HandleDebugIndex(c *fiber.Ctx) error {
	index := h.indexing.SelectActiveIndex(c.Context())

	out := fiber.Map{
		"status":       "success",
		"active_index": index,
	}

	if schema, serr := h.search.GetIndexSchema(c.Context(), index); serr == nil {
		out["schema"] = schema
	} else {
		out["schema_error"] = serr.Message
	}

	docs, serr := h.search.SearchDocuments(c.Context(), index, services.SearchQuery{
		Text:   "*",
		Top:    10,
		Select: []string{services.FieldStorageName},
	})
	if serr != nil {
		out["documents_error"] = serr.Message
		return c.JSON(out)
	}

	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		if name := doc.StorageName(); name != "" {
			names = append(names, name)
		}
	}
	out["document_count"] = len(docs)
	out["document_names"] = names

	return c.JSON(out)
}

func (h *DocumentHandler) uploadOne(c *fiber.Ctx, fileHeader *multipart.FileHeader, rolePrefix string) models.StatusResult {
	key := services.RoleKey(rolePrefix, fileHeader.Filename)

	content, err := readMultipartFile(fileHeader)
	if err != nil {
		return models.StatusResult{
			Status:  "error",
			Message: fmt.Sprintf("failed to read uploaded file: %v", err),
		}
	}

	if serr := h.blob.Upload(c.Context(), key, content); serr != nil {
		h.logger.Errorf("❌ Upload of %q failed: %v", key, serr)
		return models.StatusResult{
			Status:  "error",
			Message: serr.Message,
		}
	}

	h.logger.Infof("📤 Uploaded %q (%d bytes)", key, len(content))
	return models.StatusResult{
		Status:   "success",
		Filename: key,
	}
}

func (h *DocumentHandler) extractPair(c *fiber.Ctx) (resume, job *multipart.FileHeader, badRequest string) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, "failed to parse multipart form"
	}

	files := form.File

	resumeFiles, ok := files["resume"]
	if !ok || len(resumeFiles) == 0 {
		return nil, nil, "resume file is required"
	}

	jobFiles, ok := files["job_posting"]
	if !ok || len(jobFiles) == 0 {
		return nil, nil, "job_posting file is required"
	}

	return resumeFiles[0], jobFiles[0], ""
}

func readMultipartFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func analysisFailure(serr *services.ServiceError) models.AnalysisResponse {
	return models.AnalysisResponse{
		Status:    "error",
		Message:   serr.Message,
		ErrorKind: string(serr.Kind),
		Available: serr.Available,
	}
}

func analysisFailurePtr(serr *services.ServiceError) *models.AnalysisResponse {
	resp := analysisFailure(serr)
	return &resp
}
