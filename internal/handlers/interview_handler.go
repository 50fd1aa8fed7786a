package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"hrkit/interview-analyzer/internal/models"
	"hrkit/interview-analyzer/internal/services"
)

type InterviewHandler struct {
	blob          services.BlobStorageService
	transcription services.TranscriptionService
	analyzer      services.MatchAnalyzerService
	logger        *zap.SugaredLogger
}

func NewInterviewHandler(
	blob services.BlobStorageService,
	transcription services.TranscriptionService,
	analyzer services.MatchAnalyzerService,
	logger *zap.SugaredLogger,
) *InterviewHandler {
	return &InterviewHandler{
		blob:          blob,
		transcription: transcription,
		analyzer:      analyzer,
		logger:        logger,
	}
}

// HandleUploadAudio handles POST /interview/upload-audio
func (h *InterviewHandler) HandleUploadAudio(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	key := services.RoleKey(services.RolePrefixInterview, fileHeader.Filename)

	content, err := readMultipartFile(fileHeader)
	if err != nil {
		return c.JSON(models.StatusResult{
			Status:  "error",
			Message: "failed to read uploaded file",
		})
	}

	if serr := h.blob.Upload(c.Context(), key, content); serr != nil {
		h.logger.Errorf("❌ Audio upload of %q failed: %v", key, serr)
		return c.JSON(models.StatusResult{
			Status:  "error",
			Message: serr.Message,
		})
	}

	h.logger.Infof("🎙️ Uploaded audio %q (%d bytes)", key, len(content))
	return c.JSON(models.StatusResult{
		Status:   "success",
		Filename: key,
	})
}

// HandleTranscribe handles POST /interview/transcribe. The audio is
// transcribed directly without being persisted.
func (h *InterviewHandler) HandleTranscribe(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	content, err := readMultipartFile(fileHeader)
	if err != nil {
		return c.JSON(models.TranscriptionResponse{
			Status:  "error",
			Message: "failed to read uploaded file",
		})
	}

	resp := h.transcribe(c, content, fileHeader.Filename)
	return c.JSON(resp)
}

// HandleUploadAndTranscribe handles POST /interview/upload-and-transcribe.
// Upload and transcription succeed or fail independently; the response
// reports both sub-results.
func (h *InterviewHandler) HandleUploadAndTranscribe(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	content, err := readMultipartFile(fileHeader)
	if err != nil {
		return c.JSON(models.UploadAndTranscribeResponse{
			Status:  "error",
			Message: "failed to read uploaded file",
		})
	}

	key := services.RoleKey(services.RolePrefixInterview, fileHeader.Filename)

	resp := models.UploadAndTranscribeResponse{
		Status:   "success",
		Filename: key,
	}

	if serr := h.blob.Upload(c.Context(), key, content); serr != nil {
		h.logger.Warnf("⚠️ Audio upload of %q failed, transcribing anyway: %v", key, serr)
		resp.UploadResult = models.StatusResult{Status: "error", Message: serr.Message}
	} else {
		resp.UploadResult = models.StatusResult{Status: "success", Filename: key}
	}

	transcribed := h.transcribe(c, content, fileHeader.Filename)
	resp.TranscribeResult = &transcribed

	if transcribed.Status != "success" {
		resp.Status = "error"
		resp.Message = transcribed.Message
		return c.JSON(resp)
	}

	resp.Transcription = transcribed.Transcription
	return c.JSON(resp)
}

// HandleAnalyze handles POST /interview/analyze
func (h *InterviewHandler) HandleAnalyze(c *fiber.Ctx) error {
	var req models.InterviewAnalyzeRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	analysis, serr := h.analyzer.AnalyzeInterview(c.Context(), req.Transcription, req.JobDescription)
	if serr != nil {
		return c.JSON(analysisFailure(serr))
	}

	return c.JSON(models.AnalysisResponse{
		Status:   "success",
		Analysis: analysis,
	})
}

// HandleQuickAnalysis handles POST /interview/quick-analysis. The caller
// supplies already-resolved texts; when both resume and job posting are
// present the interview report is folded into a combined narrative.
func (h *InterviewHandler) HandleQuickAnalysis(c *fiber.Ctx) error {
	var req models.QuickAnalysisRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	interviewReport, serr := h.analyzer.AnalyzeInterview(c.Context(), req.STTResult, req.JobPostingContent)
	if serr != nil {
		return c.JSON(analysisFailure(serr))
	}

	if strings.TrimSpace(req.ResumeContent) == "" || strings.TrimSpace(req.JobPostingContent) == "" {
		return c.JSON(models.AnalysisResponse{
			Status:   "success",
			Analysis: interviewReport,
		})
	}

	matchReport, serr := h.analyzer.AnalyzeMatch(c.Context(), req.ResumeContent, req.JobPostingContent)
	if serr != nil {
		// The interview report alone is still useful.
		h.logger.Warnf("⚠️ Match stage of quick analysis failed: %v", serr)
		return c.JSON(models.AnalysisResponse{
			Status:   "success",
			Analysis: interviewReport,
			Message:  serr.Message,
		})
	}

	combined, serr := h.analyzer.CombineReports(c.Context(), matchReport, interviewReport)
	if serr != nil {
		return c.JSON(analysisFailure(serr))
	}

	return c.JSON(models.AnalysisResponse{
		Status:   "success",
		Analysis: combined,
	})
}

// HandleFullAnalysis handles POST /interview/full-analysis: upload the audio,
// transcribe it, then evaluate the transcript against an optional job
// description form field.
func (h *InterviewHandler) HandleFullAnalysis(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}
	jobDescription := c.FormValue("job_description")

	content, err := readMultipartFile(fileHeader)
	if err != nil {
		return c.JSON(models.FullInterviewAnalysisResponse{
			Status:  "error",
			Message: "failed to read uploaded file",
		})
	}

	key := services.RoleKey(services.RolePrefixInterview, fileHeader.Filename)

	resp := models.FullInterviewAnalysisResponse{
		Status:   "success",
		Filename: key,
	}

	upload := models.UploadAndTranscribeResponse{Status: "success", Filename: key}
	if serr := h.blob.Upload(c.Context(), key, content); serr != nil {
		h.logger.Warnf("⚠️ Audio upload of %q failed, continuing: %v", key, serr)
		upload.UploadResult = models.StatusResult{Status: "error", Message: serr.Message}
	} else {
		upload.UploadResult = models.StatusResult{Status: "success", Filename: key}
	}

	transcribed := h.transcribe(c, content, fileHeader.Filename)
	upload.TranscribeResult = &transcribed
	resp.UploadTranscribe = &upload

	if transcribed.Status != "success" {
		resp.Status = "error"
		resp.Message = transcribed.Message
		return c.JSON(resp)
	}
	resp.Transcription = transcribed.Transcription

	analysis, serr := h.analyzer.AnalyzeInterview(c.Context(), transcribed.Transcription, jobDescription)
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

// HandleAudioFiles handles GET /interview/audio-files
func (h *InterviewHandler) HandleAudioFiles(c *fiber.Ctx) error {
	files, serr := h.blob.ListByPrefix(c.Context(), services.RolePrefixInterview+"_")
	if serr != nil {
		return c.JSON(models.AudioFilesResponse{Status: "error", Message: serr.Message})
	}

	return c.JSON(models.AudioFilesResponse{
		Status:         "success",
		InterviewFiles: files,
		TotalFiles:     len(files),
	})
}

func (h *InterviewHandler) transcribe(c *fiber.Ctx, audio []byte, filename string) models.TranscriptionResponse {
	text, failureCause, serr := h.transcription.Transcribe(c.Context(), audio, filename)
	if serr != nil {
		return models.TranscriptionResponse{
			Status:       "error",
			Filename:     filename,
			Message:      serr.Message,
			FailureCause: failureCause,
		}
	}

	return models.TranscriptionResponse{
		Status:        "success",
		Filename:      filename,
		Transcription: text,
		TextLength:    len([]rune(text)),
	}
}
