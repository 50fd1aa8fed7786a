package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hrkit/interview-analyzer/internal/models"
	"hrkit/interview-analyzer/internal/repositories"
	"hrkit/interview-analyzer/internal/services"
)

type AnalyzeHandler struct {
	analyzer    services.MatchAnalyzerService
	repo        repositories.AnalysisRepository
	resultStore services.ResultStoreService
	logger      *zap.SugaredLogger
}

func NewAnalyzeHandler(
	analyzer services.MatchAnalyzerService,
	repo repositories.AnalysisRepository,
	resultStore services.ResultStoreService,
	logger *zap.SugaredLogger,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:    analyzer,
		repo:        repo,
		resultStore: resultStore,
		logger:      logger,
	}
}

// HandleStructuredAnalyze handles POST /analyze/interview. The sectioned
// evaluation is persisted and indexed for later semantic search; snapshot and
// vector indexing are best-effort and never fail the request.
func (h *AnalyzeHandler) HandleStructuredAnalyze(c *fiber.Ctx) error {
	var req models.StructuredAnalyzeRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if req.InterviewText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "interview_text is required",
		})
	}

	analysis, serr := h.analyzer.AnalyzeStructured(
		c.Context(),
		req.CandidateName,
		req.Position,
		req.ResumeText,
		req.JobPostingText,
		req.InterviewText,
	)
	if serr != nil {
		return c.JSON(analysisFailure(serr))
	}

	record := models.AnalysisRecord{
		ID:            uuid.New(),
		CandidateName: req.CandidateName,
		Position:      req.Position,
		AnalysisType:  models.AnalysisTypeInterview,
		Summary:       analysis.Summary,
		Strengths:     analysis.Strengths,
		Weaknesses:    analysis.Weaknesses,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := h.repo.Create(&record); err != nil {
		h.logger.Errorf("❌ Failed to persist analysis record: %v", err)
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "failed to persist analysis result",
		})
	}

	if err := h.resultStore.IndexAnalysis(c.Context(), &record); err != nil {
		h.logger.Warnf("⚠️ Vector indexing of record %s failed: %v", record.ID, err)
	}

	if _, serr := h.resultStore.SaveSnapshot(c.Context(), record.AnalysisType, map[string]any{
		"record_id":      record.ID.String(),
		"candidate_name": record.CandidateName,
		"position":       record.Position,
	}, record); serr != nil {
		h.logger.Warnf("⚠️ Snapshot save for record %s failed: %v", record.ID, serr)
	}

	return c.JSON(models.StructuredAnalyzeResponse{
		ID:            record.ID.String(),
		CandidateName: record.CandidateName,
		Position:      record.Position,
		Summary:       record.Summary,
		Strengths:     record.Strengths,
		Weaknesses:    record.Weaknesses,
	})
}

// HandleGetResult handles GET /analyze/result/:id
func (h *AnalyzeHandler) HandleGetResult(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid id format",
		})
	}

	record, err := h.repo.FindByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Analysis result not found",
		})
	}

	return c.JSON(record)
}

// HandleListResults handles GET /analyze/results
func (h *AnalyzeHandler) HandleListResults(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	records, err := h.repo.FindRecent(limit)
	if err != nil {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "failed to list analysis results",
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"results": records,
		"count":   len(records),
	})
}

// HandleSearchResults handles GET /analyze/search?q=...
func (h *AnalyzeHandler) HandleSearchResults(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "q query parameter is required",
		})
	}

	limit, err := strconv.Atoi(c.Query("limit", "5"))
	if err != nil || limit < 1 {
		limit = 5
	}

	results, serr := h.resultStore.SearchAnalyses(c.Context(), query, limit)
	if serr != nil {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": serr.Message,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"results": results,
		"count":   len(results),
	})
}

// HandleListSnapshots handles GET /analyze/snapshots
func (h *AnalyzeHandler) HandleListSnapshots(c *fiber.Ctx) error {
	snapshots, serr := h.resultStore.ListSnapshots(c.Context())
	if serr != nil {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": serr.Message,
		})
	}

	return c.JSON(fiber.Map{
		"status":    "success",
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// HandleGetSnapshot handles GET /analyze/snapshots/:name
func (h *AnalyzeHandler) HandleGetSnapshot(c *fiber.Ctx) error {
	snapshot, serr := h.resultStore.LoadSnapshot(c.Context(), c.Params("name"))
	if serr != nil {
		if serr.Kind == services.KindValidation {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": serr.Message,
			})
		}
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": serr.Message,
		})
	}

	return c.JSON(snapshot)
}

// HandleDeleteSnapshot handles DELETE /analyze/snapshots/:name
func (h *AnalyzeHandler) HandleDeleteSnapshot(c *fiber.Ctx) error {
	if serr := h.resultStore.DeleteSnapshot(c.Context(), c.Params("name")); serr != nil {
		if serr.Kind == services.KindValidation {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": serr.Message,
			})
		}
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": serr.Message,
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
	})
}
