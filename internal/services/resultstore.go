package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"hrkit/interview-analyzer/internal/models"
)

const (
	snapshotPrefix = "analysis_result_"
	snapshotSuffix = ".json"
)

// Embedder is the slice of the LLM client the result store needs.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ResultStoreService persists analysis snapshots as timestamp-named JSON
// blobs and mirrors them into the vector store for semantic search.
type ResultStoreService interface {
	SaveSnapshot(ctx context.Context, analysisType models.AnalysisType, metadata map[string]any, results any) (string, *ServiceError)
	LoadSnapshot(ctx context.Context, name string) (map[string]any, *ServiceError)
	DeleteSnapshot(ctx context.Context, name string) *ServiceError
	ListSnapshots(ctx context.Context) ([]models.SnapshotInfo, *ServiceError)
	IndexAnalysis(ctx context.Context, record *models.AnalysisRecord) error
	SearchAnalyses(ctx context.Context, query string, limit int) ([]AnalysisSearchResult, *ServiceError)
}

type resultStoreService struct {
	blob     BlobStorageService
	qdrant   QdrantService
	embedder Embedder
	chunker  TextChunker
	logger   *zap.SugaredLogger
}

func NewResultStoreService(blob BlobStorageService, qdrant QdrantService, embedder Embedder, logger *zap.SugaredLogger) ResultStoreService {
	return &resultStoreService{
		blob:     blob,
		qdrant:   qdrant,
		embedder: embedder,
		chunker:  NewTextChunker(),
		logger:   logger,
	}
}

// SaveSnapshot implements ResultStoreService.
func (r *resultStoreService) SaveSnapshot(ctx context.Context, analysisType models.AnalysisType, metadata map[string]any, results any) (string, *ServiceError) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["type"] = string(analysisType)
	metadata["created_at"] = time.Now().Format(time.RFC3339)

	payload := map[string]any{
		"metadata": metadata,
		"results":  results,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", transientError("failed to encode analysis snapshot", err)
	}

	name := fmt.Sprintf("%s%s_%d%s", snapshotPrefix, analysisType, time.Now().UnixMilli(), snapshotSuffix)

	if serr := r.blob.Upload(ctx, name, data); serr != nil {
		return "", serr
	}

	r.logger.Infof("💾 Analysis snapshot saved: %s", name)
	return name, nil
}

// LoadSnapshot implements ResultStoreService.
func (r *resultStoreService) LoadSnapshot(ctx context.Context, name string) (map[string]any, *ServiceError) {
	if serr := validateSnapshotName(name); serr != nil {
		return nil, serr
	}

	data, serr := r.blob.Download(ctx, name)
	if serr != nil {
		if serr.Kind == KindNotFound {
			return nil, notFoundError(fmt.Sprintf("snapshot %q was not found", name), nil)
		}
		// Storage outages stay transient instead of masquerading as a
		// missing snapshot.
		return nil, serr
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, transientError(fmt.Sprintf("snapshot %q is not valid JSON", name), err)
	}

	return payload, nil
}

// DeleteSnapshot implements ResultStoreService.
func (r *resultStoreService) DeleteSnapshot(ctx context.Context, name string) *ServiceError {
	if serr := validateSnapshotName(name); serr != nil {
		return serr
	}

	return r.blob.Delete(ctx, name)
}

// ListSnapshots implements ResultStoreService.
func (r *resultStoreService) ListSnapshots(ctx context.Context) ([]models.SnapshotInfo, *ServiceError) {
	files, serr := r.blob.ListByPrefix(ctx, snapshotPrefix)
	if serr != nil {
		return nil, serr
	}

	snapshots := make([]models.SnapshotInfo, 0, len(files))
	for _, f := range files {
		if !strings.HasSuffix(f.Name, snapshotSuffix) {
			continue
		}
		snapshots = append(snapshots, models.SnapshotInfo{
			Name:         f.Name,
			Size:         f.Size,
			LastModified: f.LastModified,
		})
	}

	return snapshots, nil
}

// IndexAnalysis implements ResultStoreService. Vector-store failures are
// reported but never fail the caller's flow.
func (r *resultStoreService) IndexAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	text := strings.TrimSpace(strings.Join([]string{
		record.Summary,
		record.Strengths,
		record.Weaknesses,
	}, "\n\n"))
	if text == "" {
		return nil
	}

	for _, chunk := range r.chunker.ChunkText(text, 1000, 100) {
		embedding, err := r.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return fmt.Errorf("failed to embed analysis: %w", err)
		}

		if err := r.qdrant.UpsertAnalysis(
			ctx,
			record.ID.String(),
			record.CandidateName,
			record.Position,
			string(record.AnalysisType),
			chunk,
			embedding,
		); err != nil {
			return err
		}
	}

	return nil
}

// SearchAnalyses implements ResultStoreService.
func (r *resultStoreService) SearchAnalyses(ctx context.Context, query string, limit int) ([]AnalysisSearchResult, *ServiceError) {
	if strings.TrimSpace(query) == "" {
		return nil, validationError("검색어가 비어있습니다")
	}
	if limit <= 0 {
		limit = 10
	}

	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, transientError("failed to embed search query", err)
	}

	results, err := r.qdrant.SearchSimilar(ctx, embedding, limit)
	if err != nil {
		return nil, transientError("analysis search failed", err)
	}

	return results, nil
}

// validateSnapshotName guards load/delete against arbitrary blob keys.
func validateSnapshotName(name string) *ServiceError {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
		return validationError(fmt.Sprintf("invalid snapshot name %q: must start with %q and end with %q", name, snapshotPrefix, snapshotSuffix))
	}
	if strings.ContainsAny(name, "/\\") {
		return validationError(fmt.Sprintf("invalid snapshot name %q: path separators are not allowed", name))
	}
	return nil
}
