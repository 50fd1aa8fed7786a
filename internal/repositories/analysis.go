package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrkit/interview-analyzer/internal/models"
)

type AnalysisRepository interface {
	Create(record *models.AnalysisRecord) error
	FindByID(id uuid.UUID) (*models.AnalysisRecord, error)
	FindRecent(limit int) ([]models.AnalysisRecord, error)
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

// Create implements AnalysisRepository.
func (r *analysisRepository) Create(record *models.AnalysisRecord) error {
	if err := r.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create analysis record: %w", err)
	}

	return nil
}

// FindByID implements AnalysisRepository.
func (r *analysisRepository) FindByID(id uuid.UUID) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	if err := r.db.Where("id = ?", id).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("analysis record not found: %w", err)
		}

		return nil, fmt.Errorf("failed to find analysis record: %w", err)
	}

	return &record, nil
}

// FindRecent implements AnalysisRepository.
func (r *analysisRepository) FindRecent(limit int) ([]models.AnalysisRecord, error) {
	var records []models.AnalysisRecord
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list analysis records: %w", err)
	}

	return records, nil
}
