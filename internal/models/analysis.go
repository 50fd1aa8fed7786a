package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisType string

const (
	AnalysisTypeMatch     AnalysisType = "match"
	AnalysisTypeInterview AnalysisType = "interview"
	AnalysisTypeCombined  AnalysisType = "combined"
)

// AnalysisRecord is the persisted outcome of a structured interview analysis.
type AnalysisRecord struct {
	ID            uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CandidateName string       `gorm:"type:text" json:"candidate_name"`
	Position      string       `gorm:"type:text" json:"position"`
	AnalysisType  AnalysisType `gorm:"type:text;not null;default:'interview'" json:"analysis_type"`
	Summary       string       `gorm:"type:text" json:"summary"`
	Strengths     string       `gorm:"type:text" json:"strengths"`
	Weaknesses    string       `gorm:"type:text" json:"weaknesses"`
	CreatedAt     time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AnalysisRecord) TableName() string {
	return "analysis_records"
}
