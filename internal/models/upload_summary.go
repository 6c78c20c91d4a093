package models

import (
	"time"

	"gorm.io/datatypes"
)

// TypeDistribution maps an equipment type label to its row count.
type TypeDistribution map[string]int

// UploadSummary is the stored aggregate of one processed CSV upload.
// Rows are never updated; the retention trim hard-deletes old ones.
type UploadSummary struct {
	ID               uint                                `json:"id" gorm:"primaryKey"`
	FileName         string                              `json:"file_name" gorm:"size:255;not null"`
	UploadedAt       time.Time                           `json:"uploaded_at" gorm:"not null;index"`
	TotalEquipment   int                                 `json:"total_equipment" gorm:"not null"`
	AvgFlowrate      float64                             `json:"avg_flowrate" gorm:"not null"`
	AvgPressure      float64                             `json:"avg_pressure" gorm:"not null"`
	AvgTemperature   float64                             `json:"avg_temperature" gorm:"not null"`
	TypeDistribution datatypes.JSONType[TypeDistribution] `json:"type_distribution"`
}

func (UploadSummary) TableName() string {
	return "upload_summaries"
}

// Distribution returns the decoded type counts, never nil.
func (s *UploadSummary) Distribution() TypeDistribution {
	d := s.TypeDistribution.Data()
	if d == nil {
		return TypeDistribution{}
	}
	return d
}
