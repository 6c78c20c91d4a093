package services

import (
	"context"
	"io"

	"github.com/equipviz/backend/internal/equipment"
	"github.com/equipviz/backend/internal/logger"
	"github.com/equipviz/backend/internal/models"
)

// UploadService turns a CSV upload into a stored summary.
type UploadService struct {
	summaries *SummaryService
}

func NewUploadService(summaries *SummaryService) *UploadService {
	return &UploadService{summaries: summaries}
}

// ProcessCSV parses, validates and aggregates the upload and stores the result.
// Validation failures come back as the equipment package's error types and
// nothing is written.
func (us *UploadService) ProcessCSV(ctx context.Context, fileName string, r io.Reader) (*models.UploadSummary, error) {
	table, err := equipment.ReadCSV(r)
	if err != nil {
		return nil, err
	}

	readings, err := equipment.Validate(table)
	if err != nil {
		logger.WithUpload(fileName).WithField("reason", err.Error()).Info("Upload rejected")
		return nil, err
	}

	stats := equipment.Aggregate(readings)
	summary := NewSummary(fileName, stats)
	if err := us.summaries.Insert(ctx, summary); err != nil {
		return nil, err
	}

	logger.WithUpload(fileName).WithField("rows", stats.Count).Info("Upload processed")
	return summary, nil
}
