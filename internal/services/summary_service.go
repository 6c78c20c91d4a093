package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/equipviz/backend/internal/equipment"
	"github.com/equipviz/backend/internal/logger"
	"github.com/equipviz/backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultRetentionLimit is how many summaries survive each trim.
const DefaultRetentionLimit = 5

// NotFoundError is returned when a lookup has nothing to return.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s available", e.Resource)
}

// SummaryService persists upload summaries and keeps only the newest ones.
type SummaryService struct {
	db    *gorm.DB
	limit int
	now   func() time.Time
}

func NewSummaryService(db *gorm.DB, limit int) *SummaryService {
	if limit < 1 {
		limit = DefaultRetentionLimit
	}
	return &SummaryService{
		db:    db,
		limit: limit,
		now:   time.Now,
	}
}

// WithClock replaces the timestamp source.
func (ss *SummaryService) WithClock(now func() time.Time) *SummaryService {
	ss.now = now
	return ss
}

// Limit returns the retention limit.
func (ss *SummaryService) Limit() int {
	return ss.limit
}

// NewSummary builds an unsaved record from aggregated stats.
func NewSummary(fileName string, stats equipment.Stats) *models.UploadSummary {
	dist := make(models.TypeDistribution, len(stats.TypeDistribution))
	for k, v := range stats.TypeDistribution {
		dist[k] = v
	}
	return &models.UploadSummary{
		FileName:         fileName,
		TotalEquipment:   stats.Count,
		AvgFlowrate:      stats.AvgFlowrate,
		AvgPressure:      stats.AvgPressure,
		AvgTemperature:   stats.AvgTemperature,
		TypeDistribution: datatypes.NewJSONType(dist),
	}
}

// Insert stamps and stores the summary, then deletes everything outside the
// newest limit records. Both steps share one transaction.
func (ss *SummaryService) Insert(ctx context.Context, summary *models.UploadSummary) error {
	var evicted int64

	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stamp := ss.now().UTC().Truncate(time.Microsecond)

		// uploaded_at must grow with insertion order even if the clock stalls or steps back
		var newest models.UploadSummary
		err := tx.Order("uploaded_at DESC, id DESC").Take(&newest).Error
		switch {
		case err == nil:
			if !stamp.After(newest.UploadedAt) {
				stamp = newest.UploadedAt.UTC().Add(time.Microsecond)
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to read newest summary: %w", err)
		}

		summary.ID = 0
		summary.UploadedAt = stamp
		if err := tx.Create(summary).Error; err != nil {
			return fmt.Errorf("failed to create summary: %w", err)
		}

		var keep []uint
		if err := tx.Model(&models.UploadSummary{}).
			Order("uploaded_at DESC, id DESC").
			Limit(ss.limit).
			Pluck("id", &keep).Error; err != nil {
			return fmt.Errorf("failed to select retained summaries: %w", err)
		}
		if len(keep) == 0 {
			return nil
		}

		result := tx.Where("id NOT IN ?", keep).Delete(&models.UploadSummary{})
		if result.Error != nil {
			return fmt.Errorf("failed to trim summaries: %w", result.Error)
		}
		evicted = result.RowsAffected
		return nil
	})
	if err != nil {
		logger.WithError(err, "summary_service").Error("Failed to store upload summary")
		return err
	}

	logger.Debug("Upload summary stored", map[string]interface{}{
		"summary_id":  summary.ID,
		"file_name":   summary.FileName,
		"uploaded_at": summary.UploadedAt,
		"evicted":     evicted,
	})
	return nil
}

// List returns the retained summaries, newest first.
func (ss *SummaryService) List(ctx context.Context) ([]models.UploadSummary, error) {
	var summaries []models.UploadSummary
	err := ss.db.WithContext(ctx).
		Order("uploaded_at DESC, id DESC").
		Limit(ss.limit).
		Find(&summaries).Error
	if err != nil {
		logger.WithError(err, "summary_service").Error("Failed to list summaries")
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	return summaries, nil
}

// Latest returns the newest summary or a *NotFoundError.
func (ss *SummaryService) Latest(ctx context.Context) (*models.UploadSummary, error) {
	var summary models.UploadSummary
	err := ss.db.WithContext(ctx).
		Order("uploaded_at DESC, id DESC").
		Take(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "summary"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest summary: %w", err)
	}
	return &summary, nil
}

// Count returns how many summaries are stored.
func (ss *SummaryService) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := ss.db.WithContext(ctx).Model(&models.UploadSummary{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count summaries: %w", err)
	}
	return n, nil
}
