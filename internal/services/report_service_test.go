package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/equipviz/backend/internal/equipment"
	"github.com/equipviz/backend/internal/models"
	"github.com/equipviz/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPDF_Content(t *testing.T) {
	summary := NewSummary("plant.csv", equipment.Stats{
		Count:            3,
		AvgFlowrate:      20,
		AvgPressure:      30.5,
		AvgTemperature:   40,
		TypeDistribution: map[string]int{"Pump": 2, "Valve": 1},
	})
	summary.ID = 7
	summary.UploadedAt = epoch

	doc, err := RenderPDF(summary)
	require.NoError(t, err)

	body := string(doc)
	assert.True(t, len(doc) > 5 && body[:5] == "%PDF-")
	assert.Contains(t, body, ReportTitle)
	assert.Contains(t, body, "File: plant.csv")
	assert.Contains(t, body, "Date: 2025-03-01 12:00:00")
	assert.Contains(t, body, "Total Equipment: 3")
	assert.Contains(t, body, "Avg Pressure: 30.5")
	assert.Contains(t, body, "Pump: 2")
	assert.Contains(t, body, "Valve: 1")
	assert.Equal(t, "report_7.pdf", FileName(summary))
}

func TestRenderPDF_NoDistribution(t *testing.T) {
	summary := &models.UploadSummary{FileName: "x.csv", UploadedAt: epoch}

	doc, err := RenderPDF(summary)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "No distribution data available")
}

func TestRenderPDF_LongDistributionPaginates(t *testing.T) {
	dist := map[string]int{}
	for i := 0; i < 100; i++ {
		dist[fmt.Sprintf("Type-%02d", i)] = 1
	}
	summary := NewSummary("wide.csv", equipment.Stats{Count: 100, TypeDistribution: dist})
	summary.UploadedAt = epoch

	doc, err := RenderPDF(summary)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Type-99: 1")
	assert.Contains(t, string(doc), "/Count 3")
}

func TestReportService_Latest(t *testing.T) {
	ctx := context.Background()
	store := NewSummaryService(testutil.NewTestDB(t), DefaultRetentionLimit).
		WithClock(testutil.StepClock(epoch, time.Minute))
	reports := NewReportService(store)

	_, _, err := reports.Latest(ctx)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))

	require.NoError(t, store.Insert(ctx, NewSummary("old.csv", sampleStats(1))))
	require.NoError(t, store.Insert(ctx, NewSummary("new.csv", sampleStats(2))))

	summary, doc, err := reports.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new.csv", summary.FileName)
	assert.Contains(t, string(doc), "File: new.csv")
}
