package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/equipviz/backend/internal/equipment"
	"github.com/equipviz/backend/internal/logger"
	"github.com/equipviz/backend/internal/models"
	"github.com/equipviz/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type EquipmentController struct {
	uploads        *services.UploadService
	summaries      *services.SummaryService
	reports        *services.ReportService
	maxUploadBytes int64
}

func NewEquipmentController(summaries *services.SummaryService, maxUploadBytes int64) *EquipmentController {
	return &EquipmentController{
		uploads:        services.NewUploadService(summaries),
		summaries:      summaries,
		reports:        services.NewReportService(summaries),
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadResponse is returned for an accepted upload. Averages are rounded to 2 decimals.
type UploadResponse struct {
	TotalCount       int                     `json:"total_count"`
	AvgFlowrate      float64                 `json:"avg_flowrate"`
	AvgPressure      float64                 `json:"avg_pressure"`
	AvgTemperature   float64                 `json:"avg_temperature"`
	TypeDistribution models.TypeDistribution `json:"type_distribution"`
}

// HistoryEntry is one row of the history listing.
type HistoryEntry struct {
	FileName       string    `json:"file_name"`
	UploadedAt     time.Time `json:"uploaded_at"`
	TotalEquipment int       `json:"total_equipment"`
	AvgFlowrate    float64   `json:"avg_flowrate"`
	AvgPressure    float64   `json:"avg_pressure"`
	AvgTemperature float64   `json:"avg_temperature"`
}

// Upload handles a CSV upload in the multipart field "file"
func (ec *EquipmentController) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ec.maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds the upload size limit of " + strconv.FormatInt(ec.maxUploadBytes, 10) + " bytes"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	summary, err := ec.uploads.ProcessCSV(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.WithRequest(c.GetString("request_id")).WithError(err).Error("Failed to process upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload summary"})
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{
		TotalCount:       summary.TotalEquipment,
		AvgFlowrate:      round2(summary.AvgFlowrate),
		AvgPressure:      round2(summary.AvgPressure),
		AvgTemperature:   round2(summary.AvgTemperature),
		TypeDistribution: summary.Distribution(),
	})
}

// History lists the retained summaries, newest first
func (ec *EquipmentController) History(c *gin.Context) {
	summaries, err := ec.summaries.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	entries := make([]HistoryEntry, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, HistoryEntry{
			FileName:       s.FileName,
			UploadedAt:     s.UploadedAt.UTC(),
			TotalEquipment: s.TotalEquipment,
			AvgFlowrate:    s.AvgFlowrate,
			AvgPressure:    s.AvgPressure,
			AvgTemperature: s.AvgTemperature,
		})
	}

	c.JSON(http.StatusOK, entries)
}

// Report returns the newest summary as a PDF attachment
func (ec *EquipmentController) Report(c *gin.Context) {
	summary, doc, err := ec.reports.Latest(c.Request.Context())
	if err != nil {
		var notFound *services.NotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No data available"})
			return
		}
		logger.WithRequest(c.GetString("request_id")).WithError(err).Error("Failed to render report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+services.FileName(summary)+`"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}

// isValidationError reports whether the upload was rejected for its content.
func isValidationError(err error) bool {
	var (
		schemaErr *equipment.SchemaError
		typeErr   *equipment.TypeError
		emptyErr  *equipment.EmptyInputError
		parseErr  *equipment.ParseError
	)
	return errors.As(err, &schemaErr) || errors.As(err, &typeErr) ||
		errors.As(err, &emptyErr) || errors.As(err, &parseErr)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
