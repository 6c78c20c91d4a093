package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const Version = "1.0.0"

type HealthController struct {
	db *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db}
}

// Health reports database connectivity
func (hc *HealthController) Health(c *gin.Context) {
	dbStatus := "ok"
	var dbError string

	if hc.db == nil {
		dbStatus = "error"
		dbError = "database connection not initialized"
	} else if sqlDB, err := hc.db.DB(); err != nil {
		dbStatus = "error"
		dbError = err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error"
		dbError = err.Error()
	}

	// Determine overall health
	overallStatus := "ok"
	statusCode := http.StatusOK
	if dbStatus != "ok" {
		overallStatus = "error"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
		"services": gin.H{
			"database": gin.H{
				"status": dbStatus,
				"error":  dbError,
			},
		},
	})
}

// Home is the plain-text banner on /
func (hc *HealthController) Home(c *gin.Context) {
	c.String(http.StatusOK, "Chemical Equipment Visualizer Backend is Running! Use /api/upload/, /api/history/ or /api/report/")
}
