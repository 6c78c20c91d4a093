package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/equipviz/backend/internal/config"
	"github.com/equipviz/backend/internal/db"
	"github.com/equipviz/backend/internal/logger"
	"github.com/equipviz/backend/internal/routes"
	"github.com/equipviz/backend/internal/services"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.File)

	// Connect to database
	db.Connect(cfg.Database)
	if err := db.AutoMigrate(db.DB); err != nil {
		logger.Fatal("Database migration failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// The configured API account always exists and matches the configured password
	authService := services.NewAuthService(db.DB, cfg.Auth.JWTSecret)
	if _, created, err := authService.EnsureUser(context.Background(), cfg.Auth.Username, cfg.Auth.Password); err != nil {
		logger.Fatal("Failed to provision API user", map[string]interface{}{
			"error": err.Error(),
		})
	} else if created {
		logger.Info("Created API user", map[string]interface{}{"username": cfg.Auth.Username})
	}

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	summaries := services.NewSummaryService(db.DB, cfg.Upload.RetentionLimit)
	r := routes.NewRouter(cfg, db.DB, summaries)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting equipment backend server", map[string]interface{}{
		"port":            cfg.Server.Port,
		"gin_mode":        gin.Mode(),
		"db_driver":       cfg.Database.Driver,
		"retention_limit": summaries.Limit(),
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	logger.Info("Shutting down server gracefully...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		logger.Info("Server exited gracefully", nil)
	}
}
