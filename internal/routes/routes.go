package routes

import (
	"github.com/equipviz/backend/internal/config"
	"github.com/equipviz/backend/internal/controllers"
	"github.com/equipviz/backend/internal/middleware"
	"github.com/equipviz/backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NewRouter builds the engine with middleware and all routes.
func NewRouter(cfg *config.Config, db *gorm.DB, summaries *services.SummaryService) *gin.Engine {
	r := gin.New()

	// /api/upload/ and /api/upload must not redirect a multipart POST
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.Use(middleware.CustomLoggerMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	r.Use(gin.Recovery())

	SetupRoutes(r, cfg, db, summaries)
	return r
}

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, cfg *config.Config, db *gorm.DB, summaries *services.SummaryService) {
	// Initialize services
	authService := services.NewAuthService(db, cfg.Auth.JWTSecret)

	// Initialize controllers
	healthController := controllers.NewHealthController(db)
	authController := controllers.NewAuthController(authService)
	equipmentController := controllers.NewEquipmentController(summaries, cfg.Upload.MaxBytes)

	r.GET("/", healthController.Home)
	r.GET("/health", healthController.Health)

	api := r.Group("/api")
	{
		api.POST("/auth/token", authController.Token)

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(authService))
		{
			for _, path := range []string{"/upload/", "/upload"} {
				protected.POST(path, equipmentController.Upload)
			}
			for _, path := range []string{"/history/", "/history"} {
				protected.GET(path, equipmentController.History)
			}
			for _, path := range []string{"/report/", "/report"} {
				protected.GET(path, equipmentController.Report)
			}
		}
	}
}
