package router

import (
	"net/http"
	"time"

	"github.com/examtrack/examtrack-backend/internal/config"
	"github.com/examtrack/examtrack-backend/internal/handler"
	"github.com/examtrack/examtrack-backend/internal/middleware"
	"github.com/examtrack/examtrack-backend/internal/response"
	"github.com/examtrack/examtrack-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Ingest      *handler.IngestHandler
	Session     *handler.SessionHandler
	Student     *handler.StudentHandler
	Score       *handler.ScoreHandler
	Scholarship *handler.ScholarshipHandler
	Cohort      *handler.CohortHandler
	Template    *handler.TemplateHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list; otherwise
	// allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth group: login is public, the rest requires a valid session.
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", middleware.RequireAdminJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireAdminJWT(authService), handlers.Auth.Me)
	}

	// Everything else is admin-only.
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.RequireAdminJWT(authService))
	{
		admin.POST("/scores/import", handlers.Ingest.ImportScores)
		admin.POST("/scores", handlers.Score.Add)

		admin.POST("/sessions", handlers.Session.Create)
		admin.GET("/sessions", handlers.Session.List)
		admin.PUT("/sessions", handlers.Session.Update)
		admin.DELETE("/sessions", handlers.Session.Delete)
		admin.GET("/sessions/attendance", handlers.Session.Attendance)
		admin.GET("/sessions/absences", handlers.Session.Absences)
		admin.GET("/sessions/absences/export", handlers.Session.AbsencesExport)
		admin.PUT("/sessions/scores", handlers.Score.Update)
		admin.DELETE("/sessions/scores", handlers.Score.Delete)

		admin.POST("/students", handlers.Student.Create)
		admin.GET("/students", handlers.Student.List)
		admin.POST("/students/import", handlers.Student.Import)
		admin.GET("/students/:id", handlers.Student.Get)
		admin.PUT("/students/:id", handlers.Student.Update)
		admin.DELETE("/students/:id", handlers.Student.Delete)

		admin.POST("/scholarships/import", handlers.Scholarship.Import)
		admin.GET("/scholarships", handlers.Scholarship.List)
		admin.GET("/scholarships/export", handlers.Scholarship.Export)
		admin.PUT("/scholarships/:studentId", handlers.Scholarship.Update)
		admin.DELETE("/scholarships/:studentId", handlers.Scholarship.Delete)

		admin.GET("/cohort/newly-passed", handlers.Cohort.NewlyPassed)
		admin.GET("/cohort/newly-passed/export", handlers.Cohort.Export)

		admin.GET("/templates/scores", handlers.Template.Scores)
		admin.GET("/templates/students", handlers.Template.Students)
		admin.GET("/templates/scholarships", handlers.Template.Scholarships)
	}

	return router
}
