package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/examtrack/examtrack-backend/internal/config"
	"github.com/examtrack/examtrack-backend/internal/database"
	"github.com/examtrack/examtrack-backend/internal/handler"
	"github.com/examtrack/examtrack-backend/internal/logger"
	"github.com/examtrack/examtrack-backend/internal/repository"
	"github.com/examtrack/examtrack-backend/internal/router"
	"github.com/examtrack/examtrack-backend/internal/service"
	"github.com/examtrack/examtrack-backend/internal/validator"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExamTrack Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Repositories.
	adminRepo := repository.NewAdminRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	scholarshipRepo := repository.NewScholarshipRepository(pool)

	// Services.
	authService := service.NewAuthService(cfg, adminRepo, rdb)
	eligibilityService := service.NewEligibilityService(attendanceRepo, studentRepo, log)
	cohortService := service.NewCohortService(attendanceRepo, sessionRepo, rdb, cfg.YearOffset, log)
	ingestService := service.NewIngestService(sessionRepo, studentRepo, attendanceRepo, eligibilityService, cohortService, log)
	sessionService := service.NewSessionService(sessionRepo, attendanceRepo, eligibilityService, cohortService, log)
	scoreService := service.NewScoreService(sessionRepo, attendanceRepo, studentRepo, eligibilityService, cohortService, log)
	studentService := service.NewStudentService(studentRepo, cohortService, log)
	scholarshipService := service.NewScholarshipService(scholarshipRepo, studentRepo, cfg.YearOffset, log)
	templateService := service.NewTemplateService(sessionRepo)

	// Handlers.
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Ingest:      handler.NewIngestHandler(ingestService, cfg.MaxUploadBytes),
		Session:     handler.NewSessionHandler(sessionService),
		Student:     handler.NewStudentHandler(studentService, cfg.MaxUploadBytes),
		Score:       handler.NewScoreHandler(scoreService),
		Scholarship: handler.NewScholarshipHandler(scholarshipService, cfg.MaxUploadBytes),
		Cohort:      handler.NewCohortHandler(cohortService),
		Template:    handler.NewTemplateHandler(templateService),
	}

	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
