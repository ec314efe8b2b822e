package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pupilnest/pupilnest-backend/internal/config"
	"github.com/pupilnest/pupilnest-backend/internal/database"
	"github.com/pupilnest/pupilnest-backend/internal/handler"
	"github.com/pupilnest/pupilnest-backend/internal/logger"
	"github.com/pupilnest/pupilnest-backend/internal/middleware"
	"github.com/pupilnest/pupilnest-backend/internal/repository"
	"github.com/pupilnest/pupilnest-backend/internal/router"
	"github.com/pupilnest/pupilnest-backend/internal/service"
	"github.com/pupilnest/pupilnest-backend/internal/validator"
	"github.com/pupilnest/pupilnest-backend/internal/worker"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting PupilNest Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// ─── Redis Adapters ────────────────────────────────────────────────
	answerKeyCache := service.NewRedisAnswerKeyCache(rdb)
	summaryCache := service.NewRedisSummaryCache(rdb)
	statsQueue := worker.NewStatsQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, studentRepo, service.NewRedisSessionStore(rdb), log)
	questionService := service.NewQuestionService(questionRepo, cfg.MaxQuestionCount, log)
	gradingService := service.NewGradingService(questionRepo, answerKeyCache, resultRepo, service.NewRedisResultPublisher(rdb), log)
	subjectService := service.NewSubjectService(subjectRepo, log)
	reportService := service.NewReportService(resultRepo, statsRepo, summaryCache, cfg.ReportCacheTTL, log)

	statsWorker := worker.NewStatsWorker(statsQueue, statsRepo, summaryCache, log).
		WithDeadLetter(worker.NewStatsDeadLetterQueue(rdb))

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, studentRepo, log),
		Exam:    handler.NewExamHandler(questionService, gradingService, log),
		Subject: handler.NewSubjectHandler(subjectService),
		Report:  handler.NewReportHandler(reportService, log),
		WS:      handler.NewWSHandler(service.NewRedisResultFeed(rdb), cfg.FeedToken, cfg.AllowedOrigins, log),
		System: handler.NewSystemHandler(map[string]handler.Probe{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, statsWorker, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workers, workerCtx := errgroup.WithContext(workerCtx)
	workers.Go(func() error {
		statsWorker.Start(workerCtx)
		return nil
	})

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load the answer key into Redis BEFORE accepting traffic so the first
	// wave of submissions does not stampede PostgreSQL.
	if err := gradingService.PrewarmAnswerKey(ctx, questionRepo); err != nil {
		log.Warn().Err(err).Msg("Answer key prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	authLimiter := middleware.NewRateLimiter(30, time.Minute)
	defer authLimiter.Close()

	r := router.SetupRouter(authService, handlers, cfg, authLimiter)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for their final flush.
	workerCancel()
	if err := workers.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker stopped with error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
