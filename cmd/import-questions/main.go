package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pupilnest/pupilnest-backend/internal/config"
	"github.com/pupilnest/pupilnest-backend/internal/database"
	"github.com/pupilnest/pupilnest-backend/internal/logger"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/pupilnest/pupilnest-backend/internal/questionbank"
	"github.com/pupilnest/pupilnest-backend/internal/repository"
	"github.com/pupilnest/pupilnest-backend/internal/service"
)

const usage = `Usage: import-questions <bank.xlsx> [--dry-run]

Columns (first sheet, header row): subject, class, question,
option_a, option_b, option_c, option_d, answer, active`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	path := os.Args[1]
	dryRun := len(os.Args) > 2 && os.Args[2] == "--dry-run"

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, "pretty")

	// ─── Parse Workbook ────────────────────────────────────────────────
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Cannot open question bank")
	}
	res, err := questionbank.Parse(f)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Cannot parse question bank")
	}

	for _, p := range res.Problems {
		log.Warn().Int("row", p.Line).Err(p.Err).Msg("Row skipped")
	}
	log.Info().
		Int("questions", len(res.Rows)).
		Int("skipped", len(res.Problems)).
		Strs("subjects", res.Subjects()).
		Msg("Workbook parsed")

	if dryRun || len(res.Rows) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// ─── Connect ───────────────────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	subjectRepo := repository.NewSubjectRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	// ─── Resolve Subjects ──────────────────────────────────────────────
	subjectIDs := make(map[string]int)
	for _, name := range res.Subjects() {
		s := &model.Subject{Name: name}
		if err := subjectRepo.Upsert(ctx, s); err != nil {
			log.Fatal().Err(err).Str("subject", name).Msg("Failed to upsert subject")
		}
		subjectIDs[name] = s.ID
	}

	questions := make([]model.Question, len(res.Rows))
	for i, row := range res.Rows {
		questions[i] = row.Question
		questions[i].SubjectID = subjectIDs[row.Subject]
	}

	// ─── Insert ────────────────────────────────────────────────────────
	n, err := questionRepo.BulkInsert(ctx, questions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to insert questions")
	}
	log.Info().Int64("inserted", n).Msg("Questions imported")

	// ─── Refresh Answer Key Cache ──────────────────────────────────────
	// A running server only backfills the cache on misses; warm it now so
	// the new questions are graded from Redis right away.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, answer key cache not refreshed")
		return
	}
	defer rdb.Close()

	grading := service.NewGradingService(questionRepo, service.NewRedisAnswerKeyCache(rdb), nil, nil, log)
	if err := grading.PrewarmAnswerKey(ctx, questionRepo); err != nil {
		log.Warn().Err(err).Msg("Answer key cache refresh failed")
	}
}
