package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ReportStore reads a student's historical results.
type ReportStore interface {
	ListForStudent(ctx context.Context, studentID int, f model.ReportFilter) ([]model.ReportEntry, error)
	Last(ctx context.Context, studentID int) (*model.ReportEntry, error)
}

// StatsReader reads the per-subject aggregates maintained by the stats worker.
type StatsReader interface {
	ListByStudent(ctx context.Context, studentID int) ([]model.SubjectStats, error)
}

// SummaryCache caches report summaries per student.
type SummaryCache interface {
	Get(ctx context.Context, studentID int) (*model.ReportSummary, bool, error)
	Set(ctx context.Context, studentID int, summary *model.ReportSummary, ttl time.Duration) error
}

// ReportService serves the dashboard reports.
type ReportService struct {
	results ReportStore
	stats   StatsReader
	cache   SummaryCache
	ttl     time.Duration
	log     zerolog.Logger
}

// NewReportService creates a new ReportService. cache may be nil.
func NewReportService(results ReportStore, stats StatsReader, cache SummaryCache, ttl time.Duration, log zerolog.Logger) *ReportService {
	return &ReportService{
		results: results,
		stats:   stats,
		cache:   cache,
		ttl:     ttl,
		log:     log.With().Str("component", "report_service").Logger(),
	}
}

// List returns the student's results selected by q, newest first.
func (s *ReportService) List(ctx context.Context, studentID int, q model.ReportQuery) ([]model.ReportEntry, error) {
	f, err := q.Filter()
	if err != nil {
		return nil, err
	}
	entries, err := s.results.ListForStudent(ctx, studentID, f)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	if entries == nil {
		entries = []model.ReportEntry{}
	}
	return entries, nil
}

// Summary returns the last result and per-subject stats of a student.
func (s *ReportService) Summary(ctx context.Context, studentID int) (*model.ReportSummary, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, studentID)
		if err != nil {
			s.log.Warn().Err(err).Int("student_id", studentID).Msg("Summary cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	summary := &model.ReportSummary{Success: true}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		last, err := s.results.Last(gctx, studentID)
		if err != nil {
			return fmt.Errorf("last result: %w", err)
		}
		summary.Last = last
		return nil
	})
	g.Go(func() error {
		stats, err := s.stats.ListByStudent(gctx, studentID)
		if err != nil {
			return fmt.Errorf("subject stats: %w", err)
		}
		summary.Stats = stats
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if summary.Stats == nil {
		summary.Stats = []model.SubjectStats{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, studentID, summary, s.ttl); err != nil {
			s.log.Warn().Err(err).Int("student_id", studentID).Msg("Summary cache write failed")
		}
	}
	return summary, nil
}
