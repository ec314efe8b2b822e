package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReports struct {
	entries []model.ReportEntry
	last    *model.ReportEntry
	filters []model.ReportFilter
	err     error
}

func (f *fakeReports) ListForStudent(_ context.Context, _ int, filter model.ReportFilter) ([]model.ReportEntry, error) {
	f.filters = append(f.filters, filter)
	return f.entries, f.err
}

func (f *fakeReports) Last(context.Context, int) (*model.ReportEntry, error) {
	return f.last, f.err
}

type fakeStats struct {
	stats []model.SubjectStats
	err   error
	calls int
}

func (f *fakeStats) ListByStudent(context.Context, int) ([]model.SubjectStats, error) {
	f.calls++
	return f.stats, f.err
}

type fakeSummaryCache struct {
	data map[int]*model.ReportSummary
	ttl  time.Duration
}

func (f *fakeSummaryCache) Get(_ context.Context, id int) (*model.ReportSummary, bool, error) {
	s, ok := f.data[id]
	return s, ok, nil
}

func (f *fakeSummaryCache) Set(_ context.Context, id int, s *model.ReportSummary, ttl time.Duration) error {
	f.data[id] = s
	f.ttl = ttl
	return nil
}

func TestReportList_DateRange(t *testing.T) {
	reports := &fakeReports{}
	svc := NewReportService(reports, &fakeStats{}, nil, time.Minute, zerolog.Nop())

	entries, err := svc.List(context.Background(), 7, model.ReportQuery{Type: model.ReportDate, From: "2026-02-01", To: "2026-02-03"})

	require.NoError(t, err)
	assert.NotNil(t, entries)
	require.Len(t, reports.filters, 1)
	f := reports.filters[0]
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), f.From)
	assert.Equal(t, time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC), f.To)
}

func TestReportList_InvalidQuery(t *testing.T) {
	svc := NewReportService(&fakeReports{}, &fakeStats{}, nil, time.Minute, zerolog.Nop())

	_, err := svc.List(context.Background(), 7, model.ReportQuery{Type: model.ReportSubject})

	assert.ErrorIs(t, err, model.ErrInvalidReportQuery)
}

func TestReportSummary_LoadsAndCaches(t *testing.T) {
	last := &model.ReportEntry{ID: 3, SubjectName: "Physics"}
	stats := &fakeStats{stats: []model.SubjectStats{{SubjectID: 1, Attempts: 2, TotalCorrect: 3, TotalGraded: 4}}}
	cache := &fakeSummaryCache{data: map[int]*model.ReportSummary{}}
	svc := NewReportService(&fakeReports{last: last}, stats, cache, 5*time.Minute, zerolog.Nop())

	first, err := svc.Summary(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, last, first.Last)
	require.Len(t, first.Stats, 1)
	assert.Equal(t, 75.0, first.Stats[0].AveragePercentage())
	assert.Equal(t, 5*time.Minute, cache.ttl)

	second, err := svc.Summary(context.Background(), 7)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, stats.calls)
}

func TestReportSummary_Failure(t *testing.T) {
	svc := NewReportService(&fakeReports{}, &fakeStats{err: errors.New("db down")}, nil, time.Minute, zerolog.Nop())

	_, err := svc.Summary(context.Background(), 7)

	assert.Error(t, err)
}

func TestReportSummary_NoHistory(t *testing.T) {
	svc := NewReportService(&fakeReports{}, &fakeStats{}, nil, time.Minute, zerolog.Nop())

	s, err := svc.Summary(context.Background(), 7)

	require.NoError(t, err)
	assert.Nil(t, s.Last)
	assert.NotNil(t, s.Stats)
}
