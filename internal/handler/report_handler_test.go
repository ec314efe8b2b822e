package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/pupilnest/pupilnest-backend/internal/response"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReports struct {
	entries   []model.ReportEntry
	summary   *model.ReportSummary
	err       error
	studentID int
	query     model.ReportQuery
}

func (f *fakeReports) List(_ context.Context, studentID int, q model.ReportQuery) ([]model.ReportEntry, error) {
	f.studentID, f.query = studentID, q
	if f.err != nil {
		return nil, f.err
	}
	if _, err := q.Filter(); err != nil {
		return nil, err
	}
	return f.entries, nil
}

func (f *fakeReports) Summary(_ context.Context, studentID int) (*model.ReportSummary, error) {
	f.studentID = studentID
	return f.summary, f.err
}

func reportRouter(rep *fakeReports, mw ...gin.HandlerFunc) *gin.Engine {
	h := NewReportHandler(rep, zerolog.Nop())
	r := gin.New()
	r.Use(mw...)
	r.GET("/api/reports", h.List)
	r.GET("/api/reports/summary", h.Summary)
	return r
}

func TestReports_List(t *testing.T) {
	rep := &fakeReports{entries: []model.ReportEntry{{ID: 3, SubjectName: "Physics", Date: "01-Mar-2026", Correct: 3, Total: 4, Percentage: 75}}}
	r := reportRouter(rep, asStudent(7))

	w := doJSON(t, r, "GET", "/api/reports?type=date&from=2026-03-01&to=2026-03-31", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, rep.studentID)
	assert.Equal(t, model.ReportQuery{Type: model.ReportDate, From: "2026-03-01", To: "2026-03-31"}, rep.query)
	assert.Contains(t, w.Body.String(), `"subject":"Physics"`)
	assert.Contains(t, w.Body.String(), `"date":"01-Mar-2026"`)
}

func TestReports_ListErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
		code   response.ErrCode
	}{
		{"unknown type", "type=weekly", nil, http.StatusBadRequest, response.ErrValidation},
		{"bad date", "type=date&from=01-03-2026&to=2026-03-31", nil, http.StatusBadRequest, response.ErrValidation},
		{"subject without id", "type=subject", nil, http.StatusBadRequest, response.ErrInvalidReport},
		{"range reversed", "type=date&from=2026-03-31&to=2026-03-01", nil, http.StatusBadRequest, response.ErrInvalidReport},
		{"storage down", "type=last", errors.New("db down"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := reportRouter(&fakeReports{err: tt.err}, asStudent(7))

			w := doJSON(t, r, "GET", "/api/reports?"+tt.query, nil)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestReports_RequireClaims(t *testing.T) {
	r := reportRouter(&fakeReports{})

	for _, path := range []string{"/api/reports", "/api/reports/summary"} {
		w := doJSON(t, r, "GET", path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestReports_Summary(t *testing.T) {
	rep := &fakeReports{summary: &model.ReportSummary{
		Success: true,
		Stats:   []model.SubjectStats{{SubjectID: 2, SubjectName: "Physics", Attempts: 3, TotalCorrect: 12, TotalGraded: 20}},
	}}
	r := reportRouter(rep, asStudent(7))

	w := doJSON(t, r, "GET", "/api/reports/summary", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, rep.studentID)
	assert.Contains(t, w.Body.String(), `"attempts":3`)
}
