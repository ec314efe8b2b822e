package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pupilnest/pupilnest-backend/internal/middleware"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/pupilnest/pupilnest-backend/internal/response"
	"github.com/pupilnest/pupilnest-backend/internal/validator"
	"github.com/rs/zerolog"
)

// Reports reads a student's exam history.
type Reports interface {
	List(ctx context.Context, studentID int, q model.ReportQuery) ([]model.ReportEntry, error)
	Summary(ctx context.Context, studentID int) (*model.ReportSummary, error)
}

// ReportHandler serves the student dashboard.
type ReportHandler struct {
	reports Reports
	log     zerolog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports Reports, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		log:     log.With().Str("component", "report_handler").Logger(),
	}
}

// List godoc
// GET /api/reports?type=last|subject|date&subjectId=&from=&to=
func (h *ReportHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var q model.ReportQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	entries, err := h.reports.List(c.Request.Context(), claims.UserID, q)
	if err != nil {
		if errors.Is(err, model.ErrInvalidReportQuery) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidReport)
			return
		}
		h.log.Error().Err(err).Int("student_id", claims.UserID).Msg("Failed to list reports")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.ReportsResponse{Success: true, Reports: entries})
}

// Summary godoc
// GET /api/reports/summary
func (h *ReportHandler) Summary(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	summary, err := h.reports.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		h.log.Error().Err(err).Int("student_id", claims.UserID).Msg("Failed to load report summary")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, summary)
}
