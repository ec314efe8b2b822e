package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pupilnest/pupilnest-backend/internal/middleware"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/pupilnest/pupilnest-backend/internal/repository"
	"github.com/pupilnest/pupilnest-backend/internal/response"
	"github.com/pupilnest/pupilnest-backend/internal/service"
	"github.com/pupilnest/pupilnest-backend/internal/validator"
	"github.com/rs/zerolog"
)

// QuestionSource serves answer-hidden question sets.
type QuestionSource interface {
	Sample(ctx context.Context, req model.QuestionRequest) ([]model.QuestionForStudent, error)
}

// ExamGrader grades and records a submission.
type ExamGrader interface {
	Grade(ctx context.Context, req model.SubmitExamRequest) (*model.GradingResult, error)
}

// ExamHandler serves the two endpoints an exam session talks to.
type ExamHandler struct {
	questions QuestionSource
	grader    ExamGrader
	log       zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(questions QuestionSource, grader ExamGrader, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		questions: questions,
		grader:    grader,
		log:       log.With().Str("component", "exam_handler").Logger(),
	}
}

// GetQuestions godoc
// POST /api/questions
func (h *ExamHandler) GetQuestions(c *gin.Context) {
	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questions.Sample(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrCountTooLarge) {
			response.Fail(c, http.StatusBadRequest, response.ErrCountTooLarge)
			return
		}
		h.log.Error().Err(err).
			Str("request_id", response.RequestID(c)).
			Int("subject_id", req.Subject).
			Msg("Failed to fetch questions")
		response.Fail(c, http.StatusInternalServerError, response.ErrFetchQuestions)
		return
	}

	response.Success(c, http.StatusOK, model.QuestionsResponse{Success: true, Questions: questions})
}

// SubmitExam godoc
// POST /api/submit-exam
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	// A logged-in student may only submit for themselves.
	if claims := middleware.GetClaims(c); claims != nil && claims.UserID != req.StudentID {
		response.Fail(c, http.StatusForbidden, response.ErrStudentMismatch)
		return
	}

	res, err := h.grader.Grade(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownReference) {
			response.Fail(c, http.StatusBadRequest, response.ErrUnknownReference)
			return
		}
		if errors.Is(err, service.ErrDuplicateAnswer) {
			response.Fail(c, http.StatusBadRequest, response.ErrDuplicateAnswer)
			return
		}
		h.log.Error().Err(err).
			Str("request_id", response.RequestID(c)).
			Int("student_id", req.StudentID).
			Int("subject_id", req.SubjectID).
			Msg("Failed to submit exam")
		response.Fail(c, http.StatusInternalServerError, response.ErrSubmitExam)
		return
	}

	response.Success(c, http.StatusOK, res.Response())
}
