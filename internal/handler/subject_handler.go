package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/pupilnest/pupilnest-backend/internal/response"
)

// SubjectLister lists the subjects exams can be taken in.
type SubjectLister interface {
	GetAll(ctx context.Context) ([]model.Subject, error)
}

type SubjectHandler struct {
	subjects SubjectLister
}

func NewSubjectHandler(subjects SubjectLister) *SubjectHandler {
	return &SubjectHandler{subjects: subjects}
}

// GetAll godoc
// GET /api/subjects
func (h *SubjectHandler) GetAll(c *gin.Context) {
	subjects, err := h.subjects.GetAll(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if subjects == nil {
		subjects = []model.Subject{}
	}

	response.Success(c, http.StatusOK, model.SubjectsResponse{Success: true, Subjects: subjects})
}
