package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/rs/zerolog"
)

// ErrCountTooLarge is returned when more questions are requested than one exam may hold.
var ErrCountTooLarge = errors.New("requested question count exceeds the limit")

// QuestionSampler draws random active questions without their correct answers.
type QuestionSampler interface {
	SampleActive(ctx context.Context, subjectID, count int, classID string) ([]model.QuestionForStudent, error)
}

// QuestionService serves randomized, answer-hidden question sets.
type QuestionService struct {
	questions QuestionSampler
	maxCount  int
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions QuestionSampler, maxCount int, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		maxCount:  maxCount,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// Sample returns up to req.Count random active questions of the subject.
// Under-supply is not an error; an empty bank yields an empty slice.
func (s *QuestionService) Sample(ctx context.Context, req model.QuestionRequest) ([]model.QuestionForStudent, error) {
	if s.maxCount > 0 && req.Count > s.maxCount {
		return nil, ErrCountTooLarge
	}

	questions, err := s.questions.SampleActive(ctx, req.Subject, req.Count, req.ClassID)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	if questions == nil {
		questions = []model.QuestionForStudent{}
	}

	if len(questions) < req.Count {
		s.log.Debug().
			Int("subject_id", req.Subject).
			Int("requested", req.Count).
			Int("available", len(questions)).
			Msg("Question bank under-supplied")
	}
	return questions, nil
}
