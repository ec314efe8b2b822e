package service

import (
	"context"

	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/rs/zerolog"
)

type SubjectStore interface {
	GetAll(ctx context.Context) ([]model.Subject, error)
}

type SubjectService struct {
	subjects SubjectStore
	log      zerolog.Logger
}

func NewSubjectService(subjects SubjectStore, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		subjects: subjects,
		log:      log.With().Str("component", "subject_service").Logger(),
	}
}

func (s *SubjectService) GetAll(ctx context.Context) ([]model.Subject, error) {
	subjects, err := s.subjects.GetAll(ctx)
	if subjects == nil && err == nil {
		subjects = []model.Subject{}
	}
	return subjects, err
}
