package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pupilnest/pupilnest-backend/internal/model"
)

type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

// Upsert creates the subject or returns the existing one with the same name.
func (r *SubjectRepository) Upsert(ctx context.Context, s *model.Subject) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO subjects (name, icon) VALUES ($1, NULLIF($2, ''))
		 ON CONFLICT (name) DO UPDATE SET icon = COALESCE(EXCLUDED.icon, subjects.icon)
		 RETURNING id, created_at`,
		s.Name, s.Icon).Scan(&s.ID, &s.CreatedAt)
}

func (r *SubjectRepository) GetAll(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(icon, ''), created_at FROM subjects ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Icon, &s.CreatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}
