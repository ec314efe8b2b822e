package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pupilnest/pupilnest-backend/internal/model"
)

// StatsRepository maintains the per-student, per-subject aggregates.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// ListByStudent returns every subject aggregate of a student, most recent attempt first.
func (r *StatsRepository) ListByStudent(ctx context.Context, studentID int) ([]model.SubjectStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT st.subject_id, s.name, st.attempts, st.total_correct, st.total_graded,
		        st.best_percentage, st.last_attempt_at
		 FROM student_subject_stats st
		 JOIN subjects s ON s.id = st.subject_id
		 WHERE st.student_id = $1
		 ORDER BY st.last_attempt_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []model.SubjectStats{}
	for rows.Next() {
		var s model.SubjectStats
		if err := rows.Scan(&s.SubjectID, &s.SubjectName, &s.Attempts, &s.TotalCorrect,
			&s.TotalGraded, &s.BestPercentage, &s.LastAttemptAt); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Recompute rebuilds the aggregates of the given (student, subject) pairs from
// exam_results. students[i] pairs with subjects[i]. Re-running it for the same
// pairs yields the same rows, so redelivered queue items are harmless.
func (r *StatsRepository) Recompute(ctx context.Context, students, subjects []int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO student_subject_stats
		    (student_id, subject_id, attempts, total_correct, total_graded, best_percentage, last_attempt_at, updated_at)
		SELECT r.student_id, r.subject_id, COUNT(*), SUM(r.correct_count), SUM(r.total),
		       MAX(r.percentage), MAX(r.created_at), NOW()
		FROM exam_results r
		JOIN (
			SELECT DISTINCT u.student_id, u.subject_id
			FROM UNNEST($1::int[], $2::int[]) AS u (student_id, subject_id)
		) AS t ON t.student_id = r.student_id AND t.subject_id = r.subject_id
		GROUP BY r.student_id, r.subject_id
		ON CONFLICT (student_id, subject_id) DO UPDATE
		SET attempts = EXCLUDED.attempts,
		    total_correct = EXCLUDED.total_correct,
		    total_graded = EXCLUDED.total_graded,
		    best_percentage = EXCLUDED.best_percentage,
		    last_attempt_at = EXCLUDED.last_attempt_at,
		    updated_at = NOW()
	`, students, subjects)
	return err
}
