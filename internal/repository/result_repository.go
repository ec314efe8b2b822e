package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pupilnest/pupilnest-backend/internal/model"
)

// ErrUnknownReference is returned when a result names a student or subject that does not exist.
var ErrUnknownReference = errors.New("result references an unknown student or subject")

// ResultRepository persists graded exam results.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// CreateWithAnswers writes the result row and its graded answers in one transaction.
// On any failure nothing is persisted. ID and CreatedAt are filled on success.
func (r *ResultRepository) CreateWithAnswers(ctx context.Context, res *model.GradingResult, answers []model.GradedAnswer) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = tx.QueryRow(ctx,
		`INSERT INTO exam_results
		   (student_id, subject_id, class_id, correct_count, wrong_count, total, percentage, message, time_taken)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		res.StudentID, res.SubjectID, res.ClassID, res.Correct, res.Wrong, res.Total, res.Percentage, res.Message, res.TimeTaken,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrUnknownReference
		}
		return fmt.Errorf("insert result: %w", err)
	}

	if len(answers) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"exam_result_answers"},
			[]string{"result_id", "question_id", "submitted_answer", "is_correct"},
			pgx.CopyFromSlice(len(answers), func(i int) ([]any, error) {
				a := answers[i]
				return []any{res.ID, a.QuestionID, a.SubmittedAnswer, a.IsCorrect}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("insert answers: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const reportColumns = `
	SELECT r.id, r.subject_id, s.name, r.correct_count, r.wrong_count, r.total,
	       r.percentage, r.message, COALESCE(r.time_taken, ''), r.created_at
	FROM exam_results r
	JOIN subjects s ON s.id = r.subject_id`

// ListForStudent returns a student's results matching the filter, newest first.
func (r *ResultRepository) ListForStudent(ctx context.Context, studentID int, f model.ReportFilter) ([]model.ReportEntry, error) {
	query := reportColumns + ` WHERE r.student_id = $1`
	args := []any{studentID}

	switch f.Type {
	case model.ReportSubject:
		query += ` AND r.subject_id = $2`
		args = append(args, f.SubjectID)
	case model.ReportDate:
		query += ` AND r.created_at >= $2 AND r.created_at < $3`
		args = append(args, f.From, f.To)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`
	if f.Type == model.ReportLast {
		query += ` LIMIT 1`
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ReportEntry
	for rows.Next() {
		e, err := scanReportEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Last returns a student's most recent result, or nil when there is none.
func (r *ResultRepository) Last(ctx context.Context, studentID int) (*model.ReportEntry, error) {
	row := r.pool.QueryRow(ctx,
		reportColumns+` WHERE r.student_id = $1 ORDER BY r.created_at DESC, r.id DESC LIMIT 1`, studentID)
	e, err := scanReportEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func scanReportEntry(row pgx.Row) (*model.ReportEntry, error) {
	var e model.ReportEntry
	if err := row.Scan(&e.ID, &e.SubjectID, &e.SubjectName, &e.Correct, &e.Wrong, &e.Total,
		&e.Percentage, &e.Message, &e.TimeTaken, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Date = e.CreatedAt.Format("02-Jan-2006")
	return &e, nil
}
