package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pupilnest/pupilnest-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// SampleActive returns up to count random active questions of a subject.
// The correct answer column is never selected. When classID is set, questions
// tagged for a different class are skipped; untagged questions always qualify.
func (r *QuestionRepository) SampleActive(ctx context.Context, subjectID, count int, classID string) ([]model.QuestionForStudent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text,
		        COALESCE(option_a, ''), COALESCE(option_b, ''),
		        COALESCE(option_c, ''), COALESCE(option_d, '')
		 FROM questions
		 WHERE subject_id = $1
		   AND is_active
		   AND ($3 = '' OR class_id IS NULL OR class_id = $3)
		 ORDER BY random()
		 LIMIT $2`, subjectID, count, classID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]model.QuestionForStudent, 0, count)
	for rows.Next() {
		var q model.QuestionForStudent
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetCorrectAnswers looks up the stored correct answer of each id in one query.
// Ids with no stored question are absent from the result.
func (r *QuestionRepository) GetCorrectAnswers(ctx context.Context, ids []int) (map[int]string, error) {
	answers := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return answers, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, correct_answer FROM questions WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      int
			correct string
		)
		if err := rows.Scan(&id, &correct); err != nil {
			return nil, err
		}
		answers[id] = correct
	}
	return answers, rows.Err()
}

// ListAnswerKey returns the correct answer of every stored question.
// Used to prewarm the Redis answer key at startup.
func (r *QuestionRepository) ListAnswerKey(ctx context.Context) (map[int]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, correct_answer FROM questions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := make(map[int]string)
	for rows.Next() {
		var (
			id      int
			correct string
		)
		if err := rows.Scan(&id, &correct); err != nil {
			return nil, err
		}
		answers[id] = correct
	}
	return answers, rows.Err()
}

// BulkInsert copies questions into the bank and returns the number of rows written.
func (r *QuestionRepository) BulkInsert(ctx context.Context, questions []model.Question) (int64, error) {
	return r.pool.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{"subject_id", "class_id", "question_text", "option_a", "option_b", "option_c", "option_d", "correct_answer", "is_active"},
		pgx.CopyFromSlice(len(questions), func(i int) ([]any, error) {
			q := questions[i]
			return []any{q.SubjectID, q.ClassID, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer, q.IsActive}, nil
		}),
	)
}
