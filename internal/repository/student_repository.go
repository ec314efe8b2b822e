package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pupilnest/pupilnest-backend/internal/model"
)

var ErrDuplicateUserName = errors.New("student with this user name already exists")

const studentColumns = `id, name, COALESCE(father_name, ''), user_name, password_hash,
	COALESCE(email, ''), COALESCE(aadhaar, ''), COALESCE(gender, ''), COALESCE(dob, ''),
	COALESCE(address, ''), COALESCE(class_id, ''), COALESCE(board, ''), COALESCE(school_name, ''),
	COALESCE(school_address, ''), COALESCE(contact, ''), COALESCE(stream, ''), created_at, updated_at`

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
}

// GetByUserName retrieves a student by their unique login name.
func (r *StudentRepository) GetByUserName(ctx context.Context, userName string) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE user_name = $1`, userName))
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students
		   (name, father_name, user_name, password_hash, email, aadhaar, gender, dob,
		    address, class_id, board, school_name, school_address, contact, stream)
		 VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''),
		         NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''), NULLIF($14, ''), NULLIF($15, ''))
		 RETURNING id, created_at, updated_at`,
		s.Name, s.FatherName, s.UserName, s.PasswordHash, s.Email, s.Aadhaar, s.Gender, s.DateOfBirth,
		s.Address, s.ClassID, s.Board, s.School, s.SchoolAddress, s.Contact, s.Stream,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateUserName
		}
		return err
	}
	return nil
}

// UpdatePassword sets a new password hash.
func (r *StudentRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, hash, id)
	return err
}

func scanStudent(row interface{ Scan(...any) error }) (*model.Student, error) {
	s := &model.Student{}
	err := row.Scan(&s.ID, &s.Name, &s.FatherName, &s.UserName, &s.PasswordHash,
		&s.Email, &s.Aadhaar, &s.Gender, &s.DateOfBirth,
		&s.Address, &s.ClassID, &s.Board, &s.School,
		&s.SchoolAddress, &s.Contact, &s.Stream, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
