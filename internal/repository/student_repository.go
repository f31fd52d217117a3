package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateStudent is returned when a student ID is already registered.
var ErrDuplicateStudent = errors.New("student with this ID already exists")

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student by their normalized ID.
func (r *StudentRepository) GetByID(ctx context.Context, studentID string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT student_id, name, enrollment_status, attribute, is_passed, passing_criteria, notes, created_at, updated_at
		 FROM students WHERE student_id = $1`, studentID,
	).Scan(&s.StudentID, &s.Name, &s.EnrollmentStatus, &s.Attribute, &s.IsPassed,
		&s.PassingCriteria, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List returns all students ordered by ID.
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id, name, enrollment_status, attribute, is_passed, passing_criteria, notes, created_at, updated_at
		 FROM students ORDER BY student_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.StudentID, &s.Name, &s.EnrollmentStatus, &s.Attribute, &s.IsPassed,
			&s.PassingCriteria, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// ExistingIDs filters the given IDs down to the subset that is registered.
// Used by batch ingestion to reject sheets referencing unknown students.
func (r *StudentRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id FROM students WHERE student_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = struct{}{}
	}
	return existing, rows.Err()
}

// Create inserts a new student. Pass status starts false; only the
// eligibility recomputation may change it.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (student_id, name, enrollment_status, attribute, notes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		s.StudentID, s.Name, s.EnrollmentStatus, s.Attribute, s.Notes,
	).Scan(&s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateStudent
		}
		return err
	}
	return nil
}

// InsertBatch registers a batch of students inside one transaction. Any
// duplicate ID aborts the whole batch, naming the offender.
func (r *StudentRepository) InsertBatch(ctx context.Context, students []model.Student) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range students {
		_, err := tx.Exec(ctx,
			`INSERT INTO students (student_id, name, enrollment_status, attribute, notes)
			 VALUES ($1, $2, $3, $4, $5)`,
			s.StudentID, s.Name, s.EnrollmentStatus, s.Attribute, s.Notes,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("student %s: %w", s.StudentID, ErrDuplicateStudent)
			}
			return fmt.Errorf("insert student %s: %w", s.StudentID, err)
		}
	}

	return tx.Commit(ctx)
}

// Update modifies a student's editable fields. It never touches the derived
// pass status.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE students
		 SET name = $1, enrollment_status = $2, attribute = $3, notes = $4, updated_at = CURRENT_TIMESTAMP
		 WHERE student_id = $5`,
		s.Name, s.EnrollmentStatus, s.Attribute, s.Notes, s.StudentID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdatePassStatus overwrites the derived pass fields. Reserved for the
// eligibility recomputation.
func (r *StudentRepository) UpdatePassStatus(ctx context.Context, studentID string, passed bool, criteria *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE students
		 SET is_passed = $1, passing_criteria = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE student_id = $3`,
		passed, criteria, studentID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// HistoryByStudent returns the student's full attendance history joined with
// session identity, oldest exam first.
func (r *StudentRepository) HistoryByStudent(ctx context.Context, studentID string) ([]model.AttendanceDetail, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT es.exam_date, es.exam_type, es.notes, ea.is_absent, ea.is_excused, ea.correct_answers_count, ea.notes
		 FROM exam_attendance ea
		 JOIN exam_sessions es ON es.id = ea.exam_session_id
		 WHERE ea.student_id = $1
		 ORDER BY es.exam_date, es.exam_type`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []model.AttendanceDetail
	for rows.Next() {
		var d model.AttendanceDetail
		if err := rows.Scan(&d.ExamDate, &d.ExamType, &d.SessionNotes, &d.IsAbsent, &d.IsExcused,
			&d.CorrectAnswersCount, &d.Notes); err != nil {
			return nil, err
		}
		history = append(history, d)
	}
	return history, rows.Err()
}

// Delete removes a student and every row referencing them in one
// transaction: attendance and scholarship children first, then the student.
// Returns pgx.ErrNoRows when the student does not exist.
func (r *StudentRepository) Delete(ctx context.Context, studentID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM exam_attendance WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM scholarship_records WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("delete scholarship records: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM students WHERE student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}
