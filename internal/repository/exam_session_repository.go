package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateSession is returned when a session with the same (date, type)
// natural key already exists.
var ErrDuplicateSession = errors.New("exam session with this date and type already exists")

// ExamSessionRepository is the session registry: it owns the mapping from a
// session's natural key (date, type) to its surrogate ID.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

// Resolve maps (date, type) to the session's surrogate ID.
// Returns pgx.ErrNoRows when no such session is registered.
func (r *ExamSessionRepository) Resolve(ctx context.Context, date time.Time, examType model.ExamType) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM exam_sessions WHERE exam_date = $1 AND exam_type = $2`,
		date, examType,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Create registers a new exam session.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (exam_date, exam_type, notes)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		s.ExamDate, s.ExamType, s.Notes,
	).Scan(&s.ID, &s.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSession
		}
		return err
	}
	return nil
}

// List returns all registered sessions, newest exam date first.
func (r *ExamSessionRepository) List(ctx context.Context) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_date, exam_type, notes, created_at
		 FROM exam_sessions ORDER BY exam_date DESC, exam_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		var s model.ExamSession
		if err := rows.Scan(&s.ID, &s.ExamDate, &s.ExamType, &s.Notes, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListBetween returns sessions whose exam date falls inside [from, to],
// oldest first. Used to lay out dynamic export columns.
func (r *ExamSessionRepository) ListBetween(ctx context.Context, from, to time.Time) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_date, exam_type, notes, created_at
		 FROM exam_sessions
		 WHERE exam_date >= $1 AND exam_date <= $2
		 ORDER BY exam_date, exam_type`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		var s model.ExamSession
		if err := rows.Scan(&s.ID, &s.ExamDate, &s.ExamType, &s.Notes, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Update rewrites a session's natural key and notes. Returns
// ErrDuplicateSession when the new key collides with another session and
// pgx.ErrNoRows when the session does not exist.
func (r *ExamSessionRepository) Update(ctx context.Context, id int, date time.Time, examType model.ExamType, notes *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions SET exam_date = $1, exam_type = $2, notes = $3 WHERE id = $4`,
		date, examType, notes, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSession
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a session and all of its attendance rows in one
// transaction: children first, then the parent. Returns pgx.ErrNoRows when
// the session does not exist.
func (r *ExamSessionRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM exam_attendance WHERE exam_session_id = $1`, id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM exam_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}
