package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateScholarship is returned when a student already has a
// disbursement record.
var ErrDuplicateScholarship = errors.New("student already has a scholarship record")

// ScholarshipRepository handles scholarship disbursement records.
type ScholarshipRepository struct {
	pool *pgxpool.Pool
}

// NewScholarshipRepository creates a new ScholarshipRepository.
func NewScholarshipRepository(pool *pgxpool.Pool) *ScholarshipRepository {
	return &ScholarshipRepository{pool: pool}
}

// InsertBatch writes a batch of disbursement records inside one
// transaction. Unlike score ingestion a duplicate here is a hard error: two
// disbursements for the same student indicate a broken source sheet.
func (r *ScholarshipRepository) InsertBatch(ctx context.Context, records []model.ScholarshipRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rec := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO scholarship_records (student_id, correct_answers_count, received_date, amount, notes)
			 VALUES ($1, $2, $3, $4, $5)`,
			rec.StudentID, rec.CorrectAnswersCount, rec.ReceivedDate, rec.Amount, rec.Notes,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("student %s: %w", rec.StudentID, ErrDuplicateScholarship)
			}
			return fmt.Errorf("insert scholarship (student %s): %w", rec.StudentID, err)
		}
	}

	return tx.Commit(ctx)
}

// Claimed lists disbursed scholarships, optionally limited to records
// received inside [from, to].
func (r *ScholarshipRepository) Claimed(ctx context.Context, from, to *time.Time) ([]model.ScholarshipRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sr.student_id, si.name, sr.correct_answers_count, sr.received_date, sr.amount, sr.notes,
		        (SELECT es.exam_date
		         FROM exam_attendance ea
		         JOIN exam_sessions es ON es.id = ea.exam_session_id
		         WHERE ea.student_id = sr.student_id
		           AND ea.correct_answers_count = sr.correct_answers_count
		           AND es.exam_date <= sr.received_date
		         ORDER BY es.exam_date DESC
		         LIMIT 1)
		 FROM scholarship_records sr
		 JOIN students si ON si.student_id = sr.student_id
		 WHERE ($1::date IS NULL OR sr.received_date >= $1)
		   AND ($2::date IS NULL OR sr.received_date <= $2)
		 ORDER BY sr.student_id`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ScholarshipRow
	for rows.Next() {
		var (
			row          model.ScholarshipRow
			receivedDate time.Time
			amount       int
			examDate     *time.Time
		)
		if err := rows.Scan(&row.StudentID, &row.Name, &row.CorrectAnswersCount,
			&receivedDate, &amount, &row.Notes, &examDate); err != nil {
			return nil, err
		}
		row.Claimed = true
		row.Amount = &amount
		received := receivedDate.Format(model.DateLayout)
		row.ReceivedDate = &received
		if examDate != nil {
			row.ExamDate = examDate.Format(model.DateLayout)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Unclaimed lists students whose best official result qualifies for a
// scholarship (score of 3 or more while present) but who have no
// disbursement record yet. Each student surfaces once, via their highest
// qualifying result.
func (r *ScholarshipRepository) Unclaimed(ctx context.Context, from, to *time.Time) ([]model.ScholarshipRow, error) {
	rows, err := r.pool.Query(ctx,
		`WITH ranked AS (
		   SELECT si.student_id, si.name, ea.correct_answers_count, es.exam_date,
		          ROW_NUMBER() OVER (
		            PARTITION BY si.student_id
		            ORDER BY ea.correct_answers_count DESC, es.exam_date DESC
		          ) AS rn
		   FROM exam_attendance ea
		   JOIN exam_sessions es ON es.id = ea.exam_session_id
		   JOIN students si ON si.student_id = ea.student_id
		   LEFT JOIN scholarship_records sr ON sr.student_id = si.student_id
		   WHERE sr.student_id IS NULL
		     AND es.exam_type = 'official'
		     AND ea.is_absent = FALSE
		     AND ea.correct_answers_count >= 3
		     AND ($1::date IS NULL OR es.exam_date >= $1)
		     AND ($2::date IS NULL OR es.exam_date <= $2)
		 )
		 SELECT student_id, name, correct_answers_count, exam_date
		 FROM ranked WHERE rn = 1
		 ORDER BY student_id`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ScholarshipRow
	for rows.Next() {
		var (
			row      model.ScholarshipRow
			examDate time.Time
		)
		if err := rows.Scan(&row.StudentID, &row.Name, &row.CorrectAnswersCount, &examDate); err != nil {
			return nil, err
		}
		row.ExamDate = examDate.Format(model.DateLayout)
		result = append(result, row)
	}
	return result, rows.Err()
}

// Update rewrites a student's disbursement record. Returns pgx-style
// not-found via the bool.
func (r *ScholarshipRepository) Update(ctx context.Context, studentID string, rec model.ScholarshipRecord) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE scholarship_records
		 SET correct_answers_count = $1, received_date = $2, amount = $3, notes = $4
		 WHERE student_id = $5`,
		rec.CorrectAnswersCount, rec.ReceivedDate, rec.Amount, rec.Notes, studentID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a student's disbursement record.
func (r *ScholarshipRepository) Delete(ctx context.Context, studentID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM scholarship_records WHERE student_id = $1`, studentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
