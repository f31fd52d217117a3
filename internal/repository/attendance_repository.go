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

// ErrDuplicateScore is returned on a single-row insert when the student
// already has an outcome for that session.
var ErrDuplicateScore = errors.New("score already recorded for this student and session")

// AttendanceFact is one non-absent ledger row joined with its session and
// student, the raw material of cohort aggregation.
type AttendanceFact struct {
	StudentID string
	Name      string
	SessionID int
	ExamDate  time.Time
	Score     int
}

// AbsenceRow is one absent outcome on a given date.
type AbsenceRow struct {
	StudentID string  `json:"student_id"`
	IsExcused bool    `json:"is_excused"`
	Notes     *string `json:"notes,omitempty"`
}

// AttendanceRepository owns the exam attendance ledger, the source of truth
// for pass/fail.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// ApplyBatch inserts every command inside a single transaction. A row that
// collides with the (session, student) uniqueness constraint is skipped and
// counted, not failed: re-importing a previously ingested sheet must be
// idempotent. Any other error rolls the whole batch back.
//
// ON CONFLICT DO NOTHING is load-bearing here: in PostgreSQL a raised
// unique-violation would poison the surrounding transaction, so the skip
// has to happen inside the statement rather than in error handling.
func (r *AttendanceRepository) ApplyBatch(ctx context.Context, commands []model.ScoreCommand) (*model.IngestResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	result := &model.IngestResult{TouchedStudents: []string{}}
	touched := make(map[string]struct{})

	for _, cmd := range commands {
		tag, err := tx.Exec(ctx,
			`INSERT INTO exam_attendance
			   (exam_session_id, student_id, is_absent, is_excused, correct_answers_count, notes)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
			 ON CONFLICT (exam_session_id, student_id) DO NOTHING`,
			cmd.SessionID, cmd.StudentID, cmd.IsAbsent, cmd.IsExcused, cmd.Score, cmd.Note,
		)
		if err != nil {
			return nil, fmt.Errorf("insert attendance (session %d, student %s): %w",
				cmd.SessionID, cmd.StudentID, err)
		}

		if tag.RowsAffected() == 0 {
			result.SkippedExisting++
			continue
		}

		result.Ingested++
		if _, seen := touched[cmd.StudentID]; !seen {
			touched[cmd.StudentID] = struct{}{}
			result.TouchedStudents = append(result.TouchedStudents, cmd.StudentID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

// InsertOne records a single outcome. Unlike batch ingestion a duplicate is
// surfaced as ErrDuplicateScore so the caller can report the conflict.
func (r *AttendanceRepository) InsertOne(ctx context.Context, cmd model.ScoreCommand) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_attendance
		   (exam_session_id, student_id, is_absent, is_excused, correct_answers_count, notes)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`,
		cmd.SessionID, cmd.StudentID, cmd.IsAbsent, cmd.IsExcused, cmd.Score, cmd.Note,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateScore
		}
		return err
	}
	return nil
}

// TotalsForStudent aggregates the student's non-absent history. Absences,
// excused or not, never count toward either threshold.
func (r *AttendanceRepository) TotalsForStudent(ctx context.Context, studentID string) (total, max int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(correct_answers_count), 0),
		        COALESCE(MAX(correct_answers_count), 0)
		 FROM exam_attendance
		 WHERE student_id = $1 AND is_absent = FALSE`, studentID,
	).Scan(&total, &max)
	return total, max, err
}

// ListFacts returns every non-absent ledger row joined with session date and
// student name, ordered by student then date. The cohort differ filters and
// aggregates these in memory.
func (r *AttendanceRepository) ListFacts(ctx context.Context) ([]AttendanceFact, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ea.student_id, si.name, ea.exam_session_id, es.exam_date, ea.correct_answers_count
		 FROM exam_attendance ea
		 JOIN exam_sessions es ON es.id = ea.exam_session_id
		 JOIN students si ON si.student_id = ea.student_id
		 WHERE ea.is_absent = FALSE
		 ORDER BY ea.student_id, es.exam_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []AttendanceFact
	for rows.Next() {
		var f AttendanceFact
		if err := rows.Scan(&f.StudentID, &f.Name, &f.SessionID, &f.ExamDate, &f.Score); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// ListBySession returns all outcomes recorded for one session.
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID int) ([]model.ExamAttendance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_session_id, student_id, is_absent, is_excused, correct_answers_count, notes
		 FROM exam_attendance
		 WHERE exam_session_id = $1
		 ORDER BY student_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ExamAttendance
	for rows.Next() {
		var a model.ExamAttendance
		if err := rows.Scan(&a.ID, &a.ExamSessionID, &a.StudentID, &a.IsAbsent, &a.IsExcused,
			&a.CorrectAnswersCount, &a.Notes); err != nil {
			return nil, err
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

// ListAbsencesByDate returns the absent outcomes across all sessions held on
// the given date.
func (r *AttendanceRepository) ListAbsencesByDate(ctx context.Context, date time.Time) ([]AbsenceRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ea.student_id, ea.is_excused, ea.notes
		 FROM exam_attendance ea
		 JOIN exam_sessions es ON es.id = ea.exam_session_id
		 WHERE es.exam_date = $1 AND ea.is_absent = TRUE
		 ORDER BY ea.student_id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var absences []AbsenceRow
	for rows.Next() {
		var a AbsenceRow
		if err := rows.Scan(&a.StudentID, &a.IsExcused, &a.Notes); err != nil {
			return nil, err
		}
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

// UpdateEntries rewrites outcomes for one session. Rows whose stored values
// already match are left untouched so the caller only recomputes students
// that actually changed. Returns the IDs of changed students; on a mid-batch
// error the IDs rewritten so far are still returned, since those updates
// have been applied.
func (r *AttendanceRepository) UpdateEntries(ctx context.Context, sessionID int, commands []model.ScoreCommand) ([]string, error) {
	var changed []string
	for _, cmd := range commands {
		tag, err := r.pool.Exec(ctx,
			`UPDATE exam_attendance
			 SET is_absent = $1, is_excused = $2, correct_answers_count = $3, notes = NULLIF($4, '')
			 WHERE exam_session_id = $5 AND student_id = $6
			   AND (is_absent <> $1 OR is_excused <> $2 OR correct_answers_count <> $3
			        OR COALESCE(notes, '') <> $4)`,
			cmd.IsAbsent, cmd.IsExcused, cmd.Score, cmd.Note, sessionID, cmd.StudentID,
		)
		if err != nil {
			return changed, fmt.Errorf("update attendance (student %s): %w", cmd.StudentID, err)
		}
		if tag.RowsAffected() > 0 {
			changed = append(changed, cmd.StudentID)
		}
	}
	return changed, nil
}

// DeleteEntries removes the selected students' outcomes for one session
// inside a single transaction. Returns how many rows were deleted.
func (r *AttendanceRepository) DeleteEntries(ctx context.Context, sessionID int, studentIDs []string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var deleted int64
	for _, id := range studentIDs {
		tag, err := tx.Exec(ctx,
			`DELETE FROM exam_attendance WHERE exam_session_id = $1 AND student_id = $2`,
			sessionID, id)
		if err != nil {
			return 0, fmt.Errorf("delete attendance (student %s): %w", id, err)
		}
		deleted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return deleted, nil
}
