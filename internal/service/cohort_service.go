package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/examtrack/examtrack-backend/internal/config"
	"github.com/examtrack/examtrack-backend/internal/repository"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cohortCacheTTL = 15 * time.Minute

// Window is a half-open date range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// AcademicYearWindow maps an academic year to its civil date range. The
// local calendar numbers years with a fixed offset from the civil year, and
// the academic year runs August 1 through July 31.
func AcademicYearWindow(academicYear, yearOffset int) Window {
	civil := academicYear + yearOffset
	return Window{
		Start: time.Date(civil, time.August, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(civil+1, time.August, 1, 0, 0, 0, 0, time.UTC),
	}
}

// SessionScore is one deduplicated per-session result in a student's
// lifetime history.
type SessionScore struct {
	SessionID int       `json:"session_id"`
	ExamDate  time.Time `json:"exam_date"`
	Score     int       `json:"score"`
}

// CohortEntry is one student who crossed the passing thresholds during the
// requested academic year. Totals cover the year's window only; Sessions
// carries the full lifetime history.
type CohortEntry struct {
	StudentID           string         `json:"student_id"`
	Name                string         `json:"name"`
	TotalCorrectAnswers int            `json:"total_correct_answers"`
	MaxCorrectAnswers   int            `json:"max_correct_answers"`
	PassingCriteria     string         `json:"passing_criteria"`
	Sessions            []SessionScore `json:"sessions"`
}

// ComputeNewlyPassed diffs the ledger against itself across the window
// boundary: students who fail the thresholds on rows strictly before the
// window but pass on rows through its end are newly passed. Scores are
// deduplicated to the best result per session before aggregation, so the
// function is insensitive to fact ordering. Output is sorted by student ID.
func ComputeNewlyPassed(facts []repository.AttendanceFact, w Window) []CohortEntry {
	best := make(map[string]map[int]SessionScore)
	names := make(map[string]string)
	for _, f := range facts {
		sessions, ok := best[f.StudentID]
		if !ok {
			sessions = make(map[int]SessionScore)
			best[f.StudentID] = sessions
			names[f.StudentID] = f.Name
		}
		if prev, seen := sessions[f.SessionID]; !seen || f.Score > prev.Score {
			sessions[f.SessionID] = SessionScore{
				SessionID: f.SessionID,
				ExamDate:  f.ExamDate,
				Score:     f.Score,
			}
		}
	}

	var entries []CohortEntry
	for studentID, sessions := range best {
		var beforeTotal, beforeMax int
		var throughTotal, throughMax int
		var windowTotal, windowMax int
		history := make([]SessionScore, 0, len(sessions))
		for _, ss := range sessions {
			history = append(history, ss)
			if !ss.ExamDate.Before(w.End) {
				continue
			}
			throughTotal += ss.Score
			if ss.Score > throughMax {
				throughMax = ss.Score
			}
			if ss.ExamDate.Before(w.Start) {
				beforeTotal += ss.Score
				if ss.Score > beforeMax {
					beforeMax = ss.Score
				}
			} else {
				windowTotal += ss.Score
				if ss.Score > windowMax {
					windowMax = ss.Score
				}
			}
		}

		passedBefore, _ := EvaluatePass(beforeTotal, beforeMax)
		passedNow, criteria := EvaluatePass(throughTotal, throughMax)
		if passedBefore || !passedNow {
			continue
		}

		sort.Slice(history, func(i, j int) bool {
			return history[i].ExamDate.Before(history[j].ExamDate)
		})
		entries = append(entries, CohortEntry{
			StudentID:           studentID,
			Name:                names[studentID],
			TotalCorrectAnswers: windowTotal,
			MaxCorrectAnswers:   windowMax,
			PassingCriteria:     *criteria,
			Sessions:            history,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StudentID < entries[j].StudentID
	})
	return entries
}

// CohortService answers year-over-year newly-passed queries, caching the
// computed cohort in Redis keyed by a ledger version that every ingestion
// bumps.
type CohortService struct {
	attendanceRepo *repository.AttendanceRepository
	sessionRepo    *repository.ExamSessionRepository
	rdb            *redis.Client
	yearOffset     int
	log            zerolog.Logger
}

// NewCohortService creates a new CohortService.
func NewCohortService(
	attendanceRepo *repository.AttendanceRepository,
	sessionRepo *repository.ExamSessionRepository,
	rdb *redis.Client,
	yearOffset int,
	log zerolog.Logger,
) *CohortService {
	return &CohortService{
		attendanceRepo: attendanceRepo,
		sessionRepo:    sessionRepo,
		rdb:            rdb,
		yearOffset:     yearOffset,
		log:            log.With().Str("component", "cohort").Logger(),
	}
}

// Window returns the civil date range of an academic year.
func (s *CohortService) Window(academicYear int) Window {
	return AcademicYearWindow(academicYear, s.yearOffset)
}

// NewlyPassed returns the students who crossed the passing thresholds during
// the given academic year. Results are cached until the next ledger write;
// a Redis outage degrades to computing from the database on every call.
func (s *CohortService) NewlyPassed(ctx context.Context, academicYear int) ([]CohortEntry, error) {
	version, versionKnown := s.ledgerVersion(ctx)
	cacheKey := config.CacheKey.NewlyPassedKey(academicYear, version)

	if versionKnown {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var entries []CohortEntry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				return entries, nil
			}
			s.log.Warn().Str("key", cacheKey).Msg("Discarding undecodable cohort cache entry")
		}
	}

	facts, err := s.attendanceRepo.ListFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load attendance facts: %w", err)
	}
	entries := ComputeNewlyPassed(facts, s.Window(academicYear))

	if versionKnown {
		if payload, err := json.Marshal(entries); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, payload, cohortCacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("Failed to cache cohort result")
			}
		}
	}
	return entries, nil
}

// Invalidate bumps the ledger version so every cached cohort goes stale.
// Called after each committed ledger write; failures are logged because the
// write they follow has already committed.
func (s *CohortService) Invalidate(ctx context.Context) {
	if err := s.rdb.Incr(ctx, config.CacheKey.LedgerVersionKey()).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to bump ledger version")
	}
}

func (s *CohortService) ledgerVersion(ctx context.Context) (int64, bool) {
	version, err := s.rdb.Get(ctx, config.CacheKey.LedgerVersionKey()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, true
		}
		s.log.Warn().Err(err).Msg("Ledger version unavailable, bypassing cohort cache")
		return 0, false
	}
	return version, true
}

// RenderWorkbook lays the cohort out as an xlsx sheet: fixed identity and
// aggregate columns, then one column per exam session held inside the
// academic year, in date order.
func (s *CohortService) RenderWorkbook(ctx context.Context, academicYear int, entries []CohortEntry) (*spreadsheet.Workbook, error) {
	w := s.Window(academicYear)
	sessions, err := s.sessionRepo.ListBetween(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("list sessions in window: %w", err)
	}

	header := []interface{}{"Student ID", "Name", "Total (Year)", "Best (Year)", "Criteria"}
	for _, sess := range sessions {
		header = append(header, sess.Label())
	}

	wb, err := spreadsheet.NewWorkbook("Newly Passed")
	if err != nil {
		return nil, fmt.Errorf("create workbook: %w", err)
	}
	if err := wb.SetRow(0, header); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}

	for i, entry := range entries {
		scores := make(map[int]int, len(entry.Sessions))
		for _, ss := range entry.Sessions {
			scores[ss.SessionID] = ss.Score
		}
		row := []interface{}{
			entry.StudentID,
			entry.Name,
			entry.TotalCorrectAnswers,
			entry.MaxCorrectAnswers,
			entry.PassingCriteria,
		}
		for _, sess := range sessions {
			if score, ok := scores[sess.ID]; ok {
				row = append(row, score)
			} else {
				row = append(row, nil)
			}
		}
		if err := wb.SetRow(i+1, row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return wb, nil
}
