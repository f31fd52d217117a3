package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSessionLabel(t *testing.T) {
	date, examType, err := ParseSessionLabel("2025-01-06,official")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, ExamTypeOfficial, examType)

	_, examType, err = ParseSessionLabel(" 2025-03-10 , internal ")
	require.NoError(t, err)
	assert.Equal(t, ExamTypeInternal, examType)
}

func TestParseSessionLabelRejectsMalformedInput(t *testing.T) {
	cases := []string{
		"",
		"2025-01-06",
		"2025-01-06,official,extra",
		"January 6,official",
		"2025-13-40,official",
		"2025-01-06,midterm",
	}
	for _, label := range cases {
		_, _, err := ParseSessionLabel(label)
		assert.Error(t, err, "label %q", label)
	}
}

func TestSessionLabelRoundTrip(t *testing.T) {
	s := ExamSession{ExamDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), ExamType: ExamTypeInternal}
	assert.Equal(t, "2025-06-02,internal", s.Label())

	date, examType, err := ParseSessionLabel(s.Label())
	require.NoError(t, err)
	assert.Equal(t, s.ExamDate, date)
	assert.Equal(t, s.ExamType, examType)
}

func TestUpdateSessionRequestTargetKey(t *testing.T) {
	base := UpdateSessionRequest{
		SessionKeyRequest: SessionKeyRequest{Date: "2025-01-06", Type: ExamTypeOfficial},
	}

	// Omitted new values keep the current key.
	date, examType, err := base.TargetKey()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, ExamTypeOfficial, examType)

	moved := base
	moved.NewDate = "2025-02-10"
	moved.NewType = ExamTypeInternal
	date, examType, err = moved.TargetKey()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, ExamTypeInternal, examType)
}

func TestNormalizeStudentID(t *testing.T) {
	assert.Equal(t, "S123", NormalizeStudentID("  s123 "))
	assert.Equal(t, "", NormalizeStudentID("   "))
}
