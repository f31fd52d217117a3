package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examtrack/examtrack-backend/internal/model"
)

type fakeScoreEditor struct {
	inserted      []model.ScoreCommand
	updateChanged []string
	updateErr     error
	deleted       int64
	deleteErr     error
}

func (f *fakeScoreEditor) InsertOne(_ context.Context, cmd model.ScoreCommand) error {
	f.inserted = append(f.inserted, cmd)
	return nil
}

func (f *fakeScoreEditor) UpdateEntries(_ context.Context, _ int, _ []model.ScoreCommand) ([]string, error) {
	return f.updateChanged, f.updateErr
}

func (f *fakeScoreEditor) DeleteEntries(_ context.Context, _ int, _ []string) (int64, error) {
	return f.deleted, f.deleteErr
}

func newTestScore(editor *fakeScoreEditor) (*ScoreService, *fakeRecomputer, *fakeInvalidator) {
	recomputer := &fakeRecomputer{}
	invalidator := &fakeInvalidator{}
	svc := NewScoreService(
		&fakeSessionRegistry{sessions: map[string]int{"2025-01-06,official": 1}},
		editor,
		&fakeStudentDirectory{known: map[string]struct{}{"S001": {}}},
		recomputer,
		invalidator,
		zerolog.Nop(),
	)
	return svc, recomputer, invalidator
}

func TestUpdateManyRecomputesChangedStudents(t *testing.T) {
	editor := &fakeScoreEditor{updateChanged: []string{"S001", "S002"}}
	svc, recomputer, invalidator := newTestScore(editor)

	changed, err := svc.UpdateMany(context.Background(),
		day("2025-01-06"), model.ExamTypeOfficial,
		[]model.ScoreEntry{{StudentID: "S001"}, {StudentID: "S002"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"S001", "S002"}, changed)
	assert.Equal(t, []string{"S001", "S002"}, recomputer.recomputed)
	assert.Equal(t, 1, invalidator.calls)
}

func TestUpdateManyRecomputesRowsAppliedBeforeFailure(t *testing.T) {
	// The ledger rewrote S001 and then hit an error on a later entry. The
	// applied rewrite must not leave S001 with a stale pass status.
	editor := &fakeScoreEditor{
		updateChanged: []string{"S001"},
		updateErr:     errors.New("connection reset"),
	}
	svc, recomputer, invalidator := newTestScore(editor)

	_, err := svc.UpdateMany(context.Background(),
		day("2025-01-06"), model.ExamTypeOfficial,
		[]model.ScoreEntry{{StudentID: "S001", Status: model.MarkerAbsent}, {StudentID: "S002"}})
	require.Error(t, err)

	assert.Equal(t, []string{"S001"}, recomputer.recomputed)
	assert.Equal(t, 1, invalidator.calls)
}

func TestUpdateManySkipsRecomputeWhenNothingChanged(t *testing.T) {
	svc, recomputer, invalidator := newTestScore(&fakeScoreEditor{})

	changed, err := svc.UpdateMany(context.Background(),
		day("2025-01-06"), model.ExamTypeOfficial,
		[]model.ScoreEntry{{StudentID: "S001", CorrectAnswersCount: 3}})
	require.NoError(t, err)

	assert.Empty(t, changed)
	assert.Empty(t, recomputer.recomputed)
	assert.Equal(t, 0, invalidator.calls)
}

func TestDeleteManyRecomputesRemovedStudents(t *testing.T) {
	editor := &fakeScoreEditor{deleted: 2}
	svc, recomputer, invalidator := newTestScore(editor)

	deleted, err := svc.DeleteMany(context.Background(),
		day("2025-01-06"), model.ExamTypeOfficial, []string{"s001", "S002"})
	require.NoError(t, err)

	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, []string{"S001", "S002"}, recomputer.recomputed)
	assert.Equal(t, 1, invalidator.calls)
}

func TestAddOneRejectsUnknownStudent(t *testing.T) {
	editor := &fakeScoreEditor{}
	svc, recomputer, _ := newTestScore(editor)

	err := svc.AddOne(context.Background(),
		day("2025-01-06"), model.ExamTypeOfficial,
		model.ScoreEntry{StudentID: "S404", CorrectAnswersCount: 2})

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, []string{"S404"}, batchErr.MissingStudents)
	assert.Empty(t, editor.inserted)
	assert.Empty(t, recomputer.recomputed)
}
