package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
	"github.com/verte-zerg/calificador/internal/scoring"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "calificador.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func sampleBatch(t *testing.T, id string, createdAt time.Time) *model.Batch {
	t.Helper()
	engine := scoring.DefaultEngine(nil)

	var key, answers exam.AnswerSequence
	for i := range key {
		key[i] = "A"
		if i%3 == 0 {
			answers[i] = "A"
		} else if i%3 == 1 {
			answers[i] = "B"
		}
	}
	scored, err := engine.Score(answers, key, exam.PathC)
	require.NoError(t, err)
	missing, err := engine.Score(answers, exam.AnswerSequence{}, exam.PathB)
	require.ErrorIs(t, err, scoring.ErrMissingAnswerKey)

	warnings := []model.Warning{
		{Seq: 2, StudentCode: "000002", Kind: model.WarnUnknownExamVariant, Message: "unknown exam variant \"Q\""},
		{Seq: 2, StudentCode: "000002", Kind: model.WarnMissingAnswerKey, Message: "no answer key for exam variant \"Q\""},
	}
	return &model.Batch{
		ID:          id,
		CreatedAt:   createdAt,
		RecordsPath: "RESPUEST.DBF",
		KeysPath:    "CLAVES.DBF",
		Duration:    1500 * time.Millisecond,
		Results: []model.CandidateResult{
			{
				Seq: 1, StudentCode: "000001", DNI: "70000001", Variant: "Y", Path: exam.PathC,
				Breakdown: scored, Grade: scoring.ToScaleOf20(scored.AssignedTotal()),
			},
			{
				Seq: 2, StudentCode: "000002", Variant: "Q", Path: exam.PathB,
				MissingKey: true, Breakdown: missing, Warnings: warnings,
			},
		},
		Warnings:  warnings,
		Structure: exam.DefaultStructure(),
		Scale:     scoring.DefaultScale(),
	}
}

func TestInsertAndLoadBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	batch := sampleBatch(t, "b-1", created)
	require.NoError(t, s.InsertBatch(ctx, batch))

	loaded, err := s.LoadBatch(ctx, "b-1")
	require.NoError(t, err)
	assert.True(t, loaded.CreatedAt.Equal(created))
	assert.Equal(t, batch.RecordsPath, loaded.RecordsPath)
	assert.Equal(t, batch.KeysPath, loaded.KeysPath)
	assert.Equal(t, batch.Duration, loaded.Duration)
	assert.Equal(t, batch.Results, loaded.Results)
	assert.Equal(t, batch.Warnings, loaded.Warnings)
	assert.Equal(t, exam.DefaultStructure(), loaded.Structure)
	assert.Equal(t, scoring.DefaultScale(), loaded.Scale)
}

func TestLoadBatchKeepsGradingLayout(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	custom := exam.Structure{Sections: []exam.Section{
		{Name: "Razonamiento", Start: 0, End: 49, Weights: map[exam.CareerPath]int{exam.PathA: 1, exam.PathB: 3, exam.PathC: 2}},
		{Name: "Conocimientos", Start: 50, End: 99, Weights: map[exam.CareerPath]int{exam.PathA: 2, exam.PathB: 1, exam.PathC: 2}},
	}}
	batch := sampleBatch(t, "custom", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	batch.Structure = custom
	batch.Scale = scoring.NewScale(custom)
	require.NoError(t, s.InsertBatch(ctx, batch))

	loaded, err := s.LoadBatch(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, custom, loaded.Structure)
	assert.Equal(t, batch.Scale, loaded.Scale)
	assert.Equal(t, 200.0, loaded.Scale.For(exam.PathB).MaxRaw)
	assert.Equal(t, 150.0, loaded.Scale.For(exam.PathA).MaxRaw)
}

func TestInsertBatchDuplicateRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	batch := sampleBatch(t, "dup", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, s.InsertBatch(ctx, batch))
	require.Error(t, s.InsertBatch(ctx, batch))

	loaded, err := s.LoadBatch(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, loaded.Results, 2)
	assert.Len(t, loaded.Warnings, 2)
}

func TestListAndLatestBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.LatestBatch(ctx)
	assert.True(t, errors.Is(err, ErrNotFound))

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, s.InsertBatch(ctx, sampleBatch(t, id, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := s.ListBatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].ID)
	assert.Equal(t, "first", all[2].ID)
	assert.Equal(t, 2, all[0].Candidates)
	assert.Equal(t, 2, all[0].Warnings)

	limited, err := s.ListBatches(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	latest, err := s.LatestBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "third", latest.ID)

	_, err = s.LoadBatch(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
