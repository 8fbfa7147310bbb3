package grader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
	"github.com/verte-zerg/calificador/internal/records"
	"github.com/verte-zerg/calificador/internal/scoring"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGrader(opts ...Option) *Grader {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	opts = append([]Option{
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "batch-1" }),
	}, opts...)
	return New(
		scoring.DefaultEngine(discardLogger()),
		exam.DefaultResolver(),
		discardLogger(),
		opts...,
	)
}

// writeInputs writes a records CSV and a keys.txt file and returns the source.
func writeInputs(t *testing.T) Source {
	t.Helper()
	dir := t.TempDir()

	var b strings.Builder
	b.WriteString("LITHO,DNI,TEMA")
	for i := 0; i < exam.QuestionCount; i++ {
		b.WriteString("," + records.AnswerColumn(i))
	}
	b.WriteString("\n")
	row := func(code, dni, variant string, answers []string) {
		b.WriteString(code + "," + dni + "," + variant)
		for _, a := range answers {
			b.WriteString("," + a)
		}
		b.WriteString("\n")
	}
	all := func(v string, n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = v
		}
		return out
	}
	row("000001", "70000001", "M", all("A", 100))
	row("000002", "70000002", "O", all("", 100))
	row("000003", "", "Q", all("A", 100))
	row("000004", "70000004", "Y", all("A", 10))

	recordsPath := filepath.Join(dir, "respuestas.csv")
	require.NoError(t, os.WriteFile(recordsPath, []byte(b.String()), 0o644))

	keys := strings.Join([]string{
		"M" + strings.Repeat("A", 100),
		"O" + strings.Repeat("A", 100),
		"Y" + strings.Repeat("A", 100),
	}, "\n")
	keysPath := filepath.Join(dir, "keys.txt")
	require.NoError(t, os.WriteFile(keysPath, []byte(keys), 0o644))

	return Source{RecordsPath: recordsPath, KeysPath: keysPath}
}

func warningKinds(ws []model.Warning) []model.WarningKind {
	out := make([]model.WarningKind, len(ws))
	for i, w := range ws {
		out[i] = w.Kind
	}
	return out
}

func TestRunGradesBatch(t *testing.T) {
	src := writeInputs(t)
	batch, err := newTestGrader().Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "batch-1", batch.ID)
	assert.Equal(t, src.RecordsPath, batch.RecordsPath)
	require.Len(t, batch.Results, 4)

	perfect := batch.Results[0]
	assert.Equal(t, exam.PathA, perfect.Path)
	assert.Equal(t, 360.0, perfect.Total())
	assert.Equal(t, 20.0, perfect.Grade)
	assert.Empty(t, perfect.Warnings)

	blank := batch.Results[1]
	assert.Equal(t, exam.PathB, blank.Path)
	assert.False(t, blank.MissingKey)
	assert.Empty(t, blank.Warnings, "all-unanswered sheet is not an anomaly")
	for _, p := range exam.CareerPaths {
		assert.Zero(t, blank.Breakdown.Total(p))
	}
	assert.Equal(t, 2.22, blank.Grade)

	unknown := batch.Results[2]
	assert.Equal(t, exam.PathB, unknown.Path)
	assert.True(t, unknown.MissingKey)
	assert.True(t, unknown.NeedsReview())
	assert.Equal(t, []model.WarningKind{model.WarnUnknownExamVariant, model.WarnMissingAnswerKey}, warningKinds(unknown.Warnings))
	for _, p := range exam.CareerPaths {
		assert.Zero(t, unknown.Breakdown.Total(p))
	}
	assert.Zero(t, unknown.Grade)

	short := batch.Results[3]
	assert.Equal(t, exam.PathC, short.Path)
	assert.Equal(t, []model.WarningKind{model.WarnShortAnswerSequence}, warningKinds(short.Warnings))
	assert.Equal(t, 10, short.Breakdown.TotalCorrect)
	assert.Equal(t, 90, short.Breakdown.TotalUnanswered)
	assert.Equal(t, 60.0, short.Total())

	assert.Equal(t, exam.DefaultStructure(), batch.Structure)
	assert.Equal(t, scoring.DefaultScale(), batch.Scale)

	assert.Len(t, batch.Warnings, 3)
	counts := batch.WarningCounts()
	assert.Equal(t, 1, counts[model.WarnMissingAnswerKey])
	assert.Equal(t, 1, counts[model.WarnUnknownExamVariant])
	assert.Equal(t, 1, counts[model.WarnShortAnswerSequence])
}

func TestRunParallelMatchesSequential(t *testing.T) {
	src := writeInputs(t)
	seq, err := newTestGrader().Run(context.Background(), src)
	require.NoError(t, err)
	par, err := newTestGrader(WithWorkers(4)).Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, seq.Results, par.Results)
	assert.Equal(t, seq.Warnings, par.Warnings)
}

func TestRunLoadFailureAborts(t *testing.T) {
	src := writeInputs(t)

	badKeys := src
	badKeys.KeysPath = filepath.Join(t.TempDir(), "CLAVES.DBF")
	batch, err := newTestGrader().Run(context.Background(), badKeys)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoad))
	assert.Nil(t, batch)

	badRecords := src
	badRecords.RecordsPath = filepath.Join(t.TempDir(), "RESPUEST.DBF")
	batch, err = newTestGrader().Run(context.Background(), badRecords)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoad))
	assert.Nil(t, batch)
}

func TestGradeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cands := []model.Candidate{{Seq: 1, StudentCode: "1", Variant: "M", Fields: exam.QuestionCount}}
	_, err := newTestGrader().Grade(ctx, cands, exam.AnswerKey{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGradeNormalizesByAssignedPath(t *testing.T) {
	uneven := exam.Structure{Sections: []exam.Section{
		{Name: "Única", Start: 0, End: 99, Weights: map[exam.CareerPath]int{exam.PathA: 1, exam.PathB: 3, exam.PathC: 2}},
	}}
	engine, err := scoring.NewEngine(uneven, discardLogger())
	require.NoError(t, err)
	g := New(engine, exam.DefaultResolver(), discardLogger())

	var perfect exam.AnswerSequence
	for i := range perfect {
		perfect[i] = "A"
	}
	key := exam.AnswerKey{"M": perfect, "O": perfect, "Y": perfect}
	cands := []model.Candidate{
		{Seq: 1, StudentCode: "1", Variant: "M", Answers: perfect, Fields: exam.QuestionCount},
		{Seq: 2, StudentCode: "2", Variant: "O", Answers: perfect, Fields: exam.QuestionCount},
		{Seq: 3, StudentCode: "3", Variant: "Y", Answers: perfect, Fields: exam.QuestionCount},
		{Seq: 4, StudentCode: "4", Variant: "O", Fields: exam.QuestionCount},
	}
	batch, err := g.Grade(context.Background(), cands, key)
	require.NoError(t, err)

	wantTotals := []float64{100, 300, 200}
	for i, r := range batch.Results[:3] {
		assert.Equal(t, wantTotals[i], r.Total(), "candidate %s", r.StudentCode)
		assert.Equal(t, 20.0, r.Grade, "candidate %s on path %s", r.StudentCode, r.Path)
	}
	assert.Equal(t, 2.61, batch.Results[3].Grade)
	assert.Equal(t, uneven, batch.Structure)
	assert.Equal(t, 300.0, batch.Scale.For(exam.PathB).MaxRaw)
}
