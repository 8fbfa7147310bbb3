// Package grader runs a grading batch: it loads the record and key tables,
// scores every candidate and collects per-candidate warnings.
package grader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
	"github.com/verte-zerg/calificador/internal/records"
	"github.com/verte-zerg/calificador/internal/scoring"
)

// ErrLoad marks a failure to load the record or key table. No candidate is
// scored when it is returned.
var ErrLoad = errors.New("batch load failed")

// Source names the input tables of a batch.
type Source struct {
	RecordsPath string
	KeysPath    string
}

// Grader scores candidates with an engine and a variant resolver. Grades use
// the normalizer of each candidate's assigned path.
type Grader struct {
	engine   *scoring.Engine
	resolver *exam.Resolver
	scale    scoring.Scale
	logger   *slog.Logger

	workers int
	now     func() time.Time
	newID   func() string
}

// Option configures a Grader.
type Option func(*Grader)

// WithWorkers scores up to n candidates concurrently. Values below 2 keep
// scoring sequential.
func WithWorkers(n int) Option {
	return func(g *Grader) { g.workers = n }
}

// WithClock overrides the batch timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Grader) { g.now = now }
}

// WithIDGenerator overrides batch ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(g *Grader) { g.newID = newID }
}

// New creates a Grader. The per-path scale is derived from the engine's
// structure.
func New(engine *scoring.Engine, resolver *exam.Resolver, logger *slog.Logger, opts ...Option) *Grader {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Grader{
		engine:   engine,
		resolver: resolver,
		scale:    scoring.NewScale(engine.Structure()),
		logger:   logger,
		workers:  1,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Run loads both tables and grades every record. Load failures abort the
// batch before any scoring.
func (g *Grader) Run(ctx context.Context, src Source) (*model.Batch, error) {
	key, err := records.LoadAnswerKey(src.KeysPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	candidates, err := records.LoadCandidates(src.RecordsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	g.logger.Info("loaded batch inputs",
		"records", src.RecordsPath,
		"candidates", len(candidates),
		"keys", src.KeysPath,
		"variants", key.Variants(),
	)

	batch, err := g.Grade(ctx, candidates, key)
	if err != nil {
		return nil, err
	}
	batch.RecordsPath = src.RecordsPath
	batch.KeysPath = src.KeysPath
	return batch, nil
}

// Grade scores already-loaded candidates. Results keep input order.
func (g *Grader) Grade(ctx context.Context, candidates []model.Candidate, key exam.AnswerKey) (*model.Batch, error) {
	start := g.now()
	results := make([]model.CandidateResult, len(candidates))

	if g.workers > 1 {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(g.workers)
		for i := range candidates {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				results[i] = g.GradeCandidate(candidates[i], key)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, fmt.Errorf("grade batch: %w", err)
		}
	} else {
		for i, c := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("grade batch: %w", err)
			}
			results[i] = g.GradeCandidate(c, key)
		}
	}

	batch := &model.Batch{
		ID:        g.newID(),
		CreatedAt: start,
		Results:   results,
		Structure: g.engine.Structure(),
		Scale:     g.scale,
	}
	for _, r := range results {
		for _, w := range r.Warnings {
			g.logger.Warn(w.Message, "kind", w.Kind, "student", w.StudentCode, "seq", w.Seq)
			batch.Warnings = append(batch.Warnings, w)
		}
	}
	batch.Duration = g.now().Sub(start)
	g.logger.Info("graded batch",
		"batch", batch.ID,
		"candidates", len(results),
		"warnings", len(batch.Warnings),
		"duration", batch.Duration,
	)
	return batch, nil
}

// GradeCandidate resolves the candidate's career path, scores the answers
// against the variant's key and records any anomalies as warnings.
func (g *Grader) GradeCandidate(c model.Candidate, key exam.AnswerKey) model.CandidateResult {
	result := model.CandidateResult{
		Seq:         c.Seq,
		StudentCode: c.StudentCode,
		DNI:         c.DNI,
		Variant:     c.Variant,
	}
	warn := func(kind model.WarningKind, format string, args ...any) {
		result.Warnings = append(result.Warnings, model.Warning{
			Seq:         c.Seq,
			StudentCode: c.StudentCode,
			Kind:        kind,
			Message:     fmt.Sprintf(format, args...),
		})
	}

	path, known := g.resolver.Resolve(c.Variant)
	if !known {
		warn(model.WarnUnknownExamVariant, "unknown exam variant %q, defaulting to %s (%s)", c.Variant, path, path.DisplayName())
	}
	result.Path = path

	if c.Fields < exam.QuestionCount {
		warn(model.WarnShortAnswerSequence, "record has %d of %d answer fields, remaining positions treated as unanswered", c.Fields, exam.QuestionCount)
	}

	variantKey, _ := key.Lookup(c.Variant)
	breakdown, err := g.engine.Score(c.Answers, variantKey, path)
	result.Breakdown = breakdown
	if errors.Is(err, scoring.ErrMissingAnswerKey) {
		result.MissingKey = true
		warn(model.WarnMissingAnswerKey, "no answer key for exam variant %q, flagged for manual review", c.Variant)
		return result
	}
	result.Grade = g.scale.ToScaleOf20(path, breakdown.AssignedTotal())
	return result
}
