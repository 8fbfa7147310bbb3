package scoring

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/verte-zerg/calificador/internal/exam"
)

// PenaltyPerIncorrect is subtracted from a section's correct count for each
// wrong answer.
const PenaltyPerIncorrect = 0.25

// ErrMissingAnswerKey is returned when the candidate's variant has no key.
// The accompanying breakdown is zero-valued.
var ErrMissingAnswerKey = errors.New("missing answer key")

// Engine scores answer sequences against a fixed exam structure.
type Engine struct {
	structure exam.Structure
	logger    *slog.Logger
}

// NewEngine creates an Engine for the given structure. The structure must
// partition every question position.
func NewEngine(structure exam.Structure, logger *slog.Logger) (*Engine, error) {
	if err := structure.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exam structure: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{structure: structure, logger: logger}, nil
}

// DefaultEngine creates an Engine for the default exam structure.
func DefaultEngine(logger *slog.Logger) *Engine {
	e, err := NewEngine(exam.DefaultStructure(), logger)
	if err != nil {
		panic(err)
	}
	return e
}

// Structure returns the exam structure the engine scores against.
func (e *Engine) Structure() exam.Structure {
	return e.structure
}

// Score classifies every position, applies the wrong-answer penalty per
// section and weights each section for all three career paths.
//
//	adjusted = max(0, correct - 0.25*incorrect)
//	weighted[path] = adjusted * weight[section][path]
//
// An empty key yields a zero breakdown and ErrMissingAnswerKey.
func (e *Engine) Score(answers, key exam.AnswerSequence, path exam.CareerPath) (Breakdown, error) {
	b := zeroBreakdown(e.structure, path)
	if key.IsEmpty() {
		return b, ErrMissingAnswerKey
	}

	for i, sec := range e.structure.Sections {
		score := &b.Sections[i]
		for pos := sec.Start; pos <= sec.End; pos++ {
			switch {
			case answers[pos] == "":
				score.Unanswered++
			case key[pos] != "" && answers[pos] == key[pos]:
				score.Correct++
			default:
				score.Incorrect++
			}
		}
		score.Adjusted = adjusted(score.Correct, score.Incorrect)
		for _, p := range exam.CareerPaths {
			w := score.Adjusted * float64(sec.Weight(p))
			score.Weighted[p] = w
			b.Totals[p] += w
		}
		b.TotalCorrect += score.Correct
		b.TotalIncorrect += score.Incorrect
		b.TotalUnanswered += score.Unanswered
	}
	b.AdjustedTotal = adjusted(b.TotalCorrect, b.TotalIncorrect)

	e.logger.Debug("scored answers",
		"path", path,
		"correct", b.TotalCorrect,
		"incorrect", b.TotalIncorrect,
		"unanswered", b.TotalUnanswered,
		"total", b.Totals[path],
	)
	return b, nil
}

func adjusted(correct, incorrect int) float64 {
	v := float64(correct) - PenaltyPerIncorrect*float64(incorrect)
	if v < 0 {
		return 0
	}
	return v
}
