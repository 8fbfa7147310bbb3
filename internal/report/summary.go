package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates a batch for the report header.
type Summary struct {
	Candidates int
	PerPath    map[exam.CareerPath]int
	Review     int
	Warnings   map[model.WarningKind]int
	MeanGrade  float64
	BestGrade  float64
	WorstGrade float64
	// Graded counts candidates that contributed to the grade figures.
	Graded int
}

// Summarize computes batch-level figures. Candidates flagged for review do
// not count toward grade figures.
func Summarize(batch *model.Batch) Summary {
	s := Summary{
		Candidates: len(batch.Results),
		PerPath:    map[exam.CareerPath]int{},
		Warnings:   batch.WarningCounts(),
	}
	var sum float64
	for _, r := range batch.Results {
		s.PerPath[r.Path]++
		if r.NeedsReview() {
			s.Review++
			continue
		}
		if s.Graded == 0 || r.Grade > s.BestGrade {
			s.BestGrade = r.Grade
		}
		if s.Graded == 0 || r.Grade < s.WorstGrade {
			s.WorstGrade = r.Grade
		}
		sum += r.Grade
		s.Graded++
	}
	if s.Graded > 0 {
		s.MeanGrade = math.Round(sum/float64(s.Graded)*100) / 100
	}
	return s
}

// GradeDistribution counts graded candidates per whole point of the 20-point
// scale. Bucket i holds grades in [i, i+1); a grade of 20 lands in the last
// bucket.
func GradeDistribution(results []model.CandidateResult) []float64 {
	buckets := make([]float64, 20)
	for _, r := range results {
		if r.NeedsReview() {
			continue
		}
		idx := int(math.Floor(r.Grade))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(buckets) {
			idx = len(buckets) - 1
		}
		buckets[idx]++
	}
	return buckets
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints batch totals, grade figures and warning counts.
func RenderSummary(w io.Writer, batch *model.Batch) error {
	if len(batch.Results) == 0 {
		_, err := fmt.Fprintln(w, "No candidates found.")
		return err
	}
	s := Summarize(batch)
	lines := []string{
		"Resumen",
		fmt.Sprintf("Postulantes: %d", s.Candidates),
	}
	for _, p := range exam.CareerPaths {
		lines = append(lines, fmt.Sprintf("  %s (%s): %d", p.DisplayName(), p, s.PerPath[p]))
	}
	if s.Graded > 0 {
		lines = append(lines,
			fmt.Sprintf("Nota promedio: %.2f", s.MeanGrade),
			fmt.Sprintf("Nota máxima: %.2f", s.BestGrade),
			fmt.Sprintf("Nota mínima: %.2f", s.WorstGrade),
			fmt.Sprintf("Distribución 0-20: [%s]", Sparkline(GradeDistribution(batch.Results))),
		)
	}
	lines = append(lines, fmt.Sprintf("Revisión manual: %d", s.Review))
	for _, kind := range []model.WarningKind{model.WarnMissingAnswerKey, model.WarnUnknownExamVariant, model.WarnShortAnswerSequence} {
		if n := s.Warnings[kind]; n > 0 {
			lines = append(lines, fmt.Sprintf("Avisos %s: %d", kind, n))
		}
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
