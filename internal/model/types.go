// Package model defines shared data structures.
package model

import (
	"time"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/scoring"
)

// Candidate is one answer-sheet record as loaded from the source table.
type Candidate struct {
	Seq         int
	StudentCode string
	DNI         string
	Variant     string
	Answers     exam.AnswerSequence
	// Fields is the number of answer columns the source record carried.
	Fields int
}

// WarningKind classifies a per-candidate anomaly.
type WarningKind string

const (
	WarnMissingAnswerKey    WarningKind = "missing_answer_key"
	WarnUnknownExamVariant  WarningKind = "unknown_exam_variant"
	WarnShortAnswerSequence WarningKind = "short_answer_sequence"
)

// Warning is a recoverable anomaly recorded while grading a candidate.
type Warning struct {
	Seq         int         `json:"seq" yaml:"seq"`
	StudentCode string      `json:"student_code" yaml:"student_code"`
	Kind        WarningKind `json:"kind" yaml:"kind"`
	Message     string      `json:"message" yaml:"message"`
}

// CandidateResult is the graded outcome for one candidate.
type CandidateResult struct {
	Seq         int               `json:"seq" yaml:"seq"`
	StudentCode string            `json:"student_code" yaml:"student_code"`
	DNI         string            `json:"dni,omitempty" yaml:"dni,omitempty"`
	Variant     string            `json:"variant" yaml:"variant"`
	Path        exam.CareerPath   `json:"career_path" yaml:"career_path"`
	MissingKey  bool              `json:"missing_key" yaml:"missing_key"`
	Breakdown   scoring.Breakdown `json:"breakdown" yaml:"breakdown"`
	Grade       float64           `json:"grade" yaml:"grade"`
	Warnings    []Warning         `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Structure and Scale are the layout and normalizers the batch was
	// graded with. Reports render from these, not from the current config.
	Structure exam.Structure `json:"-" yaml:"-"`
	Scale     scoring.Scale  `json:"-" yaml:"-"`
}

// Total returns the weighted total for the candidate's assigned path.
func (r CandidateResult) Total() float64 {
	return r.Breakdown.Total(r.Path)
}

// DisplayID returns the DNI when known, otherwise the student code.
func (r CandidateResult) DisplayID() string {
	if r.DNI != "" {
		return r.DNI
	}
	return r.StudentCode
}

// NeedsReview reports whether the result must be checked by hand.
func (r CandidateResult) NeedsReview() bool {
	return r.MissingKey
}

// Batch is one grading run over a record table.
type Batch struct {
	ID          string            `json:"id" yaml:"id"`
	CreatedAt   time.Time         `json:"created_at" yaml:"created_at"`
	RecordsPath string            `json:"records_path" yaml:"records_path"`
	KeysPath    string            `json:"keys_path" yaml:"keys_path"`
	Duration    time.Duration     `json:"duration" yaml:"duration"`
	Results     []CandidateResult `json:"results" yaml:"results"`
	Warnings    []Warning         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// BatchSummary is a stored batch without its per-candidate rows.
type BatchSummary struct {
	ID          string
	CreatedAt   time.Time
	RecordsPath string
	KeysPath    string
	Candidates  int
	Warnings    int
}

// WarningCounts tallies batch warnings by kind.
func (b *Batch) WarningCounts() map[WarningKind]int {
	out := map[WarningKind]int{}
	for _, w := range b.Warnings {
		out[w.Kind]++
	}
	return out
}
