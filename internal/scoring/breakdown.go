// Package scoring converts candidate answers into weighted section and
// career-path scores and normalizes totals to the 20-point scale.
package scoring

import "github.com/verte-zerg/calificador/internal/exam"

// SectionScore is the tally for one section of one candidate.
type SectionScore struct {
	Name       string                      `json:"name" yaml:"name"`
	Correct    int                         `json:"correct" yaml:"correct"`
	Incorrect  int                         `json:"incorrect" yaml:"incorrect"`
	Unanswered int                         `json:"unanswered" yaml:"unanswered"`
	Adjusted   float64                     `json:"adjusted" yaml:"adjusted"`
	Weight     int                         `json:"weight" yaml:"weight"`
	Weighted   map[exam.CareerPath]float64 `json:"weighted" yaml:"weighted"`
}

// Score returns the section's weighted score for a path.
func (s SectionScore) Score(p exam.CareerPath) float64 {
	return s.Weighted[p]
}

// Breakdown is the full scoring output for one candidate.
type Breakdown struct {
	Path     exam.CareerPath             `json:"career_path" yaml:"career_path"`
	Sections []SectionScore              `json:"sections" yaml:"sections"`
	Totals   map[exam.CareerPath]float64 `json:"totals" yaml:"totals"`

	// Whole-exam tallies, reported alongside the per-path totals.
	TotalCorrect    int     `json:"total_correct" yaml:"total_correct"`
	TotalIncorrect  int     `json:"total_incorrect" yaml:"total_incorrect"`
	TotalUnanswered int     `json:"total_unanswered" yaml:"total_unanswered"`
	AdjustedTotal   float64 `json:"adjusted_total" yaml:"adjusted_total"`
}

// Total returns the weighted total for a path.
func (b Breakdown) Total(p exam.CareerPath) float64 {
	return b.Totals[p]
}

// AssignedTotal returns the total for the candidate's own path.
func (b Breakdown) AssignedTotal() float64 {
	return b.Totals[b.Path]
}

// Section returns the tally for a named section.
func (b Breakdown) Section(name string) (SectionScore, bool) {
	for _, s := range b.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return SectionScore{}, false
}

func zeroBreakdown(structure exam.Structure, path exam.CareerPath) Breakdown {
	b := Breakdown{
		Path:     path,
		Sections: make([]SectionScore, len(structure.Sections)),
		Totals:   zeroTotals(),
	}
	for i, sec := range structure.Sections {
		b.Sections[i] = SectionScore{
			Name:     sec.Name,
			Weight:   sec.Weight(path),
			Weighted: zeroTotals(),
		}
	}
	return b
}

func zeroTotals() map[exam.CareerPath]float64 {
	out := make(map[exam.CareerPath]float64, len(exam.CareerPaths))
	for _, p := range exam.CareerPaths {
		out[p] = 0
	}
	return out
}
