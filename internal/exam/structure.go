package exam

import "fmt"

// Section is a contiguous, inclusive range of question positions with a
// weight per career path.
type Section struct {
	Name    string
	Start   int
	End     int
	Weights map[CareerPath]int
}

// Len returns the number of questions in the section.
func (s Section) Len() int {
	return s.End - s.Start + 1
}

// Weight returns the section weight for a path.
func (s Section) Weight(p CareerPath) int {
	return s.Weights[p]
}

// Structure is the ordered partition of the exam into sections.
type Structure struct {
	Sections []Section
}

// DefaultStructure returns the four-section admission exam layout.
func DefaultStructure() Structure {
	return Structure{Sections: []Section{
		{Name: "Matemática", Start: 0, End: 19, Weights: map[CareerPath]int{PathA: 2, PathB: 2, PathC: 6}},
		{Name: "Ciencias Naturales", Start: 20, End: 39, Weights: map[CareerPath]int{PathA: 6, PathB: 2, PathC: 2}},
		{Name: "Humanidades", Start: 40, End: 59, Weights: map[CareerPath]int{PathA: 2, PathB: 6, PathC: 2}},
		{Name: "Aptitud Académica", Start: 60, End: 99, Weights: map[CareerPath]int{PathA: 4, PathB: 4, PathC: 4}},
	}}
}

// Validate checks that sections partition [0, QuestionCount) in order and
// that each one carries a weight for every career path.
func (s Structure) Validate() error {
	if len(s.Sections) == 0 {
		return fmt.Errorf("exam structure has no sections")
	}
	next := 0
	seen := make(map[string]bool, len(s.Sections))
	for _, sec := range s.Sections {
		if sec.Name == "" {
			return fmt.Errorf("section starting at %d has no name", sec.Start)
		}
		if seen[sec.Name] {
			return fmt.Errorf("duplicate section %q", sec.Name)
		}
		seen[sec.Name] = true
		if sec.Start != next {
			return fmt.Errorf("section %q starts at %d, expected %d", sec.Name, sec.Start, next)
		}
		if sec.End < sec.Start {
			return fmt.Errorf("section %q ends before it starts", sec.Name)
		}
		for _, p := range CareerPaths {
			w, ok := sec.Weights[p]
			if !ok {
				return fmt.Errorf("section %q has no weight for path %s", sec.Name, p)
			}
			if w < 0 {
				return fmt.Errorf("section %q has negative weight for path %s", sec.Name, p)
			}
		}
		next = sec.End + 1
	}
	if next != QuestionCount {
		return fmt.Errorf("sections cover %d questions, expected %d", next, QuestionCount)
	}
	return nil
}

// MaxTotal is the highest weighted total attainable for a path: every
// question correct in every section.
func (s Structure) MaxTotal(p CareerPath) float64 {
	total := 0
	for _, sec := range s.Sections {
		total += sec.Len() * sec.Weight(p)
	}
	return float64(total)
}

// SectionNames returns section names in order.
func (s Structure) SectionNames() []string {
	names := make([]string, len(s.Sections))
	for i, sec := range s.Sections {
		names[i] = sec.Name
	}
	return names
}
