package scoring

import (
	"math"

	"github.com/verte-zerg/calificador/internal/exam"
)

// VigesimalOffset lifts the raw total before rescaling so that a zero raw
// total maps to a non-zero grade.
const VigesimalOffset = 45.0

// Vigesimal maps raw weighted totals onto the 0–20 grading scale:
//
//	grade = 20 * (raw + 45) / (maxRaw + 45)
//
// rounded to two decimals.
type Vigesimal struct {
	MaxRaw float64
	Offset float64
}

// NewVigesimal builds a normalizer for the given maximum raw total.
func NewVigesimal(maxRaw float64) Vigesimal {
	return Vigesimal{MaxRaw: maxRaw, Offset: VigesimalOffset}
}

// DefaultVigesimal derives the maximum raw total from the default structure.
func DefaultVigesimal() Vigesimal {
	return NewVigesimal(exam.DefaultStructure().MaxTotal(exam.PathA))
}

// Denominator returns maxRaw + offset.
func (v Vigesimal) Denominator() float64 {
	return v.MaxRaw + v.Offset
}

// ToScaleOf20 converts a raw total to the 20-point scale. The input is not
// clamped.
func (v Vigesimal) ToScaleOf20(raw float64) float64 {
	den := v.Denominator()
	if den == 0 {
		return 0
	}
	return round2(20 * (raw + v.Offset) / den)
}

// Scale holds one normalizer per career path, each built from that path's
// maximum total.
type Scale map[exam.CareerPath]Vigesimal

// NewScale derives the normalizer of every career path from a structure.
func NewScale(structure exam.Structure) Scale {
	s := make(Scale, len(exam.CareerPaths))
	for _, p := range exam.CareerPaths {
		s[p] = NewVigesimal(structure.MaxTotal(p))
	}
	return s
}

// DefaultScale derives the per-path normalizers of the default structure.
func DefaultScale() Scale {
	return NewScale(exam.DefaultStructure())
}

// For returns the normalizer of a career path.
func (s Scale) For(p exam.CareerPath) Vigesimal {
	return s[p]
}

// ToScaleOf20 converts a raw total of the given path to the 20-point scale.
func (s Scale) ToScaleOf20(p exam.CareerPath, raw float64) float64 {
	return s.For(p).ToScaleOf20(raw)
}

// Uniform returns the shared normalizer when every path has the same one.
func (s Scale) Uniform() (Vigesimal, bool) {
	first := s.For(exam.CareerPaths[0])
	for _, p := range exam.CareerPaths[1:] {
		if s.For(p) != first {
			return Vigesimal{}, false
		}
	}
	return first, true
}

// ToScaleOf20 converts a raw total with the default normalizer.
func ToScaleOf20(raw float64) float64 {
	return DefaultVigesimal().ToScaleOf20(raw)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
