package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/calificador/internal/exam"
)

func TestToScaleOf20(t *testing.T) {
	tests := []struct {
		raw  float64
		want float64
	}{
		{0, 2.22},
		{360, 20},
		{180, 11.11},
		{90, 6.67},
		{178, 11.01},
		{214, 12.79},
		{-45, 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ToScaleOf20(tc.raw), "raw %.2f", tc.raw)
	}
}

func TestDefaultVigesimalDerivesFromStructure(t *testing.T) {
	v := DefaultVigesimal()
	assert.Equal(t, exam.DefaultStructure().MaxTotal(exam.PathB), v.MaxRaw)
	assert.Equal(t, 405.0, v.Denominator())
}

func TestVigesimalCustomMax(t *testing.T) {
	v := NewVigesimal(600)
	assert.Equal(t, 20.0, v.ToScaleOf20(600))
	assert.Equal(t, 1.4, v.ToScaleOf20(0))
	assert.Equal(t, 0.0, Vigesimal{}.ToScaleOf20(10))
}

func TestScaleUsesEachPathMaximum(t *testing.T) {
	uneven := exam.Structure{Sections: []exam.Section{
		{Name: "Única", Start: 0, End: 99, Weights: map[exam.CareerPath]int{exam.PathA: 1, exam.PathB: 3, exam.PathC: 2}},
	}}
	scale := NewScale(uneven)
	assert.Equal(t, 100.0, scale.For(exam.PathA).MaxRaw)
	assert.Equal(t, 300.0, scale.For(exam.PathB).MaxRaw)
	assert.Equal(t, 200.0, scale.For(exam.PathC).MaxRaw)

	for _, p := range exam.CareerPaths {
		assert.Equal(t, 20.0, scale.ToScaleOf20(p, uneven.MaxTotal(p)), "perfect sheet on path %s", p)
	}
	assert.Equal(t, 2.61, scale.ToScaleOf20(exam.PathB, 0))

	_, ok := scale.Uniform()
	assert.False(t, ok)
}

func TestDefaultScaleIsUniform(t *testing.T) {
	v, ok := DefaultScale().Uniform()
	assert.True(t, ok)
	assert.Equal(t, DefaultVigesimal(), v)
}
