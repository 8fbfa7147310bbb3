package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStructureIsValid(t *testing.T) {
	s := DefaultStructure()
	require.NoError(t, s.Validate())
	assert.Equal(t, []string{"Matemática", "Ciencias Naturales", "Humanidades", "Aptitud Académica"}, s.SectionNames())
	for _, p := range CareerPaths {
		assert.Equal(t, 360.0, s.MaxTotal(p), "max total for %s", p)
	}
}

func TestStructureValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Structure)
	}{
		{"gap", func(s *Structure) { s.Sections[1].Start = 21 }},
		{"short coverage", func(s *Structure) { s.Sections = s.Sections[:3] }},
		{"missing weight", func(s *Structure) { delete(s.Sections[2].Weights, PathC) }},
		{"negative weight", func(s *Structure) { s.Sections[0].Weights[PathA] = -1 }},
		{"duplicate name", func(s *Structure) { s.Sections[1].Name = s.Sections[0].Name }},
		{"inverted range", func(s *Structure) { s.Sections[0].End = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultStructure()
			tc.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
	assert.Error(t, Structure{}.Validate())
}

func TestResolver(t *testing.T) {
	r := DefaultResolver()
	cases := map[string]CareerPath{"M": PathA, "N": PathA, "O": PathB, "X": PathB, "Y": PathC, "Z": PathC, " z ": PathC}
	for variant, want := range cases {
		got, ok := r.Resolve(variant)
		assert.True(t, ok, "variant %q", variant)
		assert.Equal(t, want, got, "variant %q", variant)
	}

	got, ok := r.Resolve("??")
	assert.False(t, ok)
	assert.Equal(t, PathB, got)

	got, ok = r.Resolve("")
	assert.False(t, ok)
	assert.Equal(t, PathB, got)
}

func TestResolverExtendedTable(t *testing.T) {
	table := DefaultVariants()
	table["p"] = PathB
	r := NewResolver(table, PathB)
	table["Q"] = PathA

	got, ok := r.Resolve("P")
	assert.True(t, ok)
	assert.Equal(t, PathB, got)
	_, ok = r.Resolve("Q")
	assert.False(t, ok, "resolver must not see later edits to the source table")
	assert.Equal(t, []string{"O", "P", "X"}, r.Variants(PathB))
}

func TestNewAnswerSequencePadsAndTruncates(t *testing.T) {
	short := NewAnswerSequence([]string{"A", "", "C"})
	assert.Equal(t, "A", short[0])
	assert.Equal(t, "C", short[2])
	assert.Equal(t, "", short[QuestionCount-1])
	assert.Equal(t, 2, short.Answered())

	long := make([]string, QuestionCount+5)
	for i := range long {
		long[i] = "B"
	}
	full := NewAnswerSequence(long)
	assert.Equal(t, QuestionCount, full.Answered())

	assert.True(t, NewAnswerSequence(nil).IsEmpty())
	assert.False(t, short.IsEmpty())
}

func TestAnswerKeyLookup(t *testing.T) {
	key := AnswerKey{"M": NewAnswerSequence([]string{"A"}), "Y": {}}
	seq, ok := key.Lookup(" m")
	require.True(t, ok)
	assert.Equal(t, "A", seq[0])
	_, ok = key.Lookup("Q")
	assert.False(t, ok)
	assert.Equal(t, []string{"M", "Y"}, key.Variants())
}

func TestParseCareerPath(t *testing.T) {
	p, err := ParseCareerPath(" c")
	require.NoError(t, err)
	assert.Equal(t, PathC, p)
	assert.Equal(t, "Ingeniería", p.DisplayName())
	_, err = ParseCareerPath("D")
	assert.Error(t, err)
}
