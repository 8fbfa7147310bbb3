// Package exam defines the admission exam layout: answer sequences, career
// paths, the section structure and the variant resolver.
package exam

import (
	"sort"
	"strings"
)

// QuestionCount is the number of question positions on every exam variant.
const QuestionCount = 100

// AnswerSequence holds one answer token per question position.
// An empty string marks the position as unanswered.
type AnswerSequence [QuestionCount]string

// AnswerKey maps an exam variant code to its correct answers.
type AnswerKey map[string]AnswerSequence

// NewAnswerSequence copies values into a fixed-length sequence. Missing
// trailing positions stay unanswered and extra values are dropped.
func NewAnswerSequence(values []string) AnswerSequence {
	var seq AnswerSequence
	for i := 0; i < len(values) && i < QuestionCount; i++ {
		seq[i] = values[i]
	}
	return seq
}

// IsEmpty reports whether no position holds an answer.
func (s AnswerSequence) IsEmpty() bool {
	for _, v := range s {
		if v != "" {
			return false
		}
	}
	return true
}

// Answered returns the number of non-empty positions.
func (s AnswerSequence) Answered() int {
	n := 0
	for _, v := range s {
		if v != "" {
			n++
		}
	}
	return n
}

// Lookup returns the key for a variant. Variant codes are matched after
// trimming and upper-casing.
func (k AnswerKey) Lookup(variant string) (AnswerSequence, bool) {
	seq, ok := k[NormalizeVariant(variant)]
	return seq, ok
}

// Variants returns the variant codes present in the key.
func (k AnswerKey) Variants() []string {
	out := make([]string, 0, len(k))
	for v := range k {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// NormalizeVariant canonicalizes an exam variant code.
func NormalizeVariant(variant string) string {
	return strings.ToUpper(strings.TrimSpace(variant))
}
