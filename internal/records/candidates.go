package records

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
)

// Column names used by the answer-sheet and key tables.
const (
	ColumnStudentCode = "LITHO"
	ColumnDNI         = "DNI"
	ColumnVariant     = "TEMA"
)

// answerColumns holds PREG_001..PREG_100 by position.
var answerColumns = func() [exam.QuestionCount]string {
	var cols [exam.QuestionCount]string
	for i := range cols {
		cols[i] = fmt.Sprintf("PREG_%03d", i+1)
	}
	return cols
}()

// AnswerColumn returns the column name for a 0-based question position.
func AnswerColumn(pos int) string {
	return answerColumns[pos]
}

// OpenTable reads a .dbf or .csv table depending on the file extension.
func OpenTable(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dbf":
		return OpenDBF(path)
	case ".csv":
		return OpenCSV(path)
	default:
		return nil, fmt.Errorf("unsupported table format %q", filepath.Ext(path))
	}
}

// LoadCandidates reads every answer sheet from a record table.
func LoadCandidates(path string) ([]model.Candidate, error) {
	table, err := OpenTable(path)
	if err != nil {
		return nil, fmt.Errorf("load records %s: %w", path, err)
	}
	return CandidatesFromTable(table), nil
}

// CandidatesFromTable converts table rows to candidates. Rows without a
// student code get a zero-padded 1-based row number.
func CandidatesFromTable(table *Table) []model.Candidate {
	out := make([]model.Candidate, 0, len(table.Rows))
	for i, row := range table.Rows {
		code := row[ColumnStudentCode]
		if code == "" {
			code = fmt.Sprintf("%06d", i+1)
		}
		answers, fields := extractAnswers(row)
		out = append(out, model.Candidate{
			Seq:         i + 1,
			StudentCode: code,
			DNI:         row[ColumnDNI],
			Variant:     exam.NormalizeVariant(row[ColumnVariant]),
			Answers:     answers,
			Fields:      fields,
		})
	}
	return out
}

// extractAnswers returns the answer sequence of a row and how many answer
// columns the row actually carried.
func extractAnswers(row map[string]string) (exam.AnswerSequence, int) {
	var seq exam.AnswerSequence
	fields := 0
	for i, col := range answerColumns {
		v, ok := row[col]
		if !ok {
			continue
		}
		fields++
		seq[i] = normalizeToken(v)
	}
	return seq, fields
}

func normalizeToken(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}
