package records

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/verte-zerg/calificador/internal/exam"
)

// LoadAnswerKey reads answer keys from a .dbf/.csv table with TEMA and
// PREG_xxx columns, or from a key file with one variant per line.
func LoadAnswerKey(path string) (exam.AnswerKey, error) {
	var (
		key exam.AnswerKey
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dbf", ".csv":
		var table *Table
		table, err = OpenTable(path)
		if err == nil {
			key = AnswerKeyFromTable(table)
		}
	default:
		key, err = LoadKeyFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load answer keys %s: %w", path, err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("load answer keys %s: no answer keys found", path)
	}
	return key, nil
}

// AnswerKeyFromTable builds a key per TEMA row. Rows without a variant are
// skipped; a repeated variant keeps the last row.
func AnswerKeyFromTable(table *Table) exam.AnswerKey {
	key := exam.AnswerKey{}
	for _, row := range table.Rows {
		variant := exam.NormalizeVariant(row[ColumnVariant])
		if variant == "" {
			continue
		}
		seq, _ := extractAnswers(row)
		key[variant] = seq
	}
	return key
}

// LoadKeyFile reads lines of the form "<variant><answer><answer>...", where
// the first character is the variant code and each following character is
// the answer for the next position. A space, '-' or '_' leaves the position
// blank. Empty lines and lines starting with '#' are ignored.
func LoadKeyFile(path string) (exam.AnswerKey, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	key := exam.AnswerKey{}
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r, size := utf8.DecodeRuneInString(line)
		if r == utf8.RuneError || r == ' ' || r == '\t' {
			return nil, fmt.Errorf("line %d: missing variant code", lineNo)
		}
		if !isVariantCode(r) {
			return nil, fmt.Errorf("line %d: variant code %q must be an ASCII letter or digit", lineNo, r)
		}
		variant := exam.NormalizeVariant(string(r))
		key[variant] = parseKeyAnswers(line[size:])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return key, nil
}

// isVariantCode reports whether r can match a single-character TEMA value.
func isVariantCode(r rune) bool {
	return r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func parseKeyAnswers(s string) exam.AnswerSequence {
	values := make([]string, 0, exam.QuestionCount)
	for _, r := range s {
		switch r {
		case ' ', '-', '_':
			values = append(values, "")
		default:
			values = append(values, normalizeToken(string(r)))
		}
	}
	return exam.NewAnswerSequence(values)
}
