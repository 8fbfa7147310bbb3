package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
)

// Output file names written into the output directory.
const (
	SummaryCSVName  = "resultados.csv"
	DetailedCSVName = "resultados_detallados.csv"
	YAMLName        = "resultados.yaml"
)

// SummaryHeader is the column set of the summary CSV.
var SummaryHeader = []string{"codigo_estudiante", "dni_estudiante", "puntajes_correctos"}

// sectionColumns names the per-section columns of the default structure.
var sectionColumns = map[string]string{
	"Matemática":         "puntaje_matematica",
	"Ciencias Naturales": "puntaje_ciencias",
	"Humanidades":        "puntaje_humanidades",
	"Aptitud Académica":  "puntaje_aptitud",
}

// pathColumns names the per-path total columns.
var pathColumns = map[exam.CareerPath]string{
	exam.PathA: "puntaje_ciencias_carrera",
	exam.PathB: "puntaje_humanidades_carrera",
	exam.PathC: "puntaje_ingenieria_carrera",
}

// WriteSummaryCSV writes one row per candidate with the assigned-path total.
func WriteSummaryCSV(w io.Writer, results []model.CandidateResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write([]string{r.StudentCode, r.DNI, formatPoints(r.Total())}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DetailedHeader returns the detailed CSV columns for a structure.
func DetailedHeader(structure exam.Structure) []string {
	header := []string{"codigo_estudiante", "dni_estudiante", "tipo_examen", "carrera_asignada"}
	for _, sec := range structure.Sections {
		header = append(header, SectionColumn(sec.Name))
	}
	for _, p := range exam.CareerPaths {
		header = append(header, pathColumns[p])
	}
	return append(header, "area_postulada", "puntaje_total", "nota_20", "observacion")
}

// WriteDetailedCSV writes every candidate with section scores for the
// assigned path, totals for all paths and the 20-point grade. Candidates
// flagged for review keep zero scores, an empty grade and a note in
// observacion.
func WriteDetailedCSV(w io.Writer, results []model.CandidateResult, structure exam.Structure) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DetailedHeader(structure)); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{r.StudentCode, r.DNI, r.Variant, string(r.Path)}
		for _, sec := range structure.Sections {
			score, _ := r.Breakdown.Section(sec.Name)
			row = append(row, formatPoints(score.Score(r.Path)))
		}
		for _, p := range exam.CareerPaths {
			row = append(row, formatPoints(r.Breakdown.Total(p)))
		}
		grade := ""
		if !r.NeedsReview() {
			grade = formatGrade(r.Grade)
		}
		row = append(row, r.Path.DisplayName(), formatPoints(r.Total()), grade, Observation(r))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Observation describes the warnings of a result for the detailed export.
func Observation(r model.CandidateResult) string {
	notes := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		switch w.Kind {
		case model.WarnMissingAnswerKey:
			notes = append(notes, "sin clave para el tema "+r.Variant+", revisión manual")
		case model.WarnUnknownExamVariant:
			notes = append(notes, "tema desconocido, área asignada "+r.Path.DisplayName())
		case model.WarnShortAnswerSequence:
			notes = append(notes, "registro incompleto")
		default:
			notes = append(notes, w.Message)
		}
	}
	return strings.Join(notes, "; ")
}

// SectionColumn returns the detailed CSV column for a section name. Names
// outside the default table are folded to lower-case ASCII.
func SectionColumn(name string) string {
	if col, ok := sectionColumns[name]; ok {
		return col
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	fields := strings.FieldsFunc(strings.ToLower(folded), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return "puntaje_" + strings.Join(fields, "_")
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatGrade(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
