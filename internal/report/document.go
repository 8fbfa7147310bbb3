package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
	"github.com/verte-zerg/calificador/internal/scoring"
)

// DocumentOptions controls the text report.
type DocumentOptions struct {
	// Limit caps each per-career leaderboard. Zero uses DefaultLeaderboardLimit.
	Limit       int
	GeneratedAt time.Time
}

// DocumentName returns the report file name for a generation time.
func DocumentName(at time.Time) string {
	return "resultados_" + at.Format("20060102_150405") + ".txt"
}

// RenderDocument writes the full plain-text results report: scoring formula,
// weight table, vigesimal formula, per-career leaderboards, the manual
// review list and the batch summary. Weights and the conversion come from
// the structure and scale the batch was graded with.
func RenderDocument(w io.Writer, batch *model.Batch, opts DocumentOptions) error {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	generatedAt := opts.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	p := &printer{w: w}
	p.line("Resultados de la Evaluación")
	p.line("===========================")
	p.line("")
	if p.err != nil {
		return p.err
	}
	if err := RenderFormulas(w, batch.Structure, batch.Scale); err != nil {
		return err
	}

	for _, path := range exam.CareerPaths {
		ranked := Leaderboard(batch.Results, path, limit)
		if len(ranked) == 0 {
			continue
		}
		p.line("Resultados para %s", path.DisplayName())
		p.line("")
		p.lines(leaderboardLines(ranked))
		if total := len(Leaderboard(batch.Results, path, 0)); total > len(ranked) {
			p.line("(%d de %d postulantes)", len(ranked), total)
		}
		p.line("")
	}

	if review := ReviewList(batch.Results); len(review) > 0 {
		p.line("Revisión manual")
		p.line("")
		rows := make([][]string, 0, len(review))
		for _, r := range review {
			rows = append(rows, []string{r.StudentCode, r.DisplayID(), r.Variant, Observation(r)})
		}
		p.lines(formatTable([]string{"Código", "DNI", "Tema", "Observación"}, rows, nil, true))
		p.line("")
	}
	if p.err != nil {
		return p.err
	}

	if err := RenderSummary(w, batch); err != nil {
		return err
	}
	p.line("Generado el %s", generatedAt.Format("02/01/2006 15:04:05"))
	return p.err
}

// RenderFormulas writes the scoring formula, the weight table with its
// totals row and the vigesimal conversion. Paths with different maximum
// totals get one conversion line each.
func RenderFormulas(w io.Writer, structure exam.Structure, scale scoring.Scale) error {
	p := &printer{w: w}
	p.line("Fórmula de puntuación:")
	p.line("  Puntaje = Ponderación × [Nº Respuestas Buenas - 1/4 (Nº Resp. Malas)]")
	p.line("")
	p.line("Ponderación por Área Profesional:")
	p.lines(WeightLines(structure))
	p.line("")
	p.line("Fórmula de conversión a escala vigesimal:")
	if v, ok := scale.Uniform(); ok {
		p.line("  Nota(20) = %s", conversion(v))
	} else {
		for _, path := range exam.CareerPaths {
			p.line("  %s: Nota(20) = %s", path.DisplayName(), conversion(scale.For(path)))
		}
	}
	p.line("")
	return p.err
}

func conversion(v scoring.Vigesimal) string {
	return fmt.Sprintf("[20 × (Puntaje Total del Área + %s)] / (%s + %s)",
		formatPoints(v.Offset), formatPoints(v.MaxRaw), formatPoints(v.Offset))
}

// WeightLines renders the structure as a table of sections, question counts
// and per-path weights, closed by a TOTAL row of maximum totals.
func WeightLines(structure exam.Structure) []string {
	headers := []string{"Unidades Académicas", "Preguntas"}
	for _, path := range exam.CareerPaths {
		headers = append(headers, string(path))
	}
	rows := make([][]string, 0, len(structure.Sections)+1)
	questions := 0
	for _, sec := range structure.Sections {
		row := []string{sec.Name, strconv.Itoa(sec.Len())}
		for _, path := range exam.CareerPaths {
			row = append(row, strconv.Itoa(sec.Weight(path)))
		}
		rows = append(rows, row)
		questions += sec.Len()
	}
	total := []string{"TOTAL", strconv.Itoa(questions)}
	for _, path := range exam.CareerPaths {
		total = append(total, formatPoints(structure.MaxTotal(path)))
	}
	rows = append(rows, total)
	return formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}, true)
}

func leaderboardLines(ranked []model.CandidateResult) []string {
	rows := make([][]string, 0, len(ranked))
	for i, r := range ranked {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.DisplayID(),
			formatPoints(r.Total()),
			formatGrade(r.Grade),
		})
	}
	return formatTable([]string{"#", "DNI", "Puntaje", "Nota (20)"}, rows, map[int]bool{0: true, 2: true, 3: true}, true)
}

// printer writes lines and keeps the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	if len(args) == 0 {
		_, p.err = fmt.Fprintln(p.w, format)
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) lines(ls []string) {
	for _, l := range ls {
		p.line("%s", l)
	}
}
