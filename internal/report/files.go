package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/calificador/internal/model"
)

// Outputs selects and parameterizes the files written by WriteOutputs.
type Outputs struct {
	Dir         string
	YAML        bool
	Limit       int
	GeneratedAt time.Time
}

// WriteOutputs writes the summary CSV, detailed CSV, text report and, when
// requested, the YAML export into the output directory. It returns the
// written paths in that order.
func WriteOutputs(batch *model.Batch, out Outputs) ([]string, error) {
	if err := os.MkdirAll(out.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	generatedAt := out.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	type target struct {
		name  string
		write func(io.Writer) error
	}
	targets := []target{
		{SummaryCSVName, func(w io.Writer) error { return WriteSummaryCSV(w, batch.Results) }},
		{DetailedCSVName, func(w io.Writer) error { return WriteDetailedCSV(w, batch.Results, batch.Structure) }},
		{DocumentName(generatedAt), func(w io.Writer) error {
			return RenderDocument(w, batch, DocumentOptions{Limit: out.Limit, GeneratedAt: generatedAt})
		}},
	}
	if out.YAML {
		targets = append(targets, target{YAMLName, func(w io.Writer) error { return WriteYAML(w, batch) }})
	}

	paths := make([]string, 0, len(targets))
	for _, t := range targets {
		path := filepath.Join(out.Dir, t.name)
		if err := writeFile(path, t.write); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return write(file)
}
