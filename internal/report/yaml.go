package report

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
)

type yamlNormalization struct {
	CareerPath  exam.CareerPath `yaml:"career_path"`
	MaxTotal    float64         `yaml:"max_total"`
	Offset      float64         `yaml:"offset"`
	Denominator float64         `yaml:"denominator"`
}

type yamlSection struct {
	Name    string                  `yaml:"name"`
	Start   int                     `yaml:"start"`
	End     int                     `yaml:"end"`
	Weights map[exam.CareerPath]int `yaml:"weights"`
}

type yamlDocument struct {
	Structure     []yamlSection       `yaml:"structure"`
	Normalization []yamlNormalization `yaml:"normalization"`
	Batch         *model.Batch        `yaml:"batch"`
}

// WriteYAML exports the full batch detail, including section tallies and
// warnings, with the structure and per-path normalization used for the
// grades.
func WriteYAML(w io.Writer, batch *model.Batch) error {
	doc := yamlDocument{Batch: batch}
	for _, sec := range batch.Structure.Sections {
		doc.Structure = append(doc.Structure, yamlSection{Name: sec.Name, Start: sec.Start, End: sec.End, Weights: sec.Weights})
	}
	for _, p := range exam.CareerPaths {
		v := batch.Scale.For(p)
		doc.Normalization = append(doc.Normalization, yamlNormalization{
			CareerPath:  p,
			MaxTotal:    v.MaxRaw,
			Offset:      v.Offset,
			Denominator: v.Denominator(),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
