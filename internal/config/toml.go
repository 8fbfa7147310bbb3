// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/calificador/internal/exam"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Grading   GradingConfig   `toml:"grading"`
	Paths     PathsConfig     `toml:"paths"`
	Variants  VariantsConfig  `toml:"variants"`
	Log       LogConfig       `toml:"log"`
	Structure StructureConfig `toml:"structure"`
}

// GradingConfig maps batch settings.
type GradingConfig struct {
	Workers *int  `toml:"workers"`
	Limit   *int  `toml:"leaderboard-limit"`
	YAML    *bool `toml:"yaml"`
	NoStore *bool `toml:"no-store"`
}

// PathsConfig maps input and output locations.
type PathsConfig struct {
	Records     *string `toml:"records"`
	Keys        *string `toml:"keys"`
	Out         *string `toml:"out"`
	DB          *string `toml:"db"`
	MetricsFile *string `toml:"metrics-file"`
}

// VariantsConfig extends the variant table. Codes listed under a path are
// added to (or moved to) that path.
type VariantsConfig struct {
	A        []string `toml:"A"`
	B        []string `toml:"B"`
	C        []string `toml:"C"`
	Fallback *string  `toml:"fallback"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// StructureConfig replaces the default exam structure when sections are
// listed.
type StructureConfig struct {
	Sections []SectionConfig `toml:"section"`
}

// SectionConfig is one [[structure.section]] table.
type SectionConfig struct {
	Name  string `toml:"name"`
	Start int    `toml:"start"`
	End   int    `toml:"end"`
	A     *int   `toml:"A"`
	B     *int   `toml:"B"`
	C     *int   `toml:"C"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Resolver builds the variant resolver from the default table plus the
// configured extensions.
func (c FileConfig) Resolver() (*exam.Resolver, error) {
	table := exam.DefaultVariants()
	for _, ext := range []struct {
		path  exam.CareerPath
		codes []string
	}{
		{exam.PathA, c.Variants.A},
		{exam.PathB, c.Variants.B},
		{exam.PathC, c.Variants.C},
	} {
		for _, code := range ext.codes {
			v := exam.NormalizeVariant(code)
			if v == "" {
				return nil, fmt.Errorf("empty variant code under [variants] %s", ext.path)
			}
			table[v] = ext.path
		}
	}
	fallback := exam.PathB
	if c.Variants.Fallback != nil {
		p, err := exam.ParseCareerPath(*c.Variants.Fallback)
		if err != nil {
			return nil, fmt.Errorf("[variants] fallback: %w", err)
		}
		fallback = p
	}
	return exam.NewResolver(table, fallback), nil
}

// ExamStructure returns the configured structure, or the default one when no
// sections are listed. A configured structure must validate.
func (c FileConfig) ExamStructure() (exam.Structure, error) {
	if len(c.Structure.Sections) == 0 {
		return exam.DefaultStructure(), nil
	}
	s := exam.Structure{Sections: make([]exam.Section, 0, len(c.Structure.Sections))}
	for _, sc := range c.Structure.Sections {
		weights := map[exam.CareerPath]int{}
		for p, w := range map[exam.CareerPath]*int{exam.PathA: sc.A, exam.PathB: sc.B, exam.PathC: sc.C} {
			if w != nil {
				weights[p] = *w
			}
		}
		s.Sections = append(s.Sections, exam.Section{Name: sc.Name, Start: sc.Start, End: sc.End, Weights: weights})
	}
	if err := s.Validate(); err != nil {
		return exam.Structure{}, fmt.Errorf("[structure]: %w", err)
	}
	return s, nil
}

// ParseLevel parses debug, info, warn or error, with optional offsets such
// as "info+2".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// Template is written by `calificador config` when no file exists.
const Template = `# calificador configuration

[paths]
# records = "data/RESPUEST.DBF"
# keys = "data/CLAVES.DBF"
# out = "output"
# db = ""
# metrics-file = ""

[grading]
# workers = 4
# leaderboard-limit = 50
# yaml = false
# no-store = false

[variants]
# Extra exam variant codes per career path.
# B = ["P"]
# fallback = "B"

[log]
# level = "info"

# Override the exam structure. Sections must cover questions 0-99 in order.
# [[structure.section]]
# name = "Matemática"
# start = 0
# end = 19
# A = 2
# B = 2
# C = 6
`
