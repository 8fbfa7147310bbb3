package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CALIFICADOR_"

// LoadDotEnv loads .env files into the process environment. Missing files
// are skipped and variables already set are kept.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides file values with CALIFICADOR_* variables read through
// lookup. Flags still take precedence over both.
func ApplyEnv(cfg *FileConfig, lookup func(string) (string, bool)) error {
	strs := map[string]**string{
		"RECORDS":      &cfg.Paths.Records,
		"KEYS":         &cfg.Paths.Keys,
		"OUT":          &cfg.Paths.Out,
		"DB":           &cfg.Paths.DB,
		"METRICS_FILE": &cfg.Paths.MetricsFile,
		"LOG_LEVEL":    &cfg.Log.Level,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			v = strings.TrimSpace(v)
			*dst = &v
		}
	}

	ints := map[string]**int{
		"WORKERS":           &cfg.Grading.Workers,
		"LEADERBOARD_LIMIT": &cfg.Grading.Limit,
	}
	for name, dst := range ints {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = &n
	}

	bools := map[string]**bool{
		"YAML":     &cfg.Grading.YAML,
		"NO_STORE": &cfg.Grading.NoStore,
	}
	for name, dst := range bools {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = &b
	}
	return nil
}
