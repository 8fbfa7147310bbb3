// Package main provides the CLI entrypoint for calificador.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/calificador/internal/config"
	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/scoring"
	"github.com/verte-zerg/calificador/internal/store"
)

const (
	defaultOutDir  = "output"
	defaultWorkers = 1
)

var (
	dbPath   string
	logLevel string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "calificador",
		Short:         "Admission exam grader",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "result store path (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newGradeCmd())
	rootCmd.AddCommand(newResultsCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newBatchesCmd())
	rootCmd.AddCommand(newStructureCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

// settings is the merged file and environment configuration.
type settings struct {
	file      config.FileConfig
	logger    *slog.Logger
	structure exam.Structure
	resolver  *exam.Resolver
	scale     scoring.Scale
}

// loadSettings reads .env files, the TOML config and CALIFICADOR_*
// overrides, then applies them to the persistent flags not set explicitly.
func loadSettings(cmd *cobra.Command) (*settings, error) {
	if err := config.LoadDotEnv(config.DefaultEnvPaths()...); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.ApplyEnv(&fileCfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Paths.DB)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	lvl, err := config.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))

	structure, err := fileCfg.ExamStructure()
	if err != nil {
		return nil, err
	}
	resolver, err := fileCfg.Resolver()
	if err != nil {
		return nil, err
	}
	return &settings{
		file:      fileCfg,
		logger:    logger,
		structure: structure,
		resolver:  resolver,
		scale:     scoring.NewScale(structure),
	}, nil
}

func openStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
