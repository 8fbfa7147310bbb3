package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/calificador/internal/grader"
	"github.com/verte-zerg/calificador/internal/metrics"
	"github.com/verte-zerg/calificador/internal/report"
	"github.com/verte-zerg/calificador/internal/scoring"
)

var (
	gradeRecords     string
	gradeKeys        string
	gradeOut         string
	gradeWorkers     int
	gradeNoStore     bool
	gradeYAML        bool
	gradeMetricsFile string
	gradeLimit       int
)

func newGradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a batch of answer sheets",
		Args:  cobra.NoArgs,
		RunE:  runGradeCmd,
	}
	cmd.Flags().StringVar(&gradeRecords, "records", "", "answer-sheet table (.dbf or .csv)")
	cmd.Flags().StringVar(&gradeKeys, "keys", "", "answer keys (.dbf, .csv or keys.txt)")
	cmd.Flags().StringVar(&gradeOut, "out", defaultOutDir, "output directory")
	cmd.Flags().IntVar(&gradeWorkers, "workers", defaultWorkers, "candidates scored concurrently")
	cmd.Flags().BoolVar(&gradeNoStore, "no-store", false, "do not save the batch to the result store")
	cmd.Flags().BoolVar(&gradeYAML, "yaml", false, "also write a YAML detail export")
	cmd.Flags().StringVar(&gradeMetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	cmd.Flags().IntVar(&gradeLimit, "limit", report.DefaultLeaderboardLimit, "entries per career leaderboard in the report")
	return cmd
}

func runGradeCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	f := s.file
	applyStringConfig(cmd, "records", &gradeRecords, f.Paths.Records)
	applyStringConfig(cmd, "keys", &gradeKeys, f.Paths.Keys)
	applyStringConfig(cmd, "out", &gradeOut, f.Paths.Out)
	applyStringConfig(cmd, "metrics-file", &gradeMetricsFile, f.Paths.MetricsFile)
	applyIntConfig(cmd, "workers", &gradeWorkers, f.Grading.Workers)
	applyIntConfig(cmd, "limit", &gradeLimit, f.Grading.Limit)
	applyBoolConfig(cmd, "yaml", &gradeYAML, f.Grading.YAML)
	applyBoolConfig(cmd, "no-store", &gradeNoStore, f.Grading.NoStore)

	if gradeRecords == "" {
		return fmt.Errorf("--records is required")
	}
	if gradeKeys == "" {
		return fmt.Errorf("--keys is required")
	}
	if gradeWorkers < 1 {
		return fmt.Errorf("--workers must be >= 1")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine, err := scoring.NewEngine(s.structure, s.logger)
	if err != nil {
		return err
	}
	g := grader.New(engine, s.resolver, s.logger, grader.WithWorkers(gradeWorkers))
	batch, err := g.Run(ctx, grader.Source{RecordsPath: gradeRecords, KeysPath: gradeKeys})
	if err != nil {
		return err
	}

	if !gradeNoStore {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(st)
		if err := st.InsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to save batch: %w", err)
		}
		s.logger.Info("saved batch", "batch", batch.ID)
	}

	paths, err := report.WriteOutputs(batch, report.Outputs{
		Dir:         gradeOut,
		YAML:        gradeYAML,
		Limit:       gradeLimit,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	for _, p := range paths {
		logErrf("Wrote %s\n", p)
	}

	if gradeMetricsFile != "" {
		rec := metrics.New()
		rec.Observe(batch)
		if err := rec.WriteTextfile(gradeMetricsFile); err != nil {
			return err
		}
	}

	report.RenderConsoleTable(cmd.OutOrStdout(), batch.Results)
	if review := report.ReviewList(batch.Results); len(review) > 0 {
		logErrf("%d candidate(s) need manual review, see %s\n", len(review), report.DetailedCSVName)
	}
	return nil
}
