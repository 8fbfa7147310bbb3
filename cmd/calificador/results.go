package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
	"github.com/verte-zerg/calificador/internal/report"
	"github.com/verte-zerg/calificador/internal/resultsui"
)

var (
	resultsBatch string
	reportBatch  string
	reportOut    string
	reportYAML   bool
	reportLimit  int
	batchesLimit int
)

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Browse a stored batch",
		Args:  cobra.NoArgs,
		RunE:  runResultsCmd,
	}
	cmd.Flags().StringVar(&resultsBatch, "batch", "", "batch ID (default: latest)")
	return cmd
}

func runResultsCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadSettings(cmd); err != nil {
		return err
	}
	batch, err := loadStoredBatch(cmd.Context(), resultsBatch)
	if err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return report.RenderDocument(cmd.OutOrStdout(), batch, report.DocumentOptions{})
	}
	program := tea.NewProgram(resultsui.NewModel(batch), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run results TUI: %w", err)
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render output files for a stored batch",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVar(&reportBatch, "batch", "", "batch ID (default: latest)")
	cmd.Flags().StringVar(&reportOut, "out", defaultOutDir, "output directory")
	cmd.Flags().BoolVar(&reportYAML, "yaml", false, "also write a YAML detail export")
	cmd.Flags().IntVar(&reportLimit, "limit", report.DefaultLeaderboardLimit, "entries per career leaderboard")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "out", &reportOut, s.file.Paths.Out)
	applyBoolConfig(cmd, "yaml", &reportYAML, s.file.Grading.YAML)
	applyIntConfig(cmd, "limit", &reportLimit, s.file.Grading.Limit)

	batch, err := loadStoredBatch(cmd.Context(), reportBatch)
	if err != nil {
		return err
	}
	paths, err := report.WriteOutputs(batch, report.Outputs{
		Dir:         reportOut,
		YAML:        reportYAML,
		Limit:       reportLimit,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	for _, p := range paths {
		logErrf("Wrote %s\n", p)
	}
	return nil
}

func newBatchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List stored batches",
		Args:  cobra.NoArgs,
		RunE:  runBatchesCmd,
	}
	cmd.Flags().IntVar(&batchesLimit, "last", 20, "number of batches to list (0 for all)")
	return cmd
}

func runBatchesCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadSettings(cmd); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	batches, err := st.ListBatches(cmd.Context(), batchesLimit)
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}
	if len(batches) == 0 {
		logErrf("No batches stored. Grade one with: calificador grade --records <file> --keys <file>\n")
		return nil
	}
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Lote", "Fecha", "Registros", "Claves", "Postulantes", "Avisos"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, b := range batches {
		table.Append([]string{
			b.ID,
			b.CreatedAt.Local().Format("2006-01-02 15:04"),
			b.RecordsPath,
			b.KeysPath,
			strconv.Itoa(b.Candidates),
			strconv.Itoa(b.Warnings),
		})
	}
	table.Render()
	return nil
}

func newStructureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "structure",
		Short: "Print the exam structure, weights and variant table",
		Args:  cobra.NoArgs,
		RunE:  runStructureCmd,
	}
}

func runStructureCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := report.RenderFormulas(out, s.structure, s.scale); err != nil {
		return err
	}
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Área", "Carrera", "Temas", "Puntaje máximo"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, p := range exam.CareerPaths {
		variants := s.resolver.Variants(p)
		label := fmt.Sprintf("%v", variants)
		if p == s.resolver.Fallback() {
			label += " + desconocidos"
		}
		table.Append([]string{string(p), p.DisplayName(), label, strconv.FormatFloat(s.structure.MaxTotal(p), 'f', -1, 64)})
	}
	table.Render()
	return nil
}

func loadStoredBatch(ctx context.Context, id string) (*model.Batch, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer closeStore(st)
	if id == "" {
		batch, err := st.LatestBatch(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load latest batch: %w", err)
		}
		return batch, nil
	}
	batch, err := st.LoadBatch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	return batch, nil
}
