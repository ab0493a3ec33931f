package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/bg-batch/internal/entity"
	"github.com/joseph-ayodele/bg-batch/internal/repository"
)

const (
	summarySheet = "Summary"
	itemsSheet   = "Items"
)

// Service produces XLSX run reports, either from an in-memory run or from the ledger.
type Service struct {
	runs   repository.RunRepository // optional, only needed by ExportRunXLSX
	logger *slog.Logger
}

func NewService(runs repository.RunRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runs: runs, logger: logger}
}

// ExportRunXLSX loads a run and its items from the ledger and renders the report.
func (s *Service) ExportRunXLSX(ctx context.Context, runID uuid.UUID) ([]byte, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("export: no ledger configured")
	}
	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	items, err := s.runs.ListItems(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("query run items: %w", err)
	}
	return s.RunReportXLSX(*run, items)
}

// RunReportXLSX returns a workbook with a Summary sheet and one Items row per file,
// ordered by assigned number.
func (s *Service) RunReportXLSX(run entity.Run, items []entity.RunItem) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(summarySheet)
	f.SetActiveSheet(activeIndex)

	finished := ""
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	summary := [][2]any{
		{"Run ID", run.ID.String()},
		{"Status", run.Status},
		{"Started At", run.StartedAt.UTC().Format(time.RFC3339)},
		{"Finished At", finished},
		{"Input Directory", run.InputDir},
		{"Output Directory", run.OutputDir},
		{"Output Format", run.OutputFormat},
		{"Workers", run.Workers},
		{"Start Number", run.StartNumber},
		{"Total", run.Total},
		{"Succeeded", run.Succeeded},
		{"Failed", run.Failed},
	}
	for i, kv := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), kv[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), kv[1])
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 18)
	_ = f.SetColWidth(summarySheet, "B", "B", 48)

	headers := []string{
		"Number",
		"Source",
		"Destination",
		"Status",
		"Elapsed (s)",
		"Message",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(itemsSheet, cell, h)
	}

	sorted := make([]entity.RunItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	row := 2
	for _, it := range sorted {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(itemsSheet, cell, v)
		}
		errMsg := ""
		if it.ErrorMessage != nil {
			errMsg = *it.ErrorMessage
		}
		write(1, it.Number)
		write(2, it.SourceName)
		write(3, it.DestinationName)
		write(4, it.Status)
		write(5, float64(it.ElapsedMs)/1000)
		write(6, truncate(it.Message, 200))
		write(7, truncate(errMsg, 200))
		row++
	}

	_ = f.SetColWidth(itemsSheet, "A", "A", 10)
	_ = f.SetColWidth(itemsSheet, "B", "C", 28)
	_ = f.SetColWidth(itemsSheet, "D", "E", 12)
	_ = f.SetColWidth(itemsSheet, "F", "G", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"run_id", run.ID.String(),
		"rows", len(sorted),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
