package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bg-batch/constants"
	"github.com/joseph-ayodele/bg-batch/internal/common"
	"github.com/joseph-ayodele/bg-batch/internal/entity"
	"github.com/joseph-ayodele/bg-batch/internal/export"
	"github.com/joseph-ayodele/bg-batch/internal/ingest"
	"github.com/joseph-ayodele/bg-batch/internal/repository"
)

// Service drives one batch run end to end: discovery, numbering, dispatch,
// console progress, and the optional ledger and report.
type Service struct {
	cfg      common.Config
	proc     TaskProcessor
	ledger   repository.RunRepository // nil disables the ledger
	exporter *export.Service          // nil disables the report
	out      io.Writer
	logger   *slog.Logger
}

func NewService(cfg common.Config, proc TaskProcessor, ledger repository.RunRepository, exporter *export.Service, out io.Writer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Service{
		cfg:      cfg,
		proc:     proc,
		ledger:   ledger,
		exporter: exporter,
		out:      out,
		logger:   logger,
	}
}

// Run processes everything currently in the input directory. Item failures are
// counted in the summary; only start-up problems and a failed report are errors.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	files, err := ingest.DiscoverInputs(s.cfg.InputDir, nil)
	if err != nil {
		return Summary{}, common.NewAppError("INPUT_ERROR", "failed to list input directory", err)
	}
	if len(files) == 0 {
		fmt.Fprintf(s.out, "No images found in %s\n", s.cfg.InputDir)
		return Summary{}, nil
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return Summary{}, common.NewAppError("OUTPUT_ERROR", "failed to create output directory", err)
	}

	runID := uuid.New()
	ctx = common.WithRunID(ctx, runID.String())
	logger := s.logger.With("run_id", runID.String())

	if s.cfg.RunLock {
		release, err := AcquireRunLock(s.cfg.OutputDir, runID.String())
		if err != nil {
			return Summary{}, err
		}
		defer func() {
			if err := release(); err != nil {
				logger.Warn("failed to release run lock", "error", err)
			}
		}()
	}

	start := ingest.ComputeStartNumber(s.cfg.OutputDir)
	fmt.Fprintf(s.out, "Processing %d images with %d workers...\n", len(files), s.cfg.Workers)
	logger.Info("run.start",
		"input_dir", s.cfg.InputDir,
		"output_dir", s.cfg.OutputDir,
		"files", len(files),
		"workers", s.cfg.Workers,
		"start_number", start,
		"format", string(s.cfg.Format),
	)

	run := entity.Run{
		ID:           runID,
		StartedAt:    time.Now().UTC(),
		InputDir:     s.cfg.InputDir,
		OutputDir:    s.cfg.OutputDir,
		OutputFormat: string(s.cfg.Format),
		Workers:      s.cfg.Workers,
		StartNumber:  start,
		Status:       string(constants.RunStatusRunning),
	}
	ledgerOn := s.ledger != nil
	if ledgerOn {
		if err := s.ledger.Start(ctx, run); err != nil {
			logger.Error("ledger.start failed, continuing without ledger", "error", err)
			ledgerOn = false
		}
	}

	items := make([]entity.RunItem, 0, len(files))
	report := func(res Result) {
		fmt.Fprintln(s.out, res.Message)
		item := res.Item(runID, time.Now().UTC())
		items = append(items, item)
		if ledgerOn {
			if err := s.ledger.RecordItem(ctx, item); err != nil {
				logger.Error("ledger.record failed", "number", item.Number, "error", err)
			}
		}
	}

	summary := NewDispatcher(s.proc, s.cfg.Workers, logger).RunBatch(ctx, files, start, report)
	fmt.Fprintf(s.out, "\nDone: %d/%d processed\n", summary.Succeeded, summary.Total)

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.Total = summary.Total
	run.Succeeded = summary.Succeeded
	run.Failed = summary.Failed
	run.Status = string(constants.RunStatusCompleted)

	if ledgerOn {
		if err := s.ledger.Finish(ctx, runID, summary.Total, summary.Succeeded, summary.Failed, finished); err != nil {
			logger.Error("ledger.finish failed", "error", err)
		}
	}

	logger.Info("run.done",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"total", summary.Total,
		"elapsed_ms", summary.Elapsed.Milliseconds(),
	)

	if s.cfg.ReportPath != "" && s.exporter != nil {
		if err := s.writeReport(run, items); err != nil {
			logger.Error("report.failed", "path", s.cfg.ReportPath, "error", err)
			return summary, common.NewAppError("REPORT_ERROR", "failed to write run report", err)
		}
		logger.Info("report.written", "path", s.cfg.ReportPath)
	}
	return summary, nil
}

func (s *Service) writeReport(run entity.Run, items []entity.RunItem) error {
	data, err := s.exporter.RunReportXLSX(run, items)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.cfg.ReportPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.cfg.ReportPath, data, 0o644)
}
