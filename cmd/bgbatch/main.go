package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joseph-ayodele/bg-batch/internal/common"
	"github.com/joseph-ayodele/bg-batch/internal/core"
	"github.com/joseph-ayodele/bg-batch/internal/export"
	"github.com/joseph-ayodele/bg-batch/internal/rembg"
	repo "github.com/joseph-ayodele/bg-batch/internal/repository"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code: 1 for anything that stops the batch from
// starting (or a failed report), 0 otherwise, whatever the per-image outcome.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := common.LoadConfig()
	if err := parseFlags(args, cfg, stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := common.NewLogger(stderr, cfg.LogLevel)
	ctx = common.WithLogger(ctx, logger)

	remover, err := rembg.New(cfg.Remover, logger)
	if err != nil {
		logger.Error("failed to create background remover", "error", err)
		return 1
	}

	var ledger repo.RunRepository
	var exporter *export.Service
	if cfg.Ledger.Enabled() {
		db, err := repo.Open(ctx, cfg.Ledger, logger)
		if err != nil {
			logger.Error("failed to open run ledger", "error", err)
			return 1
		}
		defer repo.Close(db, logger)
		ledger = repo.NewRunRepository(db, logger)
	}
	if cfg.ReportPath != "" {
		exporter = export.NewService(ledger, logger)
	}

	proc := core.NewProcessor(logger, remover, *cfg)
	svc := core.NewService(*cfg, proc, ledger, exporter, stdout, logger)
	if _, err := svc.Run(ctx); err != nil {
		logger.Error("run failed", "code", common.ErrorCode(err), "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
