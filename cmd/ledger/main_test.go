package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bg-batch/internal/common"
	"github.com/joseph-ayodele/bg-batch/internal/entity"
	repo "github.com/joseph-ayodele/bg-batch/internal/repository"
)

func seedLedger(t *testing.T, dsn string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repo.Open(ctx, common.LedgerConfig{DSN: dsn}, logger)
	require.NoError(t, err)
	defer repo.Close(db, logger)

	runs := repo.NewRunRepository(db, logger)
	id := uuid.New()
	now := time.Now().UTC()
	require.NoError(t, runs.Start(ctx, entity.Run{ID: id, StartedAt: now, InputDir: "in", OutputDir: "out", OutputFormat: "PNG", Workers: 1, StartNumber: 4}))
	require.NoError(t, runs.RecordItem(ctx, entity.RunItem{RunID: id, Number: 4, SourceName: "a.png", DestinationName: "img_0004.png", Status: "OK", Message: "a.png -> img_0004.png (0.3s)", FinishedAt: now}))
	require.NoError(t, runs.Finish(ctx, id, 1, 1, 0, now))
	return id
}

func TestLedgerCLI(t *testing.T) {
	t.Setenv("LEDGER_DSN", "")
	dsn := filepath.Join(t.TempDir(), "ledger.db")
	id := seedLedger(t, dsn)
	ctx := context.Background()

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run(ctx, []string{"-dsn", dsn}, &stdout, &stderr), stderr.String())
	assert.Contains(t, stdout.String(), "runs: 1")
	assert.Contains(t, stdout.String(), id.String())
	assert.Contains(t, stdout.String(), "1/1 ok  start=4")

	stdout.Reset()
	require.Equal(t, 0, run(ctx, []string{"-dsn", dsn, "-run", id.String()}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "a.png -> img_0004.png (0.3s)")

	stdout.Reset()
	report := filepath.Join(t.TempDir(), "run.xlsx")
	require.Equal(t, 0, run(ctx, []string{"-dsn", dsn, "-run", id.String(), "-out", report}, &stdout, &stderr))
	assert.FileExists(t, report)

	assert.Equal(t, 2, run(ctx, []string{"-dsn", dsn, "-run", "not-a-uuid"}, &stdout, &stderr))
	assert.Equal(t, 1, run(ctx, []string{"-dsn", dsn, "-run", uuid.NewString(), "-out", report}, &stdout, &stderr))
}

func TestLedgerCLI_RequiresDSN(t *testing.T) {
	t.Setenv("LEDGER_DSN", "")
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "LEDGER_DSN is required")
}
