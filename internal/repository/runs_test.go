package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bg-batch/constants"
	"github.com/joseph-ayodele/bg-batch/internal/common"
	"github.com/joseph-ayodele/bg-batch/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), common.LedgerConfig{
		DSN: filepath.Join(t.TempDir(), "ledger.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, logger) })
	return db
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/l.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("/tmp/l.db"))
	assert.Equal(t, "file:/tmp/l.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("sqlite:///tmp/l.db"))
	assert.Equal(t, "file:l.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("file:l.db?mode=rwc"))
	assert.Equal(t, "file:l.db?_pragma=foreign_keys(1)", SQLiteDSN("file:l.db?_pragma=foreign_keys(1)"))

	assert.True(t, IsPostgresDSN("postgres://u:p@localhost/db"))
	assert.True(t, IsPostgresDSN("postgresql://localhost/db"))
	assert.False(t, IsPostgresDSN("ledger.db"))
}

func TestOpen_MigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, HealthCheck(context.Background(), db, time.Second, nil))
	assert.Equal(t, "sqlite3", db.Dialect())
}

func TestRunRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t), nil)

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	run := entity.Run{
		ID:           uuid.New(),
		StartedAt:    started,
		InputDir:     "input",
		OutputDir:    "output",
		OutputFormat: "JPEG",
		Workers:      4,
		StartNumber:  8,
	}
	require.NoError(t, repo.Start(ctx, run))

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.RunStatusRunning), got.Status)
	assert.Nil(t, got.FinishedAt)
	assert.Equal(t, 8, got.StartNumber)
	assert.True(t, started.Equal(got.StartedAt))

	errMsg := "rembg exited with status 1"
	items := []entity.RunItem{
		{RunID: run.ID, Number: 9, SourceName: "b.png", Status: string(constants.ItemStatusFailed),
			Message: "Failed b.png: " + errMsg, ErrorMessage: &errMsg, ElapsedMs: 40, FinishedAt: started},
		{RunID: run.ID, Number: 8, SourceName: "a.png", DestinationName: "img_0008.jpg",
			Status: string(constants.ItemStatusOK), Message: "a.png -> img_0008.jpg (1.2s)", ElapsedMs: 1200, FinishedAt: started},
	}
	for _, it := range items {
		require.NoError(t, repo.RecordItem(ctx, it))
	}

	finished := started.Add(3 * time.Second)
	require.NoError(t, repo.Finish(ctx, run.ID, 2, 1, 1, finished))

	got, err = repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.RunStatusCompleted), got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, finished.Equal(*got.FinishedAt))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)

	stored, err := repo.ListItems(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 8, stored[0].Number)
	assert.Equal(t, "img_0008.jpg", stored[0].DestinationName)
	assert.Nil(t, stored[0].ErrorMessage)
	assert.Equal(t, 9, stored[1].Number)
	require.NotNil(t, stored[1].ErrorMessage)
	assert.Equal(t, errMsg, *stored[1].ErrorMessage)
	assert.Equal(t, run.ID, stored[1].RunID)
}

func TestRunRepository_DuplicateNumberRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t), nil)
	run := entity.Run{ID: uuid.New(), StartedAt: time.Now(), OutputFormat: "PNG", Workers: 1, StartNumber: 1}
	require.NoError(t, repo.Start(ctx, run))

	item := entity.RunItem{RunID: run.ID, Number: 1, SourceName: "a.png", Status: "OK", Message: "ok", FinishedAt: time.Now()}
	require.NoError(t, repo.RecordItem(ctx, item))
	assert.Error(t, repo.RecordItem(ctx, item))
}

func TestRunRepository_ListRecentAndNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t), nil)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		run := entity.Run{ID: uuid.New(), StartedAt: base.Add(time.Duration(i) * time.Hour), OutputFormat: "PNG", Workers: 2, StartNumber: 1}
		require.NoError(t, repo.Start(ctx, run))
		ids = append(ids, run.ID)
	}

	runs, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, repo.Finish(ctx, uuid.New(), 0, 0, 0, time.Now()), common.ErrNotFound)
}
