package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/bg-batch/constants"
	"github.com/joseph-ayodele/bg-batch/internal/common"
	"github.com/joseph-ayodele/bg-batch/internal/entity"
)

// RunRepository records batch runs and the outcome of every file in them.
type RunRepository interface {
	Start(ctx context.Context, run entity.Run) error
	RecordItem(ctx context.Context, item entity.RunItem) error
	Finish(ctx context.Context, runID uuid.UUID, total, succeeded, failed int, finishedAt time.Time) error
	Get(ctx context.Context, runID uuid.UUID) (*entity.Run, error)
	ListRecent(ctx context.Context, limit int) ([]entity.Run, error)
	ListItems(ctx context.Context, runID uuid.UUID) ([]entity.RunItem, error)
}

type runRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *DB, logger *slog.Logger) RunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &runRepository{drv: db.Driver, logger: logger}
}

var runColumns = []string{
	"id", "started_at", "finished_at", "input_dir", "output_dir", "output_format",
	"workers", "start_number", "total", "succeeded", "failed", "status",
}

var itemColumns = []string{
	"id", "run_id", "number", "source_name", "destination_name", "status",
	"message", "error_message", "elapsed_ms", "finished_at",
}

func (r *runRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

func (r *runRepository) Start(ctx context.Context, run entity.Run) error {
	if run.Status == "" {
		run.Status = string(constants.RunStatusRunning)
	}
	q, args := r.builder().Insert(runsTable).
		Columns(runColumns...).
		Values(
			run.ID.String(), run.StartedAt.UTC(), nullTime(run.FinishedAt),
			run.InputDir, run.OutputDir, run.OutputFormat,
			run.Workers, run.StartNumber, run.Total, run.Succeeded, run.Failed, run.Status,
		).Query()
	if err := r.drv.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to insert run", "run_id", run.ID, "error", err)
		return common.WrapError(err, "failed to insert run")
	}
	r.logger.Debug("run started", "run_id", run.ID, "start_number", run.StartNumber)
	return nil
}

func (r *runRepository) RecordItem(ctx context.Context, item entity.RunItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	var errMsg any
	if item.ErrorMessage != nil {
		errMsg = *item.ErrorMessage
	}
	q, args := r.builder().Insert(runItemsTable).
		Columns(itemColumns...).
		Values(
			item.ID.String(), item.RunID.String(), item.Number, item.SourceName,
			item.DestinationName, item.Status, item.Message, errMsg,
			item.ElapsedMs, item.FinishedAt.UTC(),
		).Query()
	if err := r.drv.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to insert run item", "run_id", item.RunID, "number", item.Number, "error", err)
		return common.WrapError(err, "failed to insert run item")
	}
	return nil
}

func (r *runRepository) Finish(ctx context.Context, runID uuid.UUID, total, succeeded, failed int, finishedAt time.Time) error {
	q, args := r.builder().Update(runsTable).
		Set("finished_at", finishedAt.UTC()).
		Set("total", total).
		Set("succeeded", succeeded).
		Set("failed", failed).
		Set("status", string(constants.RunStatusCompleted)).
		Where(entsql.EQ("id", runID.String())).
		Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, q, args, &res); err != nil {
		r.logger.Error("failed to finish run", "run_id", runID, "error", err)
		return common.WrapError(err, "failed to finish run")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
	}
	r.logger.Debug("run finished", "run_id", runID, "succeeded", succeeded, "total", total)
	return nil
}

func (r *runRepository) Get(ctx context.Context, runID uuid.UUID) (*entity.Run, error) {
	b := r.builder()
	q, args := b.Select(runColumns...).
		From(b.Table(runsTable)).
		Where(entsql.EQ("id", runID.String())).
		Query()
	runs, err := r.queryRuns(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
	}
	return &runs[0], nil
}

func (r *runRepository) ListRecent(ctx context.Context, limit int) ([]entity.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	b := r.builder()
	q, args := b.Select(runColumns...).
		From(b.Table(runsTable)).
		OrderBy(entsql.Desc("started_at")).
		Limit(limit).
		Query()
	return r.queryRuns(ctx, q, args)
}

func (r *runRepository) ListItems(ctx context.Context, runID uuid.UUID) ([]entity.RunItem, error) {
	b := r.builder()
	q, args := b.Select(itemColumns...).
		From(b.Table(runItemsTable)).
		Where(entsql.EQ("run_id", runID.String())).
		OrderBy("number").
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, common.WrapError(err, "failed to query run items")
	}
	defer rows.Close()

	var items []entity.RunItem
	for rows.Next() {
		var (
			item    entity.RunItem
			id, rid string
			errMsg  sql.NullString
		)
		if err := rows.Scan(&id, &rid, &item.Number, &item.SourceName, &item.DestinationName,
			&item.Status, &item.Message, &errMsg, &item.ElapsedMs, &item.FinishedAt); err != nil {
			return nil, common.WrapError(err, "failed to scan run item")
		}
		item.ID, _ = uuid.Parse(id)
		item.RunID, _ = uuid.Parse(rid)
		if errMsg.Valid {
			msg := errMsg.String
			item.ErrorMessage = &msg
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "failed to read run items")
	}
	return items, nil
}

func (r *runRepository) queryRuns(ctx context.Context, q string, args []any) ([]entity.Run, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, common.WrapError(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []entity.Run
	for rows.Next() {
		var (
			run      entity.Run
			id       string
			finished sql.NullTime
		)
		if err := rows.Scan(&id, &run.StartedAt, &finished, &run.InputDir, &run.OutputDir,
			&run.OutputFormat, &run.Workers, &run.StartNumber, &run.Total,
			&run.Succeeded, &run.Failed, &run.Status); err != nil {
			return nil, common.WrapError(err, "failed to scan run")
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, common.WrapError(err, "invalid run id in ledger")
		}
		run.ID = parsed
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "failed to read runs")
	}
	return runs, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
