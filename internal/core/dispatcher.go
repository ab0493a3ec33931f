package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/bg-batch/internal/core/async"
)

// TaskProcessor is the per-file unit the dispatcher fans out.
type TaskProcessor interface {
	ProcessOne(ctx context.Context, path string, number int) Result
}

// Reporter receives each Result as it completes, on the collecting goroutine.
type Reporter func(Result)

// Task pairs an input file with its pre-assigned output number.
type Task struct {
	Path   string
	Number int
}

// Summary aggregates a batch.
type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	StartNumber int
	Elapsed     time.Duration
	Results     []Result // completion order
}

// AssignNumbers gives files[i] the number start+i.
func AssignNumbers(files []string, start int) []Task {
	tasks := make([]Task, len(files))
	for i, f := range files {
		tasks[i] = Task{Path: f, Number: start + i}
	}
	return tasks
}

// Dispatcher runs one task per file on a fixed-size worker pool.
type Dispatcher struct {
	proc    TaskProcessor
	workers int
	logger  *slog.Logger
}

func NewDispatcher(proc TaskProcessor, workers int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{proc: proc, workers: workers, logger: logger}
}

// RunBatch processes every file to completion. Numbers are fixed before dispatch,
// results are handed to report in completion order, and item failures never stop
// the batch.
func (d *Dispatcher) RunBatch(ctx context.Context, files []string, start int, report Reporter) Summary {
	began := time.Now()
	tasks := AssignNumbers(files, start)
	summary := Summary{Total: len(tasks), StartNumber: start}
	if len(tasks) == 0 {
		return summary
	}

	pool := async.NewPool(ctx, func(ctx context.Context, t Task) Result {
		return d.proc.ProcessOne(ctx, t.Path, t.Number)
	}, d.logger, async.WithWorkers(d.workers), async.WithQueueSize(len(tasks)))

	go func() {
		defer pool.Close()
		for _, t := range tasks {
			if err := pool.Enqueue(t); err != nil {
				d.logger.Error("enqueue failed", "path", t.Path, "number", t.Number, "error", err)
				return
			}
		}
	}()

	for res := range pool.Results() {
		if res.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, res)
		if report != nil {
			report(res)
		}
	}

	summary.Elapsed = time.Since(began)
	d.logger.Info("batch complete",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"workers", d.workers,
		"elapsed_ms", summary.Elapsed.Milliseconds(),
	)
	return summary
}
