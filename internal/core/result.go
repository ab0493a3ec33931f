package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bg-batch/constants"
	"github.com/joseph-ayodele/bg-batch/internal/entity"
)

// Result summarizes one file's outcome. It only lives long enough to be reported.
type Result struct {
	SourcePath  string
	Source      string // base name of SourcePath
	Destination string // base name of the written output, "" if nothing was written
	Number      int
	Success     bool
	Message     string
	Elapsed     time.Duration
	Err         error
}

func succeeded(src, dst string, number int, elapsed time.Duration) Result {
	return Result{
		Source:      src,
		Destination: dst,
		Number:      number,
		Success:     true,
		Message:     fmt.Sprintf("%s -> %s (%.1fs)", src, dst, elapsed.Seconds()),
		Elapsed:     elapsed,
	}
}

func failed(src, dst string, number int, elapsed time.Duration, err error) Result {
	return Result{
		Source:      src,
		Destination: dst,
		Number:      number,
		Message:     fmt.Sprintf("Failed %s: %v", src, err),
		Elapsed:     elapsed,
		Err:         err,
	}
}

// Item converts the result into a ledger row for runID.
func (r Result) Item(runID uuid.UUID, finishedAt time.Time) entity.RunItem {
	item := entity.RunItem{
		ID:              uuid.New(),
		RunID:           runID,
		Number:          r.Number,
		SourceName:      r.Source,
		DestinationName: r.Destination,
		Status:          string(constants.ItemStatusOK),
		Message:         r.Message,
		ElapsedMs:       r.Elapsed.Milliseconds(),
		FinishedAt:      finishedAt,
	}
	if !r.Success {
		item.Status = string(constants.ItemStatusFailed)
		if r.Err != nil {
			msg := r.Err.Error()
			item.ErrorMessage = &msg
		}
	}
	return item
}
