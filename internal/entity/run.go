package entity

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one batch run for data transfer between layers.
type Run struct {
	ID           uuid.UUID  `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	InputDir     string     `json:"input_dir"`
	OutputDir    string     `json:"output_dir"`
	OutputFormat string     `json:"output_format"`
	Workers      int        `json:"workers"`
	StartNumber  int        `json:"start_number"`
	Total        int        `json:"total"`
	Succeeded    int        `json:"succeeded"`
	Failed       int        `json:"failed"`
	Status       string     `json:"status"`
}

// RunItem is the recorded outcome of one file within a run.
type RunItem struct {
	ID              uuid.UUID `json:"id"`
	RunID           uuid.UUID `json:"run_id"`
	Number          int       `json:"number"`
	SourceName      string    `json:"source_name"`
	DestinationName string    `json:"destination_name,omitempty"`
	Status          string    `json:"status"`
	Message         string    `json:"message"`
	ErrorMessage    *string   `json:"error_message,omitempty"`
	ElapsedMs       int64     `json:"elapsed_ms"`
	FinishedAt      time.Time `json:"finished_at"`
}
