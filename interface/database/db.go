package db

import (
	"context"
	"fmt"
	"time"

	"github.com/airbusgeo/s2-exporter/common"
)

// Job is a submission attempt of an export job
type Job struct {
	RunID       string        `json:"run_id"`
	Description string        `json:"description"`
	Product     string        `json:"product"`
	Backend     string        `json:"backend"`
	HandleID    string        `json:"handle_id,omitempty"`
	Status      common.Status `json:"status"`
	Message     string        `json:"message,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"` // Recording time if the submission failed
	Rank        int           `json:"rank"`         // Position of the job in the run
}

type ErrAlreadyExists struct {
	Type, ID string
}

func (e ErrAlreadyExists) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Type, e.ID)
}

type ErrNotFound struct {
	Type, ID string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Type, e.ID)
}

// Ledger records the submissions of the export jobs
type Ledger interface {
	// RecordJob may return ErrAlreadyExists if the job has already been recorded for this run
	RecordJob(ctx context.Context, job Job) error
	// ListJobs returns the jobs of a run, ordered by rank, or ErrNotFound
	ListJobs(ctx context.Context, runID string) ([]Job, error)
}
