package workflow_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/export"
	db "github.com/airbusgeo/s2-exporter/interface/database"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// MokeProvider implements catalog.ScenesProvider
type MokeProvider struct {
	scenes  entities.Scenes
	err     error
	queries []entities.SceneQuery
}

// SearchScenes implements catalog.ScenesProvider
func (p *MokeProvider) SearchScenes(ctx context.Context, q entities.SceneQuery) (entities.Scenes, error) {
	p.queries = append(p.queries, q)
	return p.scenes, p.err
}

// MokeSubmitter implements export.JobSubmitter
type MokeSubmitter struct {
	jobs   []export.ExportJob
	reject map[string]bool // products
}

// Submit implements export.JobSubmitter
func (s *MokeSubmitter) Submit(ctx context.Context, job export.ExportJob) (export.JobHandle, error) {
	if s.reject[job.Product] {
		return export.JobHandle{}, fmt.Errorf("quota exceeded")
	}
	s.jobs = append(s.jobs, job)
	return export.JobHandle{ID: fmt.Sprintf("task-%d", len(s.jobs)), Backend: "moke"}, nil
}

// MokeLedger implements db.Ledger
type MokeLedger struct {
	mu   sync.Mutex
	jobs map[string][]db.Job
}

// RecordJob implements db.Ledger
func (l *MokeLedger) RecordJob(ctx context.Context, job db.Job) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.jobs == nil {
		l.jobs = map[string][]db.Job{}
	}
	l.jobs[job.RunID] = append(l.jobs[job.RunID], job)
	return nil
}

// ListJobs implements db.Ledger
func (l *MokeLedger) ListJobs(ctx context.Context, runID string) ([]db.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	jobs, ok := l.jobs[runID]
	if !ok {
		return nil, db.ErrNotFound{Type: "run", ID: runID}
	}
	return jobs, nil
}

func TestWorkflow(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Workflow Suite")
}
