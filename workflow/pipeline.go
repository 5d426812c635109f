package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airbusgeo/s2-exporter/catalog"
	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/common"
	"github.com/airbusgeo/s2-exporter/export"
	db "github.com/airbusgeo/s2-exporter/interface/database"
	"github.com/airbusgeo/s2-exporter/location"
	"github.com/airbusgeo/s2-exporter/processor"
	"github.com/airbusgeo/s2-exporter/service"
	"github.com/airbusgeo/s2-exporter/service/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Pipeline selects the best scene of a site and submits the export jobs of its products
type Pipeline struct {
	Locations location.Table
	Catalog   *catalog.Catalog
	Masker    processor.CloudMasker
	Submitter export.JobSubmitter
	Ledger    db.Ledger // Optional
	Metrics   *Metrics  // Optional
	Clock     clockwork.Clock
}

// NewPipeline creates a pipeline with the default cloud masker and the real clock
func NewPipeline(locations location.Table, c *catalog.Catalog, submitter export.JobSubmitter, ledger db.Ledger, metrics *Metrics) *Pipeline {
	return &Pipeline{
		Locations: locations,
		Catalog:   c,
		Masker:    processor.NewCloudMasker(),
		Submitter: submitter,
		Ledger:    ledger,
		Metrics:   metrics,
		Clock:     clockwork.NewRealClock(),
	}
}

// Candidates lists the scenes matching the config, sorted by cloud cover, without submitting anything
func (p *Pipeline) Candidates(ctx context.Context, cfg Config) (catalog.Selection, error) {
	q, _, err := cfg.Query(p.Locations)
	if err != nil {
		return catalog.Selection{}, fmt.Errorf("Candidates.%w", err)
	}
	return p.selectBest(ctx, q)
}

// Run executes a full export run:
// location -> area of interest -> best scene -> cloud mask & indices -> export jobs.
// The report is returned as soon as the jobs have been built, even if some submissions failed.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (*Report, error) {
	q, loc, err := cfg.Query(p.Locations)
	if err != nil {
		p.countRun("failed")
		return nil, fmt.Errorf("Run.%w", err)
	}
	runID := uuid.NewString()
	ctx = log.With(ctx, zap.String("run", runID), zap.String("location", loc.Key))
	log.Logger(ctx).Sugar().Infof("Export %s (%s)", q, loc.Description)

	selection, err := p.selectBest(ctx, q)
	if err != nil {
		p.countRun("failed")
		return nil, fmt.Errorf("Run.%w", err)
	}
	best := selection.Best
	log.Logger(ctx).Sugar().Infof("Best scene: %s (%s, cloud: %.2f%%, tile: %s)", best.ID, best.Date.Format("2006-01-02"), best.CloudCover, best.TileID)

	masked, err := p.Masker.Mask(best, q.AOI)
	if err != nil {
		p.countRun("failed")
		return nil, fmt.Errorf("Run.%w", err)
	}
	full, err := p.Masker.Clip(best, q.AOI)
	if err != nil {
		p.countRun("failed")
		return nil, fmt.Errorf("Run.%w", err)
	}
	ndvi, err := processor.NDVI(masked)
	if err != nil {
		p.countRun("failed")
		return nil, fmt.Errorf("Run.%w", err)
	}
	ndwi, err := processor.NDWI(masked)
	if err != nil {
		p.countRun("failed")
		return nil, fmt.Errorf("Run.%w", err)
	}

	prefix := common.FilenamePrefix(cfg.NamePrefix, loc.Key, p.now(), best.ProductID)
	jobs, err := export.BuildJobs(masked, ndvi, full, common.BandsRGB(), common.Bands10(), prefix, cfg.Folder)
	if err != nil {
		p.countRun("failed")
		return nil, fmt.Errorf("Run.%w", err)
	}

	results := export.SubmitAll(ctx, p.Submitter, jobs)
	p.countJobs(results)
	ledgerErr := p.record(ctx, runID, results)

	switch failed := results.Failed(); {
	case failed == 0:
		p.countRun("success")
	case failed < len(results):
		p.countRun("partial")
	default:
		p.countRun("failed")
	}

	report := newReport(runID, loc, q, selection, masked, ndwi, prefix, cfg.Folder, results)
	if err := service.MergeErrors(true, results.Err(), ledgerErr); err != nil {
		return report, fmt.Errorf("Run.%w", err)
	}
	return report, nil
}

// Jobs returns the jobs recorded for a run
func (p *Pipeline) Jobs(ctx context.Context, runID string) ([]db.Job, error) {
	if p.Ledger == nil {
		return nil, fmt.Errorf("Jobs: no ledger is configured")
	}
	return p.Ledger.ListJobs(ctx, runID)
}

func (p *Pipeline) selectBest(ctx context.Context, q entities.SceneQuery) (catalog.Selection, error) {
	start := p.now()
	selection, err := p.Catalog.SelectBest(ctx, q)
	if p.Metrics != nil {
		p.Metrics.CatalogDuration.Observe(p.now().Sub(start).Seconds())
		if err == nil || errors.As(err, &catalog.ErrNoScenesFound{}) {
			p.Metrics.Candidates.Observe(float64(selection.Total))
		}
	}
	return selection, err
}

// record writes the results in the ledger (if any)
func (p *Pipeline) record(ctx context.Context, runID string, results export.Results) error {
	if p.Ledger == nil {
		return nil
	}
	var err error
	for i, r := range results {
		job := db.Job{
			RunID:       runID,
			Description: r.Job.Description,
			Product:     r.Job.Product,
			Backend:     r.Handle.Backend,
			HandleID:    r.Handle.ID,
			Status:      common.StatusSUBMITTED,
			SubmittedAt: r.Handle.SubmittedAt,
			Rank:        i,
		}
		if r.Err != nil {
			job.Status = common.StatusFAILED
			job.Message = r.Err.Error()
		}
		if job.SubmittedAt.IsZero() {
			job.SubmittedAt = p.now()
		}
		if e := p.Ledger.RecordJob(ctx, job); e != nil {
			log.Logger(ctx).Warn("RecordJob", zap.String("job", job.Description), zap.Error(e))
			err = service.MergeErrors(true, err, fmt.Errorf("record.%w", e))
		}
	}
	return err
}

func (p *Pipeline) countRun(outcome string) {
	if p.Metrics != nil {
		p.Metrics.Runs.WithLabelValues(outcome).Inc()
	}
}

func (p *Pipeline) countJobs(results export.Results) {
	if p.Metrics == nil {
		return
	}
	for _, r := range results {
		if r.Err != nil {
			p.Metrics.JobsFailed.WithLabelValues(r.Job.Product).Inc()
		} else {
			p.Metrics.JobsSubmitted.WithLabelValues(r.Job.Product).Inc()
		}
	}
}

func (p *Pipeline) now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock.Now()
}
