package export

import (
	"context"
	"errors"

	"github.com/airbusgeo/s2-exporter/service"
	"github.com/airbusgeo/s2-exporter/service/log"
	"go.uber.org/zap"
)

// Result of the submission of a job
type Result struct {
	Job    ExportJob
	Handle JobHandle
	Err    error
}

// Results of SubmitAll
type Results []Result

// Err merges the errors of all the failed submissions (nil if all the jobs have been submitted)
func (rs Results) Err() error {
	var err error
	for _, r := range rs {
		if r.Err != nil {
			err = service.MergeErrors(false, err, r.Err)
		}
	}
	return err
}

// Failed returns the number of failed submissions
func (rs Results) Failed() int {
	n := 0
	for _, r := range rs {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// SubmitAll submits the jobs in order. A failed submission does not prevent the next ones.
func SubmitAll(ctx context.Context, submitter JobSubmitter, jobs []ExportJob) Results {
	results := make(Results, len(jobs))
	for i, job := range jobs {
		results[i].Job = job
		if err := ctx.Err(); err != nil {
			results[i].Err = ErrExportSubmission{Description: job.Description, Err: err}
			continue
		}
		handle, err := submitter.Submit(ctx, job)
		if err != nil {
			var e ErrExportSubmission
			if !errors.As(err, &e) {
				err = ErrExportSubmission{Description: job.Description, Err: err}
			}
			log.Logger(ctx).Error("export submission failed", zap.String("description", job.Description), zap.Error(err))
			results[i].Err = err
			continue
		}
		log.Logger(ctx).Sugar().Infof("export %s submitted to %s: %s", job.Description, handle.Backend, handle.ID)
		results[i].Handle = handle
	}
	return results
}
