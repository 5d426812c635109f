package export

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/airbusgeo/s2-exporter/processor"
	"github.com/airbusgeo/s2-exporter/service"
	"github.com/jonboulle/clockwork"
)

// BackendManifest is the name of the backend of ManifestSubmitter
const BackendManifest = "manifest"

const defaultRetryDelay = time.Second

// Manifest is the document written by ManifestSubmitter
type Manifest struct {
	Job            ExportJob                 `json:"job"`
	FileName       string                    `json:"file_name"`
	Visualisations []processor.Visualisation `json:"visualisations,omitempty"`
}

// ManifestSubmitter writes the jobs as json manifests in a storage (local directory, gs:// or s3://).
// It can be used as a dry-run or to hand the jobs over to an external worker.
type ManifestSubmitter struct {
	Storage service.Storage
	Clock   clockwork.Clock
}

// Submit implements JobSubmitter
func (s *ManifestSubmitter) Submit(ctx context.Context, job ExportJob) (JobHandle, error) {
	m := Manifest{Job: job, FileName: job.FileName()}
	switch job.Product {
	case Product10Bands, ProductRGB, ProductNDVI:
		m.Visualisations = visualisationsOf(job.Bands)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return JobHandle{}, fmt.Errorf("ManifestSubmitter.Marshal: %w", err)
	}

	name := path.Join(job.Folder, job.Description+".json")
	var uri string
	err = service.Retriable(ctx, func() error {
		var err error
		uri, err = s.Storage.Upload(ctx, name, data)
		return err
	}, defaultRetryDelay, 3)
	if err != nil {
		return JobHandle{}, fmt.Errorf("ManifestSubmitter.%w", err)
	}
	return JobHandle{ID: name, Backend: BackendManifest, URI: uri, SubmittedAt: now(s.Clock)}, nil
}

// visualisationsOf returns the presets whose bands are all exported
func visualisationsOf(bands []string) []processor.Visualisation {
	var res []processor.Visualisation
	for _, v := range processor.Visualisations() {
		ok := true
		for _, b := range v.Bands {
			ok = ok && contains(bands, b)
		}
		if ok {
			res = append(res, v)
		}
	}
	return res
}

func now(clock clockwork.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
