package export

import (
	"context"
	"fmt"
	"time"

	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/processor"
)

// Products, in the order of BuildJobs
const (
	Product10Bands = "10bands"
	ProductRGB     = "RGB"
	ProductNDVI    = "NDVI"
	ProductFull    = "FULL"
)

// Default parameters of the export jobs
const (
	DefaultScale     = 10
	DefaultCRS       = "EPSG:32636"
	DefaultMaxPixels = 1e13
	DefaultFormat    = "GeoTIFF"
)

// ExportJob is the description of an export submitted to the processing platform
type ExportJob struct {
	Description string                  `json:"description"` // <prefix>_<product>
	Product     string                  `json:"product"`
	Bands       []string                `json:"bands"`
	Folder      string                  `json:"folder"`
	Region      entities.AreaOfInterest `json:"region"`
	Scale       float64                 `json:"scale"` // meters per pixel
	CRS         string                  `json:"crs"`
	MaxPixels   float64                 `json:"max_pixels"`
	Format      string                  `json:"format"`
	Recipe      processor.Recipe        `json:"recipe"`
	SceneID     string                  `json:"scene_id"`
}

// FileName returns the name of the exported file
func (j ExportJob) FileName() string {
	return j.Description + ".tif"
}

// JobHandle identifies a submitted job
type JobHandle struct {
	ID          string    `json:"id"`
	Backend     string    `json:"backend"`
	URI         string    `json:"uri,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// JobSubmitter submits jobs to a backend. It does not wait for their completion.
type JobSubmitter interface {
	Submit(ctx context.Context, job ExportJob) (JobHandle, error)
}

// ErrExportSubmission is returned when a job is rejected by the backend
type ErrExportSubmission struct {
	Description string
	Err         error
}

func (e ErrExportSubmission) Error() string {
	return fmt.Sprintf("export %s: %v", e.Description, e.Err)
}

func (e ErrExportSubmission) Unwrap() error {
	return e.Err
}
