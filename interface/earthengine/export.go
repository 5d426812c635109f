package earthengine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/airbusgeo/s2-exporter/export"
	"github.com/airbusgeo/s2-exporter/service/log"
	"github.com/google/uuid"
)

// Backend is the name of the backend of the handles returned by Submit
const Backend = "earthengine"

var fileFormats = map[string]string{
	"GeoTIFF":  "GEO_TIFF",
	"TFRecord": "TF_RECORD_IMAGE",
}

type driveDestination struct {
	Folder         string `json:"folder"`
	FilenamePrefix string `json:"filenamePrefix"`
}

type fileExportOptions struct {
	FileFormat       string           `json:"fileFormat"`
	DriveDestination driveDestination `json:"driveDestination"`
}

type affineTransform struct {
	ScaleX float64 `json:"scaleX"`
	ScaleY float64 `json:"scaleY"`
}

type pixelGrid struct {
	CrsCode         string          `json:"crsCode"`
	AffineTransform affineTransform `json:"affineTransform"`
}

type exportRequest struct {
	Expression        Expression        `json:"expression"`
	Description       string            `json:"description"`
	FileExportOptions fileExportOptions `json:"fileExportOptions"`
	Grid              pixelGrid         `json:"grid"`
	MaxPixels         string            `json:"maxPixels"` // int64
	RequestID         string            `json:"requestId"`
}

type operation struct {
	Name string `json:"name"`
}

// newExportRequest translates the job into an image:export request
func newExportRequest(job export.ExportJob) (exportRequest, error) {
	format, ok := fileFormats[job.Format]
	if !ok {
		return exportRequest{}, fmt.Errorf("newExportRequest: unsupported format %s", job.Format)
	}
	expr, err := NewExpression(job.SceneID, job.Recipe)
	if err != nil {
		return exportRequest{}, fmt.Errorf("newExportRequest.%w", err)
	}
	return exportRequest{
		Expression:  expr,
		Description: job.Description,
		FileExportOptions: fileExportOptions{
			FileFormat:       format,
			DriveDestination: driveDestination{Folder: job.Folder, FilenamePrefix: job.Description},
		},
		Grid: pixelGrid{
			CrsCode:         job.CRS,
			AffineTransform: affineTransform{ScaleX: job.Scale, ScaleY: -job.Scale},
		},
		MaxPixels: strconv.FormatInt(int64(job.MaxPixels), 10),
		// Sent unchanged on retries
		RequestID: uuid.NewString(),
	}, nil
}

// Submit implements export.JobSubmitter. It starts an export task and returns its operation.
func (c *Client) Submit(ctx context.Context, job export.ExportJob) (export.JobHandle, error) {
	req, err := newExportRequest(job)
	if err != nil {
		return export.JobHandle{}, fmt.Errorf("Submit.%w", err)
	}
	var op operation
	url := fmt.Sprintf("%s/projects/%s/image:export", c.baseURL(), c.Project)
	if err := c.do(ctx, "POST", url, req, &op); err != nil {
		return export.JobHandle{}, fmt.Errorf("Submit.%w", err)
	}
	if op.Name == "" {
		return export.JobHandle{}, fmt.Errorf("Submit: no operation returned for %s", job.Description)
	}
	log.Logger(ctx).Sugar().Debugf("[EarthEngine] %s started: %s", job.Description, op.Name)
	handle := export.JobHandle{
		ID:      op.Name,
		Backend: Backend,
		URI:     c.baseURL() + "/" + op.Name,
	}
	if c.Clock != nil {
		handle.SubmittedAt = c.Clock.Now()
	}
	return handle, nil
}
