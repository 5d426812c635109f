package export

import (
	"fmt"

	"github.com/airbusgeo/s2-exporter/common"
	"github.com/airbusgeo/s2-exporter/processor"
)

// BuildJobs returns the four export jobs, in this order:
// <prefix>_10bands (masked, tenBands), <prefix>_RGB (masked, rgbBands), <prefix>_NDVI (ndvi), <prefix>_FULL (clipped, tenBands + SCL).
// Band lists are validated before any job is returned.
func BuildJobs(masked processor.MaskedScene, ndvi processor.SpectralIndex, full processor.MaskedScene, rgbBands, tenBands []string, prefix, folder string) ([]ExportJob, error) {
	if prefix == "" || folder == "" {
		return nil, fmt.Errorf("BuildJobs: prefix and folder are required")
	}
	if masked.Scene == nil || full.Scene == nil {
		return nil, fmt.Errorf("BuildJobs: missing scene")
	}
	if err := validateBands(rgbBands, 3); err != nil {
		return nil, fmt.Errorf("BuildJobs: rgb bands: %w", err)
	}
	if err := validateBands(tenBands, 10); err != nil {
		return nil, fmt.Errorf("BuildJobs: 10 bands: %w", err)
	}
	if contains(tenBands, common.SCL) {
		return nil, fmt.Errorf("BuildJobs: 10 bands: %s is not a spectral band", common.SCL)
	}
	if ndvi.Name == "" {
		return nil, fmt.Errorf("BuildJobs: missing index")
	}
	fullBands := append(append([]string{}, tenBands...), common.SCL)

	jobs := []ExportJob{
		newJob(masked, Product10Bands, tenBands, prefix, folder),
		newJob(masked, ProductRGB, rgbBands, prefix, folder),
		{
			Product: ProductNDVI,
			Bands:   []string{ndvi.Name},
			Recipe:  ndvi.Recipe.Then(processor.Step{Op: processor.OpToFloat}),
		},
		newJob(full, ProductFull, fullBands, prefix, folder),
	}
	jobs[2].Description = prefix + "_" + ProductNDVI
	fillDefaults(&jobs[2], masked, folder)

	for _, j := range jobs {
		if err := j.Recipe.Validate(); err != nil {
			return nil, fmt.Errorf("BuildJobs: %s: %w", j.Description, err)
		}
	}
	return jobs, nil
}

func newJob(ms processor.MaskedScene, product string, bands []string, prefix, folder string) ExportJob {
	j := ExportJob{
		Description: prefix + "_" + product,
		Product:     product,
		Bands:       append([]string{}, bands...),
		Recipe: ms.Recipe.Then(
			processor.Step{Op: processor.OpSelect, Bands: append([]string{}, bands...)},
			processor.Step{Op: processor.OpToFloat},
		),
	}
	fillDefaults(&j, ms, folder)
	return j
}

func fillDefaults(j *ExportJob, ms processor.MaskedScene, folder string) {
	j.Folder = folder
	j.Region = ms.AOI
	j.Scale = DefaultScale
	j.CRS = DefaultCRS
	j.MaxPixels = DefaultMaxPixels
	j.Format = DefaultFormat
	j.SceneID = ms.Scene.ID
}

func validateBands(bands []string, n int) error {
	if len(bands) != n {
		return fmt.Errorf("expecting %d bands, found %d", n, len(bands))
	}
	seen := map[string]struct{}{}
	for _, b := range bands {
		if !common.IsBand(b) {
			return fmt.Errorf("unknown band: %q", b)
		}
		if _, ok := seen[b]; ok {
			return fmt.Errorf("duplicate band: %s", b)
		}
		seen[b] = struct{}{}
	}
	return nil
}

func contains(l []string, s string) bool {
	for _, e := range l {
		if e == s {
			return true
		}
	}
	return false
}
