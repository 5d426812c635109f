package processor

import (
	"fmt"
	"math"

	"github.com/airbusgeo/s2-exporter/common"
	"github.com/airbusgeo/s2-exporter/raster"
)

// SpectralIndex is a normalized difference of two bands
type SpectralIndex struct {
	Name   string
	BandA  string
	BandB  string
	Recipe Recipe
	Band   *raster.Band // Only when the scene carries pixels
}

// NormalizedDifferenceBand computes (A-B)/(A+B).
// The result is NaN where A or B is NaN or where A+B = 0.
// Values are not clamped: a result outside [-1, 1] comes from negative reflectances.
func NormalizedDifferenceBand(a, b *raster.Band) (*raster.Band, error) {
	if !a.SameSize(b) {
		return nil, fmt.Errorf("NormalizedDifferenceBand: size mismatch: %dx%d and %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
	out := raster.NewBand(a.Width, a.Height, 0)
	for i := range out.Data {
		va, vb := a.Data[i], b.Data[i]
		if sum := va + vb; sum != 0 {
			out.Data[i] = (va - vb) / sum // NaN propagates
		} else {
			out.Data[i] = math.NaN()
		}
	}
	return out, nil
}

// NormalizedDifference computes the index <name> = (a-b)/(a+b) of the masked scene
func NormalizedDifference(ms MaskedScene, a, b, name string) (SpectralIndex, error) {
	if a == "" || b == "" || name == "" {
		return SpectralIndex{}, fmt.Errorf("NormalizedDifference: bands and name are required")
	}
	idx := SpectralIndex{
		Name:  name,
		BandA: a,
		BandB: b,
		Recipe: ms.Recipe.Then(
			Step{Op: OpNormalizedDifference, Bands: []string{a, b}},
			Step{Op: OpRename, Bands: []string{NormalizedDifferenceName}, Names: []string{name}},
		),
	}
	if ms.Bands != nil {
		ba, err := ms.Bands.Band(a)
		if err != nil {
			return SpectralIndex{}, fmt.Errorf("NormalizedDifference: %w", err)
		}
		bb, err := ms.Bands.Band(b)
		if err != nil {
			return SpectralIndex{}, fmt.Errorf("NormalizedDifference: %w", err)
		}
		if idx.Band, err = NormalizedDifferenceBand(ba, bb); err != nil {
			return SpectralIndex{}, fmt.Errorf("NormalizedDifference.%w", err)
		}
	}
	return idx, nil
}

// NDVI is the vegetation index (B8-B4)/(B8+B4)
func NDVI(ms MaskedScene) (SpectralIndex, error) {
	return NormalizedDifference(ms, common.B8, common.B4, "NDVI")
}

// NDWI is the water index (B3-B8)/(B3+B8)
func NDWI(ms MaskedScene) (SpectralIndex, error) {
	return NormalizedDifference(ms, common.B3, common.B8, "NDWI")
}
