package raster

import (
	"fmt"
	"math"
	"sort"
)

// Statistics of the valid pixels of a band
type Statistics struct {
	Valid int     `json:"valid"`
	NaN   int     `json:"nan"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

// DefaultPercentiles are the percentiles reported for each band
var DefaultPercentiles = []float64{1, 5, 25, 50, 75, 95, 99}

// Stats computes the statistics of the band, ignoring NaN.
// Min, Max, Mean and Std are NaN when the band has no valid pixel.
func Stats(b *Band) Statistics {
	s := Statistics{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range b.Data {
		if IsNoData(v) {
			s.NaN++
			continue
		}
		s.Valid++
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if s.Valid == 0 {
		s.Min, s.Max, s.Mean, s.Std = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Mean = sum / float64(s.Valid)
	var sq float64
	for _, v := range b.Data {
		if !IsNoData(v) {
			sq += (v - s.Mean) * (v - s.Mean)
		}
	}
	s.Std = math.Sqrt(sq / float64(s.Valid))
	return s
}

// Percentiles returns the percentiles (0-100) of the valid pixels, using linear interpolation between closest ranks
func Percentiles(b *Band, ps ...float64) (map[float64]float64, error) {
	valid := make([]float64, 0, len(b.Data))
	for _, v := range b.Data {
		if !IsNoData(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("Percentiles: no valid pixel")
	}
	sort.Float64s(valid)
	res := make(map[float64]float64, len(ps))
	for _, p := range ps {
		if p < 0 || p > 100 {
			return nil, fmt.Errorf("Percentiles: %g is not in [0, 100]", p)
		}
		rank := p / 100 * float64(len(valid)-1)
		lo := int(math.Floor(rank))
		hi := int(math.Ceil(rank))
		res[p] = valid[lo] + (valid[hi]-valid[lo])*(rank-float64(lo))
	}
	return res, nil
}

// BandSummary gathers the statistics and the percentiles of a band
type BandSummary struct {
	Statistics
	Percentiles map[string]float64 `json:"percentiles,omitempty"`
}

// Summarize computes the statistics and DefaultPercentiles of all the bands of the image
func Summarize(img *Image) map[string]BandSummary {
	res := make(map[string]BandSummary, len(img.Bands))
	for name, b := range img.Bands {
		s := BandSummary{Statistics: Stats(b)}
		if ps, err := Percentiles(b, DefaultPercentiles...); err == nil {
			s.Percentiles = make(map[string]float64, len(ps))
			for p, v := range ps {
				s.Percentiles[fmt.Sprintf("P%g", p)] = v
			}
		}
		res[name] = s
	}
	return res
}
