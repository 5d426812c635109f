package workflow

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/airbusgeo/s2-exporter/catalog"
	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/export"
	"github.com/airbusgeo/s2-exporter/location"
	"github.com/airbusgeo/s2-exporter/processor"
	"github.com/airbusgeo/s2-exporter/raster"
)

var captions = map[string]string{
	export.Product10Bands: "10-band input for super-resolution",
	export.ProductRGB:     "True Color",
	export.ProductNDVI:    "Vegetation Index",
	export.ProductFull:    "All bands + SCL",
}

// ExportFile is an export job, as reported to the user
type ExportFile struct {
	FileName string            `json:"file_name"`
	Caption  string            `json:"caption"`
	Product  string            `json:"product"`
	Handle   *export.JobHandle `json:"handle,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// SelectedScene summarizes the best scene
type SelectedScene struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id,omitempty"`
	Date       time.Time `json:"date"`
	CloudCover float64   `json:"cloud_cover"`
	TileID     string    `json:"tile_id"`
}

// Report is the outcome of a run
type Report struct {
	RunID          string                        `json:"run_id"`
	Location       location.Location             `json:"location"`
	Area           string                        `json:"area"`
	AOI            entities.AreaOfInterest       `json:"aoi"`
	Query          string                        `json:"query"`
	Total          int                           `json:"total"`
	Candidates     []catalog.Candidate           `json:"candidates"`
	Scene          SelectedScene                 `json:"scene"`
	Prefix         string                        `json:"prefix"`
	Folder         string                        `json:"folder"`
	Files          []ExportFile                  `json:"files"`
	Visualisations []processor.Visualisation     `json:"visualisations"`
	Stats          map[string]raster.BandSummary `json:"stats,omitempty"`       // Bands of the masked product (and NDWI) with at least one valid pixel
	EmptyBands     []string                      `json:"empty_bands,omitempty"` // Bands without any valid pixel
}

func newReport(runID string, loc location.Location, q entities.SceneQuery, selection catalog.Selection,
	masked processor.MaskedScene, ndwi processor.SpectralIndex, prefix, folder string, results export.Results) *Report {
	best := selection.Best
	r := &Report{
		RunID:      runID,
		Location:   loc,
		Area:       q.AOI.AreaLabel(),
		AOI:        q.AOI,
		Query:      q.String(),
		Total:      selection.Total,
		Candidates: selection.Candidates,
		Scene: SelectedScene{
			ID:         best.ID,
			ProductID:  best.ProductID,
			Date:       best.Date,
			CloudCover: best.CloudCover,
			TileID:     best.TileID,
		},
		Prefix:         prefix,
		Folder:         folder,
		Visualisations: processor.Visualisations(),
	}
	for _, res := range results {
		f := ExportFile{
			FileName: res.Job.FileName(),
			Caption:  captions[res.Job.Product],
			Product:  res.Job.Product,
		}
		if res.Err != nil {
			f.Error = res.Err.Error()
		} else {
			handle := res.Handle
			f.Handle = &handle
		}
		r.Files = append(r.Files, f)
	}
	if masked.Bands != nil {
		summaries := raster.Summarize(masked.Bands)
		if ndwi.Band != nil {
			img := raster.NewImage(masked.Bands.GeoTransform)
			img.Bands[ndwi.Name] = ndwi.Band
			for name, s := range raster.Summarize(img) {
				summaries[name] = s
			}
		}
		r.Stats = map[string]raster.BandSummary{}
		for name, s := range summaries {
			if s.Valid == 0 {
				r.EmptyBands = append(r.EmptyBands, name)
				continue
			}
			r.Stats[name] = s
		}
		sort.Strings(r.EmptyBands)
	}
	return r
}

// Hint returns the parameters to use with the super-resolution model
func (r *Report) Hint() string {
	return fmt.Sprintf("lonlat = (%g, %g)\ndate = \"%s\"", r.Location.Lon, r.Location.Lat, r.Scene.Date.Format("2006-01-02"))
}

// Text renders the report for a terminal
func (r *Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s\n", r.Location.Description)
	fmt.Fprintf(&b, "Coordinates: %g, %g\n", r.Location.Lon, r.Location.Lat)
	fmt.Fprintf(&b, "Area: %s\n\n", r.Area)

	fmt.Fprintf(&b, "Images found: %d\n", r.Total)
	fmt.Fprintf(&b, "Available images (sorted by cloud cover):\n")
	for _, c := range r.Candidates {
		fmt.Fprintf(&b, "   %s\n", c)
	}
	fmt.Fprintf(&b, "\nSelected best image: %s\n", r.Scene.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Cloud cover: %.2f%%\n", r.Scene.CloudCover)
	fmt.Fprintf(&b, "MGRS Tile: %s\n\n", r.Scene.TileID)

	fmt.Fprintf(&b, "Export tasks (folder %s):\n", r.Folder)
	for i, f := range r.Files {
		fmt.Fprintf(&b, "   %d. %s (%s)", i+1, f.FileName, f.Caption)
		if f.Error != "" {
			fmt.Fprintf(&b, " FAILED: %s", f.Error)
		} else if f.Handle != nil {
			fmt.Fprintf(&b, " %s: %s", f.Handle.Backend, f.Handle.ID)
		}
		b.WriteString("\n")
	}

	if len(r.Stats) > 0 || len(r.EmptyBands) > 0 {
		b.WriteString("\nBand statistics (masked):\n")
		names := make([]string, 0, len(r.Stats))
		for name := range r.Stats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s := r.Stats[name]
			fmt.Fprintf(&b, "   %-5s valid=%d nan=%d min=%.4f max=%.4f mean=%.4f std=%.4f",
				name, s.Valid, s.NaN, s.Min, s.Max, s.Mean, s.Std)
			if p, ok := s.Percentiles["P50"]; ok {
				fmt.Fprintf(&b, " median=%.4f", p)
			}
			b.WriteString("\n")
		}
		for _, name := range r.EmptyBands {
			fmt.Fprintf(&b, "   %-5s no valid pixel\n", name)
		}
	}

	b.WriteString("\nFor super-resolution, use these settings:\n")
	for _, l := range strings.Split(r.Hint(), "\n") {
		fmt.Fprintf(&b, "   %s\n", l)
	}
	return b.String()
}
