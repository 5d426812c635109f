package processor

import "github.com/airbusgeo/s2-exporter/common"

// Visualisation is a display preset of a product
type Visualisation struct {
	Name    string   `json:"name"`
	Bands   []string `json:"bands"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Palette []string `json:"palette,omitempty"`
}

// Visualisations returns the display presets of the masked product and its indices
func Visualisations() []Visualisation {
	return []Visualisation{
		{Name: "True Color (RGB)", Bands: common.BandsRGB(), Min: 0, Max: 0.3},
		{Name: "False Color (NIR-R-G)", Bands: []string{common.B8, common.B4, common.B3}, Min: 0, Max: 0.4},
		{Name: "NDVI", Bands: []string{"NDVI"}, Min: -0.2, Max: 0.8, Palette: []string{"red", "yellow", "green", "darkgreen"}},
		{Name: "NDWI (Water)", Bands: []string{"NDWI"}, Min: -0.5, Max: 0.5, Palette: []string{"brown", "white", "blue"}},
		{Name: "Urban (SWIR)", Bands: []string{common.B12, common.B11, common.B4}, Min: 0, Max: 0.4},
	}
}
