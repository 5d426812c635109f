package entities

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/airbusgeo/s2-exporter/service/geometry"
)

func TestAreaOfInterest(t *testing.T) {
	aoi, err := NewAreaOfInterest(32.5599, 15.5007, 2)
	if err != nil {
		t.Fatal(err)
	}
	if aoi.AreaLabel() != "4 x 4 km" {
		t.Errorf("expecting 4 x 4 km, found %s", aoi.AreaLabel())
	}
	if !aoi.Contains(32.5599, 15.5007) {
		t.Error("center must be inside the area")
	}
	if aoi.Contains(32.6, 15.5007) || aoi.Contains(32.5599, 15.45) {
		t.Error("point must be outside the area")
	}
	ring := aoi.Polygon().LinearRings()[0]
	if len(ring) != 5 || ring[0] != ring[4] {
		t.Errorf("expecting a closed ring, found %v", ring)
	}
	if !strings.HasPrefix(aoi.WKT(), "POLYGON") {
		t.Errorf("wrong wkt: %s", aoi.WKT())
	}
	b, err := aoi.GeoJSON()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), `{"type":"Polygon","coordinates":[[[`) {
		t.Errorf("wrong geojson: %s", string(b))
	}
	if math.Abs(aoi.Extent[3]-aoi.Extent[1]-2*0.017986) > 1e-4 {
		t.Errorf("wrong extent: %v", aoi.Extent)
	}
}

func TestAreaLabel(t *testing.T) {
	aoi, err := NewAreaOfInterest(32.53, 15.58, 2.5)
	if err != nil {
		t.Fatal(err)
	}
	if aoi.AreaLabel() != "5 x 5 km" {
		t.Errorf("expecting 5 x 5 km, found %s", aoi.AreaLabel())
	}
}

func TestInvalidBuffer(t *testing.T) {
	_, err := NewAreaOfInterest(32.5, 15.5, 0)
	var e geometry.ErrInvalidBuffer
	if !errors.As(err, &e) {
		t.Errorf("expecting ErrInvalidBuffer, found %v", err)
	}
}

func TestAutoFill(t *testing.T) {
	s := Scene{ProductID: "S2B_MSIL2A_20240115T081159_N0510_R035_T36PWC_20240115T101820"}
	s.AutoFill()
	if s.TileID != "36PWC" {
		t.Errorf("expecting 36PWC, found %s", s.TileID)
	}
	s = Scene{Properties: map[string]string{"MGRS_TILE": "36PVC", "PRODUCT_ID": "S2A_MSIL2A_20240120T081151_N0510_R035_T36PVC_20240120T110312"}}
	s.AutoFill()
	if s.TileID != "36PVC" || s.ProductID == "" {
		t.Errorf("wrong autofill: %+v", s)
	}
	if s.ProductName() != "S2A_MSIL2A_20240120T081151_R035_T36PVC" {
		t.Errorf("wrong product name: %s", s.ProductName())
	}
}

func TestMarshalScenes(t *testing.T) {
	scenes := Scenes{
		{ID: "a", ProductID: "S2B_MSIL2A_20240115T081159_N0510_R035_T36PWC_20240115T101820", Date: time.Date(2024, 1, 15, 8, 11, 59, 0, time.UTC), CloudCover: 1.5, TileID: "36PWC",
			GeometryWKT: "POLYGON ((32 15,33 15,33 16,32 16,32 15))"},
	}
	b, err := json.Marshal(scenes)
	if err != nil {
		t.Fatal(err)
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("wrong feature collection: %s", string(b))
	}
	if fc.Features[0].Geometry.Type != "Polygon" || fc.Features[0].Properties["tile_id"] != "36PWC" {
		t.Errorf("wrong feature: %s", string(b))
	}
}

func TestSceneQueryString(t *testing.T) {
	aoi, _ := NewAreaOfInterest(32.5599, 15.5007, 2)
	q := SceneQuery{AOI: aoi, Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), MaxCloud: 20}
	expected := "scenes of 4 x 4 km around (32.5599, 15.5007) between 2024-01-01 and 2024-02-28 with cloud cover < 20%"
	if q.String() != expected {
		t.Errorf("expecting %s found %s", expected, q.String())
	}
}
