package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/airbusgeo/s2-exporter/common"
	"github.com/airbusgeo/s2-exporter/raster"
	"github.com/airbusgeo/s2-exporter/service/geometry"
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
	"github.com/go-spatial/geom/encoding/wkt"
)

// AreaOfInterest is the rectangle bounding a geodesic buffer around a point
type AreaOfInterest struct {
	Center   [2]float64  `json:"center"`
	BufferKm float64     `json:"buffer_km"`
	Extent   geom.Extent `json:"extent"`
}

// NewAreaOfInterest creates the area of interest of <bufferKm> around (lon, lat)
func NewAreaOfInterest(lon, lat, bufferKm float64) (AreaOfInterest, error) {
	extent, err := geometry.GeodesicBufferBounds(lon, lat, bufferKm*1000)
	if err != nil {
		return AreaOfInterest{}, fmt.Errorf("NewAreaOfInterest.%w", err)
	}
	return AreaOfInterest{Center: [2]float64{lon, lat}, BufferKm: bufferKm, Extent: extent}, nil
}

// Polygon returns the closed, axis-aligned ring of the area
func (a AreaOfInterest) Polygon() geom.Polygon {
	return geometry.ExtentPolygon(a.Extent)
}

// WKT returns the polygon of the area as Well-Known Text
func (a AreaOfInterest) WKT() string {
	return wkt.MustEncode(a.Polygon())
}

// GeoJSON returns the polygon of the area as a GeoJSON geometry
func (a AreaOfInterest) GeoJSON() ([]byte, error) {
	return json.Marshal(geojson.Geometry{Geometry: a.Polygon()})
}

// Contains returns true if the point is inside the rectangle (borders included)
func (a AreaOfInterest) Contains(lon, lat float64) bool {
	return lon >= a.Extent[0] && lon <= a.Extent[2] && lat >= a.Extent[1] && lat <= a.Extent[3]
}

// SideKm is the nominal side of the area (2 x buffer). It is not measured on the ground.
func (a AreaOfInterest) SideKm() float64 {
	return 2 * a.BufferKm
}

// AreaLabel returns "<side> x <side> km"
func (a AreaOfInterest) AreaLabel() string {
	return fmt.Sprintf("%g x %g km", a.SideKm(), a.SideKm())
}

// Scene is a Sentinel-2 acquisition returned by a catalog
type Scene struct {
	ID          string            `json:"id"`         // Identifier in the catalog (e.g. asset id)
	ProductID   string            `json:"product_id"` // Sentinel-2 product id
	Date        time.Time         `json:"date"`
	CloudCover  float64           `json:"cloud_cover"` // Percent of cloudy pixels in the tile
	TileID      string            `json:"tile_id"`     // MGRS tile
	GeometryWKT string            `json:"wkt"`
	Properties  map[string]string `json:"properties,omitempty"`
	Bands       *raster.Image     `json:"-"` // Pixels, only when the catalog serves them
}

// ProductName returns the product id without the processing baseline (to remove double entries)
func (s *Scene) ProductName() string {
	if s.ProductID == "" {
		return s.ID
	}
	return common.ProductName(s.ProductID)
}

// AutoFill fills TileID and ProductID from the properties or the product id
func (s *Scene) AutoFill() {
	if s.ProductID == "" {
		s.ProductID = s.Properties[common.TagProductID]
	}
	if s.TileID == "" {
		s.TileID = s.Properties[common.TagMGRSTile]
	}
	if s.TileID == "" {
		if info, err := common.Info(s.ProductID); err == nil {
			s.TileID = info["TILE"]
		}
	}
}

// Scenes is a list of scenes, serialized as a GeoJSON FeatureCollection
type Scenes []*Scene

// MarshalJSON implements json.Marshaler
func (ss Scenes) MarshalJSON() ([]byte, error) {
	fc := geojson.FeatureCollection{Features: make([]geojson.Feature, 0, len(ss))}
	for i, s := range ss {
		var g geom.Geometry
		if s.GeometryWKT != "" {
			var err error
			if g, err = wkt.DecodeString(s.GeometryWKT); err != nil {
				return nil, fmt.Errorf("Scenes.MarshalJSON: %w", err)
			}
		}
		id := uint64(i)
		fc.Features = append(fc.Features, geojson.Feature{
			ID:       &id,
			Geometry: geojson.Geometry{Geometry: g},
			Properties: map[string]interface{}{
				"id":          s.ID,
				"product_id":  s.ProductID,
				"date":        s.Date.Format(time.RFC3339),
				"cloud_cover": s.CloudCover,
				"tile_id":     s.TileID,
			},
		})
	}
	return json.Marshal(fc)
}

// SceneQuery is the input of the catalog
type SceneQuery struct {
	AOI        AreaOfInterest `json:"aoi"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	MaxCloud   float64        `json:"max_cloud"` // Strict upper bound, in percent
	Collection string         `json:"collection"`
}

func (q SceneQuery) String() string {
	return fmt.Sprintf("scenes of %s around (%g, %g) between %s and %s with cloud cover < %g%%",
		q.AOI.AreaLabel(), q.AOI.Center[0], q.AOI.Center[1], q.Start.Format("2006-01-02"), q.End.Format("2006-01-02"), q.MaxCloud)
}
