package geometry

import (
	"fmt"
	"runtime"

	"github.com/go-spatial/geom"
	geomwkt "github.com/go-spatial/geom/encoding/wkt"
	"github.com/paulsmith/gogeos/geos"
)

// GeomToGeos generates a geos.Geometry from a geom.Geometry
func GeomToGeos(g geom.Geometry) (*geos.Geometry, error) {
	wkt, err := geomwkt.EncodeString(g)
	if err != nil {
		return nil, fmt.Errorf("GeomToGeos.EncodeString: %w", err)
	}
	geo, err := geos.FromWKT(wkt)
	if err != nil {
		return nil, fmt.Errorf("GeomToGeos.FromWKT: %w", err)
	}
	return geo, nil
}

// PreparedArea is an area prepared for repeated intersection tests
type PreparedArea struct {
	geometry *geos.Geometry
	prepared *geos.PGeometry
}

// NewPreparedArea prepares the geometry
func NewPreparedArea(g geom.Geometry) (*PreparedArea, error) {
	geo, err := GeomToGeos(g)
	if err != nil {
		return nil, fmt.Errorf("NewPreparedArea.%w", err)
	}
	return &PreparedArea{geometry: geo, prepared: geo.Prepare()}, nil
}

// IntersectsWKT returns true if the geometry (as WKT) intersects the area
func (a *PreparedArea) IntersectsWKT(wkt string) (bool, error) {
	other, err := geos.FromWKT(wkt)
	if err != nil {
		return false, fmt.Errorf("IntersectsWKT.FromWKT: %w", err)
	}
	intersect, err := a.prepared.Intersects(other)
	if err != nil {
		return false, fmt.Errorf("IntersectsWKT.Intersects: %w", err)
	}
	runtime.KeepAlive(a.geometry)
	return intersect, nil
}
