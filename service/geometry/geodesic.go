package geometry

import (
	"fmt"
	"math"

	"github.com/go-spatial/geom"
)

// EarthRadius is the mean radius of the earth (IUGG), in meters
const EarthRadius = 6371008.8

// ErrInvalidBuffer is returned when a buffer cannot be computed around a point
type ErrInvalidBuffer struct {
	Lon, Lat, Meters float64
}

func (e ErrInvalidBuffer) Error() string {
	return fmt.Sprintf("invalid buffer of %gm around (%g, %g)", e.Meters, e.Lon, e.Lat)
}

// GeodesicBufferBounds returns the bounding box (lon/lat degrees) of the geodesic circle of radius <meters> centered on (lon, lat).
// When the circle reaches a pole, the longitudes span [-180, 180].
// Otherwise, the longitudes are not wrapped around the antimeridian.
func GeodesicBufferBounds(lon, lat, meters float64) (geom.Extent, error) {
	if !(meters > 0) || math.IsInf(meters, 0) || !(lon >= -180 && lon <= 180) || !(lat >= -90 && lat <= 90) {
		return geom.Extent{}, ErrInvalidBuffer{Lon: lon, Lat: lat, Meters: meters}
	}
	d := meters / EarthRadius
	phi := lat * math.Pi / 180
	deg := 180 / math.Pi
	minLat, maxLat := lat-d*deg, lat+d*deg

	if maxLat >= 90 || minLat <= -90 {
		return geom.Extent{-180, math.Max(minLat, -90), 180, math.Min(maxLat, 90)}, nil
	}
	dLon := math.Asin(math.Sin(d)/math.Cos(phi)) * deg
	return geom.Extent{lon - dLon, minLat, lon + dLon, maxLat}, nil
}

// ExtentPolygon returns the closed ring of the extent, counter-clockwise from the lower-left corner
func ExtentPolygon(e geom.Extent) geom.Polygon {
	return geom.Polygon{{
		{e[0], e[1]},
		{e[2], e[1]},
		{e[2], e[3]},
		{e[0], e[3]},
		{e[0], e[1]},
	}}
}
