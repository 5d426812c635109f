// Package raster holds in-memory float rasters used to evaluate recipes locally.
// NaN is the nodata value.
package raster

import (
	"fmt"
	"math"
	"sort"
)

// Band is a row-major grid of values
type Band struct {
	Width  int
	Height int
	Data   []float64
}

// NewBand returns a band of the given size filled with value
func NewBand(width, height int, value float64) *Band {
	b := &Band{Width: width, Height: height, Data: make([]float64, width*height)}
	if value != 0 {
		for i := range b.Data {
			b.Data[i] = value
		}
	}
	return b
}

// FromRows creates a band from a slice of rows
func FromRows(rows [][]float64) (*Band, error) {
	if len(rows) == 0 {
		return &Band{}, nil
	}
	b := NewBand(len(rows[0]), len(rows), 0)
	for y, row := range rows {
		if len(row) != b.Width {
			return nil, fmt.Errorf("FromRows: row %d has %d values, expecting %d", y, len(row), b.Width)
		}
		copy(b.Data[y*b.Width:], row)
	}
	return b, nil
}

func (b *Band) At(x, y int) float64 {
	return b.Data[y*b.Width+x]
}

func (b *Band) Set(x, y int, v float64) {
	b.Data[y*b.Width+x] = v
}

// Clone returns a deep copy of the band
func (b *Band) Clone() *Band {
	c := &Band{Width: b.Width, Height: b.Height, Data: make([]float64, len(b.Data))}
	copy(c.Data, b.Data)
	return c
}

// SameSize returns true if both bands have the same dimensions
func (b *Band) SameSize(o *Band) bool {
	return b.Width == o.Width && b.Height == o.Height
}

// GeoTransform maps pixel to geographic coordinates (GDAL convention):
// X = GT[0] + col*GT[1] + row*GT[2], Y = GT[3] + col*GT[4] + row*GT[5]
type GeoTransform [6]float64

// PixelCenter returns the coordinates of the center of the pixel (x, y)
func (g GeoTransform) PixelCenter(x, y int) (float64, float64) {
	fx, fy := float64(x)+0.5, float64(y)+0.5
	return g[0] + fx*g[1] + fy*g[2], g[3] + fx*g[4] + fy*g[5]
}

// Image is a set of named bands sharing the same grid
type Image struct {
	GeoTransform GeoTransform
	Bands        map[string]*Band
}

// NewImage returns an empty image
func NewImage(gt GeoTransform) *Image {
	return &Image{GeoTransform: gt, Bands: map[string]*Band{}}
}

// Band returns the band or an error if the image does not have it
func (img *Image) Band(name string) (*Band, error) {
	b, ok := img.Bands[name]
	if !ok {
		return nil, fmt.Errorf("band %s not found", name)
	}
	return b, nil
}

// Add adds (or replaces) a band. All bands must have the same size.
func (img *Image) Add(name string, b *Band) error {
	for n, o := range img.Bands {
		if n != name && !o.SameSize(b) {
			return fmt.Errorf("Add: band %s (%dx%d) does not match %s (%dx%d)", name, b.Width, b.Height, n, o.Width, o.Height)
		}
	}
	img.Bands[name] = b
	return nil
}

// Names returns the sorted names of the bands
func (img *Image) Names() []string {
	names := make([]string, 0, len(img.Bands))
	for n := range img.Bands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Select returns a new image with a deep copy of the given bands
func (img *Image) Select(names ...string) (*Image, error) {
	out := NewImage(img.GeoTransform)
	for _, n := range names {
		b, err := img.Band(n)
		if err != nil {
			return nil, fmt.Errorf("Select: %w", err)
		}
		out.Bands[n] = b.Clone()
	}
	return out, nil
}

// Clone returns a deep copy of the image
func (img *Image) Clone() *Image {
	out := NewImage(img.GeoTransform)
	for n, b := range img.Bands {
		out.Bands[n] = b.Clone()
	}
	return out
}

// Size returns the dimensions shared by all the bands
func (img *Image) Size() (int, int) {
	for _, b := range img.Bands {
		return b.Width, b.Height
	}
	return 0, 0
}

// IsNoData returns true if v is the nodata value
func IsNoData(v float64) bool {
	return math.IsNaN(v)
}
