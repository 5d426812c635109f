package processor

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/airbusgeo/s2-exporter/raster"
	"github.com/go-spatial/geom"
)

// Op is an operation of a recipe
type Op string

const (
	OpClip                 Op = "clip"                  // Extent
	OpSelect               Op = "select"                // Bands
	OpMaskSCL              Op = "mask_scl"              // Band (classification), Classes
	OpScale                Op = "scale"                 // Factor (divisor), Skip
	OpNormalizedDifference Op = "normalized_difference" // Bands (A, B)
	OpRename               Op = "rename"                // Bands (old), Names (new)
	OpToFloat              Op = "to_float"
)

var ops = map[Op]struct{}{OpClip: {}, OpSelect: {}, OpMaskSCL: {}, OpScale: {}, OpNormalizedDifference: {}, OpRename: {}, OpToFloat: {}}

// NormalizedDifferenceName is the name of the band created by OpNormalizedDifference
const NormalizedDifferenceName = "nd"

// Step is an operation and its arguments
type Step struct {
	Op      Op           `json:"op"`
	Extent  *geom.Extent `json:"extent,omitempty"`
	Bands   []string     `json:"bands,omitempty"`
	Names   []string     `json:"names,omitempty"`
	Band    string       `json:"band,omitempty"`
	Classes []int        `json:"classes,omitempty"`
	Factor  float64      `json:"factor,omitempty"`
	Skip    []string     `json:"skip,omitempty"`
}

func (o *Op) UnmarshalJSON(data []byte) error {
	var res string
	if err := json.Unmarshal(data, &res); err != nil {
		return err
	}
	if _, ok := ops[Op(res)]; !ok {
		return fmt.Errorf("UnmarshalJSON: unknown operation: %s", res)
	}
	*o = Op(res)
	return nil
}

// Validate checks the arguments of the step
func (s Step) Validate() error {
	switch s.Op {
	case OpClip:
		if s.Extent == nil || s.Extent[0] > s.Extent[2] || s.Extent[1] > s.Extent[3] {
			return fmt.Errorf("%s: invalid extent: %v", s.Op, s.Extent)
		}
	case OpSelect:
		if len(s.Bands) == 0 {
			return fmt.Errorf("%s: no band", s.Op)
		}
	case OpMaskSCL:
		if s.Band == "" {
			return fmt.Errorf("%s: no classification band", s.Op)
		}
	case OpScale:
		if s.Factor == 0 || math.IsNaN(s.Factor) {
			return fmt.Errorf("%s: invalid factor: %v", s.Op, s.Factor)
		}
	case OpNormalizedDifference:
		if len(s.Bands) != 2 {
			return fmt.Errorf("%s: expecting 2 bands, found %v", s.Op, s.Bands)
		}
	case OpRename:
		if len(s.Bands) == 0 || len(s.Bands) != len(s.Names) {
			return fmt.Errorf("%s: bands %v and names %v do not match", s.Op, s.Bands, s.Names)
		}
	case OpToFloat:
	default:
		return fmt.Errorf("unknown operation: %s", s.Op)
	}
	return nil
}

func (s Step) String() string {
	switch s.Op {
	case OpClip:
		if s.Extent == nil {
			return "clip()"
		}
		return fmt.Sprintf("clip(%g,%g,%g,%g)", s.Extent[0], s.Extent[1], s.Extent[2], s.Extent[3])
	case OpSelect, OpNormalizedDifference:
		return fmt.Sprintf("%s(%s)", s.Op, strings.Join(s.Bands, ","))
	case OpMaskSCL:
		classes := make([]string, len(s.Classes))
		for i, c := range s.Classes {
			classes[i] = fmt.Sprint(c)
		}
		return fmt.Sprintf("%s(%s:%s)", s.Op, s.Band, strings.Join(classes, ","))
	case OpScale:
		if len(s.Skip) > 0 {
			return fmt.Sprintf("scale(1/%g, except %s)", s.Factor, strings.Join(s.Skip, ","))
		}
		return fmt.Sprintf("scale(1/%g)", s.Factor)
	case OpRename:
		return fmt.Sprintf("rename(%s->%s)", strings.Join(s.Bands, ","), strings.Join(s.Names, ","))
	}
	return string(s.Op)
}

// Recipe is an ordered list of steps transforming a scene.
// It is evaluated remotely by the export backend or locally by Eval.
type Recipe []Step

// Then returns a new recipe with the steps appended (the recipe is not modified)
func (r Recipe) Then(steps ...Step) Recipe {
	res := make(Recipe, 0, len(r)+len(steps))
	res = append(res, r...)
	return append(res, steps...)
}

// Validate checks all the steps
func (r Recipe) Validate() error {
	for i, s := range r {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (r Recipe) String() string {
	steps := make([]string, len(r))
	for i, s := range r {
		steps[i] = s.String()
	}
	return strings.Join(steps, " | ")
}

// Eval applies the recipe on a copy of the image. NaN is the nodata value.
// The extent of OpClip is in the coordinates of the GeoTransform of the image.
func (r Recipe) Eval(img *raster.Image) (*raster.Image, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("Eval.%w", err)
	}
	out := img.Clone()
	var err error
	for i, s := range r {
		if out, err = evalStep(s, out); err != nil {
			return nil, fmt.Errorf("Eval: step %d: %w", i, err)
		}
	}
	return out, nil
}

// evalStep may modify img
func evalStep(s Step, img *raster.Image) (*raster.Image, error) {
	switch s.Op {
	case OpClip:
		clip(img, *s.Extent)
	case OpSelect:
		return img.Select(s.Bands...)
	case OpMaskSCL:
		if err := maskClasses(img, s.Band, s.Classes); err != nil {
			return nil, err
		}
	case OpScale:
		scale(img, s.Factor, s.Skip)
	case OpNormalizedDifference:
		a, err := img.Band(s.Bands[0])
		if err != nil {
			return nil, err
		}
		b, err := img.Band(s.Bands[1])
		if err != nil {
			return nil, err
		}
		nd, err := NormalizedDifferenceBand(a, b)
		if err != nil {
			return nil, err
		}
		out := raster.NewImage(img.GeoTransform)
		out.Bands[NormalizedDifferenceName] = nd
		return out, nil
	case OpRename:
		out := raster.NewImage(img.GeoTransform)
		renamed := map[string]string{}
		for i, old := range s.Bands {
			if _, err := img.Band(old); err != nil {
				return nil, err
			}
			renamed[old] = s.Names[i]
		}
		for name, b := range img.Bands {
			if n, ok := renamed[name]; ok {
				name = n
			}
			if _, ok := out.Bands[name]; ok {
				return nil, fmt.Errorf("rename: duplicate band %s", name)
			}
			out.Bands[name] = b
		}
		return out, nil
	case OpToFloat:
	}
	return img, nil
}

// clip sets to NaN all the pixels whose center is outside the extent
func clip(img *raster.Image, e geom.Extent) {
	w, h := img.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px, py := img.GeoTransform.PixelCenter(x, y)
			if px >= e[0] && px <= e[2] && py >= e[1] && py <= e[3] {
				continue
			}
			for _, b := range img.Bands {
				b.Set(x, y, math.NaN())
			}
		}
	}
}

// maskClasses sets to NaN all the pixels whose classification is one of the classes
func maskClasses(img *raster.Image, band string, classes []int) error {
	cls, err := img.Band(band)
	if err != nil {
		return err
	}
	invalid := map[float64]struct{}{}
	for _, c := range classes {
		invalid[float64(c)] = struct{}{}
	}
	masked := make([]bool, len(cls.Data))
	for i, v := range cls.Data {
		_, masked[i] = invalid[v]
	}
	for _, b := range img.Bands {
		for i := range b.Data {
			if masked[i] {
				b.Data[i] = math.NaN()
			}
		}
	}
	return nil
}

func scale(img *raster.Image, factor float64, skip []string) {
	for name, b := range img.Bands {
		if contains(skip, name) {
			continue
		}
		for i, v := range b.Data {
			b.Data[i] = v / factor
		}
	}
}

func contains(l []string, s string) bool {
	for _, e := range l {
		if e == s {
			return true
		}
	}
	return false
}
