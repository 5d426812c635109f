package earthengine

import (
	"fmt"

	"github.com/airbusgeo/s2-exporter/processor"
)

// valueNode is a node of an Earth Engine expression graph
type valueNode map[string]interface{}

// Expression is the serialized computation sent to Earth Engine
type Expression struct {
	Result string               `json:"result"`
	Values map[string]valueNode `json:"values"`
}

func constant(v interface{}) valueNode {
	return valueNode{"constantValue": v}
}

func invoke(function string, args map[string]valueNode) valueNode {
	return valueNode{"functionInvocationValue": map[string]interface{}{
		"functionName": function,
		"arguments":    args,
	}}
}

// NewExpression translates the recipe applied to the image <assetID> into an Earth Engine expression
func NewExpression(assetID string, recipe processor.Recipe) (Expression, error) {
	if assetID == "" {
		return Expression{}, fmt.Errorf("NewExpression: no image")
	}
	if err := recipe.Validate(); err != nil {
		return Expression{}, fmt.Errorf("NewExpression.%w", err)
	}
	node := invoke("Image.load", map[string]valueNode{"id": constant(assetID)})
	var bands []string // unknown until a select or a normalized difference
	for i, step := range recipe {
		var err error
		if node, bands, err = translate(step, node, bands); err != nil {
			return Expression{}, fmt.Errorf("NewExpression: step %d: %w", i, err)
		}
	}
	return Expression{Result: "0", Values: map[string]valueNode{"0": node}}, nil
}

func translate(s processor.Step, in valueNode, bands []string) (valueNode, []string, error) {
	switch s.Op {
	case processor.OpClip:
		rectangle := invoke("GeometryConstructors.Rectangle", map[string]valueNode{
			"coordinates": constant([]float64{s.Extent[0], s.Extent[1], s.Extent[2], s.Extent[3]}),
			"geodesic":    constant(false),
		})
		return invoke("Image.clip", map[string]valueNode{"input": in, "geometry": rectangle}), bands, nil

	case processor.OpSelect:
		return selectBands(in, s.Bands), s.Bands, nil

	case processor.OpMaskSCL:
		var valid valueNode
		for _, c := range s.Classes {
			neq := invoke("Image.neq", map[string]valueNode{
				"image1": selectBands(in, []string{s.Band}),
				"image2": invoke("Image.constant", map[string]valueNode{"value": constant(c)}),
			})
			if valid == nil {
				valid = neq
			} else {
				valid = invoke("Image.and", map[string]valueNode{"image1": valid, "image2": neq})
			}
		}
		if valid == nil {
			return in, bands, nil
		}
		return invoke("Image.updateMask", map[string]valueNode{"image": in, "mask": valid}), bands, nil

	case processor.OpScale:
		divided := invoke("Image.divide", map[string]valueNode{
			"image1": in,
			"image2": invoke("Image.constant", map[string]valueNode{"value": constant(s.Factor)}),
		})
		if len(s.Skip) == 0 {
			return divided, bands, nil
		}
		return invoke("Image.addBands", map[string]valueNode{
			"dstImg":    divided,
			"srcImg":    selectBands(in, s.Skip),
			"overwrite": constant(true),
		}), bands, nil

	case processor.OpNormalizedDifference:
		return invoke("Image.normalizedDifference", map[string]valueNode{
			"input":     in,
			"bandNames": constant(s.Bands),
		}), []string{processor.NormalizedDifferenceName}, nil

	case processor.OpRename:
		if bands == nil {
			return nil, nil, fmt.Errorf("%s: the bands of the image are unknown (select them first)", s.Op)
		}
		names := make([]string, len(bands))
		copy(names, bands)
		for i, old := range s.Bands {
			found := false
			for j, b := range bands {
				if b == old {
					names[j] = s.Names[i]
					found = true
				}
			}
			if !found {
				return nil, nil, fmt.Errorf("%s: unknown band %s", s.Op, old)
			}
		}
		return invoke("Image.rename", map[string]valueNode{"input": in, "names": constant(names)}), names, nil

	case processor.OpToFloat:
		return invoke("Image.toFloat", map[string]valueNode{"value": in}), bands, nil
	}
	return nil, nil, fmt.Errorf("unsupported operation: %s", s.Op)
}

func selectBands(in valueNode, bands []string) valueNode {
	return invoke("Image.select", map[string]valueNode{
		"input":         in,
		"bandSelectors": constant(bands),
	})
}
