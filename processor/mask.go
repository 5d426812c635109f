package processor

import (
	"fmt"

	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/common"
	"github.com/airbusgeo/s2-exporter/raster"
)

// CloudMasker removes the pixels classified as clouds, cloud shadows or cirrus
type CloudMasker struct {
	InvalidClasses []int   // SCL classes to mask
	Scale          float64 // Divisor converting digital numbers to reflectance
}

// NewCloudMasker returns a CloudMasker with the default classes and scale
func NewCloudMasker() CloudMasker {
	return CloudMasker{InvalidClasses: common.InvalidSCLClasses(), Scale: common.ReflectanceScale}
}

// MaskedScene is a scene clipped to an AOI, with (or without) cloud mask
type MaskedScene struct {
	Scene  *entities.Scene
	AOI    entities.AreaOfInterest
	Recipe Recipe
	Masked bool          // The cloud mask has been applied
	Bands  *raster.Image // Only when the scene carries pixels
}

// MaskRecipe returns the steps: clip to the AOI, mask the invalid classes, scale the reflectances.
// Clipping is done first so that tile-edge nodata are not changed by the mask.
func (m CloudMasker) MaskRecipe(aoi entities.AreaOfInterest) Recipe {
	extent := aoi.Extent
	return Recipe{
		{Op: OpClip, Extent: &extent},
		{Op: OpMaskSCL, Band: common.SCL, Classes: m.InvalidClasses},
		{Op: OpScale, Factor: m.Scale, Skip: classificationBands()},
	}
}

// ClipRecipe returns the steps: clip to the AOI, scale all the bands (SCL included)
func (m CloudMasker) ClipRecipe(aoi entities.AreaOfInterest) Recipe {
	extent := aoi.Extent
	return Recipe{
		{Op: OpClip, Extent: &extent},
		{Op: OpScale, Factor: m.Scale},
	}
}

// classificationBands are the bands that do not hold a reflectance
func classificationBands() []string {
	var bands []string
	for _, b := range common.BandsFull() {
		if !common.IsReflectance(b) {
			bands = append(bands, b)
		}
	}
	return bands
}

// Mask clips the scene to the AOI, masks the clouds and converts to reflectance.
// The scene is not modified.
func (m CloudMasker) Mask(scene *entities.Scene, aoi entities.AreaOfInterest) (MaskedScene, error) {
	ms, err := m.apply(scene, aoi, m.MaskRecipe(aoi))
	if err != nil {
		return MaskedScene{}, fmt.Errorf("Mask.%w", err)
	}
	ms.Masked = true
	return ms, nil
}

// Clip clips the scene to the AOI and converts to reflectance, without cloud mask
func (m CloudMasker) Clip(scene *entities.Scene, aoi entities.AreaOfInterest) (MaskedScene, error) {
	ms, err := m.apply(scene, aoi, m.ClipRecipe(aoi))
	if err != nil {
		return MaskedScene{}, fmt.Errorf("Clip.%w", err)
	}
	return ms, nil
}

func (m CloudMasker) apply(scene *entities.Scene, aoi entities.AreaOfInterest, recipe Recipe) (MaskedScene, error) {
	if scene == nil {
		return MaskedScene{}, fmt.Errorf("no scene")
	}
	if err := recipe.Validate(); err != nil {
		return MaskedScene{}, err
	}
	ms := MaskedScene{Scene: scene, AOI: aoi, Recipe: recipe}
	if scene.Bands != nil {
		var err error
		if ms.Bands, err = recipe.Eval(scene.Bands); err != nil {
			return MaskedScene{}, err
		}
	}
	return ms, nil
}
