package catalog

import (
	"fmt"

	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/common"
	"github.com/airbusgeo/s2-exporter/service/geometry"
)

func refineInventory(q entities.SceneQuery, scenes entities.Scenes) (entities.Scenes, error) {
	var err error
	scenes = removeCloudy(scenes, q.MaxCloud)
	scenes = removeDoubleEntries(scenes)
	if scenes, err = removeOutsideAOI(scenes, q.AOI); err != nil {
		return nil, fmt.Errorf("refineInventory.%w", err)
	}
	return scenes, nil
}

// removeCloudy removes scenes with a cloud cover greater or equal to maxCloud
// Some catalogs use an inclusive upper bound.
func removeCloudy(scenes entities.Scenes, maxCloud float64) entities.Scenes {
	j := 0
	for _, scene := range scenes {
		if scene.CloudCover < maxCloud {
			scenes[j] = scene
			j++
		}
	}
	return scenes[0:j]
}

// removeDoubleEntries removes acquisitions that appear twice in the inventory
// When a product is re-processed, its processing baseline and product discriminator change.
// Both products are found, even though they are the same acquisition. The latest processing is kept.
func removeDoubleEntries(scenes entities.Scenes) entities.Scenes {
	identifiers := map[string]int{}

	j := 0
	for _, scene := range scenes {
		name := scene.ProductName()
		if k, ok := identifiers[name]; !ok {
			scenes[j] = scene
			identifiers[name] = j
			j++
		} else if processing(scenes[k]) < processing(scene) {
			scenes[k] = scene
		}
	}

	return scenes[0:j]
}

// processing returns a sortable key of the processing (baseline and discriminator)
func processing(scene *entities.Scene) string {
	if info, err := common.Info(scene.ProductID); err == nil {
		return info["PDGS"] + info["PRODUCT_DISC"]
	}
	return scene.Properties[common.TagProcessingBaseline]
}

// removeOutsideAOI removes scenes whose footprint does not intersect the AOI
// Scenes without footprint are kept: the catalog already filtered them by bounds.
func removeOutsideAOI(scenes entities.Scenes, aoi entities.AreaOfInterest) (entities.Scenes, error) {
	paoi, err := geometry.NewPreparedArea(aoi.Polygon())
	if err != nil {
		return nil, fmt.Errorf("removeOutsideAOI.%w", err)
	}

	j := 0
	for i, scene := range scenes {
		intersect := true
		if scene.GeometryWKT != "" {
			if intersect, err = paoi.IntersectsWKT(scene.GeometryWKT); err != nil {
				return nil, fmt.Errorf("removeOutsideAOI.%w", err)
			}
		}
		if intersect {
			scenes[j] = scenes[i]
			j++
		}
	}

	return scenes[0:j], nil
}
