package catalog

import (
	"context"

	"github.com/airbusgeo/s2-exporter/catalog/entities"
)

// ScenesProvider searches the scenes intersecting the AOI, during the period, with a cloud cover lower than the maximum.
// The order of the scenes is defined by the provider.
type ScenesProvider interface {
	SearchScenes(ctx context.Context, q entities.SceneQuery) (entities.Scenes, error)
}
