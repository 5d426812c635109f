package copernicus

import (
	"context"
	"fmt"

	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/interface/catalog/opensearch"
)

const (
	CopernicusPageLimit = 1000
	Sentinel2QueryURL   = "https://catalogue.dataspace.copernicus.eu/resto/api/collections/Sentinel2/search.json?"
	ProductTypeL2A      = "S2MSI2A"
)

// Provider searches Sentinel-2 L2A products in the Copernicus Data Space catalogue
type Provider struct {
	Limit   int    // Maximum number of scenes
	BaseURL string // Default: Sentinel2QueryURL
}

func (s *Provider) SearchScenes(ctx context.Context, q entities.SceneQuery) (entities.Scenes, error) {
	if s.Limit == 0 {
		s.Limit = CopernicusPageLimit
	}
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = Sentinel2QueryURL
	}

	// Execute query
	query := opensearch.ConstructQuery(q, ProductTypeL2A)
	rawscenes, err := opensearch.Query(ctx, query, opensearch.Config{Provider: "Copernicus", BaseUrl: baseURL}, s.Limit)
	if err != nil {
		return nil, fmt.Errorf("Copernicus.SearchScenes.%w", err)
	}

	// Parse results
	scenes, err := opensearch.Parse(rawscenes)
	if err != nil {
		return nil, fmt.Errorf("Copernicus.SearchScenes.%w", err)
	}
	return scenes, nil
}
