package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/interface/catalog"
	"github.com/airbusgeo/s2-exporter/service/log"
)

// MaxCandidates is the number of candidates kept for reporting
const MaxCandidates = 15

// Catalog is the main class of this package
type Catalog struct {
	Provider catalog.ScenesProvider
}

// ErrNoScenesFound is returned when no scene matches the query
type ErrNoScenesFound struct {
	Query entities.SceneQuery
}

func (e ErrNoScenesFound) Error() string {
	return "no " + e.Query.String()
}

// Candidate is a summary of a scene, for reporting
type Candidate struct {
	Rank       int       `json:"rank"`
	Date       time.Time `json:"date"`
	CloudCover float64   `json:"cloud_cover"`
	TileID     string    `json:"tile_id"`
	ProductID  string    `json:"product_id"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("%d. Date: %s | Cloud: %.2f%% | Tile: %s", c.Rank, c.Date.Format("2006-01-02"), c.CloudCover, c.TileID)
}

// Selection is the result of SelectBest
type Selection struct {
	Best       *entities.Scene `json:"best"`
	Candidates []Candidate     `json:"candidates"`
	Total      int             `json:"total"`
	Ranked     entities.Scenes `json:"-"` // Scenes of the candidates
}

// FormatCandidates returns the candidates, one per line
func (s Selection) FormatCandidates() string {
	lines := make([]string, len(s.Candidates))
	for i, c := range s.Candidates {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}

// Inventory lists the scenes matching the query, in the order of the provider
func (c *Catalog) Inventory(ctx context.Context, q entities.SceneQuery) (entities.Scenes, error) {
	if c.Provider == nil {
		return nil, fmt.Errorf("Inventory: no catalog is configured")
	}
	log.Logger(ctx).Sugar().Debugf("Search %s", q)
	scenes, err := c.Provider.SearchScenes(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("Inventory.%w", err)
	}
	for _, scene := range scenes {
		scene.AutoFill()
	}
	n := len(scenes)
	if scenes, err = refineInventory(q, scenes); err != nil {
		return nil, fmt.Errorf("Inventory.%w", err)
	}
	log.Logger(ctx).Sugar().Debugf("%d scenes found (%d before refinement)", len(scenes), n)
	return scenes, nil
}

// SelectBest returns the least cloudy scene matching the query.
// Scenes with the same cloud cover keep the order of the catalog.
func (c *Catalog) SelectBest(ctx context.Context, q entities.SceneQuery) (Selection, error) {
	scenes, err := c.Inventory(ctx, q)
	if err != nil {
		return Selection{}, fmt.Errorf("SelectBest.%w", err)
	}
	return Select(q, scenes)
}

// Select sorts the scenes by cloud cover and returns the best one with the first MaxCandidates candidates.
// The input slice is not modified.
func Select(q entities.SceneQuery, scenes entities.Scenes) (Selection, error) {
	if len(scenes) == 0 {
		return Selection{}, ErrNoScenesFound{Query: q}
	}
	sorted := make(entities.Scenes, len(scenes))
	copy(sorted, scenes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CloudCover < sorted[j].CloudCover })

	s := Selection{Best: sorted[0], Total: len(sorted)}
	for i, scene := range sorted {
		if i == MaxCandidates {
			break
		}
		s.Candidates = append(s.Candidates, Candidate{
			Rank:       i + 1,
			Date:       scene.Date,
			CloudCover: scene.CloudCover,
			TileID:     scene.TileID,
			ProductID:  scene.ProductID,
		})
		s.Ranked = append(s.Ranked, scene)
	}
	return s, nil
}
