package earthengine

import (
	"context"
	"encoding/json"
	"fmt"
	neturl "net/url"
	"strconv"
	"time"

	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/common"
	"github.com/airbusgeo/s2-exporter/service/log"
	"github.com/go-spatial/geom/encoding/geojson"
	"github.com/go-spatial/geom/encoding/wkt"
)

type image struct {
	Name       string                 `json:"name"`
	ID         string                 `json:"id"`
	StartTime  time.Time              `json:"startTime"`
	Geometry   json.RawMessage        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type listImagesResponse struct {
	Images        []image `json:"images"`
	NextPageToken string  `json:"nextPageToken"`
}

// SearchScenes implements catalog.ScenesProvider using the listImages method of the collection
func (c *Client) SearchScenes(ctx context.Context, q entities.SceneQuery) (entities.Scenes, error) {
	collection := q.Collection
	if collection == "" {
		collection = common.DefaultCollection
	}
	region, err := q.AOI.GeoJSON()
	if err != nil {
		return nil, fmt.Errorf("SearchScenes.%w", err)
	}
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	params := neturl.Values{}
	params.Set("startTime", q.Start.UTC().Format(time.RFC3339))
	params.Set("endTime", q.End.UTC().Format(time.RFC3339))
	params.Set("region", string(region))
	params.Set("filter", fmt.Sprintf("%s < %g", common.TagCloudyPixelPercentage, q.MaxCloud))
	params.Set("pageSize", strconv.Itoa(pageSize))

	baseURL := fmt.Sprintf("%s/%s/assets/%s:listImages", c.baseURL(), PublicProject, collection)
	var scenes entities.Scenes
	for page := 1; ; page++ {
		var resp listImagesResponse
		if err := c.do(ctx, "GET", baseURL+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("SearchScenes.%w", err)
		}
		for _, img := range resp.Images {
			scene, err := img.toScene()
			if err != nil {
				return nil, fmt.Errorf("SearchScenes.%w", err)
			}
			scenes = append(scenes, scene)
		}
		log.Logger(ctx).Sugar().Debugf("[EarthEngine] page %d: %d images", page, len(resp.Images))
		if resp.NextPageToken == "" {
			break
		}
		params.Set("pageToken", resp.NextPageToken)
	}
	return scenes, nil
}

func (img image) toScene() (*entities.Scene, error) {
	scene := &entities.Scene{
		ID:         img.ID,
		Date:       img.StartTime,
		Properties: map[string]string{},
	}
	for k, v := range img.Properties {
		switch v := v.(type) {
		case string:
			scene.Properties[k] = v
		case float64:
			scene.Properties[k] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			b, _ := json.Marshal(v)
			scene.Properties[k] = string(b)
		}
	}
	if cc, ok := img.Properties[common.TagCloudyPixelPercentage].(float64); ok {
		scene.CloudCover = cc
	} else {
		return nil, fmt.Errorf("toScene: %s: missing %s", img.ID, common.TagCloudyPixelPercentage)
	}
	if len(img.Geometry) > 0 && string(img.Geometry) != "null" {
		var g geojson.Geometry
		if err := json.Unmarshal(img.Geometry, &g); err != nil {
			return nil, fmt.Errorf("toScene: %s: %w", img.ID, err)
		}
		var err error
		if scene.GeometryWKT, err = wkt.EncodeString(g.Geometry); err != nil {
			return nil, fmt.Errorf("toScene: %s: %w", img.ID, err)
		}
	}
	scene.AutoFill()
	return scene, nil
}
