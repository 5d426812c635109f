package opensearch

// Opensearch specificiations https://github.com/dewitt/opensearch/blob/master/opensearch-1-1-draft-6.md

import (
	"context"
	"encoding/json"
	"fmt"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/common"
	"github.com/airbusgeo/s2-exporter/service"
	"github.com/airbusgeo/s2-exporter/service/log"
	"github.com/go-spatial/geom/encoding/geojson"
	"github.com/go-spatial/geom/encoding/wkt"
)

const dateFormat = "2006-01-02T15:04:05.999Z"

type Hits struct {
	Uuid       string           `json:"id"`
	Footprint  geojson.Geometry `json:"geometry"`
	Properties struct {
		Identifier           string  `json:"title"`
		BeginPosition        string  `json:"startDate"`
		IngestionDate        string  `json:"published"`
		ProductType          string  `json:"productType"`
		CloudCoverPercentage float64 `json:"cloudCover"`
		RelativeOrbitNumber  int     `json:"relativeOrbitNumber"`
		ProcessingBaseline   string  `json:"processingBaseline"`
		Platform             string  `json:"platform"`
	} `json:"properties"`
}

type Config struct {
	Provider string
	BaseUrl  string
	PageSize int
}

// ConstructQuery returns the parameters of a Sentinel-2 L2A search
func ConstructQuery(q entities.SceneQuery, productType string) string {
	parameters := []string{
		"productType=" + productType,
		fmt.Sprintf("cloudCover=%s", neturl.QueryEscape(fmt.Sprintf("[0,%g]", q.MaxCloud))),
		"geometry=" + neturl.QueryEscape(q.AOI.WKT()),
		fmt.Sprintf("startDate=%s&completionDate=%s", q.Start.UTC().Format(dateFormat), q.End.UTC().Format(dateFormat)),
		"sortParam=startDate&sortOrder=ascending",
	}
	return strings.Join(parameters, "&")
}

// Query executes the query and follows the "next" links until limit hits are retrieved (0: no limit)
func Query(ctx context.Context, query string, config Config, limit int) ([]Hits, error) {
	var rawscenes []Hits
	totalPages := "?"
	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	for page := 1; ; page++ {
		log.Logger(ctx).Sugar().Debugf("[%s] Search page %d/%s", config.Provider, page, totalPages)

		// Load results
		url := config.BaseUrl + query + fmt.Sprintf("&maxRecords=%d&page=%d", pageSize, page)
		jsonResults, err := service.GetBodyRetry(ctx, url, 3)
		if err != nil {
			return nil, fmt.Errorf("query.getBodyRetry: %w", err)
		}

		//JSON
		results := struct {
			Status     int `json:"status"`
			Properties struct {
				TotalResults int `json:"totalResults"`
				Links        []struct {
					Rel  string `json:"rel"`
					Href string `json:"href"`
				}
			} `json:"properties"`
			Hits []Hits `json:"features"`
		}{}

		// Read results to retrieve scenes
		if err := json.Unmarshal(jsonResults, &results); err != nil {
			return nil, fmt.Errorf("query.Unmarshal : %w (response: %s)", err, jsonResults)
		}

		if results.Status != 0 && results.Status != 200 {
			return nil, fmt.Errorf("query : http status %d (response: %s)", results.Status, jsonResults)
		}

		// Merge the results
		rawscenes = append(rawscenes, results.Hits...)
		if limit > 0 && len(rawscenes) >= limit {
			return rawscenes[0:limit], nil
		}

		// Is there a next page ?
		nextPage := false
		for _, link := range results.Properties.Links {
			if strings.ToLower(link.Rel) == "next" && link.Href != "" {
				nextPage = true
			}
		}
		if !nextPage || len(results.Hits) == 0 {
			break
		}
		totalPages = strconv.Itoa((results.Properties.TotalResults-1)/pageSize + 1)
	}

	return rawscenes, nil
}

// Parse converts the hits into scenes
func Parse(hits []Hits) (entities.Scenes, error) {
	scenes := make(entities.Scenes, len(hits))
	for i, rawscene := range hits {
		// Parse date
		date, err := time.Parse(time.RFC3339Nano, rawscene.Properties.BeginPosition)
		if err != nil {
			return nil, fmt.Errorf("Parse.TimeParse: %w", err)
		}
		productID := strings.TrimSuffix(rawscene.Properties.Identifier, ".SAFE")

		// Create scene
		scenes[i] = &entities.Scene{
			ID:         rawscene.Uuid,
			ProductID:  productID,
			Date:       date,
			CloudCover: rawscene.Properties.CloudCoverPercentage,
			Properties: map[string]string{
				common.TagSourceID:              rawscene.Properties.Identifier,
				common.TagUUID:                  rawscene.Uuid,
				common.TagIngestionDate:         rawscene.Properties.IngestionDate,
				common.TagProductType:           rawscene.Properties.ProductType,
				common.TagRelativeOrbit:         strconv.Itoa(rawscene.Properties.RelativeOrbitNumber),
				common.TagProcessingBaseline:    rawscene.Properties.ProcessingBaseline,
				common.TagSpacecraft:            rawscene.Properties.Platform,
				common.TagCloudyPixelPercentage: strconv.FormatFloat(rawscene.Properties.CloudCoverPercentage, 'f', -1, 64),
			},
		}
		if rawscene.Footprint.Geometry != nil {
			scenes[i].GeometryWKT = wkt.MustEncode(rawscene.Footprint.Geometry)
		}

		// Autofill some fields
		scenes[i].AutoFill()
	}

	return scenes, nil
}
