package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/common"
	"github.com/airbusgeo/s2-exporter/location"
	"github.com/araddon/dateparse"
)

// Config are the parameters of an export run
type Config struct {
	Location   string  `json:"location"`
	StartDate  string  `json:"start_date"` // Any format accepted by dateparse (2024-01-01, 2024-01-01T00:00:00Z...)
	EndDate    string  `json:"end_date"`
	BufferKm   float64 `json:"buffer_km"`
	MaxCloud   float64 `json:"max_cloud"` // Percent
	Folder     string  `json:"folder"`
	Collection string  `json:"collection"`
	NamePrefix string  `json:"name_prefix"` // Template of the file names (see common.FilenamePrefix)
}

// DefaultConfig returns the default parameters
func DefaultConfig() Config {
	return Config{
		Location:   "khartoum_center",
		StartDate:  "2024-01-01",
		EndDate:    "2024-02-28",
		BufferKm:   2,
		MaxCloud:   20,
		Folder:     "Khartoum_S2_Data",
		Collection: common.DefaultCollection,
		NamePrefix: common.DefaultNamePrefix,
	}
}

// DecodeConfig decodes a JSON config. Missing fields take the default value.
func DecodeConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("DecodeConfig: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a JSON config file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("LoadConfig: %w", err)
	}
	cfg, err := DecodeConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("LoadConfig.%w", err)
	}
	return cfg, nil
}

// Dates parses the start and end dates (UTC if no timezone is given)
func (c Config) Dates() (time.Time, time.Time, error) {
	start, err := dateparse.ParseIn(c.StartDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", c.StartDate, err)
	}
	end, err := dateparse.ParseIn(c.EndDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", c.EndDate, err)
	}
	return start, end, nil
}

// Validate checks the config. The location must be in the table.
func (c Config) Validate(locations location.Table) error {
	if _, err := locations.Resolve(c.Location); err != nil {
		return err
	}
	start, end, err := c.Dates()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("end date (%s) must be after start date (%s)", c.EndDate, c.StartDate)
	}
	if !(c.BufferKm > 0) || math.IsInf(c.BufferKm, 0) {
		return fmt.Errorf("buffer must be positive: %g km", c.BufferKm)
	}
	if !(c.MaxCloud > 0 && c.MaxCloud <= 100) {
		return fmt.Errorf("cloud cover threshold must be in ]0, 100]: %g", c.MaxCloud)
	}
	if c.Folder == "" {
		return fmt.Errorf("export folder is empty")
	}
	if strings.Contains(c.Folder, `\`) || !filepath.IsLocal(filepath.FromSlash(c.Folder)) {
		return fmt.Errorf("export folder must be a relative path without '..': %q", c.Folder)
	}
	if strings.ContainsAny(c.NamePrefix, `/\`) || strings.Contains(c.NamePrefix, "..") {
		return fmt.Errorf("name prefix must not contain a path: %q", c.NamePrefix)
	}
	return nil
}

// Query validates the config and creates the query of the catalog
func (c Config) Query(locations location.Table) (entities.SceneQuery, location.Location, error) {
	if err := c.Validate(locations); err != nil {
		return entities.SceneQuery{}, location.Location{}, fmt.Errorf("Query.%w", err)
	}
	loc, _ := locations.Resolve(c.Location)
	start, end, _ := c.Dates()
	aoi, err := entities.NewAreaOfInterest(loc.Lon, loc.Lat, c.BufferKm)
	if err != nil {
		return entities.SceneQuery{}, location.Location{}, fmt.Errorf("Query.%w", err)
	}
	collection := c.Collection
	if collection == "" {
		collection = common.DefaultCollection
	}
	return entities.SceneQuery{
		AOI:        aoi,
		Start:      start,
		End:        end,
		MaxCloud:   c.MaxCloud,
		Collection: collection,
	}, loc, nil
}
