package location

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKnownLocations(t *testing.T) {
	expected := map[string][2]float64{
		"khartoum_center":  {32.5599, 15.5007},
		"nile_confluence":  {32.5088, 15.6177},
		"omdurman":         {32.4801, 15.6445},
		"bahri":            {32.5521, 15.6513},
		"tuti_island":      {32.5167, 15.6167},
		"greater_khartoum": {32.53, 15.58},
	}
	table := Default()
	assert.Len(t, table, len(expected))
	for key, lonlat := range expected {
		l, err := table.Resolve(key)
		require.NoError(t, err, key)
		assert.Equal(t, key, l.Key)
		assert.Equal(t, lonlat[0], l.Lon, key)
		assert.Equal(t, lonlat[1], l.Lat, key)
		assert.NotEmpty(t, l.Description)
	}
}

func TestResolveUnknownLocation(t *testing.T) {
	_, err := Default().Resolve("atlantis")
	require.Error(t, err)
	var unknown ErrUnknownLocation
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "atlantis", unknown.Key)
	assert.Contains(t, err.Error(), "atlantis")
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{"bahri", "greater_khartoum", "khartoum_center", "nile_confluence", "omdurman", "tuti_island"}, Default().Keys())
}

func TestMergeDoesNotMutate(t *testing.T) {
	table := Default()
	merged := table.Merge(Table{"soba": {Lon: 32.68, Lat: 15.47, Description: "Soba"}})
	_, err := table.Resolve("soba")
	assert.Error(t, err)
	l, err := merged.Resolve("soba")
	require.NoError(t, err)
	assert.Equal(t, "soba", l.Key)
	assert.Len(t, merged, 7)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locations.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"soba": {"lon": 32.68, "lat": 15.47, "description": "Soba"}}`), 0644))
	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Location{Key: "soba", Lon: 32.68, Lat: 15.47, Description: "Soba"}, table["soba"])

	require.NoError(t, os.WriteFile(path, []byte(`{"nowhere": {"lon": 200, "lat": 15}}`), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}
