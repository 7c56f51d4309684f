package osm2act

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunGeoJSON(t *testing.T) {
	output := filepath.Join(t.TempDir(), "toy")
	files, err := Run(loadTestConfig(t), RunOptions{InputFile: toyOSMPath, OutputName: output}, zap.NewNop())
	require.NoError(t, err)
	// Default working CRS is planar, EPSG:4326 copy comes along
	require.Equal(t, []string{output + "_epsg_3857.geojson", output + "_epsg_4326.geojson"}, files)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 5)

	activities := map[string]interface{}{}
	for _, feature := range fc.Features {
		id := feature.PropertyMustString("id")
		activities[id] = feature.Properties["activities"]
		for _, name := range []string{"area", "floor_area", "levels", "units", "distance_to_nearest_transit", "distance_to_nearest_shop"} {
			assert.Contains(t, feature.Properties, name)
		}
		if id == "101" || id == "102" || id == "103" {
			assert.Greater(t, feature.PropertyMustFloat64("area"), 100.0, "building area is in square meters: %s", id)
			assert.Greater(t, feature.PropertyMustFloat64("floor_area"), 100.0, id)
		}
	}
	assert.Equal(t, map[string]interface{}{
		"101": "home",
		"102": "work",
		"103": "shop",
		"301": "transit,home",
		"302": "transit",
	}, activities)
}

func TestRunSingleUseWebMercator(t *testing.T) {
	output := filepath.Join(t.TempDir(), "toy")
	opts := RunOptions{
		InputFile:  toyOSMPath,
		OutputName: output,
		Format:     FORMAT_CSV,
		CRS:        "EPSG:3857",
		SingleUse:  true,
		Workers:    2,
	}
	files, err := Run(loadTestConfig(t), opts, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, []string{output + "_epsg_3857.csv", output + "_epsg_4326.csv"}, files)
	for _, fname := range files {
		assert.FileExists(t, fname)
	}
}

func TestRunGeoPackage(t *testing.T) {
	output := filepath.Join(t.TempDir(), "toy")
	files, err := Run(loadTestConfig(t), RunOptions{InputFile: toyOSMPath, OutputName: output, Format: FORMAT_GEOPACKAGE, CRS: CRS_WGS84, SingleUse: true}, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, []string{output + "_epsg_4326.gpkg"}, files)

	db, err := sql.Open("sqlite", files[0])
	require.NoError(t, err)
	defer db.Close()
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM facilities").Scan(&count))
	// Transit node inside residential area has two activities
	assert.Equal(t, 6, count)
}

func TestRunErrors(t *testing.T) {
	output := filepath.Join(t.TempDir(), "toy")

	cfg := loadTestConfig(t)
	cfg.DistanceToNearest = append(cfg.DistanceToNearest, "unknown")
	_, err := Run(cfg, RunOptions{InputFile: toyOSMPath, OutputName: output}, zap.NewNop())
	assert.Error(t, err, "invalid config")

	_, err = Run(loadTestConfig(t), RunOptions{InputFile: toyOSMPath, OutputName: output, Format: "geoparquet"}, zap.NewNop())
	assert.Error(t, err, "unknown format")

	_, err = Run(loadTestConfig(t), RunOptions{InputFile: toyOSMPath, OutputName: output, CRS: "epsg:27700"}, zap.NewNop())
	assert.Error(t, err, "unsupported CRS")

	_, err = Run(loadTestConfig(t), RunOptions{InputFile: "./testdata/missing.osm", OutputName: output}, zap.NewNop())
	assert.Error(t, err, "missing input")
}
