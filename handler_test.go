package osm2act

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	toyOSMPath     = "./testdata/toy.osm"
	testConfigPath = "./testdata/test_config.json"
)

func loadTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadConfig(testConfigPath)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestHandler(t *testing.T, cfg *Config, options ...func(*Handler)) *Handler {
	t.Helper()
	options = append([]func(*Handler){WithLogger(zap.NewNop())}, options...)
	handler, err := NewHandler(cfg, options...)
	require.NoError(t, err)
	return handler
}

// emptyConfig is minimal config for tests which put objects into handler directly
func emptyConfig() *Config {
	return &Config{
		Filter: map[string]StringList{"building": {"*"}},
		ActivityMapping: map[string]map[string][]string{
			"building": {"house": {"home"}},
		},
	}
}

func TestNewHandler(t *testing.T) {
	handler := newTestHandler(t, loadTestConfig(t))
	assert.Equal(t, CRS_WGS84, handler.CRS())
	assert.Nil(t, handler.proj)
	assert.False(t, handler.lazy)
	assert.Equal(t, []FeatureKind{FEATURE_AREA, FEATURE_LEVELS, FEATURE_FLOOR_AREA, FEATURE_UNITS}, handler.features)

	handler = newTestHandler(t, loadTestConfig(t), WithCRS("EPSG:3857"), WithLazy(true), WithWorkers(0))
	assert.Equal(t, CRS_WEB_MERCATOR, handler.CRS())
	assert.NotNil(t, handler.proj)
	assert.True(t, handler.lazy)
	assert.Equal(t, 1, handler.workers)

	_, err := NewHandler(loadTestConfig(t), WithCRS("epsg:27700"), WithLogger(zap.NewNop()))
	assert.Error(t, err)
}

func TestNewHandlerWarnsOnGeographicCRS(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	_, err := NewHandler(loadTestConfig(t), WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessageSnippet("geographic").Len())

	core, logs = observer.New(zap.WarnLevel)
	_, err = NewHandler(loadTestConfig(t), WithCRS(CRS_WEB_MERCATOR), WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())

	// Nothing planar is calculated
	core, logs = observer.New(zap.WarnLevel)
	_, err = NewHandler(emptyConfig(), WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())
}

func TestExtractActivityTags(t *testing.T) {
	handler := newTestHandler(t, loadTestConfig(t))
	tags := osm.Tags{
		{Key: "name", Value: "Corner"},
		{Key: "shop", Value: "anything"},
		{Key: "building", Value: "yes"},
		{Key: "amenity", Value: "cafe"},
		{Key: "amenity", Value: "bench"},
	}
	assert.Equal(t, []Tag{{Key: "shop", Value: "anything"}, {Key: "amenity", Value: "cafe"}}, handler.ExtractActivityTags(tags))
	assert.Empty(t, handler.ExtractActivityTags(osm.Tags{{Key: "name", Value: "x"}}))
	assert.NotNil(t, handler.ExtractActivityTags(nil))
}

func TestAddFeature(t *testing.T) {
	handler := newTestHandler(t, loadTestConfig(t))
	poly := square(0, 0, 1, 1)

	handler.AddFeature(RawFeature{ID: 1, Tags: osm.Tags{{Key: "building", Value: "yes"}}, Kind: GEOMETRY_AREA, Geom: poly})
	handler.AddFeature(RawFeature{ID: 2, Tags: osm.Tags{{Key: "shop", Value: "bakery"}}, Kind: GEOMETRY_POINT, Geom: orb.Point{0.5, 0.5}})
	handler.AddFeature(RawFeature{ID: 3, Tags: osm.Tags{{Key: "landuse", Value: "residential"}}, Kind: GEOMETRY_AREA, Geom: poly})
	handler.AddFeature(RawFeature{ID: 4, Tags: osm.Tags{{Key: "natural", Value: "tree"}}, Kind: GEOMETRY_POINT, Geom: orb.Point{0.5, 0.5}})
	// Bow-tie building is dropped
	handler.AddFeature(RawFeature{ID: 5, Tags: osm.Tags{{Key: "building", Value: "yes"}}, Kind: GEOMETRY_AREA, Geom: orb.Polygon{orb.Ring{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}}})
	handler.AddFeature(RawFeature{ID: 6, Tags: osm.Tags{{Key: "building", Value: "yes"}}, Kind: GEOMETRY_AREA, Geom: nil})

	require.Equal(t, 1, handler.Facilities.Len())
	require.Equal(t, 1, handler.Points.Len())
	require.Equal(t, 1, handler.Areas.Len())

	facility := handler.Facilities.Items()[0]
	assert.Equal(t, "1", facility.ID)
	assert.Equal(t, map[string]string{"building": "yes"}, facility.OSMTags)
	assert.Empty(t, facility.ActivityTags)
	_, resolved := facility.Activities()
	assert.False(t, resolved)

	assert.Equal(t, []Tag{{Key: "shop", Value: "bakery"}}, handler.Points.Items()[0].ActivityTags)
	assert.Equal(t, int64(3), handler.Areas.Items()[0].ID)
}

func TestAddFeatureReprojects(t *testing.T) {
	handler := newTestHandler(t, loadTestConfig(t), WithCRS(CRS_WEB_MERCATOR))
	source := orb.Point{10, 50}
	handler.AddFeature(RawFeature{ID: 1, Tags: osm.Tags{{Key: "highway", Value: "bus_stop"}}, Kind: GEOMETRY_POINT, Geom: source})
	require.Equal(t, 1, handler.Facilities.Len())
	pt, ok := handler.Facilities.Items()[0].Geom.(orb.Point)
	require.True(t, ok)
	assert.InDelta(t, 1113194.9, pt.X(), 1)
	assert.InDelta(t, 6446275.8, pt.Y(), 1)
	assert.Equal(t, orb.Point{10, 50}, source, "source geometry must stay intact")
}

func TestLoadToy(t *testing.T) {
	handler := newTestHandler(t, loadTestConfig(t))
	require.NoError(t, handler.ApplyFile(toyOSMPath))
	assert.Equal(t, 5, handler.Facilities.Len())
	assert.Equal(t, 6, handler.Points.Len())
	assert.Equal(t, 3, handler.Areas.Len())

	ids := []string{}
	for _, facility := range handler.Facilities.Items() {
		ids = append(ids, facility.ID)
	}
	assert.ElementsMatch(t, []string{"101", "102", "103", "301", "302"}, ids)

	kinds := map[int64]string{}
	for _, area := range handler.Areas.Items() {
		kinds[area.ID] = area.Geom.GeoJSONType()
	}
	assert.Equal(t, map[int64]string{401: "Polygon", 402: "Polygon", 501: "Polygon"}, kinds)
}

func TestApplyFileErrors(t *testing.T) {
	handler := newTestHandler(t, loadTestConfig(t))
	assert.Error(t, handler.ApplyFile("./testdata/missing.osm"))
	assert.Error(t, handler.ApplyFile(testConfigPath))
}

func TestToyAssignTags(t *testing.T) {
	cases := []struct {
		name     string
		lazy     bool
		tally    AssignTally
		expected map[string][]string
	}{
		{
			name:  "full",
			lazy:  false,
			tally: AssignTally{Existing: 4, Points: 1, Areas: 3, Defaults: 0},
			expected: map[string][]string{
				"101": {"home"},
				"102": {"work"},
				"103": {"shop"},
				"301": {"transit", "home"},
				"302": {"transit"},
			},
		},
		{
			name:  "lazy",
			lazy:  true,
			tally: AssignTally{Existing: 4, Points: 0, Areas: 1, Defaults: 0},
			expected: map[string][]string{
				"101": {"home"},
				"102": {"work"},
				"103": {"shop"},
				"301": {"transit"},
				"302": {"transit"},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(t, loadTestConfig(t), WithLazy(tc.lazy))
			require.NoError(t, handler.ApplyFile(toyOSMPath))
			assert.Equal(t, tc.tally, handler.AssignTags())
			handler.AssignActivities()
			for _, facility := range handler.Facilities.Items() {
				acts, resolved := facility.Activities()
				assert.True(t, resolved)
				assert.Equal(t, tc.expected[facility.ID], acts, "facility %s", facility.ID)
			}
		})
	}
}
