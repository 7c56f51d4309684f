package osm2act

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newInfillHandler prepares handler with residential area (0,0)-(100,100) and three facilities:
// polygon with "a", point with "b" and "c" and point with "d" outside of the area
func newInfillHandler(t *testing.T) *Handler {
	handler := newTestHandler(t, emptyConfig())
	handler.AddFacility(facilityWithActs("0", square(0, 0, 10, 10), "a"))
	handler.AddFacility(facilityWithActs("1", orb.Point{1, 1}, "b", "c"))
	handler.AddFacility(facilityWithActs("2", orb.Point{110, 110}, "d"))
	handler.AddArea(NewDonor(0, []Tag{tag("landuse", "residential")}, square(0, 0, 100, 100)))
	return handler
}

func houseGroup() FillGroup {
	return FillGroup{
		AreaTags:     []Tag{tag("landuse", "residential")},
		RequiredActs: StringList{"d"},
		NewTags:      []Tag{tag("building", "house")},
		Size:         []float64{10, 10},
	}
}

func lastFacilities(handler *Handler, n int) []*Facility {
	items := handler.Facilities.Items()
	return items[len(items)-n:]
}

func TestRequiredActivitiesArea(t *testing.T) {
	handler := newInfillHandler(t)
	target := square(0, 0, 50, 50)
	size := [2]float64{10, 10}
	cases := []struct {
		name     string
		acts     []string
		expected float64
	}{
		{"polygon", []string{"a"}, 100},
		{"polygon and point", []string{"a", "b"}, 200},
		{"point counted once", []string{"b", "c"}, 100},
		{"one in one out", []string{"b", "d"}, 100},
		{"outside", []string{"d"}, 0},
		{"nothing", []string{"x"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, handler.requiredActivitiesArea(tc.acts, target, size))
		})
	}
}

func TestFillMissingActivitiesSingleBuilding(t *testing.T) {
	handler := newInfillHandler(t)
	group := houseGroup()
	group.Spacing = []float64{101, 101}

	zones, created, err := handler.FillMissingActivities(group)
	require.NoError(t, err)
	assert.Equal(t, 1, zones)
	assert.Equal(t, 1, created)
	require.Equal(t, 4, handler.Facilities.Len())

	house := lastFacilities(handler, 1)[0]
	assert.Equal(t, "fill_0", house.ID)
	assert.Equal(t, square(0, 0, 10, 10), house.Geom)
	assert.Equal(t, map[string]string{"building": "house"}, house.OSMTags)
	assert.Equal(t, []Tag{tag("building", "house")}, house.ActivityTags)
	acts, resolved := house.Activities()
	assert.True(t, resolved)
	assert.Equal(t, []string{"d"}, acts)
}

func TestFillMissingActivitiesMultipleBuildings(t *testing.T) {
	handler := newInfillHandler(t)
	group := houseGroup()
	group.Spacing = []float64{100, 100}

	zones, created, err := handler.FillMissingActivities(group)
	require.NoError(t, err)
	assert.Equal(t, 1, zones)
	assert.Equal(t, 4, created)

	houses := lastFacilities(handler, 4)
	assert.Equal(t, "fill_0", houses[0].ID)
	assert.Equal(t, square(0, 0, 10, 10), houses[0].Geom)
	assert.Equal(t, "fill_3", houses[3].ID)
	assert.Equal(t, square(100, 100, 110, 110), houses[3].Geom)

	// Created facilities are visible right away, so the area is not filled twice
	zones, created, err = handler.FillMissingActivities(group)
	require.NoError(t, err)
	assert.Equal(t, 0, zones)
	assert.Equal(t, 0, created)
}

func TestFillMissingActivitiesCounterIsShared(t *testing.T) {
	handler := newInfillHandler(t)
	handler.AddArea(NewDonor(1, []Tag{tag("landuse", "farmland")}, square(200, 200, 300, 300)))
	group := houseGroup()
	group.Spacing = []float64{101, 101}
	_, _, err := handler.FillMissingActivities(group)
	require.NoError(t, err)

	group.AreaTags = []Tag{tag("landuse", "farmland")}
	group.RequiredActs = StringList{"farm"}
	_, created, err := handler.FillMissingActivities(group)
	require.NoError(t, err)
	require.Equal(t, 1, created)
	assert.Equal(t, "fill_1", lastFacilities(handler, 1)[0].ID)
}

func TestFillMissingActivitiesPointSource(t *testing.T) {
	handler := newInfillHandler(t)
	fname := filepath.Join(t.TempDir(), "points.geojson")
	data := `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [0, 0]}},
		{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [1, 101]}},
		{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [10, 20]}},
		{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [200, 1]}}
	]}`
	require.NoError(t, os.WriteFile(fname, []byte(data), 0644))

	group := houseGroup()
	group.FillMethod = FILL_METHOD_POINT_SOURCE
	group.PointSource = fname
	zones, created, err := handler.FillMissingActivities(group)
	require.NoError(t, err)
	assert.Equal(t, 1, zones)
	assert.Equal(t, 2, created)

	houses := lastFacilities(handler, 2)
	assert.Equal(t, "fill_0", houses[0].ID)
	assert.Equal(t, square(0, 0, 10, 10), houses[0].Geom)
	assert.Equal(t, "fill_1", houses[1].ID)
	assert.Equal(t, square(10, 20, 20, 30), houses[1].Geom)
}

func TestFillMissingActivitiesPointSourceCRS(t *testing.T) {
	handler := newInfillHandler(t)
	fname := filepath.Join(t.TempDir(), "points.csv")
	// (10, 0) and (200, 0) in EPSG:3857 meters
	require.NoError(t, os.WriteFile(fname, []byte("x;y\n1113194.9079327357;0\n22263898.158654714;0\n"), 0644))

	group := houseGroup()
	group.FillMethod = FILL_METHOD_POINT_SOURCE
	group.PointSource = fname
	group.PointSourceCRS = "EPSG:3857"
	_, created, err := handler.FillMissingActivities(group)
	require.NoError(t, err)
	require.Equal(t, 1, created)
	anchor := lastFacilities(handler, 1)[0].Geom.(orb.Polygon)[0][0]
	assert.InDelta(t, 10.0, anchor.X(), 1e-9)
	assert.InDelta(t, 0.0, anchor.Y(), 1e-9)

	group.PointSourceCRS = "epsg:27700"
	_, _, err = handler.FillMissingActivities(group)
	assert.Error(t, err)
}

func TestFillMissingActivitiesPointSourceMissing(t *testing.T) {
	handler := newInfillHandler(t)
	group := houseGroup()
	group.FillMethod = FILL_METHOD_POINT_SOURCE
	_, _, err := handler.FillMissingActivities(group)
	require.Error(t, err)
	assert.Equal(t, "Missing activity fill method expects a path to a point source geospatial data file, received None", err.Error())
	assert.Equal(t, 3, handler.Facilities.Len())

	group.PointSource = "./testdata/missing.geojson"
	_, _, err = handler.FillMissingActivities(group)
	assert.Error(t, err)
}

func TestFillMissingActivitiesUnknownMethod(t *testing.T) {
	handler := newInfillHandler(t)
	group := houseGroup()
	group.FillMethod = "random"
	_, _, err := handler.FillMissingActivities(group)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "random"))
}

func TestFillMissingActivitiesMaxExistingActsFraction(t *testing.T) {
	cases := []struct {
		maxFraction  float64
		expectedFill bool
	}{
		{0, false},
		{0.02, false},
		{0.04, true},
	}
	for _, tc := range cases {
		handler := newInfillHandler(t)
		// 100 units for the point (size 10x10) and 200 units for the polygon: 0.03 of the area
		handler.AddFacility(facilityWithActs("3", orb.Point{1, 1}, "d"))
		handler.AddFacility(facilityWithActs("4", square(30, 40, 40, 60), "d"))

		group := houseGroup()
		group.Spacing = []float64{100, 100}
		group.MaxExistingActsFraction = tc.maxFraction
		_, created, err := handler.FillMissingActivities(group)
		require.NoError(t, err)

		hasFill := false
		for _, facility := range handler.Facilities.Items() {
			if strings.HasPrefix(facility.ID, "fill") {
				hasFill = true
			}
		}
		assert.Equal(t, tc.expectedFill, hasFill, "max fraction: %f", tc.maxFraction)
		assert.Equal(t, tc.expectedFill, created > 0, "max fraction: %f", tc.maxFraction)
	}
}

func TestFillMissingActivitiesSkipsOtherAreas(t *testing.T) {
	handler := newTestHandler(t, emptyConfig())
	handler.AddArea(NewDonor(0, []Tag{tag("landuse", "retail")}, square(0, 0, 100, 100)))
	zones, created, err := handler.FillMissingActivities(houseGroup())
	require.NoError(t, err)
	assert.Equal(t, 0, zones)
	assert.Equal(t, 0, created)
}

func TestFillAll(t *testing.T) {
	cfg := emptyConfig()
	cfg.FillMissingActivities = []FillGroup{{RequiredActs: StringList{"d"}, Spacing: []float64{101, 101}}}
	handler := newTestHandler(t, cfg)
	handler.AddArea(NewDonor(0, []Tag{tag("landuse", "residential")}, square(0, 0, 100, 100)))
	require.NoError(t, handler.FillAll())
	require.Equal(t, 1, handler.Facilities.Len())
	assert.Equal(t, map[string]string{"building": "house"}, handler.Facilities.Items()[0].OSMTags)

	cfg.FillMissingActivities = []FillGroup{{FillMethod: FILL_METHOD_POINT_SOURCE}}
	handler = newTestHandler(t, cfg)
	handler.AddArea(NewDonor(0, []Tag{tag("landuse", "residential")}, square(0, 0, 100, 100)))
	assert.Error(t, handler.FillAll())
}
