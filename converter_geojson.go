package osm2act

import (
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// PrepareGeoJSONPoint returns GeoJSON geometry of Point
func PrepareGeoJSONPoint(pt orb.Point) *geojson.Geometry {
	return geojson.NewPointGeometry([]float64{pt.X(), pt.Y()})
}

// PrepareGeoJSONFeature returns GeoJSON feature for output record
func PrepareGeoJSONFeature(row Summary, activityColumn string, featureColumns []string) *geojson.Feature {
	feature := geojson.NewFeature(PrepareGeoJSONPoint(row.Geom))
	feature.SetProperty("id", row.ID)
	feature.SetProperty(activityColumn, row.Activity)
	for _, name := range featureColumns {
		value, ok := row.Features[name]
		if !ok || value == nil {
			feature.SetProperty(name, nil)
			continue
		}
		feature.SetProperty(name, *value)
	}
	return feature
}

// WriteGeoJSON writes table as GeoJSON FeatureCollection
func WriteGeoJSON(table *SummaryTable, fname string) error {
	fc := geojson.NewFeatureCollection()
	for _, row := range table.Rows {
		fc.AddFeature(PrepareGeoJSONFeature(row, table.ActivityColumn, table.FeatureColumns))
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Can't marshal GeoJSON")
	}
	err = os.WriteFile(fname, b, 0644)
	if err != nil {
		return errors.Wrap(err, "Can't write GeoJSON file")
	}
	return nil
}
