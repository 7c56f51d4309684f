package osm2act

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/orb"
)

const (
	FORMAT_GEOJSON    = "geojson"
	FORMAT_CSV        = "csv"
	FORMAT_GEOPACKAGE = "geopackage"
)

var (
	extensionByFormat = map[string]string{
		FORMAT_GEOJSON:    "geojson",
		FORMAT_CSV:        "csv",
		FORMAT_GEOPACKAGE: "gpkg",
	}
)

// Summary is flat output record for a facility (or for single activity of a facility)
type Summary struct {
	ID string
	// Activity is comma-joined list of activities or single activity (in single-use mode)
	Activity string
	Geom     orb.Point
	Features map[string]*float64
}

// SummaryTable is set of output records sharing the same columns
type SummaryTable struct {
	// ActivityColumn is "activities" for multi-use output and "activity" for single-use one
	ActivityColumn string
	FeatureColumns []string
	Rows           []Summary
}

// Summaries prepares output records: one per facility or, in single-use mode,
// one per activity of each facility. Geometry is facility centroid
func (handler *Handler) Summaries(singleUse bool) *SummaryTable {
	table := &SummaryTable{
		ActivityColumn: "activities",
		Rows:           make([]Summary, 0, handler.Facilities.Len()),
	}
	if singleUse {
		table.ActivityColumn = "activity"
	}
	columns := make(map[string]struct{})
	for _, facility := range handler.Facilities.Items() {
		for name := range facility.Features {
			columns[name] = struct{}{}
		}
		acts, _ := facility.Activities()
		centroid := facility.Centroid()
		if !singleUse {
			table.Rows = append(table.Rows, Summary{
				ID:       facility.ID,
				Activity: strings.Join(acts, ","),
				Geom:     centroid,
				Features: facility.Features,
			})
			continue
		}
		for _, act := range acts {
			table.Rows = append(table.Rows, Summary{
				ID:       facility.ID,
				Activity: act,
				Geom:     centroid,
				Features: facility.Features,
			})
		}
	}
	table.FeatureColumns = make([]string, 0, len(columns))
	for name := range columns {
		table.FeatureColumns = append(table.FeatureColumns, name)
	}
	sort.Strings(table.FeatureColumns)
	return table
}

// Reproject returns copy of table with every geometry transformed
func (table *SummaryTable) Reproject(proj orb.Projection) *SummaryTable {
	output := &SummaryTable{
		ActivityColumn: table.ActivityColumn,
		FeatureColumns: table.FeatureColumns,
		Rows:           make([]Summary, len(table.Rows)),
	}
	for i, row := range table.Rows {
		row.Geom = reprojectPoint(row.Geom, proj)
		output.Rows[i] = row
	}
	return output
}

// OutputFilename returns `<name>_<crs>.<extension>` where ':' in CRS is replaced with '_'
func OutputFilename(name, crs, format string) (string, error) {
	ext, ok := extensionByFormat[format]
	if !ok {
		return "", fmt.Errorf("Output format '%s' is not supported. Expected one of: geojson, csv, geopackage", format)
	}
	return fmt.Sprintf("%s_%s.%s", name, strings.ReplaceAll(normalizeCRS(crs), ":", "_"), ext), nil
}

// WriteTable writes table to file in given format
func WriteTable(table *SummaryTable, fname, format, crs string) error {
	switch format {
	case FORMAT_GEOJSON:
		return WriteGeoJSON(table, fname)
	case FORMAT_CSV:
		return WriteCSV(table, fname)
	case FORMAT_GEOPACKAGE:
		return WriteGeoPackage(table, fname, crs)
	default:
		return fmt.Errorf("Output format '%s' is not supported. Expected one of: geojson, csv, geopackage", format)
	}
}
