package osm2act

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

// PrepareWKTPoint returns WKT representation of Point
func PrepareWKTPoint(pt orb.Point) string {
	return wkt.MarshalString(pt)
}

// WriteCSV writes table as ';'-separated file with WKT geometry.
// Null features are written as empty strings
func WriteCSV(table *SummaryTable, fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	header := append([]string{"id", table.ActivityColumn, "geom"}, table.FeatureColumns...)
	err = writer.Write(header)
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, row := range table.Rows {
		record := make([]string, 0, len(header))
		record = append(record, row.ID, row.Activity, PrepareWKTPoint(row.Geom))
		for _, name := range table.FeatureColumns {
			value := row.Features[name]
			if value == nil {
				record = append(record, "")
				continue
			}
			record = append(record, strconv.FormatFloat(*value, 'f', -1, 64))
		}
		err = writer.Write(record)
		if err != nil {
			return errors.Wrap(err, "Can't write record")
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "Can't flush records")
}
