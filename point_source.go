package osm2act

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// LoadPointSource reads points from GeoJSON (.geojson, .json), CSV (.csv with x and y columns)
// or ESRI Shapefile (.shp). Files carry no CRS information that is read here: points are
// transformed with given projection from the source CRS (nil means no transformation)
func LoadPointSource(filename string, proj orb.Projection) ([]orb.Point, error) {
	var points []orb.Point
	var err error
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".geojson", ".json":
		points, err = loadPointsGeoJSON(filename)
	case ".csv":
		points, err = loadPointsCSV(filename)
	case ".shp":
		points, err = loadPointsShapefile(filename)
	default:
		return nil, errors.Errorf("Point source extension '%s' for file '%s' is not handled yet", ext, filename)
	}
	if err != nil {
		return nil, err
	}
	for i := range points {
		points[i] = reprojectPoint(points[i], proj)
	}
	return points, nil
}

func loadPointsGeoJSON(filename string) ([]orb.Point, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read point source")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't decode GeoJSON point source")
	}
	points := make([]orb.Point, 0, len(fc.Features))
	for _, feature := range fc.Features {
		if feature.Geometry == nil {
			continue
		}
		switch feature.Geometry.Type {
		case geojson.GeometryPoint:
			if len(feature.Geometry.Point) < 2 {
				continue
			}
			points = append(points, orb.Point{feature.Geometry.Point[0], feature.Geometry.Point[1]})
		case geojson.GeometryMultiPoint:
			for _, pt := range feature.Geometry.MultiPoint {
				if len(pt) < 2 {
					continue
				}
				points = append(points, orb.Point{pt[0], pt[1]})
			}
		}
	}
	return points, nil
}

func loadPointsCSV(filename string) ([]orb.Point, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open point source")
	}
	defer file.Close()
	reader := csv.NewReader(file)
	reader.Comma = ';'
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "Can't read point source header")
	}
	if len(header) == 1 && strings.Contains(header[0], ",") {
		// Not a semicolon separated file: start over with commas
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, errors.Wrap(err, "Can't seek point source to start")
		}
		reader = csv.NewReader(file)
		header, err = reader.Read()
		if err != nil {
			return nil, errors.Wrap(err, "Can't read point source header")
		}
	}
	xIdx, yIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "x", "lon", "lng", "longitude":
			xIdx = i
		case "y", "lat", "latitude":
			yIdx = i
		}
	}
	if xIdx < 0 || yIdx < 0 {
		return nil, errors.Errorf("Point source CSV must have 'x' and 'y' columns, got: %v", header)
	}
	points := make([]orb.Point, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "Can't read point source record")
		}
		x, okX := parseFloat(record[xIdx])
		y, okY := parseFloat(record[yIdx])
		if !okX || !okY {
			return nil, errors.Errorf("Bad coordinates in point source record %v", record)
		}
		points = append(points, orb.Point{x, y})
	}
	return points, nil
}

func loadPointsShapefile(filename string) ([]orb.Point, error) {
	reader, err := shp.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open point source shapefile")
	}
	defer reader.Close()
	points := make([]orb.Point, 0)
	for reader.Next() {
		_, shape := reader.Shape()
		switch s := shape.(type) {
		case *shp.Point:
			points = append(points, orb.Point{s.X, s.Y})
		case *shp.PointZ:
			points = append(points, orb.Point{s.X, s.Y})
		case *shp.PointM:
			points = append(points, orb.Point{s.X, s.Y})
		case *shp.MultiPoint:
			for _, pt := range s.Points {
				points = append(points, orb.Point{pt.X, pt.Y})
			}
		}
	}
	if err := reader.Err(); err != nil {
		return nil, errors.Wrap(err, "Can't read point source shapefile")
	}
	return points, nil
}
