package osm2act

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/pkg/errors"
)

const (
	// CRS_WGS84 is the source CRS of OSM data
	CRS_WGS84 = "epsg:4326"
	// CRS_WEB_MERCATOR is the only planar CRS supported as working CRS
	CRS_WEB_MERCATOR = "epsg:3857"
)

// crsProjection is pair of transformations between EPSG:4326 and some CRS
type crsProjection struct {
	fromWGS84 orb.Projection
	toWGS84   orb.Projection
}

var (
	supportedCRS = map[string]crsProjection{
		CRS_WGS84:        {fromWGS84: nil, toWGS84: nil},
		CRS_WEB_MERCATOR: {fromWGS84: project.WGS84.ToMercator, toWGS84: project.Mercator.ToWGS84},
		"epsg:900913":    {fromWGS84: project.WGS84.ToMercator, toWGS84: project.Mercator.ToWGS84},
	}
)

// normalizeCRS returns lowercase CRS code
func normalizeCRS(crs string) string {
	return strings.ToLower(strings.TrimSpace(crs))
}

// isWGS84 checks if CRS code is EPSG:4326
func isWGS84(crs string) bool {
	return normalizeCRS(crs) == CRS_WGS84
}

// ProjectionFromWGS84 returns transformation from EPSG:4326 to given CRS.
// Returns nil projection for EPSG:4326 itself (nothing to do)
func ProjectionFromWGS84(crs string) (orb.Projection, error) {
	p, ok := supportedCRS[normalizeCRS(crs)]
	if !ok {
		return nil, errors.Errorf("CRS '%s' is not supported", crs)
	}
	return p.fromWGS84, nil
}

// ProjectionToWGS84 returns transformation from given CRS to EPSG:4326
func ProjectionToWGS84(crs string) (orb.Projection, error) {
	p, ok := supportedCRS[normalizeCRS(crs)]
	if !ok {
		return nil, errors.Errorf("CRS '%s' is not supported", crs)
	}
	return p.toWGS84, nil
}

// ProjectionBetween returns transformation from one supported CRS to another.
// Returns nil projection when both are the same
func ProjectionBetween(from, to string) (orb.Projection, error) {
	if normalizeCRS(from) == normalizeCRS(to) {
		return nil, nil
	}
	toWGS84, err := ProjectionToWGS84(from)
	if err != nil {
		return nil, err
	}
	fromWGS84, err := ProjectionFromWGS84(to)
	if err != nil {
		return nil, err
	}
	switch {
	case toWGS84 == nil:
		return fromWGS84, nil
	case fromWGS84 == nil:
		return toWGS84, nil
	}
	return func(pt orb.Point) orb.Point {
		return fromWGS84(toWGS84(pt))
	}, nil
}

// reproject applies projection to geometry. Nil projection leaves geometry untouched.
// Geometry is cloned, so the source stays intact
func reproject(geom orb.Geometry, proj orb.Projection) orb.Geometry {
	if proj == nil || geom == nil {
		return geom
	}
	return project.Geometry(orb.Clone(geom), proj)
}

// reprojectPoint applies projection to single point
func reprojectPoint(pt orb.Point, proj orb.Projection) orb.Point {
	if proj == nil {
		return pt
	}
	return proj(pt)
}
