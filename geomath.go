package osm2act

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// findDistance returns distance between two points (assuming they are Euclidean)
func findDistance(p, q orb.Point) float64 {
	xdistance := p.X() - q.X()
	ydistance := p.Y() - q.Y()
	return math.Sqrt(xdistance*xdistance + ydistance*ydistance)
}

// validateRing checks that ring could be used as polygon boundary
func validateRing(ring orb.Ring) error {
	if len(ring) < 4 {
		return fmt.Errorf("Ring has %d points, at least 4 expected", len(ring))
	}
	if !ring.Closed() {
		return fmt.Errorf("Ring is not closed")
	}
	if planar.Area(ring) == 0 {
		return fmt.Errorf("Ring is degenerate")
	}
	return nil
}

// validateGeometry checks structure of geometry which is going to be stored in indices.
// Self-intersections are checked by topology
func validateGeometry(geom orb.Geometry) error {
	switch g := geom.(type) {
	case orb.Point:
		if math.IsNaN(g.X()) || math.IsNaN(g.Y()) {
			return fmt.Errorf("Point has NaN coordinates")
		}
		return nil
	case orb.Polygon:
		if len(g) == 0 {
			return fmt.Errorf("Polygon has no rings")
		}
		for i := range g {
			if err := validateRing(g[i]); err != nil {
				return err
			}
		}
		return nil
	case orb.MultiPolygon:
		if len(g) == 0 {
			return fmt.Errorf("MultiPolygon has no polygons")
		}
		for i := range g {
			if err := validateGeometry(g[i]); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return fmt.Errorf("Geometry is empty")
	default:
		return fmt.Errorf("Geometry type '%s' is not handled", geom.GeoJSONType())
	}
}

// geometryArea returns planar area of geometry. Points have zero area
func geometryArea(geom orb.Geometry) float64 {
	if geom == nil {
		return 0
	}
	return math.Abs(planar.Area(geom))
}

// geometryCentroid returns center of mass for polygons and point itself for points
func geometryCentroid(geom orb.Geometry) orb.Point {
	if pt, ok := geom.(orb.Point); ok {
		return pt
	}
	centroid, area := planar.CentroidArea(geom)
	if area == 0 {
		return geom.Bound().Center()
	}
	return centroid
}

// geometryContainsPoint checks if point is inside of geometry. Boundary is considered as inside
func geometryContainsPoint(geom orb.Geometry, pt orb.Point) bool {
	switch g := geom.(type) {
	case orb.Point:
		return g.Equal(pt)
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	default:
		return false
	}
}

// boundingGrid returns regular grid of points over the bound starting at its minimum corner
func boundingGrid(bound orb.Bound, spacing [2]float64) []orb.Point {
	nxs := 1 + int((bound.Max.X()-bound.Min.X())/spacing[0])
	nys := 1 + int((bound.Max.Y()-bound.Min.Y())/spacing[1])
	grid := make([]orb.Point, 0, nxs*nys)
	for ix := 0; ix < nxs; ix++ {
		x := bound.Min.X() + float64(ix)*spacing[0]
		for iy := 0; iy < nys; iy++ {
			y := bound.Min.Y() + float64(iy)*spacing[1]
			grid = append(grid, orb.Point{x, y})
		}
	}
	return grid
}

// areaGrid returns grid points which are inside of area (boundary included)
func areaGrid(area orb.Geometry, spacing [2]float64) []orb.Point {
	grid := boundingGrid(area.Bound(), spacing)
	output := make([]orb.Point, 0, len(grid))
	for _, pt := range grid {
		if geometryContainsPoint(area, pt) {
			output = append(output, pt)
		}
	}
	return output
}

// pointToPolygon returns rectangle of given size which bottom-left corner is the point
func pointToPolygon(pt orb.Point, size [2]float64) orb.Polygon {
	x, y := pt.X(), pt.Y()
	dx, dy := size[0], size[1]
	return orb.Polygon{
		orb.Ring{{x, y}, {x + dx, y}, {x + dx, y + dy}, {x, y + dy}, {x, y}},
	}
}
