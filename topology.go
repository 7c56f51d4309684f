package osm2act

import (
	"encoding/binary"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/pkg/errors"
	"github.com/twpayne/go-geos"
)

// topology evaluates exact predicates with GEOS. Geometries are passed as WKB
type topology struct {
	ctx *geos.Context
}

func newTopology() *topology {
	return &topology{
		ctx: geos.NewContext(),
	}
}

// geom converts orb geometry into GEOS one
func (topo *topology) geom(g orb.Geometry) (*geos.Geom, error) {
	data, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal WKB")
	}
	geom, err := topo.ctx.NewGeomFromWKB(data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read WKB")
	}
	return geom, nil
}

// Validate checks geometry structure (see validateGeometry) and then its OGC validity:
// self-intersections, overlapping polygons, holes outside of shells
func (topo *topology) Validate(g orb.Geometry) error {
	if err := validateGeometry(g); err != nil {
		return err
	}
	if _, ok := g.(orb.Point); ok {
		return nil
	}
	geom, err := topo.geom(g)
	if err != nil {
		return err
	}
	defer geom.Destroy()
	if !geom.IsValid() {
		return errors.Errorf("Geometry is invalid: %s", geom.IsValidReason())
	}
	return nil
}

// Covers checks if geometry lies completely inside of area. Touching area boundary is allowed
func (topo *topology) Covers(area orb.Geometry, g orb.Geometry) (bool, error) {
	areaGeom, err := topo.geom(area)
	if err != nil {
		return false, err
	}
	defer areaGeom.Destroy()
	geom, err := topo.geom(g)
	if err != nil {
		return false, err
	}
	defer geom.Destroy()
	return areaGeom.Covers(geom), nil
}
