package osm2act

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/twpayne/go-geos"
	"go.uber.org/zap"
)

// FillMissingActivities creates new facilities inside area donors matching group's area tags
// where required activities occupy not more than allowed fraction of the area.
// Returns number of filled areas and number of created facilities.
//
// Created facilities are inserted into the facilities index immediately, so they are seen
// by the next areas of the same run and by the next groups
func (handler *Handler) FillMissingActivities(group FillGroup) (int, int, error) {
	st := time.Now()
	group = group.withDefaults()
	size := [2]float64{group.Size[0], group.Size[1]}
	spacing := [2]float64{group.Spacing[0], group.Spacing[1]}
	requiredActs := []string(group.RequiredActs)

	var pointSource []orb.Point
	switch group.FillMethod {
	case FILL_METHOD_SPACING:
		// Nothing to prepare
	case FILL_METHOD_POINT_SOURCE:
		if group.PointSource == "" {
			return 0, 0, errors.New("Missing activity fill method expects a path to a point source geospatial data file, received None")
		}
		proj, err := ProjectionBetween(group.PointSourceCRS, handler.crs)
		if err != nil {
			return 0, 0, errors.Wrap(err, "Can't prepare point source projection")
		}
		pointSource, err = LoadPointSource(group.PointSource, proj)
		if err != nil {
			return 0, 0, errors.Wrap(err, "Can't load point source")
		}
	default:
		return 0, 0, errors.Errorf("Fill method '%s' is not supported. Expected one of: %s, %s", group.FillMethod, FILL_METHOD_SPACING, FILL_METHOD_POINT_SOURCE)
	}

	zones := 0
	created := 0
	for _, area := range handler.Areas.Items() {
		if !TagsMatch(group.AreaTags, area.ActivityTags) {
			continue
		}
		targetArea := geometryArea(area.Geom)
		if targetArea == 0 {
			continue
		}
		occupied := handler.requiredActivitiesArea(requiredActs, area.Geom, size)
		if occupied/targetArea > group.MaxExistingActsFraction {
			continue
		}
		zones++

		var anchors []orb.Point
		switch group.FillMethod {
		case FILL_METHOD_SPACING:
			anchors = areaGrid(area.Geom, spacing)
		case FILL_METHOD_POINT_SOURCE:
			anchors = pointsInArea(pointSource, area.Geom)
		}
		for _, pt := range anchors {
			handler.Facilities.Insert(fillFacility(handler.fillCounter, pt, size, group.NewTags, requiredActs))
			handler.fillCounter++
			created++
		}
	}
	handler.logger.Info("Missing activities filled",
		zap.Strings("required_acts", requiredActs),
		zap.String("method", group.FillMethod),
		zap.Int("zones", zones),
		zap.Int("created", created),
		zap.Duration("took", time.Since(st)),
	)
	return zones, created, nil
}

// requiredActivitiesArea returns total area of facilities located completely inside the target
// and having any of required activities. Points are treated as rectangles of given size
func (handler *Handler) requiredActivitiesArea(requiredActs []string, target orb.Geometry, size [2]float64) float64 {
	total := 0.0
	var targetGeom *geos.Geom
	for _, facility := range handler.Facilities.Query(target.Bound()) {
		if !facility.hasAnyActivity(requiredActs) {
			continue
		}
		if targetGeom == nil {
			var err error
			targetGeom, err = handler.topo.geom(target)
			if err != nil {
				handler.logger.Warn("Can't prepare target area", zap.Error(err))
				return 0
			}
			defer targetGeom.Destroy()
		}
		geom, err := handler.topo.geom(facility.Geom)
		if err != nil {
			handler.logger.Warn("Can't prepare facility geometry", zap.String("facility", facility.ID), zap.Error(err))
			continue
		}
		covered := targetGeom.Covers(geom)
		geom.Destroy()
		if !covered {
			continue
		}
		if _, ok := facility.Geom.(orb.Point); ok {
			total += size[0] * size[1]
			continue
		}
		total += facility.Area()
	}
	return total
}

// pointsInArea returns points which are inside of area (boundary included)
func pointsInArea(points []orb.Point, area orb.Geometry) []orb.Point {
	bound := area.Bound()
	output := make([]orb.Point, 0)
	for _, pt := range points {
		if !bound.Contains(pt) {
			continue
		}
		if geometryContainsPoint(area, pt) {
			output = append(output, pt)
		}
	}
	return output
}

// fillFacility creates synthetic facility with rectangular footprint anchored at the point
func fillFacility(counter int, pt orb.Point, size [2]float64, newTags []Tag, requiredActs []string) *Facility {
	facility := NewFacility(fmt.Sprintf("fill_%d", counter), tagsToMap(newTags), newTags, pointToPolygon(pt, size))
	facility.SetActivities(requiredActs)
	return facility
}

// FillAll runs every configured infill group in order
func (handler *Handler) FillAll() error {
	for i, group := range handler.cfg.FillMissingActivities {
		if _, _, err := handler.FillMissingActivities(group); err != nil {
			return errors.Wrapf(err, "Fill missing activities group #%d", i)
		}
	}
	return nil
}
