package osm2act

import (
	"time"

	"go.uber.org/zap"
)

// AssignTags backfills activity tags of facilities from point donors, area donors
// and configured defaults (in that order of priority).
//
// In lazy mode facilities which already have activity tags are left as is.
// In full mode every facility is checked against donors and donor tags are appended
// even to already tagged facilities (duplicates are kept)
func (handler *Handler) AssignTags() AssignTally {
	st := time.Now()
	handler.Tally = AssignTally{}
	if handler.lazy {
		handler.assignTagsLazy()
	} else {
		handler.assignTagsFull()
	}
	handler.logger.Info("Activity tags assigned",
		zap.Bool("lazy", handler.lazy),
		zap.Int("existing", handler.Tally.Existing),
		zap.Int("points", handler.Tally.Points),
		zap.Int("areas", handler.Tally.Areas),
		zap.Int("defaults", handler.Tally.Defaults),
		zap.Duration("took", time.Since(st)),
	)
	return handler.Tally
}

func (handler *Handler) assignTagsFull() {
	for _, facility := range handler.Facilities.Items() {
		if len(facility.ActivityTags) > 0 {
			handler.Tally.Existing++
		}
		if handler.assignPoints(facility) {
			handler.Tally.Points++
			continue
		}
		if handler.assignAreas(facility) {
			handler.Tally.Areas++
			continue
		}
		if len(facility.ActivityTags) == 0 && handler.applyDefaultTags(facility) {
			handler.Tally.Defaults++
		}
	}
}

func (handler *Handler) assignTagsLazy() {
	for _, facility := range handler.Facilities.Items() {
		if len(facility.ActivityTags) > 0 {
			handler.Tally.Existing++
			continue
		}
		if handler.assignPoints(facility) {
			handler.Tally.Points++
			continue
		}
		if handler.assignAreas(facility) {
			handler.Tally.Areas++
			continue
		}
		if handler.applyDefaultTags(facility) {
			handler.Tally.Defaults++
		}
	}
}

// assignPoints appends tags of every point donor which bounding box intersects facility's one
func (handler *Handler) assignPoints(facility *Facility) bool {
	found := false
	for _, donor := range handler.Points.Query(facility.Bound()) {
		if len(donor.ActivityTags) == 0 {
			continue
		}
		facility.ActivityTags = append(facility.ActivityTags, donor.ActivityTags...)
		found = true
	}
	return found
}

// assignAreas appends tags of every area donor containing facility's centroid
func (handler *Handler) assignAreas(facility *Facility) bool {
	centroid := facility.Centroid()
	found := false
	for _, donor := range handler.Areas.Query(facility.Bound()) {
		if len(donor.ActivityTags) == 0 {
			continue
		}
		if !geometryContainsPoint(donor.Geom, centroid) {
			continue
		}
		facility.ActivityTags = append(facility.ActivityTags, donor.ActivityTags...)
		found = true
	}
	return found
}

// applyDefaultTags replaces facility's activity tags with configured defaults
func (handler *Handler) applyDefaultTags(facility *Facility) bool {
	if len(handler.defaultTags) == 0 {
		return false
	}
	facility.ActivityTags = copyTags(handler.defaultTags)
	return true
}
