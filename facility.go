package osm2act

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Facility is classified OSM object (or synthesized one) carrying activities and features
type Facility struct {
	ID           string
	OSMTags      map[string]string
	ActivityTags []Tag
	Geom         orb.Geometry
	// Features holds derived values. Nil value stands for "no value" (e.g. no targets for distance)
	Features map[string]*float64

	activities []string
	resolved   bool
}

// NewFacility creates facility with unresolved activities
func NewFacility(id string, osmTags map[string]string, activityTags []Tag, geom orb.Geometry) *Facility {
	tagsCopy := make(map[string]string, len(osmTags))
	for k, v := range osmTags {
		tagsCopy[k] = v
	}
	return &Facility{
		ID:           id,
		OSMTags:      tagsCopy,
		ActivityTags: copyTags(activityTags),
		Geom:         geom,
		Features:     make(map[string]*float64),
	}
}

// String returns pretty printed value for Facility
func (f *Facility) String() string {
	return fmt.Sprintf("Facility{id: %s | osm_tags: %v | activity_tags: %v | activities: %v | features: %d}",
		f.ID, f.OSMTags, f.ActivityTags, f.activities, len(f.Features))
}

// Bound returns bounding box of facility geometry
func (f *Facility) Bound() orb.Bound {
	return f.Geom.Bound()
}

// Centroid returns center of facility geometry
func (f *Facility) Centroid() orb.Point {
	return geometryCentroid(f.Geom)
}

// Area returns planar area of facility geometry
func (f *Facility) Area() float64 {
	return geometryArea(f.Geom)
}

// Activities returns resolved activities. Second value is false until activities are resolved
func (f *Facility) Activities() ([]string, bool) {
	return f.activities, f.resolved
}

// SetActivities stores copy of given activities and marks facility as resolved
func (f *Facility) SetActivities(acts []string) {
	f.activities = make([]string, len(acts))
	copy(f.activities, acts)
	f.resolved = true
}

// HasActivity checks if activity is among resolved ones
func (f *Facility) HasActivity(act string) bool {
	for _, a := range f.activities {
		if a == act {
			return true
		}
	}
	return false
}

// hasAnyActivity checks if any of given activities is among resolved ones
func (f *Facility) hasAnyActivity(acts []string) bool {
	for _, act := range acts {
		if f.HasActivity(act) {
			return true
		}
	}
	return false
}

// setFeature stores feature value
func (f *Facility) setFeature(name string, value float64) {
	f.Features[name] = &value
}

// setFeatureNull stores feature without value
func (f *Facility) setFeatureNull(name string) {
	f.Features[name] = nil
}
