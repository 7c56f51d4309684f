package osm2act

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Donor is not selected OSM object which carries activity tags only to pass them
// to facilities nearby. Donors are never changed after creation
type Donor struct {
	ID           int64
	ActivityTags []Tag
	Geom         orb.Geometry
}

// NewDonor creates donor
func NewDonor(id int64, activityTags []Tag, geom orb.Geometry) *Donor {
	return &Donor{
		ID:           id,
		ActivityTags: copyTags(activityTags),
		Geom:         geom,
	}
}

// String returns pretty printed value for Donor
func (d *Donor) String() string {
	return fmt.Sprintf("Donor{id: %d | activity_tags: %v | type: %s}", d.ID, d.ActivityTags, d.Geom.GeoJSONType())
}

// Bound returns bounding box of donor geometry
func (d *Donor) Bound() orb.Bound {
	return d.Geom.Bound()
}
