package osm2act

import (
	"fmt"
	"strings"
)

// FeatureKind is derived numeric feature which could be calculated for facility
type FeatureKind uint16

const (
	FEATURE_AREA = FeatureKind(iota + 1)
	FEATURE_LEVELS
	FEATURE_FLOOR_AREA
	FEATURE_UNITS
)

func (iotaIdx FeatureKind) String() string {
	return [...]string{"area", "levels", "floor_area", "units"}[iotaIdx-1]
}

var (
	featureKindByName = map[string]FeatureKind{
		"area":       FEATURE_AREA,
		"levels":     FEATURE_LEVELS,
		"floor_area": FEATURE_FLOOR_AREA,
		"units":      FEATURE_UNITS,
	}
)

// ParseFeatureKind returns FeatureKind by its configuration name
func ParseFeatureKind(name string) (FeatureKind, error) {
	kind, ok := featureKindByName[strings.TrimSpace(name)]
	if !ok {
		return 0, fmt.Errorf("Feature '%s' is not supported. Expected one of: area, levels, floor_area, units", name)
	}
	return kind, nil
}

// ParseFeatureKinds converts list of names keeping its order
func ParseFeatureKinds(names []string) ([]FeatureKind, error) {
	kinds := make([]FeatureKind, 0, len(names))
	for _, name := range names {
		kind, err := ParseFeatureKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// GeometryKind tells whether raw OSM feature is point or area
type GeometryKind uint16

const (
	GEOMETRY_POINT = GeometryKind(iota + 1)
	GEOMETRY_AREA
)

func (iotaIdx GeometryKind) String() string {
	return [...]string{"point", "area"}[iotaIdx-1]
}
