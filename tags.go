package osm2act

import (
	"fmt"
)

// wildcardValue is how "any value" is spelled in configuration files
const wildcardValue = "*"

// Tag is a single OSM key/value pair
type Tag struct {
	Key   string
	Value string
}

// String returns pretty printed value for Tag
func (tag Tag) String() string {
	return fmt.Sprintf("%s=%s", tag.Key, tag.Value)
}

// TagValueKind tells whether a configured tag value is concrete or wildcard
type TagValueKind uint16

const (
	VALUE_SPECIFIC = TagValueKind(iota + 1)
	VALUE_ANY
)

func (iotaIdx TagValueKind) String() string {
	return [...]string{"specific", "any"}[iotaIdx-1]
}

// TagValue is a configured tag value: either a concrete value or "any value"
type TagValue struct {
	kind  TagValueKind
	value string
}

// Specific returns TagValue matching exactly given value
func Specific(value string) TagValue {
	return TagValue{kind: VALUE_SPECIFIC, value: value}
}

// AnyValue returns TagValue matching every value
func AnyValue() TagValue {
	return TagValue{kind: VALUE_ANY}
}

// ParseTagValue converts configuration string to TagValue. "*" becomes AnyValue()
func ParseTagValue(s string) TagValue {
	if s == wildcardValue {
		return AnyValue()
	}
	return Specific(s)
}

// IsAny returns true for wildcard value
func (tv TagValue) IsAny() bool {
	return tv.kind == VALUE_ANY
}

// Matches checks if given OSM value is covered by TagValue
func (tv TagValue) Matches(value string) bool {
	if tv.kind == VALUE_ANY {
		return true
	}
	return tv.value == value
}

func (tv TagValue) String() string {
	if tv.kind == VALUE_ANY {
		return wildcardValue
	}
	return tv.value
}

// TagsMatch returns true if two tag lists share at least one tag.
// Empty lists never match
func TagsMatch(a, b []Tag) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, ta := range a {
		for _, tb := range b {
			if ta == tb {
				return true
			}
		}
	}
	return false
}

// copyTags returns new slice with the same tags
func copyTags(tags []Tag) []Tag {
	output := make([]Tag, len(tags))
	copy(output, tags)
	return output
}

// tagsToMap flattens tag list. Later duplicates overwrite earlier ones
func tagsToMap(tags []Tag) map[string]string {
	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		m[tag.Key] = tag.Value
	}
	return m
}

var (
	// defaultLevelsByBuilding is used when levels are required but neither
	// `building:levels` nor `height` is present
	defaultLevelsByBuilding = map[string]float64{
		"apartments":         4,
		"bungalow":           1,
		"detached":           2,
		"dormitory":          4,
		"hotel":              3,
		"house":              2,
		"residential":        2,
		"semidetached_house": 2,
		"terrace":            2,
		"commercial":         1,
		"retail":             1,
		"supermarket":        1,
		"industrial":         1,
		"office":             4,
		"warehouse":          1,
		"bakehouse":          1,
		"firestation":        2,
		"government":         2,
		"cathedral":          1,
		"chapel":             1,
		"church":             1,
		"mosque":             1,
		"religous":           1,
		"shrine":             1,
		"synagogue":          1,
		"temple":             1,
		"hospital":           4,
		"kindergarden":       2,
		"school":             2,
		"university":         3,
		"college":            3,
		"sports_hall":        1,
		"stadium":            1,
	}

	// areaNegativeValues are `area` tag values which make closed way a line
	areaNegativeValues = map[string]struct{}{
		"no": {},
	}

	// multipolygonTypes are relation `type` tag values assembled into areas
	multipolygonTypes = map[string]struct{}{
		"multipolygon": {},
		"boundary":     {},
	}
)
