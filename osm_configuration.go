package osm2act

import (
	"sort"

	"github.com/paulmach/osm"
)

// TagFilter selects OSM objects which become facilities
/*
	map[tagKey][]acceptedValues
*/
type TagFilter map[string][]TagValue

// NewTagFilter builds filter from configuration representation
func NewTagFilter(cfg map[string][]string) TagFilter {
	filter := make(TagFilter, len(cfg))
	for key, values := range cfg {
		parsed := make([]TagValue, 0, len(values))
		for _, value := range values {
			parsed = append(parsed, ParseTagValue(value))
		}
		filter[key] = parsed
	}
	return filter
}

// Selects checks if any of incoming tags is represented in filter
func (filter TagFilter) Selects(tags osm.Tags) bool {
	for _, tag := range tags {
		if filter.CheckTag(tag.Key, tag.Value) {
			return true
		}
	}
	return false
}

// CheckTag checks if single key/value pair is represented in filter
func (filter TagFilter) CheckTag(key, value string) bool {
	accepted, ok := filter[key]
	if !ok {
		return false
	}
	for i := range accepted {
		if accepted[i].Matches(value) {
			return true
		}
	}
	return false
}

// activityValues holds activities for single tag key
type activityValues struct {
	specific map[string][]string
	any      []string
	hasAny   bool
}

// ActivityMapping maps OSM tags to activity labels
type ActivityMapping map[string]*activityValues

// NewActivityMapping builds mapping from configuration representation.
// Value "*" is treated as wildcard for its key
func NewActivityMapping(cfg map[string]map[string][]string) ActivityMapping {
	mapping := make(ActivityMapping, len(cfg))
	for key, values := range cfg {
		av := &activityValues{
			specific: make(map[string][]string, len(values)),
		}
		for value, acts := range values {
			actsCopy := make([]string, len(acts))
			copy(actsCopy, acts)
			if ParseTagValue(value).IsAny() {
				av.any = actsCopy
				av.hasAny = true
				continue
			}
			av.specific[value] = actsCopy
		}
		mapping[key] = av
	}
	return mapping
}

// Recognises checks if key/value pair is an activity tag
func (mapping ActivityMapping) Recognises(key, value string) bool {
	av, ok := mapping[key]
	if !ok {
		return false
	}
	if av.hasAny {
		return true
	}
	_, ok = av.specific[value]
	return ok
}

// Lookup returns activities for given tag. Concrete value wins over wildcard
func (mapping ActivityMapping) Lookup(tag Tag) []string {
	av, ok := mapping[tag.Key]
	if !ok {
		return nil
	}
	if acts, ok := av.specific[tag.Value]; ok {
		return acts
	}
	if av.hasAny {
		return av.any
	}
	return nil
}

// Activities returns sorted set of every configured activity
func (mapping ActivityMapping) Activities() []string {
	seen := make(map[string]struct{})
	for _, av := range mapping {
		for _, acts := range av.specific {
			for _, act := range acts {
				seen[act] = struct{}{}
			}
		}
		for _, act := range av.any {
			seen[act] = struct{}{}
		}
	}
	output := make([]string, 0, len(seen))
	for act := range seen {
		output = append(output, act)
	}
	sort.Strings(output)
	return output
}
