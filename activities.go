package osm2act

import (
	"time"

	"go.uber.org/zap"
)

// ResolveActivities maps activity tags to deduplicated activities list keeping first-seen order.
// Result is never nil
func (mapping ActivityMapping) ResolveActivities(tags []Tag) []string {
	acts := make([]string, 0)
	seen := make(map[string]struct{})
	for _, tag := range tags {
		for _, act := range mapping.Lookup(tag) {
			if _, ok := seen[act]; ok {
				continue
			}
			seen[act] = struct{}{}
			acts = append(acts, act)
		}
	}
	return acts
}

// AssignActivities resolves activities for every facility from its current activity tags
func (handler *Handler) AssignActivities() {
	st := time.Now()
	empty := 0
	for _, facility := range handler.Facilities.Items() {
		acts := handler.mapping.ResolveActivities(facility.ActivityTags)
		if len(acts) == 0 {
			empty++
		}
		facility.SetActivities(acts)
	}
	handler.logger.Info("Activities resolved",
		zap.Int("facilities", handler.Facilities.Len()),
		zap.Int("without_activities", empty),
		zap.Duration("took", time.Since(st)),
	)
}
