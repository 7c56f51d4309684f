package osm2act

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NearestFeatureName returns feature key for distance to the nearest activity
func NearestFeatureName(act string) string {
	return fmt.Sprintf("distance_to_nearest_%s", act)
}

// AssignNearestDistance sets distance from centroid of every facility to the nearest centroid
// of facility having given activity. When there is no such facility the feature is null
func (handler *Handler) AssignNearestDistance(act string) error {
	st := time.Now()
	featureName := NearestFeatureName(act)
	targets := make(orb.MultiPoint, 0)
	for _, facility := range handler.Facilities.Items() {
		if facility.HasActivity(act) {
			targets = append(targets, facility.Centroid())
		}
	}
	if len(targets) == 0 {
		for _, facility := range handler.Facilities.Items() {
			facility.setFeatureNull(featureName)
		}
		handler.logger.Warn("No facilities with activity, distances are null", zap.String("activity", act))
		return nil
	}

	tree := quadtree.New(targets.Bound().Pad(1))
	for _, target := range targets {
		if err := tree.Add(target); err != nil {
			return errors.Wrapf(err, "Can't add target for activity '%s'", act)
		}
	}

	eg := errgroup.Group{}
	eg.SetLimit(handler.workers)
	for _, facility := range handler.Facilities.Items() {
		facility := facility
		eg.Go(func() error {
			centroid := facility.Centroid()
			nearest := tree.Find(centroid)
			if nearest == nil {
				return errors.Errorf("No nearest target found for facility '%s'", facility.ID)
			}
			facility.setFeature(featureName, findDistance(centroid, nearest.Point()))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	handler.logger.Info("Distances to the nearest activity assigned",
		zap.String("activity", act),
		zap.Int("targets", len(targets)),
		zap.Duration("took", time.Since(st)),
	)
	return nil
}
