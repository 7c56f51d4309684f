package osm2act

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FeatureArea returns planar area of facility truncated to integer units
func (f *Facility) FeatureArea() float64 {
	return math.Trunc(f.Area())
}

// FeatureLevels returns number of levels. Checked in order: `building:levels`, `height`,
// building type default, 2 for unknown building type, 1 for not a building
func (f *Facility) FeatureLevels(logger *zap.Logger) float64 {
	if levels, ok := f.OSMTags["building:levels"]; ok {
		if v, ok := parseFloat(levels); ok {
			return v
		}
	}
	if height, ok := f.OSMTags["height"]; ok {
		if h := HeightToMeters(height, logger); h != 0 {
			return h / 4
		}
	}
	if building := f.OSMTags["building"]; building != "" {
		if levels, ok := defaultLevelsByBuilding[building]; ok {
			return levels
		}
		return 2
	}
	return 1
}

// FeatureFloorArea returns area multiplied by levels
func (f *Facility) FeatureFloorArea(logger *zap.Logger) float64 {
	return f.FeatureArea() * f.FeatureLevels(logger)
}

// FeatureUnits returns `building:flats` or 1
func (f *Facility) FeatureUnits() float64 {
	if flats, ok := f.OSMTags["building:flats"]; ok {
		if v, ok := parseFloat(flats); ok {
			return v
		}
	}
	return 1
}

// calcFeature evaluates single feature for facility
func (f *Facility) calcFeature(kind FeatureKind, logger *zap.Logger) (float64, error) {
	switch kind {
	case FEATURE_AREA:
		return f.FeatureArea(), nil
	case FEATURE_LEVELS:
		return f.FeatureLevels(logger), nil
	case FEATURE_FLOOR_AREA:
		return f.FeatureFloorArea(logger), nil
	case FEATURE_UNITS:
		return f.FeatureUnits(), nil
	default:
		return 0, errors.Errorf("Feature kind %d is not handled", kind)
	}
}

// AddFeatures calculates configured object features for every facility.
// Facilities are independent from each other, so calculation is spread over workers
func (handler *Handler) AddFeatures() error {
	if len(handler.features) == 0 {
		return nil
	}
	st := time.Now()
	eg := errgroup.Group{}
	eg.SetLimit(handler.workers)
	for _, facility := range handler.Facilities.Items() {
		facility := facility
		eg.Go(func() error {
			for _, kind := range handler.features {
				value, err := facility.calcFeature(kind, handler.logger)
				if err != nil {
					return errors.Wrapf(err, "Can't calculate feature for facility '%s'", facility.ID)
				}
				facility.setFeature(kind.String(), value)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	handler.logger.Info("Object features added",
		zap.Stringers("features", handler.features),
		zap.Int("facilities", handler.Facilities.Len()),
		zap.Duration("took", time.Since(st)),
	)
	return nil
}
