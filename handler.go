package osm2act

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Handler is the state of a single run: configuration plus facilities and donors indices.
// Every processing phase is a method of Handler and phases are expected to be called sequentially
type Handler struct {
	cfg         *Config
	filter      TagFilter
	mapping     ActivityMapping
	defaultTags []Tag
	features    []FeatureKind
	crs         string
	proj        orb.Projection
	lazy        bool
	workers     int
	logger      *zap.Logger
	topo        *topology

	Facilities *SpatialIndex[*Facility]
	Points     *SpatialIndex[*Donor]
	Areas      *SpatialIndex[*Donor]

	Tally       AssignTally
	fillCounter int
}

// AssignTally counts outcomes of tags assignment
type AssignTally struct {
	Existing int
	Points   int
	Areas    int
	Defaults int
}

// String returns pretty printed value for AssignTally
func (tally AssignTally) String() string {
	return fmt.Sprintf("existing: %d | points: %d | areas: %d | defaults: %d", tally.Existing, tally.Points, tally.Areas, tally.Defaults)
}

func (handler *Handler) String() string {
	return fmt.Sprintf(`
Handler parameters:
	crs: '%s'
	lazy: %t
	workers: %d
	filter keys: '%s'
	object features: %v
	default tags: %v
	`,
		handler.crs,
		handler.lazy,
		handler.workers,
		strings.Join(handler.cfg.FilterKeys(), ","),
		handler.features,
		handler.defaultTags,
	)
}

// NewHandler prepares run state for given (already validated) configuration.
// Default working CRS is EPSG:4326 (geometries are kept as is), planar calculations
// with it are logged as suspicious. Use WithCRS(CRS_WEB_MERCATOR) for meters
func NewHandler(cfg *Config, options ...func(*Handler)) (*Handler, error) {
	handler := &Handler{
		cfg:         cfg,
		filter:      NewTagFilter(cfg.FilterValues()),
		mapping:     NewActivityMapping(cfg.ActivityMapping),
		defaultTags: copyTags(cfg.DefaultTags),
		crs:         CRS_WGS84,
		lazy:        false,
		workers:     runtime.NumCPU(),
		logger:      zap.L(),
		topo:        newTopology(),
		Facilities:  NewSpatialIndex[*Facility](),
		Points:      NewSpatialIndex[*Donor](),
		Areas:       NewSpatialIndex[*Donor](),
	}
	for _, option := range options {
		option(handler)
	}
	features, err := ParseFeatureKinds(cfg.ObjectFeatures)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare object features")
	}
	handler.features = features
	handler.proj, err = ProjectionFromWGS84(handler.crs)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare projection")
	}
	if handler.workers < 1 {
		handler.workers = 1
	}
	if isWGS84(handler.crs) && (len(handler.features) > 0 || len(cfg.FillMissingActivities) > 0 || len(cfg.DistanceToNearest) > 0) {
		handler.logger.Warn("Working CRS is geographic: areas, infill sizes and distances are in degrees",
			zap.String("crs", handler.crs),
		)
	}
	return handler, nil
}

// WithCRS sets working CRS. All geometries are reprojected into it
func WithCRS(crs string) func(*Handler) {
	return func(handler *Handler) {
		handler.crs = normalizeCRS(crs)
	}
}

// WithLazy enables lazy tags assignment: already tagged facilities are not checked against donors
func WithLazy(lazy bool) func(*Handler) {
	return func(handler *Handler) {
		handler.lazy = lazy
	}
}

// WithLogger sets logger
func WithLogger(logger *zap.Logger) func(*Handler) {
	return func(handler *Handler) {
		handler.logger = logger
	}
}

// WithWorkers sets number of goroutines for per-facility phases
func WithWorkers(workers int) func(*Handler) {
	return func(handler *Handler) {
		handler.workers = workers
	}
}

// CRS returns working CRS
func (handler *Handler) CRS() string {
	return handler.crs
}

// ExtractActivityTags returns tags recognised by activity mapping keeping input order
func (handler *Handler) ExtractActivityTags(tags osm.Tags) []Tag {
	found := make([]Tag, 0)
	for _, tag := range tags {
		if handler.mapping.Recognises(tag.Key, tag.Value) {
			found = append(found, Tag{Key: tag.Key, Value: tag.Value})
		}
	}
	return found
}

// Selects checks if object with given tags becomes facility
func (handler *Handler) Selects(tags osm.Tags) bool {
	return handler.filter.Selects(tags)
}

// AddFeature routes raw feature: facility, point donor, area donor or nothing.
// Features with broken geometry are logged and dropped
func (handler *Handler) AddFeature(feature RawFeature) {
	activityTags := handler.ExtractActivityTags(feature.Tags)
	selected := handler.Selects(feature.Tags)
	if !selected && len(activityTags) == 0 {
		return
	}
	geom := reproject(feature.Geom, handler.proj)
	if err := handler.topo.Validate(geom); err != nil {
		handler.logger.Warn("Bad geometry, object is dropped",
			zap.Int64("osm_id", feature.ID),
			zap.String("kind", feature.Kind.String()),
			zap.Error(err),
		)
		return
	}
	if selected {
		handler.Facilities.Insert(NewFacility(strconv.FormatInt(feature.ID, 10), feature.Tags.Map(), activityTags, geom))
		return
	}
	switch feature.Kind {
	case GEOMETRY_POINT:
		handler.Points.Insert(NewDonor(feature.ID, activityTags, geom))
	case GEOMETRY_AREA:
		handler.Areas.Insert(NewDonor(feature.ID, activityTags, geom))
	}
}

// AddFacility inserts already prepared facility. Geometry must be in working CRS
func (handler *Handler) AddFacility(facility *Facility) {
	handler.Facilities.Insert(facility)
}

// AddPoint inserts already prepared point donor. Geometry must be in working CRS
func (handler *Handler) AddPoint(donor *Donor) {
	handler.Points.Insert(donor)
}

// AddArea inserts already prepared area donor. Geometry must be in working CRS
func (handler *Handler) AddArea(donor *Donor) {
	handler.Areas.Insert(donor)
}

// ApplyFile reads OSM file and classifies every point and area in it
func (handler *Handler) ApplyFile(fname string) error {
	err := ReadOSM(fname, handler.logger, func(feature RawFeature) error {
		handler.AddFeature(feature)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "Can't apply OSM file")
	}
	handler.logger.Info("Objects loaded",
		zap.Int("facilities", handler.Facilities.Len()),
		zap.Int("points", handler.Points.Len()),
		zap.Int("areas", handler.Areas.Len()),
	)
	return nil
}
