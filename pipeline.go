package osm2act

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RunOptions are settings of a single conversion run
type RunOptions struct {
	InputFile  string
	OutputName string
	Format     string
	CRS        string
	SingleUse  bool
	Lazy       bool
	Workers    int
}

// Run converts OSM file into facilities file(s) according to configuration.
// Returns names of written files. Default working CRS is EPSG:3857 so areas and distances are in meters.
// When CRS is not EPSG:4326 an additional EPSG:4326 copy is written
func Run(cfg *Config, opts RunOptions, logger *zap.Logger) ([]string, error) {
	st := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Invalid config")
	}
	if opts.CRS == "" {
		opts.CRS = CRS_WEB_MERCATOR
	}
	if opts.Format == "" {
		opts.Format = FORMAT_GEOJSON
	}
	fname, err := OutputFilename(opts.OutputName, opts.CRS, opts.Format)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("run_id", uuid.New().String()))
	cfg.LogSummary(logger)

	handlerOptions := []func(*Handler){
		WithCRS(opts.CRS),
		WithLazy(opts.Lazy),
		WithLogger(logger),
	}
	if opts.Workers > 0 {
		handlerOptions = append(handlerOptions, WithWorkers(opts.Workers))
	}
	handler, err := NewHandler(cfg, handlerOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare handler")
	}
	logger.Info("Handler prepared", zap.String("crs", handler.CRS()), zap.Bool("lazy", opts.Lazy), zap.Bool("single_use", opts.SingleUse))

	if err := handler.ApplyFile(opts.InputFile); err != nil {
		return nil, err
	}
	handler.AssignTags()
	handler.AssignActivities()
	if err := handler.FillAll(); err != nil {
		return nil, err
	}
	if err := handler.AddFeatures(); err != nil {
		return nil, errors.Wrap(err, "Can't add object features")
	}
	for _, act := range cfg.DistanceToNearest {
		if err := handler.AssignNearestDistance(act); err != nil {
			return nil, errors.Wrap(err, "Can't assign distances")
		}
	}

	table := handler.Summaries(opts.SingleUse)
	written := []string{}
	if err := WriteTable(table, fname, opts.Format, handler.CRS()); err != nil {
		return nil, errors.Wrapf(err, "Can't write '%s'", fname)
	}
	written = append(written, fname)
	logger.Info("Output written", zap.String("file", fname), zap.Int("records", len(table.Rows)))

	if !isWGS84(handler.CRS()) {
		proj, err := ProjectionToWGS84(handler.CRS())
		if err != nil {
			return written, err
		}
		fnameWGS84, err := OutputFilename(opts.OutputName, CRS_WGS84, opts.Format)
		if err != nil {
			return written, err
		}
		if err := WriteTable(table.Reproject(proj), fnameWGS84, opts.Format, CRS_WGS84); err != nil {
			return written, errors.Wrapf(err, "Can't write '%s'", fnameWGS84)
		}
		written = append(written, fnameWGS84)
		logger.Info("Output reprojected to EPSG:4326", zap.String("file", fnameWGS84))
	}
	logger.Info("Done", zap.Duration("took", time.Since(st)))
	return written, nil
}
