package osm2act

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds logger ("json" or "console" format) with given level and replaces zap globals
func InitLogger(level, format string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "Can't parse log level")
	}
	zapCfg.Level.SetLevel(parsed)
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "Can't build logger")
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
