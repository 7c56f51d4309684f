package osm2act

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// defaultHeight is used when height tag can't be parsed
	defaultHeight = 3.0
	// feetToMeters is rough approximation used for "ft" suffix
	feetToMeters = 3.0
	// inchesPerMeter is used for feet'inches" notation
	inchesPerMeter = 39.3701
)

// parseFloat is strconv.ParseFloat ignoring surrounding spaces. NaN and infinities are rejected
func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// HeightToMeters parses OSM height value. Supported formats:
//
//	"12" and "12m" - meters
//	"4ft" - feet (multiplied by 3)
//	"3'4"" or "3'" - feet and inches
//
// Unparseable value is logged and 3 meters are returned
func HeightToMeters(height string, logger *zap.Logger) float64 {
	height = strings.TrimSpace(height)
	if v, ok := parseFloat(height); ok {
		return v
	}
	if strings.Contains(height, "m") {
		if v, ok := parseFloat(strings.ReplaceAll(height, "m", "")); ok {
			return v
		}
	}
	if strings.Contains(height, "ft") {
		if v, ok := parseFloat(strings.ReplaceAll(height, "ft", "")); ok {
			return v * feetToMeters
		}
	}
	if strings.Contains(height, "'") {
		v, err := imperialToMetric(height)
		if err == nil {
			return v
		}
		logger.Warn("Can't parse imperial height", zap.String("height", height), zap.Error(err))
		return defaultHeight
	}
	logger.Warn("Can't convert height to meters, default is used", zap.String("height", height), zap.Float64("default", defaultHeight))
	return defaultHeight
}

// imperialToMetric converts 3'4" (3 feet and 4 inches) or 3' (3 feet) to meters rounded to millimeters
func imperialToMetric(height string) (float64, error) {
	parts := strings.Split(height, "'")
	feet, ok := parseFloat(parts[0])
	if !ok {
		return 0, errors.Errorf("Bad feet value in '%s'", height)
	}
	inches := feet * 12
	if strings.Contains(height, `"`) {
		rest, ok := parseFloat(strings.ReplaceAll(parts[len(parts)-1], `"`, ""))
		if !ok {
			return 0, errors.Errorf("Bad inches value in '%s'", height)
		}
		inches += rest
	}
	return math.Round(inches/inchesPerMeter*1000) / 1000, nil
}
