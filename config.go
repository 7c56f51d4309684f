package osm2act

import (
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	FILL_METHOD_SPACING      = "spacing"
	FILL_METHOD_POINT_SOURCE = "point_source"
)

// Config is activity configuration: which objects to select and how to label them
type Config struct {
	Filter                map[string]StringList          `yaml:"filter" validate:"required,min=1"`
	ActivityMapping       map[string]map[string][]string `yaml:"activity_mapping" validate:"required,min=1"`
	DefaultTags           []Tag                          `yaml:"default_tags"`
	ObjectFeatures        []string                       `yaml:"object_features" validate:"dive,oneof=area levels floor_area units"`
	DistanceToNearest     []string                       `yaml:"distance_to_nearest" validate:"dive,required"`
	FillMissingActivities []FillGroup                    `yaml:"fill_missing_activities" validate:"dive"`
}

// FillGroup describes single missing activities infill run
type FillGroup struct {
	AreaTags                []Tag      `yaml:"area_tags"`
	RequiredActs            StringList `yaml:"required_acts" validate:"omitempty,dive,required"`
	NewTags                 []Tag      `yaml:"new_tags"`
	Size                    []float64  `yaml:"size" validate:"omitempty,len=2,dive,gt=0"`
	MaxExistingActsFraction float64    `yaml:"max_existing_acts_fraction" validate:"gte=0"`
	FillMethod              string     `yaml:"fill_method" validate:"omitempty,oneof=spacing point_source"`
	PointSource             string     `yaml:"point_source"`
	// PointSourceCRS is CRS of point source coordinates, EPSG:4326 by default
	PointSourceCRS          string     `yaml:"point_source_crs"`
	Spacing                 []float64  `yaml:"spacing" validate:"omitempty,len=2,dive,gt=0"`
}

// StringList is list of strings which could be written as single string as well
type StringList []string

// UnmarshalYAML accepts both scalar and sequence
func (sl *StringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*sl = StringList{value.Value}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return errors.Wrap(err, "Can't decode list of strings")
	}
	*sl = list
	return nil
}

// UnmarshalYAML decodes tag from two elements sequence: [key, value]
func (tag *Tag) UnmarshalYAML(value *yaml.Node) error {
	var pair []string
	if err := value.Decode(&pair); err != nil {
		return errors.Wrap(err, "Can't decode tag")
	}
	if len(pair) != 2 {
		return errors.Errorf("Tag must be [key, value] pair, got %d elements at line %d", len(pair), value.Line)
	}
	tag.Key, tag.Value = pair[0], pair[1]
	return nil
}

// withDefaults returns copy of group with missing fields filled by defaults
func (group FillGroup) withDefaults() FillGroup {
	if len(group.AreaTags) == 0 {
		group.AreaTags = []Tag{{Key: "landuse", Value: "residential"}}
	}
	if len(group.RequiredActs) == 0 {
		group.RequiredActs = StringList{"home"}
	}
	if len(group.NewTags) == 0 {
		group.NewTags = []Tag{{Key: "building", Value: "house"}}
	}
	if len(group.Size) != 2 {
		group.Size = []float64{10, 10}
	}
	if group.FillMethod == "" {
		group.FillMethod = FILL_METHOD_SPACING
	}
	if len(group.Spacing) != 2 {
		group.Spacing = []float64{25, 25}
	}
	if group.PointSourceCRS == "" {
		group.PointSourceCRS = CRS_WGS84
	}
	return group
}

// LoadConfig reads configuration from JSON or YAML file
func LoadConfig(fname string) (*Config, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read config file")
	}
	return ParseConfig(data)
}

// ParseConfig decodes configuration from JSON or YAML bytes
func ParseConfig(data []byte) (*Config, error) {
	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "Can't decode config")
	}
	return &cfg, nil
}

// Activities returns sorted set of every configured activity
func (cfg *Config) Activities() []string {
	return NewActivityMapping(cfg.ActivityMapping).Activities()
}

// FilterValues returns filter as plain key -> values map
func (cfg *Config) FilterValues() map[string][]string {
	values := make(map[string][]string, len(cfg.Filter))
	for key, list := range cfg.Filter {
		values[key] = []string(list)
	}
	return values
}

// FilterKeys returns sorted set of filter keys
func (cfg *Config) FilterKeys() []string {
	keys := make([]string, 0, len(cfg.Filter))
	for key := range cfg.Filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks configuration structure and activities references
func (cfg *Config) Validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(err, "Config does not match schema")
	}
	if _, err := ParseFeatureKinds(cfg.ObjectFeatures); err != nil {
		return errors.Wrap(err, "Bad object features")
	}
	acts := make(map[string]struct{})
	for _, act := range cfg.Activities() {
		acts[act] = struct{}{}
	}
	if diff := missingActivities(cfg.DistanceToNearest, acts); len(diff) > 0 {
		return errors.Errorf("'Distance to nearest' has non-configured activities: %s", strings.Join(diff, ", "))
	}
	for _, group := range cfg.FillMissingActivities {
		if diff := missingActivities(group.withDefaults().RequiredActs, acts); len(diff) > 0 {
			return errors.Errorf("'Fill missing activities' group has non-configured activities: %s", strings.Join(diff, ", "))
		}
	}
	return nil
}

// LogSummary prints configured keys and activities
func (cfg *Config) LogSummary(logger *zap.Logger) {
	logger.Info("Configured OSM tag keys", zap.Strings("keys", cfg.FilterKeys()))
	logger.Info("Configured activities", zap.Strings("activities", cfg.Activities()))
}

// missingActivities returns sorted activities which are not in known set
func missingActivities(acts []string, known map[string]struct{}) []string {
	diff := make(map[string]struct{})
	for _, act := range acts {
		if _, ok := known[act]; !ok {
			diff[act] = struct{}{}
		}
	}
	output := make([]string, 0, len(diff))
	for act := range diff {
		output = append(output, act)
	}
	sort.Strings(output)
	return output
}
