package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
)

// EnvPrefix namespaces environment overrides, e.g. LCS_WINDOW_SIZE.
const EnvPrefix = "LCS"

// Config holds all pipeline settings. Values come from defaults, then an
// optional TOML file, then LCS_* environment variables.
type Config struct {
	DataDir           string `mapstructure:"data_dir" validate:"required"`
	LandCoverFileName string `mapstructure:"land_cover_file_name" validate:"required"`
	RegionsFile       string `mapstructure:"regions_file" validate:"required"`
	RegionField       string `mapstructure:"region_field" validate:"required"`

	TileSize         int      `mapstructure:"tile_size" validate:"min=1"`
	WindowSize       int      `mapstructure:"window_size" validate:"min=1,odd"`
	SampleSize       int      `mapstructure:"sample_size" validate:"min=1"`
	GroupByLandCover bool     `mapstructure:"group_by_land_cover"`
	MaxJoinRows      int      `mapstructure:"max_join_rows" validate:"min=0"`
	LandCovers       []int    `mapstructure:"land_covers" validate:"min=1"`
	Regions          []string `mapstructure:"regions"`
	Seed             uint64   `mapstructure:"seed"`
	Workers          int      `mapstructure:"workers" validate:"min=1"`

	LogLevel        string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat       string        `mapstructure:"log_format" validate:"oneof=json text"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	KafkaBrokers    []string      `mapstructure:"kafka_brokers"`
	KafkaTopic      string        `mapstructure:"kafka_topic"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

var defaults = map[string]any{
	"data_dir":             ".",
	"land_cover_file_name": "LCD_2018",
	"regions_file":         "HadUKP_regions.shp",
	"region_field":         "Region",
	"tile_size":            domain.DefaultTileSize,
	"window_size":          domain.DefaultWindowSize,
	"sample_size":          1000,
	"group_by_land_cover":  false,
	"max_join_rows":        50_000_000,
	"land_covers":          []int{1, 2, 3, 4, 7, 9, 10, 11},
	"regions":              []string{},
	"seed":                 uint64(0),
	"workers":              1,
	"log_level":            "info",
	"log_format":           "json",
	"metrics_addr":         "",
	"kafka_brokers":        []string{},
	"kafka_topic":          "landcover-artifacts",
	"shutdown_timeout":     "10s",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("odd", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%2 == 1
	})
	return v
}

// Load builds the configuration. An empty path searches the working directory
// for config.toml and carries on with defaults when none exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.KafkaBrokers = trimList(cfg.KafkaBrokers)
	cfg.Regions = trimList(cfg.Regions)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and that every configured land cover is
// a known class.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.LandCoverClasses(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("invalid config: kafka_topic is required when kafka_brokers is set")
	}
	return nil
}

// LandCoverClasses returns the configured classes as typed codes.
func (c *Config) LandCoverClasses() ([]domain.LandCover, error) {
	out := make([]domain.LandCover, 0, len(c.LandCovers))
	for _, code := range c.LandCovers {
		lc, err := domain.ParseLandCover(code)
		if err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, nil
}

// Layout resolves artifact paths for the configured raster.
func (c *Config) Layout() artifact.Layout {
	return artifact.Layout{DataDir: c.DataDir, BaseName: c.LandCoverFileName}
}

// GroupBy reports the sampling stratification.
func (c *Config) GroupBy() domain.GroupBy {
	if c.GroupByLandCover {
		return domain.ByRegionAndLandCover
	}
	return domain.ByRegion
}

// ResolveSeed returns the configured seed, or one derived from now when the
// seed is zero.
func (c *Config) ResolveSeed(now time.Time) uint64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return uint64(now.UnixNano())
}

// trimList also splits comma-joined entries so env values like "a:1,b:2" work.
func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
