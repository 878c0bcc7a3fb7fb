package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Gazetteer GazetteerConfig `yaml:"gazetteer" mapstructure:"gazetteer"`
	Elevation ElevationConfig `yaml:"elevation" mapstructure:"elevation"`
	Download  DownloadConfig  `yaml:"download" mapstructure:"download"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// CacheConfig configures the on-disk archive cache.
type CacheConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// GazetteerConfig configures the gazetteer data source and its layer schema.
type GazetteerConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	PrimaryLayer   string `yaml:"primary_layer" mapstructure:"primary_layer"`
	SecondaryLayer string `yaml:"secondary_layer" mapstructure:"secondary_layer"`
	JoinColumn     string `yaml:"join_column" mapstructure:"join_column"`
	ClassColumn    string `yaml:"class_column" mapstructure:"class_column"`
	LatColumn      string `yaml:"lat_column" mapstructure:"lat_column"`
	LonColumn      string `yaml:"lon_column" mapstructure:"lon_column"`
}

// ElevationConfig configures the EPQS point-query client.
type ElevationConfig struct {
	URL              string  `yaml:"url" mapstructure:"url"`
	Units            string  `yaml:"units" mapstructure:"units"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelaySec    float64 `yaml:"retry_delay_secs" mapstructure:"retry_delay_secs"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// DownloadConfig configures archive downloads.
type DownloadConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int `yaml:"max_retries" mapstructure:"max_retries"`
}

// DatabaseConfig configures the optional Postgres load target.
type DatabaseConfig struct {
	URL   string `yaml:"url" mapstructure:"url"`
	Table string `yaml:"table" mapstructure:"table"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "gnis-cli"))
	}

	// Environment
	v.SetEnvPrefix("GNIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("cache.dir", defaultCacheDir())
	v.SetDefault("gazetteer.base_url", "https://prd-tnm.s3.amazonaws.com/StagedProducts/GeographicNames/FullModel/")
	v.SetDefault("gazetteer.primary_layer", "Gaz_Names")
	v.SetDefault("gazetteer.secondary_layer", "Gaz_DescHist")
	v.SetDefault("gazetteer.join_column", "feature_id")
	v.SetDefault("gazetteer.class_column", "feature_class")
	v.SetDefault("gazetteer.lat_column", "prim_lat_dec")
	v.SetDefault("gazetteer.lon_column", "prim_long_dec")
	v.SetDefault("elevation.url", "https://epqs.nationalmap.gov/v1/json")
	v.SetDefault("elevation.units", "Feet")
	v.SetDefault("elevation.timeout_secs", 30)
	v.SetDefault("elevation.max_attempts", 3)
	v.SetDefault("elevation.retry_delay_secs", 2.0)
	v.SetDefault("elevation.rate_per_sec", 2.0)
	v.SetDefault("elevation.breaker_threshold", 5)
	v.SetDefault("elevation.breaker_reset_secs", 30)
	v.SetDefault("download.timeout_secs", 600)
	v.SetDefault("download.max_retries", 3)
	v.SetDefault("database.table", "gnis_features")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks configuration required by the named command.
func (c *Config) Validate(command string) error {
	var problems []string
	if command == "load" && c.Database.URL == "" {
		problems = append(problems, "database.url is required (--database-url or GNIS_DATABASE_URL)")
	}
	if command == "export" || command == "elevation" || command == "load" {
		if c.Elevation.MaxAttempts < 1 || c.Elevation.MaxAttempts > 10 {
			problems = append(problems, "elevation.max_attempts must be between 1 and 10")
		}
		if c.Elevation.RatePerSec <= 0 {
			problems = append(problems, "elevation.rate_per_sec must be > 0")
		}
	}
	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// defaultCacheDir resolves the per-user cache directory, falling back to a
// relative directory when the OS cannot report one.
func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ".gnis-cache"
	}
	return filepath.Join(base, "gnis-cli")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
