package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment variable overrides.
	EnvPrefix = "JUNITOOR"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultOutputDir is the default directory for generated reports.
	DefaultOutputDir = "./reports"

	// DefaultSeparator joins the segments of suite names.
	DefaultSeparator = " / "

	// DefaultConcurrency is the default number of summaries converted at once.
	DefaultConcurrency = 4

	// DefaultUploadPrefix is the default S3 key prefix for reports.
	DefaultUploadPrefix = "reports"

	// DefaultIndexDriver is the default report index database driver.
	DefaultIndexDriver = "sqlite"

	// DefaultIndexPath is the default sqlite database path.
	DefaultIndexPath = "./reports/index.db"

	// DefaultListen is the default API listen address.
	DefaultListen = ":8080"

	// DefaultRequestsPerMinute is the default per-IP API rate limit.
	DefaultRequestsPerMinute = 120
)

// Config is the root configuration for junitoor.
type Config struct {
	Global GlobalConfig `yaml:"global" mapstructure:"global"`
	Report ReportConfig `yaml:"report" mapstructure:"report"`
	Upload UploadConfig `yaml:"upload" mapstructure:"upload"`
	Index  IndexConfig  `yaml:"index" mapstructure:"index"`
	API    APIConfig    `yaml:"api" mapstructure:"api"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel     string `yaml:"log_level" mapstructure:"log_level"`
	ResultsOwner string `yaml:"results_owner,omitempty" mapstructure:"results_owner"`
}

// ReportConfig controls report generation.
type ReportConfig struct {
	OutputDir   string `yaml:"output_dir" mapstructure:"output_dir"`
	Export      string `yaml:"export,omitempty" mapstructure:"export"`
	Separator   string `yaml:"separator" mapstructure:"separator"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// UploadConfig contains remote upload settings.
type UploadConfig struct {
	S3 S3UploadConfig `yaml:"s3" mapstructure:"s3"`
}

// S3UploadConfig configures uploads to S3-compatible storage.
type S3UploadConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	Prefix          string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	StorageClass    string `yaml:"storage_class,omitempty" mapstructure:"storage_class"`
	ACL             string `yaml:"acl,omitempty" mapstructure:"acl"`
}

// IndexConfig controls the report index database.
type IndexConfig struct {
	Enabled  bool           `yaml:"enabled" mapstructure:"enabled"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
}

// DatabaseConfig selects and configures a database driver.
type DatabaseConfig struct {
	Driver   string                 `yaml:"driver" mapstructure:"driver"`
	SQLite   SQLiteDatabaseConfig   `yaml:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresDatabaseConfig `yaml:"postgres" mapstructure:"postgres"`
}

// SQLiteDatabaseConfig configures the sqlite driver.
type SQLiteDatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresDatabaseConfig configures the postgres driver.
type PostgresDatabaseConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`
}

// defaults are registered with viper so that every key can be overridden
// from the environment, even when it is absent from the config files.
var defaults = map[string]any{
	"global.log_level":                 DefaultLogLevel,
	"global.results_owner":             "",
	"report.output_dir":                DefaultOutputDir,
	"report.export":                    "",
	"report.separator":                 DefaultSeparator,
	"report.concurrency":               DefaultConcurrency,
	"upload.s3.enabled":                false,
	"upload.s3.endpoint_url":           "",
	"upload.s3.region":                 "",
	"upload.s3.bucket":                 "",
	"upload.s3.access_key_id":          "",
	"upload.s3.secret_access_key":      "",
	"upload.s3.force_path_style":       false,
	"upload.s3.prefix":                 DefaultUploadPrefix,
	"upload.s3.storage_class":          "",
	"upload.s3.acl":                    "",
	"index.enabled":                    false,
	"index.database.driver":            DefaultIndexDriver,
	"index.database.sqlite.path":       DefaultIndexPath,
	"index.database.postgres.host":     "localhost",
	"index.database.postgres.port":     5432,
	"index.database.postgres.user":     "",
	"index.database.postgres.password": "",
	"index.database.postgres.database": "junitoor",
	"index.database.postgres.sslmode":  "disable",
	"api.server.listen":                DefaultListen,
	"api.server.cors_origins":          []string{},
	"api.server.read_header_timeout":   "10s",
	"api.server.rate_limit.enabled":    false,
	"api.server.rate_limit.requests_per_minute": DefaultRequestsPerMinute,
}

// Load reads and merges the given configuration files in order, applies
// JUNITOOR_* environment overrides and returns the result. With no paths
// the defaults and environment alone are used.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	for i, path := range paths {
		v.SetConfigFile(path)

		var err error
		if i == 0 {
			err = v.ReadInConfig()
		} else {
			err = v.MergeInConfig()
		}

		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := decode(v.AllSettings(), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// decode maps viper settings onto cfg. Environment overrides arrive as
// strings, so decoding is weakly typed.
func decode(settings map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           cfg,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}

	return decoder.Decode(settings)
}

// applyDefaults fills values that were explicitly set to empty.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Report.OutputDir == "" {
		c.Report.OutputDir = DefaultOutputDir
	}

	if c.Report.Separator == "" {
		c.Report.Separator = DefaultSeparator
	}

	if c.Report.Concurrency <= 0 {
		c.Report.Concurrency = DefaultConcurrency
	}

	if c.Upload.S3.Prefix == "" {
		c.Upload.S3.Prefix = DefaultUploadPrefix
	}

	if c.Index.Database.Driver == "" {
		c.Index.Database.Driver = DefaultIndexDriver
	}

	if c.API.Server.Listen == "" {
		c.API.Server.Listen = DefaultListen
	}

	if c.API.Server.RateLimit.RequestsPerMinute <= 0 {
		c.API.Server.RateLimit.RequestsPerMinute = DefaultRequestsPerMinute
	}
}

// validDrivers is the list of supported database drivers.
var validDrivers = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Upload.S3.Enabled && c.Upload.S3.Bucket == "" {
		return fmt.Errorf("upload.s3.bucket is required when s3 upload is enabled")
	}

	if err := c.Index.Database.validate(); err != nil {
		return fmt.Errorf("index.database: %w", err)
	}

	return nil
}

func (d *DatabaseConfig) validate() error {
	if _, ok := validDrivers[d.Driver]; !ok {
		return fmt.Errorf("unsupported driver %q", d.Driver)
	}

	switch d.Driver {
	case "sqlite":
		if d.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required")
		}
	case "postgres":
		if d.Postgres.Host == "" || d.Postgres.Database == "" {
			return fmt.Errorf("postgres.host and postgres.database are required")
		}
	}

	return nil
}
