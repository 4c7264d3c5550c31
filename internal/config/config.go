// Package config loads pipeline settings from an optional YAML file, the
// environment and defaults.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"go-tennis-pipeline/internal/model"
	"go-tennis-pipeline/internal/warehouse"
	"go-tennis-pipeline/pkg/utils"
)

// Backends.
const (
	BackendGCP   = "gcp"
	BackendLocal = "local"
)

// EnvPrefix prefixes every environment override, e.g. TENNIS_PIPELINE_TABLE.
const EnvPrefix = "TENNIS"

// Config holds the configuration for the pipeline binaries.
type Config struct {
	Backend string `mapstructure:"backend"`

	GCP struct {
		ProjectID       string `mapstructure:"project_id"`
		Bucket          string `mapstructure:"bucket"`
		Location        string `mapstructure:"location"`
		CredentialsFile string `mapstructure:"credentials_file"`
		StorageEndpoint string `mapstructure:"storage_endpoint"`
	} `mapstructure:"gcp"`

	Local struct {
		BlobRoot      string `mapstructure:"blob_root"`
		WarehousePath string `mapstructure:"warehouse_path"`
	} `mapstructure:"local"`

	Pipeline struct {
		Name              string `mapstructure:"name"`
		Dataset           string `mapstructure:"dataset"`
		Table             string `mapstructure:"table"`
		SourcePath        string `mapstructure:"source_path"`
		DestinationObject string `mapstructure:"destination_object"`
		QualityCheck      bool   `mapstructure:"quality_check"`
		MinRows           int64  `mapstructure:"min_rows"`
		Cleanup           bool   `mapstructure:"cleanup"`
		Timeout           string `mapstructure:"timeout"`
		Retries           int    `mapstructure:"retries"`
		RetryInterval     string `mapstructure:"retry_interval"`
	} `mapstructure:"pipeline"`

	Store struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"store"`

	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`

	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

var defaults = map[string]interface{}{
	"backend":                     BackendGCP,
	"gcp.project_id":              "",
	"gcp.bucket":                  "",
	"gcp.location":                "",
	"gcp.credentials_file":        "",
	"gcp.storage_endpoint":        "",
	"local.blob_root":             "gcs",
	"local.warehouse_path":        "warehouse.db",
	"pipeline.name":               "tennis_atp_matches",
	"pipeline.dataset":            "tennise_matches_example",
	"pipeline.table":              "atp_2022",
	"pipeline.source_path":        "data/atp_matches_2022.csv",
	"pipeline.destination_object": "data/atp_matches_2022.csv",
	"pipeline.quality_check":      false,
	"pipeline.min_rows":           0,
	"pipeline.cleanup":            false,
	"pipeline.timeout":            "30m",
	"pipeline.retries":            0,
	"pipeline.retry_interval":     "5s",
	"store.path":                  "pipeline.db",
	"server.addr":                 ":8080",
	"log.level":                   "info",
	"log.development":             false,
}

// New returns a viper instance with defaults and environment bindings.
// GCP_PROJECT_ID and GCP_GCS_BUCKET are honoured alongside the prefixed keys.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("gcp.project_id", EnvPrefix+"_GCP_PROJECT_ID", "GCP_PROJECT_ID")
	_ = v.BindEnv("gcp.bucket", EnvPrefix+"_GCP_BUCKET", "GCP_GCS_BUCKET")
	_ = v.BindEnv("gcp.credentials_file", EnvPrefix+"_GCP_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS")
	return v
}

// Load reads the configuration. An explicit file must exist; otherwise
// config.yaml is looked up in . and ./config and is optional.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return &cfg, nil
}

// Validate reports every problem at once as ConfigurationErrors.
func (c *Config) Validate() error {
	var errs error
	add := func(field, format string, args ...interface{}) {
		errs = multierr.Append(errs, model.NewConfigurationError(field, format, args...))
	}

	switch c.Backend {
	case BackendGCP:
		if c.GCP.ProjectID == "" {
			add("gcp.project_id", "is required for the %s backend (set GCP_PROJECT_ID)", BackendGCP)
		}
	case BackendLocal:
		if c.Local.BlobRoot == "" {
			add("local.blob_root", "is required for the %s backend", BackendLocal)
		}
		if c.Local.WarehousePath == "" {
			add("local.warehouse_path", "is required for the %s backend", BackendLocal)
		}
	default:
		add("backend", "must be %q or %q, got %q", BackendGCP, BackendLocal, c.Backend)
	}
	if c.GCP.Bucket == "" {
		add("gcp.bucket", "is required (set GCP_GCS_BUCKET)")
	}

	if err := warehouse.ValidateDatasetID(c.Pipeline.Dataset); err != nil {
		add("pipeline.dataset", "%v", err)
	}
	if err := warehouse.ValidateTableID(c.Pipeline.Table); err != nil {
		add("pipeline.table", "%v", err)
	}
	if c.Pipeline.SourcePath == "" {
		add("pipeline.source_path", "is required")
	}
	if c.Pipeline.DestinationObject == "" {
		add("pipeline.destination_object", "is required")
	}
	if c.Pipeline.MinRows < 0 {
		add("pipeline.min_rows", "must be >= 0")
	}
	if c.Pipeline.Retries < 0 {
		add("pipeline.retries", "must be >= 0")
	}
	for _, d := range []struct{ field, value string }{
		{"pipeline.timeout", c.Pipeline.Timeout},
		{"pipeline.retry_interval", c.Pipeline.RetryInterval},
	} {
		if d.value == "" {
			continue
		}
		if v, err := time.ParseDuration(d.value); err != nil || v < 0 {
			add(d.field, "invalid duration %q", d.value)
		}
	}
	if c.Store.Path == "" {
		add("store.path", "is required")
	}
	return errs
}

// Timeout bounds one run. Zero means no timeout.
func (c *Config) Timeout() time.Duration {
	return utils.ParseDuration(c.Pipeline.Timeout, 30*time.Minute)
}

// Retry is the per-stage retry policy. Retries counts attempts after the
// first.
func (c *Config) Retry() model.RetryConfig {
	if c.Pipeline.Retries <= 0 {
		return model.NoRetry
	}
	interval := utils.ParseDuration(c.Pipeline.RetryInterval, 5*time.Second)
	return model.RetryConfig{
		MaxAttempts:     c.Pipeline.Retries + 1,
		InitialInterval: interval,
		MaxInterval:     10 * interval,
		Multiplier:      2,
	}
}
