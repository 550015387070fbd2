// Package config defines all configuration structures for the
// deforestation-monitoring platform.  No I/O or parsing logic lives here —
// only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchSize       int           `mapstructure:"batch_size"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// OpenSearchConfig holds OpenSearch cluster connection parameters.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// CatalogConfig holds connection parameters for the remote geospatial
// catalog service that serves boundary collections and raster assets.
type CatalogConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxBodySize int64         `mapstructure:"max_body_size"`
}

// PipelineConfig holds the dataset identifiers and reduction parameters for
// the deforestation analysis pipeline.
type PipelineConfig struct {
	// BoundaryAsset is the feature-collection path holding the AOI polygons.
	BoundaryAsset string `mapstructure:"boundary_asset"`
	// HansenAsset is the Hansen Global Forest Change image path.
	HansenAsset string `mapstructure:"hansen_asset"`
	// HansenBand is the per-pixel loss-year band (years since 2000).
	HansenBand string `mapstructure:"hansen_band"`
	// HansenScale is the native ground resolution of the Hansen dataset, meters.
	HansenScale float64 `mapstructure:"hansen_scale"`
	// RADDAsset is the RADD radar-alert image-collection path.
	RADDAsset string `mapstructure:"radd_asset"`
	// RADDBand is the alert-magnitude band.
	RADDBand string `mapstructure:"radd_band"`
	// RADDScale is the native ground resolution of the RADD dataset, meters.
	RADDScale float64 `mapstructure:"radd_scale"`
	// MaxPixels bounds a single area reduction; effectively unbounded for a
	// bounded AOI.
	MaxPixels int64 `mapstructure:"max_pixels"`
	// DefaultStartYear / DefaultEndYear apply when a run omits the window.
	DefaultStartYear int `mapstructure:"default_start_year"`
	DefaultEndYear   int `mapstructure:"default_end_year"`
	// MapZoom is the fixed zoom level used when registering map layers.
	MapZoom int `mapstructure:"map_zoom"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// Config is the root configuration structure for the entire platform.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Log        LogConfig        `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host must not be empty")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}

	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("config: catalog.base_url must not be empty")
	}

	if c.Pipeline.BoundaryAsset == "" {
		return fmt.Errorf("config: pipeline.boundary_asset must not be empty")
	}
	if c.Pipeline.HansenAsset == "" {
		return fmt.Errorf("config: pipeline.hansen_asset must not be empty")
	}
	if c.Pipeline.RADDAsset == "" {
		return fmt.Errorf("config: pipeline.radd_asset must not be empty")
	}
	if c.Pipeline.HansenScale <= 0 {
		return fmt.Errorf("config: pipeline.hansen_scale must be positive, got %v", c.Pipeline.HansenScale)
	}
	if c.Pipeline.RADDScale <= 0 {
		return fmt.Errorf("config: pipeline.radd_scale must be positive, got %v", c.Pipeline.RADDScale)
	}
	if c.Pipeline.MaxPixels <= 0 {
		return fmt.Errorf("config: pipeline.max_pixels must be positive, got %d", c.Pipeline.MaxPixels)
	}
	if c.Pipeline.DefaultEndYear < c.Pipeline.DefaultStartYear {
		return fmt.Errorf("config: pipeline.default_end_year %d precedes default_start_year %d",
			c.Pipeline.DefaultEndYear, c.Pipeline.DefaultStartYear)
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be at least 1, got %d", c.Worker.Concurrency)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid", c.Log.Level)
	}

	return nil
}
