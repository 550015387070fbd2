package config

import "time"

// Default value constants.
const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "forestwatch"
	DefaultDBUser     = "forestwatch"
	DefaultDBSSLMode  = "disable"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisTTL       = 6 * time.Hour
	DefaultRedisKeyPrefix = "forestwatch"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "forestwatch-workers"

	DefaultOpenSearchAddr   = "http://localhost:9200"
	DefaultOpenSearchPrefix = "forestwatch"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "forestwatch-artifacts"

	DefaultCatalogBaseURL = "http://localhost:7080/v1"
	DefaultCatalogTimeout = 120 * time.Second

	// Dataset identifiers mirror the catalog paths of the published datasets.
	DefaultBoundaryAsset = "projects/forestwatch/assets/aoi_boundaries"
	DefaultHansenAsset   = "UMD/hansen/global_forest_change_2023_v1_11"
	DefaultHansenBand    = "lossyear"
	DefaultHansenScale   = 30.0
	DefaultRADDAsset     = "projects/radar-alerts/assets/v1/alerts"
	DefaultRADDBand      = "Alert"
	DefaultRADDScale     = 10.0

	// DefaultMaxPixels is large enough that any bounded AOI reduction passes.
	DefaultMaxPixels = int64(1e13)

	DefaultStartYear = 2020
	DefaultEndYear   = 2024
	DefaultMapZoom   = 11

	DefaultWorkerConcurrency = 4

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields already set by the caller are left unchanged so that explicit
// configuration always wins.  It must be called after unmarshalling and
// before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.User == "" {
		cfg.Database.User = DefaultDBUser
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "file://internal/infrastructure/database/postgres/migrations"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = time.Second
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}

	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddr}
	}
	if cfg.OpenSearch.IndexPrefix == "" {
		cfg.OpenSearch.IndexPrefix = DefaultOpenSearchPrefix
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = 24 * time.Hour
	}

	if cfg.Catalog.BaseURL == "" {
		cfg.Catalog.BaseURL = DefaultCatalogBaseURL
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = DefaultCatalogTimeout
	}
	if cfg.Catalog.MaxBodySize == 0 {
		cfg.Catalog.MaxBodySize = 256 << 20 // 256 MiB of raster pixels
	}

	if cfg.Pipeline.BoundaryAsset == "" {
		cfg.Pipeline.BoundaryAsset = DefaultBoundaryAsset
	}
	if cfg.Pipeline.HansenAsset == "" {
		cfg.Pipeline.HansenAsset = DefaultHansenAsset
	}
	if cfg.Pipeline.HansenBand == "" {
		cfg.Pipeline.HansenBand = DefaultHansenBand
	}
	if cfg.Pipeline.HansenScale == 0 {
		cfg.Pipeline.HansenScale = DefaultHansenScale
	}
	if cfg.Pipeline.RADDAsset == "" {
		cfg.Pipeline.RADDAsset = DefaultRADDAsset
	}
	if cfg.Pipeline.RADDBand == "" {
		cfg.Pipeline.RADDBand = DefaultRADDBand
	}
	if cfg.Pipeline.RADDScale == 0 {
		cfg.Pipeline.RADDScale = DefaultRADDScale
	}
	if cfg.Pipeline.MaxPixels == 0 {
		cfg.Pipeline.MaxPixels = DefaultMaxPixels
	}
	if cfg.Pipeline.DefaultStartYear == 0 {
		cfg.Pipeline.DefaultStartYear = DefaultStartYear
	}
	if cfg.Pipeline.DefaultEndYear == 0 {
		cfg.Pipeline.DefaultEndYear = DefaultEndYear
	}
	if cfg.Pipeline.MapZoom == 0 {
		cfg.Pipeline.MapZoom = DefaultMapZoom
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.Backoff == 0 {
		cfg.Worker.Backoff = 5 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
