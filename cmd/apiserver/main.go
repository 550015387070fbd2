// API server entry point for the deforestation-monitoring platform.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/config"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/catalog/rest"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/database/postgres"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/database/postgres/repositories"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/database/redis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/messaging/kafka"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/search/opensearch"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/storage/minio"
	httpserver "github.com/aflahkuncoro/deforestation-monitoring/internal/interfaces/http"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/interfaces/http/handlers"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api server exited", logging.Err(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting forestwatch api server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port))

	// Postgres with migrations.
	if err := postgres.RunMigrations(postgres.DSN(cfg.Database), cfg.Database.MigrationPath); err != nil {
		return err
	}
	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	runRepo := repositories.NewRunRepository(conn.Pool(), logger)
	aoiRepo := repositories.NewAOIRepository(conn.Pool(), logger)

	// Redis estimate cache.
	redisClient, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	cache := redis.NewEstimateCache(redisClient, logger)

	// Kafka producer for run dispatch and completion events.
	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	defer producer.Close()

	// MinIO artifact storage.
	minioClient, err := minio.NewClient(ctx, cfg.MinIO, logger)
	if err != nil {
		return err
	}
	artifacts := minio.NewArtifactStore(minioClient, logger)

	// OpenSearch run index.
	osClient, err := opensearch.NewClient(cfg.OpenSearch, logger)
	if err != nil {
		return err
	}
	indexer := opensearch.NewIndexer(osClient, logger)
	if err := indexer.EnsureIndex(ctx); err != nil {
		return err
	}
	searcher := opensearch.NewSearcher(osClient, logger)

	// Geospatial catalog and the analysis service over it.
	cat, err := rest.NewClient(cfg.Catalog, logger)
	if err != nil {
		return err
	}
	pipeline := analysis.NewPipeline(cat, cfg.Pipeline, logger).WithBoundaryRepository(aoiRepo)
	service := analysis.NewService(runRepo, pipeline, cache, artifacts, producer, indexer, cfg.Pipeline, logger)

	// HTTP interface.
	health := handlers.NewHealthHandler(version)
	health.AddChecker("postgres", conn)
	health.AddChecker("redis", redisClient)
	health.AddChecker("opensearch", osClient)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		RunHandler:      handlers.NewRunHandler(service, producer, artifacts, logger),
		EstimateHandler: handlers.NewEstimateHandler(service),
		SearchHandler:   handlers.NewSearchHandler(searcher),
		AOIHandler:      handlers.NewAOIHandler(aoiRepo),
		HealthHandler:   health,
		Mode:            cfg.Server.Mode,
		Logger:          logger,
	})
	server := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	return server.Stop(context.Background())
}
