// Analysis worker entry point: consumes submitted runs from Kafka and
// executes the deforestation pipeline for each of them.
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
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/types/common"
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
		logger.Error("worker exited", logging.Err(err))
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

	logger.Info("starting forestwatch worker",
		logging.String("version", version),
		logging.Int("concurrency", cfg.Worker.Concurrency))

	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	runRepo := repositories.NewRunRepository(conn.Pool(), logger)
	aoiRepo := repositories.NewAOIRepository(conn.Pool(), logger)

	redisClient, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	cache := redis.NewEstimateCache(redisClient, logger)

	// Completed and alert events go back through the same broker the
	// submissions arrive on.
	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	defer producer.Close()

	minioClient, err := minio.NewClient(ctx, cfg.MinIO, logger)
	if err != nil {
		return err
	}
	artifacts := minio.NewArtifactStore(minioClient, logger)

	osClient, err := opensearch.NewClient(cfg.OpenSearch, logger)
	if err != nil {
		return err
	}
	indexer := opensearch.NewIndexer(osClient, logger)
	if err := indexer.EnsureIndex(ctx); err != nil {
		return err
	}

	cat, err := rest.NewClient(cfg.Catalog, logger)
	if err != nil {
		return err
	}
	pipeline := analysis.NewPipeline(cat, cfg.Pipeline, logger).WithBoundaryRepository(aoiRepo)
	service := analysis.NewService(runRepo, pipeline, cache, artifacts, producer, indexer, cfg.Pipeline, logger)

	handler := func(ctx context.Context, envelope *kafka.EventEnvelope) error {
		var payload kafka.RunSubmittedPayload
		if err := envelope.Decode(&payload); err != nil {
			return err
		}
		logger.Info("run received",
			logging.String("run_id", payload.RunID),
			logging.String("aoi_asset_id", payload.AOIAssetID))
		_, err := service.Execute(ctx, common.ID(payload.RunID))
		return err
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.TopicRunSubmitted, cfg.Worker.Concurrency, handler, logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	return consumer.Run(ctx)
}
