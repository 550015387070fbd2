//go:build integration

// Shared infrastructure for the integration tests: container lifecycle
// helpers and a fully wired analysis service backed by real Postgres and
// Redis instances.  These tests require Docker and are gated behind the
// "integration" build tag.
package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/config"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/catalog"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/database/postgres"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/database/postgres/repositories"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/database/redis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/testutil"
)

const (
	migrationsPath = "file://../../internal/infrastructure/database/postgres/migrations"
	testAOIAsset   = "projects/test/aoi/riau_block_a"
)

// startPostgres launches a PostgreSQL 16 container, applies the migrations
// and returns a connection ready for the repositories.
func startPostgres(t *testing.T) *postgres.Connection {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "forestwatch_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbCfg := config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "test",
		Password: "test",
		DBName:   "forestwatch_test",
		SSLMode:  "disable",
		MaxConns: 4,
	}
	require.NoError(t, postgres.RunMigrations(postgres.DSN(dbCfg), migrationsPath))

	conn, err := postgres.NewConnection(ctx, dbCfg, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}

// startRedis launches a Redis 7 container and returns a connected client.
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := redis.NewClient(ctx, config.RedisConfig{
		Addr:       fmt.Sprintf("%s:%s", host, port.Port()),
		KeyPrefix:  "forestwatch_test",
		DefaultTTL: time.Minute,
	}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// env is a service wired over real Postgres and Redis with a synthetic
// geospatial catalog.
type env struct {
	Service *analysis.Service
	RunRepo *repositories.RunRepository
	AOIRepo *repositories.AOIRepository
	Catalog *testutil.CatalogMock
	Cfg     *config.Config
}

// newEnv starts the containers and assembles the analysis service.  The
// catalog mock serves a 1 km square AOI with constant Hansen loss in 2021
// and one RADD alert image.
func newEnv(t *testing.T) *env {
	t.Helper()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	area := testutil.SquareAOI(t, testAOIAsset, 101.0, 0.0, 1000)
	cat := testutil.NewCatalogMock()
	cat.SetBoundary(testAOIAsset, area)
	cat.SetImage(cfg.Pipeline.HansenAsset, testutil.ConstantLayer(t, area, cfg.Pipeline.HansenScale, 21))
	cat.SetImageList(cfg.Pipeline.RADDAsset, []catalog.ImageRef{
		{AssetID: cfg.Pipeline.RADDAsset + "/img_001", Time: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)},
	})
	cat.SetImage(cfg.Pipeline.RADDAsset+"/img_001", testutil.ConstantLayer(t, area, cfg.Pipeline.RADDScale, 1))

	log := logging.NewNopLogger()
	conn := startPostgres(t)
	runRepo := repositories.NewRunRepository(conn.Pool(), log)
	aoiRepo := repositories.NewAOIRepository(conn.Pool(), log)

	cache := redis.NewEstimateCache(startRedis(t), log)

	pipeline := analysis.NewPipeline(cat, cfg.Pipeline, log).WithBoundaryRepository(aoiRepo)
	service := analysis.NewService(runRepo, pipeline, cache, nil, nil, nil, cfg.Pipeline, log)

	return &env{
		Service: service,
		RunRepo: runRepo,
		AOIRepo: aoiRepo,
		Catalog: cat,
		Cfg:     cfg,
	}
}
