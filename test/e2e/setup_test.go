//go:build e2e

// End-to-end tests: the full HTTP stack over real Postgres and Redis
// containers, exercised through the public API client.  Gated behind the
// "e2e" build tag; requires Docker.
package e2e_test

import (
	"context"
	"fmt"
	"net/http/httptest"
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
	httpserver "github.com/aflahkuncoro/deforestation-monitoring/internal/interfaces/http"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/interfaces/http/handlers"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/testutil"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/client"
)

const (
	migrationsPath = "file://../../internal/infrastructure/database/postgres/migrations"
	testAOIAsset   = "projects/test/aoi/riau_block_a"
)

// stack is the running application under test.
type stack struct {
	API    *client.Client
	Server *httptest.Server
}

func startPostgres(t *testing.T) *postgres.Connection {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "forestwatch_e2e",
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
		DBName:   "forestwatch_e2e",
		SSLMode:  "disable",
		MaxConns: 4,
	}
	require.NoError(t, postgres.RunMigrations(postgres.DSN(dbCfg), migrationsPath))

	conn, err := postgres.NewConnection(ctx, dbCfg, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}

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

	c, err := redis.NewClient(ctx, config.RedisConfig{
		Addr:       fmt.Sprintf("%s:%s", host, port.Port()),
		KeyPrefix:  "forestwatch_e2e",
		DefaultTTL: time.Minute,
	}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// newStack boots the API over real containers.  Kafka, MinIO and OpenSearch
// stay out; the run handler falls back to synchronous execution when no
// dispatcher is wired, which is exactly the path these tests exercise.
func newStack(t *testing.T) *stack {
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
	redisClient := startRedis(t)
	cache := redis.NewEstimateCache(redisClient, log)

	pipeline := analysis.NewPipeline(cat, cfg.Pipeline, log).WithBoundaryRepository(aoiRepo)
	service := analysis.NewService(runRepo, pipeline, cache, nil, nil, nil, cfg.Pipeline, log)

	health := handlers.NewHealthHandler("e2e")
	health.AddChecker("postgres", conn)
	health.AddChecker("redis", redisClient)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		RunHandler:      handlers.NewRunHandler(service, nil, nil, log),
		EstimateHandler: handlers.NewEstimateHandler(service),
		AOIHandler:      handlers.NewAOIHandler(aoiRepo),
		HealthHandler:   health,
		Mode:            "test",
		Logger:          log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	api, err := client.NewClient(server.URL)
	require.NoError(t, err)
	return &stack{API: api, Server: server}
}
