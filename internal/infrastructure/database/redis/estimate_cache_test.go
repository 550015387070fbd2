package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/config"
	domainAnalysis "github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
)

func newTestCache(t *testing.T) (*EstimateCache, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	client := NewClientWithRedis(db, config.RedisConfig{
		KeyPrefix:  "forestwatch",
		DefaultTTL: time.Hour,
	}, logging.NewNopLogger())
	return NewEstimateCache(client, logging.NewNopLogger()), mock
}

func sampleEstimates() []domainAnalysis.AreaEstimate {
	return []domainAnalysis.AreaEstimate{
		{Dataset: "hansen", Hectares: 152.3, ScaleMeters: 30},
		{Dataset: "radd", Hectares: 98.1, ScaleMeters: 10},
		{Dataset: "merged", Hectares: 201.7, ScaleMeters: 10},
	}
}

func TestEstimateCacheSet(t *testing.T) {
	cache, mock := newTestCache(t)
	ests := sampleEstimates()

	raw, err := json.Marshal(ests)
	require.NoError(t, err)
	mock.ExpectSet("forestwatch:estimates:abc123:asset:2020:2024", raw, time.Hour).SetVal("OK")

	require.NoError(t, cache.Set(context.Background(), "abc123:asset:2020:2024", ests))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEstimateCacheGetHit(t *testing.T) {
	cache, mock := newTestCache(t)
	ests := sampleEstimates()

	raw, err := json.Marshal(ests)
	require.NoError(t, err)
	mock.ExpectGet("forestwatch:estimates:abc123:asset:2020:2024").SetVal(string(raw))

	got, ok, err := cache.Get(context.Background(), "abc123:asset:2020:2024")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ests, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEstimateCacheGetMiss(t *testing.T) {
	cache, mock := newTestCache(t)
	mock.ExpectGet("forestwatch:estimates:missing").RedisNil()

	got, ok, err := cache.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestEstimateCacheCorruptEntryBehavesLikeMiss(t *testing.T) {
	cache, mock := newTestCache(t)
	mock.ExpectGet("forestwatch:estimates:bad").SetVal("{not json")
	mock.ExpectDel("forestwatch:estimates:bad").SetVal(1)

	_, ok, err := cache.Get(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
