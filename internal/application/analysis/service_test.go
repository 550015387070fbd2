package analysis

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainAnalysis "github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/testutil"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/types/common"
)

type runRepoMock struct {
	mu   sync.Mutex
	runs map[common.ID]*domainAnalysis.Run
}

func newRunRepoMock() *runRepoMock {
	return &runRepoMock{runs: map[common.ID]*domainAnalysis.Run{}}
}

func (m *runRepoMock) Save(ctx context.Context, run *domainAnalysis.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *runRepoMock) Update(ctx context.Context, run *domainAnalysis.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		return errors.New(errors.CodeRunNotFound, "run not found")
	}
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *runRepoMock) FindByID(ctx context.Context, id common.ID) (*domainAnalysis.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, errors.New(errors.CodeRunNotFound, "run not found")
	}
	cp := *run
	return &cp, nil
}

func (m *runRepoMock) List(ctx context.Context, filter domainAnalysis.ListFilter) ([]*domainAnalysis.Run, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domainAnalysis.Run, 0, len(m.runs))
	for _, r := range m.runs {
		cp := *r
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

type cacheMock struct {
	mu      sync.Mutex
	entries map[string][]domainAnalysis.AreaEstimate
}

func newCacheMock() *cacheMock {
	return &cacheMock{entries: map[string][]domainAnalysis.AreaEstimate{}}
}

func (m *cacheMock) Get(ctx context.Context, key string) ([]domainAnalysis.AreaEstimate, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ests, ok := m.entries[key]
	return ests, ok, nil
}

func (m *cacheMock) Set(ctx context.Context, key string, estimates []domainAnalysis.AreaEstimate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = estimates
	return nil
}

type artifactStoreMock struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func newArtifactStoreMock() *artifactStoreMock {
	return &artifactStoreMock{puts: map[string][]byte{}}
}

func (m *artifactStoreMock) Put(ctx context.Context, runID common.ID, name, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := "runs/" + string(runID) + "/" + name
	m.puts[key] = data
	return key, nil
}

type publisherMock struct {
	mu         sync.Mutex
	completed  []common.ID
	integrated []common.ID
}

func (m *publisherMock) RunCompleted(ctx context.Context, run *domainAnalysis.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, run.ID)
	return nil
}

func (m *publisherMock) AlertIntegrated(ctx context.Context, run *domainAnalysis.Run, merged domainAnalysis.AreaEstimate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.integrated = append(m.integrated, run.ID)
	return nil
}

type indexerMock struct {
	mu      sync.Mutex
	indexed []common.ID
}

func (m *indexerMock) IndexRun(ctx context.Context, run *domainAnalysis.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed = append(m.indexed, run.ID)
	return nil
}

type serviceFixture struct {
	service   *Service
	repo      *runRepoMock
	cache     *cacheMock
	artifacts *artifactStoreMock
	events    *publisherMock
	indexer   *indexerMock
	catalog   *testutil.CatalogMock
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	cfg := pipelineConfig()
	cat := seedCatalog(t, cfg)

	f := &serviceFixture{
		repo:      newRunRepoMock(),
		cache:     newCacheMock(),
		artifacts: newArtifactStoreMock(),
		events:    &publisherMock{},
		indexer:   &indexerMock{},
		catalog:   cat,
	}
	f.service = NewService(
		f.repo,
		NewPipeline(cat, cfg, logging.NewNopLogger()),
		f.cache, f.artifacts, f.events, f.indexer,
		cfg, logging.NewNopLogger(),
	)
	return f
}

func TestSubmitPersistsQueuedRun(t *testing.T) {
	f := newServiceFixture(t)

	run, err := f.service.Submit(context.Background(), domainAnalysis.Request{
		AOIAssetID: testAOIAsset,
		StartYear:  2020,
		EndYear:    2024,
	})
	require.NoError(t, err)
	assert.Equal(t, domainAnalysis.StatusQueued, run.Status)

	stored, err := f.service.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domainAnalysis.StatusQueued, stored.Status)
}

func TestSubmitFillsDefaultWindow(t *testing.T) {
	f := newServiceFixture(t)

	run, err := f.service.Submit(context.Background(), domainAnalysis.Request{AOIAssetID: testAOIAsset})
	require.NoError(t, err)
	assert.Equal(t, 2020, run.Request.StartYear)
	assert.Equal(t, 2024, run.Request.EndYear)
}

func TestExecuteCompletesRunWithSideEffects(t *testing.T) {
	f := newServiceFixture(t)

	run, err := f.service.Submit(context.Background(), domainAnalysis.Request{
		AOIAssetID: testAOIAsset,
		StartYear:  2020,
		EndYear:    2024,
	})
	require.NoError(t, err)

	done, err := f.service.Execute(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domainAnalysis.StatusCompleted, done.Status)
	assert.Len(t, done.Estimates, 3)
	assert.Equal(t, "test area", done.AOIName)

	require.Len(t, done.ArtifactKeys, 5)
	report := f.artifacts.puts[done.ArtifactKeys[0]]
	assert.Contains(t, string(report), "Integrated alerts")
	mapDoc := f.artifacts.puts[done.ArtifactKeys[1]]
	assert.Contains(t, string(mapDoc), `"layers"`)
	assert.Contains(t, string(mapDoc), "AOI boundary")
	for _, key := range done.ArtifactKeys[2:] {
		assert.Contains(t, key, ".png")
		assert.Equal(t, "\x89PNG", string(f.artifacts.puts[key][:4]), "artifact %s", key)
	}

	assert.Equal(t, []common.ID{run.ID}, f.events.completed)
	assert.Equal(t, []common.ID{run.ID}, f.events.integrated, "positive merged area emits an alert event")
	assert.Equal(t, []common.ID{run.ID}, f.indexer.indexed)
	assert.NotEmpty(t, f.cache.entries)

	stored, err := f.service.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domainAnalysis.StatusCompleted, stored.Status)
}

func TestExecuteUnknownAOIFailsRun(t *testing.T) {
	f := newServiceFixture(t)

	run, err := f.service.Submit(context.Background(), domainAnalysis.Request{
		AOIAssetID: "projects/test/aoi/missing",
		StartYear:  2020,
		EndYear:    2024,
	})
	require.NoError(t, err)

	failed, err := f.service.Execute(context.Background(), run.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeAssetNotFound))
	require.NotNil(t, failed)
	assert.Equal(t, domainAnalysis.StatusFailed, failed.Status)
	assert.NotEmpty(t, failed.Error)

	stored, gerr := f.service.Get(context.Background(), run.ID)
	require.NoError(t, gerr)
	assert.Equal(t, domainAnalysis.StatusFailed, stored.Status)
	assert.Empty(t, f.events.completed)
}

func TestExecuteUnknownRun(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.service.Execute(context.Background(), common.NewID())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeRunNotFound))
}

func TestExecuteRejectsNonQueuedRun(t *testing.T) {
	f := newServiceFixture(t)

	run, err := f.service.Analyze(context.Background(), domainAnalysis.Request{
		AOIAssetID: testAOIAsset,
		StartYear:  2020,
		EndYear:    2024,
	})
	require.NoError(t, err)

	_, err = f.service.Execute(context.Background(), run.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeRunInvalidState))
}

func TestQuickEstimatesPopulatesCache(t *testing.T) {
	f := newServiceFixture(t)

	req := domainAnalysis.Request{AOIAssetID: testAOIAsset, StartYear: 2020, EndYear: 2024}
	ests, err := f.service.QuickEstimates(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, ests, 3)
	require.Len(t, f.cache.entries, 1)

	for key := range f.cache.entries {
		cached, ok, cerr := f.service.CachedEstimates(context.Background(), keyCellToken(key), req)
		require.NoError(t, cerr)
		assert.True(t, ok)
		assert.Equal(t, ests, cached)
	}
}

// keyCellToken recovers the cell-token prefix of a cache key.
func keyCellToken(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}

func TestQuickEstimatesServesRepeatFromCache(t *testing.T) {
	f := newServiceFixture(t)

	req := domainAnalysis.Request{AOIAssetID: testAOIAsset, StartYear: 2020, EndYear: 2024}
	first, err := f.service.QuickEstimates(context.Background(), req)
	require.NoError(t, err)
	coldCalls := len(f.catalog.Calls)

	second, err := f.service.QuickEstimates(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// The repeat resolves the boundary for the cache key and stops there:
	// no image fetches, no collection listing.
	require.Len(t, f.catalog.Calls, coldCalls+1)
	assert.Equal(t, testAOIAsset, f.catalog.Calls[coldCalls])

	// A different window misses the cache and runs the pipeline again.
	_, err = f.service.QuickEstimates(context.Background(), domainAnalysis.Request{
		AOIAssetID: testAOIAsset, StartYear: 2021, EndYear: 2024,
	})
	require.NoError(t, err)
	assert.Greater(t, len(f.catalog.Calls), coldCalls+2)
}
