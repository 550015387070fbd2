package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/reporting"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/config"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/aoi"
	domainAnalysis "github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/catalog"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/testutil"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

const testAOIAsset = "projects/test/aoi/riau_block_a"

func pipelineConfig() config.PipelineConfig {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg.Pipeline
}

// seedCatalog registers a 1 km square AOI with full Hansen loss in 2021 and
// one RADD alert image covering the same square.
func seedCatalog(t *testing.T, cfg config.PipelineConfig) *testutil.CatalogMock {
	t.Helper()
	area := testutil.SquareAOI(t, testAOIAsset, 101.0, 0.0, 1000)

	cat := testutil.NewCatalogMock()
	cat.SetBoundary(testAOIAsset, area)
	cat.SetImage(cfg.HansenAsset, testutil.ConstantLayer(t, area, cfg.HansenScale, 21))
	cat.SetImageList(cfg.RADDAsset, []catalog.ImageRef{
		{AssetID: cfg.RADDAsset + "/img_001", Time: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)},
		{AssetID: cfg.RADDAsset + "/img_002", Time: time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)},
	})
	cat.SetImage(cfg.RADDAsset+"/img_001", testutil.ConstantLayer(t, area, cfg.RADDScale, 1))
	cat.SetImage(cfg.RADDAsset+"/img_002", testutil.ConstantLayer(t, area, cfg.RADDScale, 1))
	return cat
}

func TestPipelineExecute(t *testing.T) {
	cfg := pipelineConfig()
	cat := seedCatalog(t, cfg)

	p := NewPipeline(cat, cfg, logging.NewNopLogger())
	result, err := p.Execute(context.Background(), domainAnalysis.Request{
		AOIAssetID: testAOIAsset,
		StartYear:  2020,
		EndYear:    2024,
	})
	require.NoError(t, err)

	require.Len(t, result.Estimates, 3)
	byDataset := map[string]domainAnalysis.AreaEstimate{}
	for _, e := range result.Estimates {
		byDataset[e.Dataset] = e
	}

	hansen := byDataset[reporting.DatasetHansen]
	radd := byDataset[reporting.DatasetRADD]
	merged := byDataset[reporting.DatasetMerged]

	assert.InDelta(t, 30.0, hansen.ScaleMeters, 1e-9)
	assert.InDelta(t, 10.0, radd.ScaleMeters, 1e-9)
	assert.InDelta(t, 10.0, merged.ScaleMeters, 1e-9)

	// The whole square is disturbed in both sources, so every figure sits
	// near the square's 100 ha.
	assert.InEpsilon(t, 100.0, hansen.Hectares, 0.08)
	assert.InEpsilon(t, 100.0, radd.Hectares, 0.05)
	assert.InEpsilon(t, 100.0, merged.Hectares, 0.05)

	// Merging overlapping disturbance is a union, never a sum.
	assert.Less(t, merged.Hectares, hansen.Hectares+radd.Hectares)

	// The result keeps both Hansen layers: the loss years for display and
	// the binary mask for reduction.
	require.NotNil(t, result.HansenLoss)
	lossVal, present := result.HansenLoss.Value(0, 0)
	require.True(t, present)
	assert.InDelta(t, 21, lossVal, 1e-9)
	maskVal, present := result.HansenMask.Value(0, 0)
	require.True(t, present)
	assert.InDelta(t, 1, maskVal, 1e-9)
}

func TestPipelineWindowExcludesEarlyLoss(t *testing.T) {
	cfg := pipelineConfig()
	cat := seedCatalog(t, cfg)

	p := NewPipeline(cat, cfg, logging.NewNopLogger())
	result, err := p.Execute(context.Background(), domainAnalysis.Request{
		AOIAssetID: testAOIAsset,
		StartYear:  2022, // loss year 2021 falls outside
		EndYear:    2024,
	})
	require.NoError(t, err)

	var hansen domainAnalysis.AreaEstimate
	for _, e := range result.Estimates {
		if e.Dataset == reporting.DatasetHansen {
			hansen = e
		}
	}
	assert.InDelta(t, 0.0, hansen.Hectares, 1e-9)
}

// boundaryRepoMock is an in-memory aoi.Repository.
type boundaryRepoMock struct {
	stored map[string]*aoi.AreaOfInterest
}

func newBoundaryRepoMock() *boundaryRepoMock {
	return &boundaryRepoMock{stored: map[string]*aoi.AreaOfInterest{}}
}

func (m *boundaryRepoMock) Save(_ context.Context, a *aoi.AreaOfInterest) error {
	m.stored[a.AssetID] = a
	return nil
}

func (m *boundaryRepoMock) FindByAssetID(_ context.Context, assetID string) (*aoi.AreaOfInterest, error) {
	a, ok := m.stored[assetID]
	if !ok {
		return nil, errors.Newf(errors.CodeAOINotFound, "no boundary for %s", assetID)
	}
	return a, nil
}

func TestPipelineBoundaryRepositorySkipsCatalog(t *testing.T) {
	cfg := pipelineConfig()
	cat := seedCatalog(t, cfg)
	repo := newBoundaryRepoMock()

	p := NewPipeline(cat, cfg, logging.NewNopLogger()).WithBoundaryRepository(repo)
	req := domainAnalysis.Request{AOIAssetID: testAOIAsset, StartYear: 2020, EndYear: 2024}

	_, err := p.Execute(context.Background(), req)
	require.NoError(t, err)
	require.Contains(t, repo.stored, testAOIAsset)

	boundaryCalls := func() int {
		n := 0
		for _, c := range cat.Calls {
			if c == testAOIAsset {
				n++
			}
		}
		return n
	}
	first := boundaryCalls()
	assert.Equal(t, 1, first)

	_, err = p.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, boundaryCalls())
}

func TestPipelineUnknownAOI(t *testing.T) {
	cfg := pipelineConfig()
	cat := testutil.NewCatalogMock()

	p := NewPipeline(cat, cfg, logging.NewNopLogger())
	_, err := p.Execute(context.Background(), domainAnalysis.Request{
		AOIAssetID: "projects/test/aoi/missing",
		StartYear:  2020,
		EndYear:    2024,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeAssetNotFound))
}

func TestPipelineRejectsInvalidRequest(t *testing.T) {
	cfg := pipelineConfig()
	p := NewPipeline(testutil.NewCatalogMock(), cfg, logging.NewNopLogger())

	_, err := p.Execute(context.Background(), domainAnalysis.Request{
		AOIAssetID: "",
		StartYear:  2020,
		EndYear:    2024,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}
