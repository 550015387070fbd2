package reporting

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/testutil"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

func completedRun(t *testing.T) *analysis.Run {
	t.Helper()
	run, err := analysis.NewRun(analysis.Request{
		AOIAssetID: "projects/test/aoi",
		StartYear:  2020,
		EndYear:    2024,
	})
	require.NoError(t, err)
	run.AOIName = "Riau Block A"
	require.NoError(t, run.Start())
	require.NoError(t, run.Complete([]analysis.AreaEstimate{
		{Dataset: DatasetHansen, Hectares: 152.33, ScaleMeters: 30},
		{Dataset: DatasetRADD, Hectares: 98.1, ScaleMeters: 10},
		{Dataset: DatasetMerged, Hectares: 201.75, ScaleMeters: 10},
	}))
	return run
}

func TestWriteSummary(t *testing.T) {
	run := completedRun(t)

	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).WriteSummary(run))

	out := buf.String()
	assert.Contains(t, out, "Riau Block A")
	assert.Contains(t, out, "2020-2024")
	assert.Contains(t, out, "152.33 ha")
	assert.Contains(t, out, "98.10 ha")
	assert.Contains(t, out, "201.75 ha")

	// Fixed dataset order.
	hansenIdx := strings.Index(out, "Hansen forest loss")
	raddIdx := strings.Index(out, "RADD radar alerts")
	mergedIdx := strings.Index(out, "Integrated alerts")
	assert.True(t, hansenIdx < raddIdx && raddIdx < mergedIdx)
}

func TestWriteSummaryRequiresCompletedRun(t *testing.T) {
	run, err := analysis.NewRun(analysis.Request{
		AOIAssetID: "projects/test/aoi",
		StartYear:  2020,
		EndYear:    2024,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = NewReporter(&buf).WriteSummary(run)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeRunInvalidState))
}

func TestWriteSummaryMissingEstimate(t *testing.T) {
	run, err := analysis.NewRun(analysis.Request{
		AOIAssetID: "projects/test/aoi",
		StartYear:  2020,
		EndYear:    2024,
	})
	require.NoError(t, err)
	require.NoError(t, run.Start())
	require.NoError(t, run.Complete([]analysis.AreaEstimate{
		{Dataset: DatasetHansen, Hectares: 10, ScaleMeters: 30},
	}))

	var buf bytes.Buffer
	err = NewReporter(&buf).WriteSummary(run)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}

type registryMock struct {
	center orb.Point
	zoom   int
	layers []MapLayer
}

func (r *registryMock) SetView(center orb.Point, zoom int) {
	r.center = center
	r.zoom = zoom
}

func (r *registryMock) AddLayer(layer MapLayer) error {
	r.layers = append(r.layers, layer)
	return nil
}

func TestComposeMap(t *testing.T) {
	area := testutil.SquareAOI(t, "projects/test/aoi", 101.0, 0.5, 1000)
	hansen := testutil.ConstantLayer(t, area, 30, 21)
	radd := testutil.ConstantLayer(t, area, 10, 1)
	merged := testutil.ConstantLayer(t, area, 10, 1)

	reg := &registryMock{}
	require.NoError(t, ComposeMap(reg, MapInputs{
		AOI: area, Hansen: hansen, RADD: radd, Merged: merged,
	}, 11))

	assert.Equal(t, 11, reg.zoom)
	assert.InDelta(t, 101.0, reg.center[0], 1e-6)
	assert.InDelta(t, 0.5, reg.center[1], 1e-6)

	require.Len(t, reg.layers, 4)
	assert.NotNil(t, reg.layers[0].Outline, "first layer is the boundary outline")
	assert.Nil(t, reg.layers[0].Raster)
	for _, l := range reg.layers[1:] {
		assert.NotNil(t, l.Raster)
		assert.NotEmpty(t, l.Vis.Palette)
	}
}

func TestComposeMapValidation(t *testing.T) {
	area := testutil.SquareAOI(t, "projects/test/aoi", 101.0, 0.5, 1000)
	layer := testutil.ConstantLayer(t, area, 10, 1)

	err := ComposeMap(nil, MapInputs{AOI: area, Hansen: layer, RADD: layer, Merged: layer}, 11)
	require.Error(t, err)

	err = ComposeMap(&registryMock{}, MapInputs{AOI: area, Hansen: layer, RADD: layer}, 11)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestDocumentRegistry(t *testing.T) {
	area := testutil.SquareAOI(t, "projects/test/aoi", 101.0, 0.5, 1000)
	hansen := testutil.ConstantLayer(t, area, 30, 21).Rename("deforestation")
	radd := testutil.ConstantLayer(t, area, 10, 1).Rename("radd_alerts")
	merged := testutil.ConstantLayer(t, area, 10, 1).Rename("merged_alerts")

	reg := NewDocumentRegistry()
	require.NoError(t, ComposeMap(reg, MapInputs{
		AOI: area, Hansen: hansen, RADD: radd, Merged: merged,
	}, 11))

	doc := reg.Document()
	assert.Equal(t, 11, doc.Zoom)
	assert.InDelta(t, 101.0, doc.Center[0], 1e-6)
	require.Len(t, doc.Layers, 4)

	assert.Equal(t, "outline", doc.Layers[0].Kind)
	require.NotNil(t, doc.Layers[0].Geometry)
	assert.Equal(t, "raster", doc.Layers[1].Kind)
	assert.Equal(t, "deforestation", doc.Layers[1].Band)
	assert.InDelta(t, 30.0, doc.Layers[1].Scale, 1e-9)

	var buf bytes.Buffer
	_, err := reg.WriteTo(&buf)
	require.NoError(t, err)

	var decoded MapDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Layers, 4)
	assert.Equal(t, "AOI boundary", decoded.Layers[0].Name)
}

func TestDocumentRegistryRejectsEmptyLayer(t *testing.T) {
	reg := NewDocumentRegistry()
	err := reg.AddLayer(MapLayer{Name: "empty"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}
