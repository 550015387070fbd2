package alerting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/raster"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/testutil"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

func TestBinarize(t *testing.T) {
	area := testutil.SquareAOI(t, "projects/test/aoi", 101.0, 0.0, 600)

	grid, err := raster.NewGrid(area.Bound(), 30)
	require.NoError(t, err)

	vals := make([]float64, grid.Cols*grid.Rows)
	mask := make([]bool, len(vals))
	for i := range vals {
		switch i % 3 {
		case 0:
			vals[i], mask[i] = 23, true // disturbance
		case 1:
			vals[i], mask[i] = 0, true // present but untouched
		case 2:
			mask[i] = false // no data
		}
	}
	layer, err := raster.FromValues("lossyear", grid, vals, mask)
	require.NoError(t, err)

	bin := Binarize(layer)

	want := 0
	for i := range vals {
		if i%3 == 0 {
			want++
		}
	}
	assert.Equal(t, want, bin.PresentCount(), "only positive pixels survive binarization")

	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			if v, ok := bin.Value(col, row); ok {
				assert.InDelta(t, 1.0, v, 1e-9)
			}
		}
	}
}

func TestMergeProducesFinerGrid(t *testing.T) {
	area := testutil.SquareAOI(t, "projects/test/aoi", 101.0, 0.0, 1000)

	hansen := testutil.ConstantLayer(t, area, 30, 21)
	radd := testutil.ConstantLayer(t, area, 10, 0) // present but no alerts

	merged, err := NewMerger(logging.NewNopLogger()).Merge(hansen, radd, area)
	require.NoError(t, err)

	assert.Equal(t, LayerName, merged.Name)
	assert.InDelta(t, 10.0, merged.Grid.Scale, 1e-9, "merged mask lives on the finer grid")
	assert.Greater(t, merged.PresentCount(), 0, "loss-only pixels still flag")
}

func TestMergeIsUnionNotSum(t *testing.T) {
	area := testutil.SquareAOI(t, "projects/test/aoi", 101.0, 0.0, 1000)

	hansen := testutil.ConstantLayer(t, area, 30, 21)
	radd := testutil.ConstantLayer(t, area, 10, 5)

	merged, err := NewMerger(logging.NewNopLogger()).Merge(hansen, radd, area)
	require.NoError(t, err)

	for row := 0; row < merged.Grid.Rows; row++ {
		for col := 0; col < merged.Grid.Cols; col++ {
			if v, ok := merged.Value(col, row); ok {
				assert.InDelta(t, 1.0, v, 1e-9, "overlapping disturbance stays 1, not 2")
			}
		}
	}
}

func TestMergeAbsentSourceContributesZero(t *testing.T) {
	area := testutil.SquareAOI(t, "projects/test/aoi", 101.0, 0.0, 1000)

	hansen := testutil.ConstantLayer(t, area, 30, 0) // binarizes to empty
	radd := testutil.ConstantLayer(t, area, 10, 4)

	merged, err := NewMerger(logging.NewNopLogger()).Merge(hansen, radd, area)
	require.NoError(t, err)
	assert.Greater(t, merged.PresentCount(), 0,
		"an empty loss mask must not punch holes in the alert mask")
}

func TestMergeValidation(t *testing.T) {
	area := testutil.SquareAOI(t, "projects/test/aoi", 101.0, 0.0, 1000)
	layer := testutil.ConstantLayer(t, area, 10, 1)
	merger := NewMerger(logging.NewNopLogger())

	_, err := merger.Merge(nil, layer, area)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = merger.Merge(layer, layer, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}
