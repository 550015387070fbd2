package raster

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskGTE(t *testing.T) {
	g := mustGrid(t, squareAOI(110.0, -2.0, 300).Bound(), 30)
	vals := make([]float64, g.NumPixels())
	for i := range vals {
		vals[i] = float64(18 + i%8) // loss years 18..25
	}
	l, err := FromValues("lossyear", g, vals, nil)
	require.NoError(t, err)

	filtered := l.MaskGTE(20)
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			v, present := filtered.Value(col, row)
			if present {
				assert.GreaterOrEqual(t, v, 20.0)
			}
		}
	}
	// The source layer is untouched.
	assert.Equal(t, int(g.NumPixels()), l.PresentCount())
}

func TestGtAndSelfMask(t *testing.T) {
	g := mustGrid(t, squareAOI(110.0, -2.0, 300).Bound(), 30)
	vals := make([]float64, g.NumPixels())
	for i := range vals {
		if i%2 == 0 {
			vals[i] = 7
		}
	}
	l, err := FromValues("deforestation", g, vals, nil)
	require.NoError(t, err)

	mask := l.Gt(0).SelfMask()
	assert.Equal(t, (int(g.NumPixels())+1)/2, mask.PresentCount())
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			if v, present := mask.Value(col, row); present {
				assert.Equal(t, 1.0, v)
			}
		}
	}
}

func TestBinarizationIsIdempotent(t *testing.T) {
	g := mustGrid(t, squareAOI(110.0, -2.0, 300).Bound(), 30)
	vals := make([]float64, g.NumPixels())
	for i := range vals {
		vals[i] = float64(i % 3)
	}
	l, err := FromValues("alerts", g, vals, nil)
	require.NoError(t, err)

	once := l.Gt(0).SelfMask()
	twice := once.Gt(0).SelfMask()

	require.Equal(t, once.PresentCount(), twice.PresentCount())
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			v1, p1 := once.Value(col, row)
			v2, p2 := twice.Value(col, row)
			assert.Equal(t, p1, p2)
			assert.Equal(t, v1, v2)
		}
	}
}

func TestClip(t *testing.T) {
	aoi := squareAOI(110.0, -2.0, 1000)
	// Grid extends well beyond the AOI.
	g := mustGrid(t, squareAOI(110.0, -2.0, 3000).Bound(), 30)
	l := NewConstant("deforestation", g, 1)

	clipped := l.Clip(aoi)
	assert.Less(t, clipped.PresentCount(), l.PresentCount())
	assert.Greater(t, clipped.PresentCount(), 0)

	// All surviving pixel centers are inside the AOI.
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			if _, present := clipped.Value(col, row); present {
				assert.True(t, regionContains(aoi, g.CellCenter(col, row)))
			}
		}
	}
}

func TestMax(t *testing.T) {
	g := mustGrid(t, squareAOI(110.0, -2.0, 300).Bound(), 30)

	left := NewLayer("a", g)
	right := NewLayer("b", g)
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			i := row*g.Cols + col
			if col < g.Cols/2 {
				left.vals[i], left.mask[i] = 1, true
			}
			if col >= g.Cols/3 {
				right.vals[i], right.mask[i] = 1, true
			}
		}
	}

	merged, err := left.Max(right)
	require.NoError(t, err)

	// Union of footprints, absent treated as zero contribution.
	assert.Equal(t, int(g.NumPixels()), merged.PresentCount())
	v, present := merged.Value(0, 0)
	assert.True(t, present)
	assert.Equal(t, 1.0, v)
}

func TestMaxGridMismatch(t *testing.T) {
	a := NewConstant("a", mustGrid(t, squareAOI(110.0, -2.0, 300).Bound(), 30), 1)
	b := NewConstant("b", mustGrid(t, squareAOI(110.0, -2.0, 300).Bound(), 10), 1)
	_, err := a.Max(b)
	assert.Error(t, err)
}

func TestMultiply(t *testing.T) {
	g := mustGrid(t, squareAOI(110.0, -2.0, 300).Bound(), 30)
	a := NewConstant("a", g, 2)
	b := NewConstant("b", g, 3).SelfMask() // stays fully present, all values 3

	prod, err := a.Multiply(b)
	require.NoError(t, err)
	v, present := prod.Value(0, 0)
	assert.True(t, present)
	assert.Equal(t, 6.0, v)
}

func TestResampleNearestNeighbor(t *testing.T) {
	aoi := squareAOI(110.0, -2.0, 900)
	coarse := mustGrid(t, aoi.Bound(), 30)
	fine := mustGrid(t, aoi.Bound(), 10)

	src := NewConstant("mask", coarse, 1).SelfMask()
	dst := src.Resample(fine)

	assert.True(t, dst.Grid.Equal(fine))
	// Every fine pixel center inside the coarse extent picks up the value.
	assert.Greater(t, dst.PresentCount(), 0)
	v, present := dst.Value(fine.Cols/2, fine.Rows/2)
	require.True(t, present)
	assert.Equal(t, 1.0, v)
}

func TestRegionContainsGeometries(t *testing.T) {
	poly := squareAOI(110.0, -2.0, 1000)
	inside := orb.Point{110.0, -2.0}
	outside := orb.Point{111.0, -2.0}

	assert.True(t, regionContains(poly, inside))
	assert.False(t, regionContains(poly, outside))
	assert.True(t, regionContains(orb.MultiPolygon{poly}, inside))
	assert.True(t, regionContains(poly.Bound(), inside))
	assert.False(t, regionContains(orb.LineString{}, inside))
}
