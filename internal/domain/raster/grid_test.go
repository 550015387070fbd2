package raster

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// squareAOI returns a square polygon centered at (lon, lat) with the given
// side length in meters.
func squareAOI(lon, lat, sideMeters float64) orb.Polygon {
	mLat, mLon := metersPerDegree(lat)
	halfLat := sideMeters / 2 / mLat
	halfLon := sideMeters / 2 / mLon
	return orb.Polygon{orb.Ring{
		{lon - halfLon, lat - halfLat},
		{lon + halfLon, lat - halfLat},
		{lon + halfLon, lat + halfLat},
		{lon - halfLon, lat + halfLat},
		{lon - halfLon, lat - halfLat},
	}}
}

func mustGrid(t *testing.T, bound orb.Bound, scale float64) Grid {
	t.Helper()
	g, err := NewGrid(bound, scale)
	require.NoError(t, err)
	return g
}

func TestNewGrid(t *testing.T) {
	aoi := squareAOI(110.0, -2.0, 1000)
	g := mustGrid(t, aoi.Bound(), 30)

	// A 1 km square at 30 m resolution is roughly 33x34 pixels.
	assert.InDelta(t, 33, g.Cols, 2)
	assert.InDelta(t, 33, g.Rows, 2)
	assert.Equal(t, 30.0, g.Scale)

	// The grid covers the requested bound entirely.
	b := g.Bound()
	assert.LessOrEqual(t, b.Min[0], aoi.Bound().Min[0])
	assert.GreaterOrEqual(t, b.Max[0], aoi.Bound().Max[0])
}

func TestNewGridRejectsBadInput(t *testing.T) {
	aoi := squareAOI(110.0, -2.0, 1000)

	_, err := NewGrid(aoi.Bound(), 0)
	assert.Error(t, err)

	_, err = NewGrid(orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{1, 1}}, 30)
	assert.Error(t, err)
}

func TestCellCenterRoundTrip(t *testing.T) {
	g := mustGrid(t, squareAOI(110.0, -2.0, 3000).Bound(), 30)

	for _, tc := range [][2]int{{0, 0}, {5, 7}, {g.Cols - 1, g.Rows - 1}} {
		center := g.CellCenter(tc[0], tc[1])
		col, row, ok := g.CellAt(center)
		require.True(t, ok)
		assert.Equal(t, tc[0], col)
		assert.Equal(t, tc[1], row)
	}

	_, _, ok := g.CellAt(orb.Point{0, 0})
	assert.False(t, ok)
}

func TestPixelAreaHectares(t *testing.T) {
	// A 30 m pixel is 900 m^2 = 0.09 ha; the geographic grid approximates
	// that within a small tolerance at the grid's mid-latitude.
	g := mustGrid(t, squareAOI(110.0, -2.0, 1000).Bound(), 30)
	area := PixelAreaHectares(g)

	v, present := area.Value(g.Cols/2, g.Rows/2)
	require.True(t, present)
	assert.InEpsilon(t, 0.09, v, 0.01)
}

func TestPixelAreaVariesWithLatitude(t *testing.T) {
	// Away from the equator the same angular pixel covers less ground in one
	// row than several degrees further from it.
	bound := orb.Bound{Min: orb.Point{10, 40}, Max: orb.Point{10.5, 44}}
	g := mustGrid(t, bound, 1000)
	area := PixelAreaHectares(g)

	north, _ := area.Value(0, 0)
	south, _ := area.Value(0, g.Rows-1)
	assert.Less(t, north, south, "pixels nearer the pole cover less ground")
	assert.False(t, math.IsNaN(north))
}
