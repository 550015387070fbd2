// Package raster implements the immutable raster layers and the functional
// algebra the analysis pipeline is built from: band masking, clipping,
// thresholding, pixel-wise maximum, per-pixel ground area, and region
// reductions.  Every operation derives a new layer; nothing is mutated after
// creation.
package raster

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// metersPerDegree returns the ground length of one degree of latitude and one
// degree of longitude at the given latitude, using the standard truncated
// series for the WGS84 ellipsoid.
func metersPerDegree(latDeg float64) (mLat, mLon float64) {
	phi := latDeg * math.Pi / 180
	mLat = 111132.92 - 559.82*math.Cos(2*phi) + 1.175*math.Cos(4*phi)
	mLon = 111412.84*math.Cos(phi) - 93.5*math.Cos(3*phi)
	return mLat, mLon
}

// Grid describes a north-up regular pixel grid in geographic coordinates
// (EPSG:4326).  The first pixel's upper-left corner sits at (West, North);
// columns advance eastward by DX degrees and rows advance southward by DY
// degrees.
type Grid struct {
	West  float64
	North float64
	DX    float64 // pixel width, degrees, positive
	DY    float64 // pixel height, degrees, positive, applied southward
	Cols  int
	Rows  int

	// Scale is the nominal ground resolution in meters the grid was built
	// for (30 for Hansen, 10 for RADD).  Reductions verify the requested
	// scale against this value.
	Scale float64
}

// NewGrid builds a grid covering bound at the given nominal ground resolution
// in meters.  Pixel sizes in degrees are derived at the bound's mid-latitude
// so that a pixel edge is approximately scale meters on the ground.
func NewGrid(bound orb.Bound, scaleMeters float64) (Grid, error) {
	if scaleMeters <= 0 {
		return Grid{}, errors.Newf(errors.CodeInvalidParam, "grid scale must be positive, got %v", scaleMeters)
	}
	if bound.Max[0] <= bound.Min[0] || bound.Max[1] <= bound.Min[1] {
		return Grid{}, errors.New(errors.CodeEmptyRegion, "grid bound has no extent")
	}

	latMid := (bound.Min[1] + bound.Max[1]) / 2
	mLat, mLon := metersPerDegree(latMid)
	dy := scaleMeters / mLat
	dx := scaleMeters / mLon

	cols := int(math.Ceil((bound.Max[0] - bound.Min[0]) / dx))
	rows := int(math.Ceil((bound.Max[1] - bound.Min[1]) / dy))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	return Grid{
		West:  bound.Min[0],
		North: bound.Max[1],
		DX:    dx,
		DY:    dy,
		Cols:  cols,
		Rows:  rows,
		Scale: scaleMeters,
	}, nil
}

// NumPixels returns the total pixel count of the grid.
func (g Grid) NumPixels() int64 {
	return int64(g.Cols) * int64(g.Rows)
}

// CellCenter returns the geographic coordinates of the center of pixel
// (col, row).
func (g Grid) CellCenter(col, row int) orb.Point {
	return orb.Point{
		g.West + (float64(col)+0.5)*g.DX,
		g.North - (float64(row)+0.5)*g.DY,
	}
}

// CellAt returns the pixel indices containing the point, and whether the
// point falls inside the grid at all.
func (g Grid) CellAt(p orb.Point) (col, row int, ok bool) {
	col = int(math.Floor((p[0] - g.West) / g.DX))
	row = int(math.Floor((g.North - p[1]) / g.DY))
	if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
		return 0, 0, false
	}
	return col, row, true
}

// Bound returns the geographic extent covered by the grid.
func (g Grid) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{g.West, g.North - float64(g.Rows)*g.DY},
		Max: orb.Point{g.West + float64(g.Cols)*g.DX, g.North},
	}
}

// Equal reports whether two grids describe the same pixel lattice.
func (g Grid) Equal(o Grid) bool {
	const eps = 1e-12
	return g.Cols == o.Cols && g.Rows == o.Rows &&
		math.Abs(g.West-o.West) < eps && math.Abs(g.North-o.North) < eps &&
		math.Abs(g.DX-o.DX) < eps && math.Abs(g.DY-o.DY) < eps
}

// PixelAreaHectares returns a layer holding each pixel's ground area in
// hectares, computed from the grid's geographic projection.  Pixel area
// varies by row only, since pixel width in meters depends on latitude alone.
func PixelAreaHectares(g Grid) *Layer {
	l := newFilled("area", g, 0, true)
	for row := 0; row < g.Rows; row++ {
		lat := g.North - (float64(row)+0.5)*g.DY
		mLat, mLon := metersPerDegree(lat)
		ha := (g.DY * mLat) * (g.DX * mLon) / 1e4
		for col := 0; col < g.Cols; col++ {
			l.vals[row*g.Cols+col] = ha
		}
	}
	return l
}
