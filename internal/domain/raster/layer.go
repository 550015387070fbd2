package raster

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// Layer is a single-band grid of numeric values over a spatial extent.  A
// pixel is either present (carries a value) or absent (masked); reductions
// sum only over present pixels.  Layers are immutable once derived: every
// operation returns a new Layer.
type Layer struct {
	Name string
	Grid Grid

	vals []float64
	mask []bool // true = present
}

// newFilled allocates a layer with every pixel set to v and the given
// presence.
func newFilled(name string, g Grid, v float64, present bool) *Layer {
	n := int(g.NumPixels())
	l := &Layer{
		Name: name,
		Grid: g,
		vals: make([]float64, n),
		mask: make([]bool, n),
	}
	for i := range l.vals {
		l.vals[i] = v
		l.mask[i] = present
	}
	return l
}

// NewConstant returns a layer with every pixel present and equal to v.
func NewConstant(name string, g Grid, v float64) *Layer {
	return newFilled(name, g, v, true)
}

// NewLayer returns a fully masked (empty) layer over g.
func NewLayer(name string, g Grid) *Layer {
	return newFilled(name, g, 0, false)
}

// FromValues builds a layer from row-major pixel values.  A nil mask marks
// every pixel present.  Used by catalog decoders and tests.
func FromValues(name string, g Grid, vals []float64, mask []bool) (*Layer, error) {
	n := int(g.NumPixels())
	if len(vals) != n {
		return nil, errors.Newf(errors.CodeGridMismatch,
			"layer %q: %d values for a %dx%d grid", name, len(vals), g.Cols, g.Rows)
	}
	if mask != nil && len(mask) != n {
		return nil, errors.Newf(errors.CodeGridMismatch,
			"layer %q: %d mask entries for a %dx%d grid", name, len(mask), g.Cols, g.Rows)
	}
	l := &Layer{Name: name, Grid: g, vals: append([]float64(nil), vals...)}
	if mask == nil {
		l.mask = make([]bool, n)
		for i := range l.mask {
			l.mask[i] = true
		}
	} else {
		l.mask = append([]bool(nil), mask...)
	}
	return l, nil
}

// Value returns the pixel value at (col, row) and whether it is present.
func (l *Layer) Value(col, row int) (float64, bool) {
	i := row*l.Grid.Cols + col
	return l.vals[i], l.mask[i]
}

// PresentCount returns the number of unmasked pixels.
func (l *Layer) PresentCount() int {
	n := 0
	for _, m := range l.mask {
		if m {
			n++
		}
	}
	return n
}

// Rename returns a copy of the layer under a new band name.
func (l *Layer) Rename(name string) *Layer {
	out := l.clone()
	out.Name = name
	return out
}

func (l *Layer) clone() *Layer {
	return &Layer{
		Name: l.Name,
		Grid: l.Grid,
		vals: append([]float64(nil), l.vals...),
		mask: append([]bool(nil), l.mask...),
	}
}

// regionContains reports whether the geometry contains the point.  Bounds,
// polygons and multi-polygons are the region shapes an AOI can carry.
func regionContains(geom orb.Geometry, p orb.Point) bool {
	switch g := geom.(type) {
	case orb.Bound:
		return g.Contains(p)
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	default:
		return false
	}
}
