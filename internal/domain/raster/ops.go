package raster

import (
	"github.com/paulmach/orb"

	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// MaskGTE returns a layer where pixels with value < min become absent.
// Already-absent pixels stay absent.  This is the lower-bound year filter of
// the Hansen extractor.
func (l *Layer) MaskGTE(min float64) *Layer {
	out := l.clone()
	for i, m := range out.mask {
		if m && out.vals[i] < min {
			out.mask[i] = false
		}
	}
	return out
}

// Gt returns a binary layer holding 1 where the pixel value exceeds v and 0
// elsewhere.  Presence is carried over unchanged; combine with SelfMask to
// drop the zeros.
func (l *Layer) Gt(v float64) *Layer {
	out := l.clone()
	for i, m := range out.mask {
		if !m {
			out.vals[i] = 0
			continue
		}
		if out.vals[i] > v {
			out.vals[i] = 1
		} else {
			out.vals[i] = 0
		}
	}
	return out
}

// SelfMask returns a layer where zero-valued pixels become absent, so that
// subsequent reductions sum only over pixels satisfying the condition that
// produced the layer.
func (l *Layer) SelfMask() *Layer {
	out := l.clone()
	for i, m := range out.mask {
		if m && out.vals[i] == 0 {
			out.mask[i] = false
		}
	}
	return out
}

// Clip returns a layer where pixels whose center falls outside the region
// become absent.
func (l *Layer) Clip(region orb.Geometry) *Layer {
	out := l.clone()
	for row := 0; row < out.Grid.Rows; row++ {
		for col := 0; col < out.Grid.Cols; col++ {
			i := row*out.Grid.Cols + col
			if out.mask[i] && !regionContains(region, out.Grid.CellCenter(col, row)) {
				out.mask[i] = false
			}
		}
	}
	return out
}

// Max returns the pixel-wise maximum of two layers sharing a grid, treating
// absent pixels as contributing 0.  A result pixel is present when either
// input pixel is present.
func (l *Layer) Max(other *Layer) (*Layer, error) {
	if !l.Grid.Equal(other.Grid) {
		return nil, errors.Newf(errors.CodeGridMismatch,
			"max of %q and %q: grids differ (%dx%d vs %dx%d)",
			l.Name, other.Name, l.Grid.Cols, l.Grid.Rows, other.Grid.Cols, other.Grid.Rows)
	}
	out := l.clone()
	for i := range out.vals {
		a, b := 0.0, 0.0
		if l.mask[i] {
			a = l.vals[i]
		}
		if other.mask[i] {
			b = other.vals[i]
		}
		if b > a {
			out.vals[i] = b
		} else {
			out.vals[i] = a
		}
		out.mask[i] = l.mask[i] || other.mask[i]
	}
	return out, nil
}

// Multiply returns the pixel-wise product of two layers sharing a grid.  A
// result pixel is present only where both inputs are present.
func (l *Layer) Multiply(other *Layer) (*Layer, error) {
	if !l.Grid.Equal(other.Grid) {
		return nil, errors.Newf(errors.CodeGridMismatch,
			"multiply of %q and %q: grids differ", l.Name, other.Name)
	}
	out := l.clone()
	for i := range out.vals {
		out.mask[i] = l.mask[i] && other.mask[i]
		if out.mask[i] {
			out.vals[i] = l.vals[i] * other.vals[i]
		} else {
			out.vals[i] = 0
		}
	}
	return out, nil
}

// Resample projects the layer onto a target grid by nearest-neighbor lookup
// of each target pixel center in the source lattice.  Target pixels falling
// outside the source extent are absent.  Used when combining datasets of
// different native resolutions: the coarser mask is resampled onto the finer
// grid before merging.
func (l *Layer) Resample(target Grid) *Layer {
	out := NewLayer(l.Name, target)
	for row := 0; row < target.Rows; row++ {
		for col := 0; col < target.Cols; col++ {
			center := target.CellCenter(col, row)
			sc, sr, ok := l.Grid.CellAt(center)
			if !ok {
				continue
			}
			si := sr*l.Grid.Cols + sc
			ti := row*target.Cols + col
			out.vals[ti] = l.vals[si]
			out.mask[ti] = l.mask[si]
		}
	}
	return out
}
