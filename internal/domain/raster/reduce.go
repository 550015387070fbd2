package raster

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// ReduceSum sums the present pixel values whose centers fall inside region.
// The requested scale must match the native resolution the layer was built
// at: reducing at a foreign scale would resample the data and bias the
// estimate.  maxPixels bounds the work of a single reduction; for a bounded
// AOI the default limit is effectively unbounded.
func (l *Layer) ReduceSum(region orb.Geometry, scale float64, maxPixels int64) (float64, error) {
	if math.Abs(l.Grid.Scale-scale) > 1e-9 {
		return 0, errors.Newf(errors.CodeScaleMismatch,
			"layer %q has native scale %vm, reduction requested %vm", l.Name, l.Grid.Scale, scale)
	}
	if l.Grid.NumPixels() > maxPixels {
		return 0, errors.Newf(errors.CodeReductionTooLarge,
			"reduction over %d pixels exceeds limit %d", l.Grid.NumPixels(), maxPixels)
	}

	sum := 0.0
	for row := 0; row < l.Grid.Rows; row++ {
		for col := 0; col < l.Grid.Cols; col++ {
			i := row*l.Grid.Cols + col
			if !l.mask[i] {
				continue
			}
			if !regionContains(region, l.Grid.CellCenter(col, row)) {
				continue
			}
			sum += l.vals[i]
		}
	}
	return sum, nil
}

// AreaHectares multiplies the mask by the grid's per-pixel ground area in
// hectares and sums the product over region at the given scale.  This is the
// single area-reduction primitive of the pipeline, called once per dataset
// and once for the merged layer.
func AreaHectares(mask *Layer, region orb.Geometry, scale float64, maxPixels int64) (float64, error) {
	weighted, err := mask.Multiply(PixelAreaHectares(mask.Grid))
	if err != nil {
		return 0, err
	}
	return weighted.ReduceSum(region, scale, maxPixels)
}
