// Package alerting turns extracted loss and alert layers into a single
// integrated-alert mask: each source is binarized, re-gridded to the finer
// alert resolution and combined by pixel-wise maximum.
package alerting

import (
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/aoi"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/raster"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// LayerName is the band name carried by merged integrated-alert layers.
const LayerName = "merged_alerts"

// Binarize reduces a layer to a presence mask: every pixel with a value
// strictly greater than zero becomes 1 and everything else is dropped.
// Absent pixels stay absent rather than becoming zeros, so downstream area
// reduction only ever sees disturbance pixels.
func Binarize(layer *raster.Layer) *raster.Layer {
	return layer.Gt(0).SelfMask()
}

// Merger combines binarized disturbance masks.
type Merger struct {
	logger logging.Logger
}

// NewMerger constructs a merger.
func NewMerger(log logging.Logger) *Merger {
	return &Merger{logger: log.Named("alerting")}
}

// Merge binarizes both layers, brings the coarse layer onto the fine
// layer's grid by nearest-neighbor resampling, combines them by pixel-wise
// maximum and clips the result to the AOI geometry.  A pixel is present in
// the merged mask when either source flags it; an absent source pixel
// contributes zero, never a gap.
func (m *Merger) Merge(hansenLoss, raddAlerts *raster.Layer, area *aoi.AreaOfInterest) (*raster.Layer, error) {
	if hansenLoss == nil || raddAlerts == nil {
		return nil, errors.New(errors.CodeInvalidParam, "both source layers are required")
	}
	if area == nil {
		return nil, errors.New(errors.CodeInvalidParam, "area of interest must not be nil")
	}

	lossMask := Binarize(hansenLoss)
	alertMask := Binarize(raddAlerts)

	// The merged product lives on the finer grid.  Scale is meters per
	// pixel, so the smaller number wins.
	fine, coarse := alertMask, lossMask
	if lossMask.Grid.Scale < alertMask.Grid.Scale {
		fine, coarse = lossMask, alertMask
	}
	coarse = coarse.Resample(fine.Grid)

	merged, err := fine.Max(coarse)
	if err != nil {
		return nil, err
	}
	merged = merged.Clip(area.Geometry).Rename(LayerName)

	m.logger.Info("disturbance masks merged",
		logging.String("aoi", area.AssetID),
		logging.Float64("scale_m", merged.Grid.Scale),
		logging.Int("pixels_present", merged.PresentCount()))
	return merged, nil
}
