// Package radd extracts the RADD radar-alert layer for an AOI: every alert
// image intersecting the boundary and the date window, composited by
// pixel-wise maximum and clipped to the boundary geometry.
package radd

import (
	"context"
	"time"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/config"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/aoi"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/raster"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/catalog"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// LayerName is the band name carried by extracted RADD alert layers.
const LayerName = "radd_alerts"

// Extractor composites the RADD alert collection over an AOI and window.
type Extractor struct {
	catalog catalog.Catalog
	cfg     config.PipelineConfig
	logger  logging.Logger
}

// NewExtractor constructs a RADD extractor.
func NewExtractor(cat catalog.Catalog, cfg config.PipelineConfig, log logging.Logger) *Extractor {
	return &Extractor{
		catalog: cat,
		cfg:     cfg,
		logger:  log.Named("radd"),
	}
}

// Extract lists the alert images intersecting the AOI bounds between
// January 1 of startYear and December 31 of endYear, fetches each image's
// alert band, folds them with pixel-wise maximum and clips the composite to
// the AOI geometry.  An empty collection is an error: it usually means the
// window predates RADD coverage for the region.
func (e *Extractor) Extract(ctx context.Context, area *aoi.AreaOfInterest, startYear, endYear int) (*raster.Layer, error) {
	if area == nil {
		return nil, errors.New(errors.CodeInvalidParam, "area of interest must not be nil")
	}
	if endYear < startYear {
		return nil, errors.Newf(errors.CodeValidation,
			"end year %d precedes start year %d", endYear, startYear)
	}

	from := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(endYear, time.December, 31, 23, 59, 59, 0, time.UTC)

	refs, err := e.catalog.ListImages(ctx, catalog.CollectionRequest{
		AssetID: e.cfg.RADDAsset,
		Region:  area.Bound(),
		From:    from,
		To:      to,
	})
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, errors.Newf(errors.CodeEmptyCollection,
			"no alert images intersect %s between %d and %d", area.AssetID, startYear, endYear)
	}

	var composite *raster.Layer
	for _, ref := range refs {
		layer, err := e.catalog.ImagePixels(ctx, catalog.ImageRequest{
			AssetID:     ref.AssetID,
			Band:        e.cfg.RADDBand,
			Region:      area.Bound(),
			ScaleMeters: e.cfg.RADDScale,
		})
		if err != nil {
			return nil, err
		}
		if composite == nil {
			composite = layer
			continue
		}
		composite, err = composite.Max(layer)
		if err != nil {
			return nil, err
		}
	}

	clipped := composite.Clip(area.Geometry).Rename(LayerName)

	e.logger.Info("radd alert composite extracted",
		logging.String("aoi", area.AssetID),
		logging.Int("images", len(refs)),
		logging.Int("pixels_present", clipped.PresentCount()))
	return clipped, nil
}
