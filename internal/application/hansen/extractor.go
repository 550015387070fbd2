// Package hansen extracts the Hansen Global Forest Change loss layer for an
// AOI: the lossyear band filtered to the analysis window and clipped to the
// boundary geometry.
package hansen

import (
	"context"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/config"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/aoi"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/raster"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/catalog"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// LayerName is the band name carried by extracted Hansen loss layers.
const LayerName = "deforestation"

// Extractor pulls the Hansen lossyear band and reduces it to the loss mask
// for a year window.
type Extractor struct {
	catalog catalog.Catalog
	cfg     config.PipelineConfig
	logger  logging.Logger
}

// NewExtractor constructs a Hansen extractor.
func NewExtractor(cat catalog.Catalog, cfg config.PipelineConfig, log logging.Logger) *Extractor {
	return &Extractor{
		catalog: cat,
		cfg:     cfg,
		logger:  log.Named("hansen"),
	}
}

// Extract fetches the lossyear band over the AOI's bounding box, keeps only
// pixels whose loss year falls at or after startYear, and clips the result
// to the AOI geometry.  Pixel values remain loss-year offsets (years since
// 2000); binarization is a separate step.
func (e *Extractor) Extract(ctx context.Context, area *aoi.AreaOfInterest, startYear int) (*raster.Layer, error) {
	if area == nil {
		return nil, errors.New(errors.CodeInvalidParam, "area of interest must not be nil")
	}
	if startYear < 2000 {
		return nil, errors.Newf(errors.CodeValidation,
			"start year %d precedes the Hansen baseline year 2000", startYear)
	}

	layer, err := e.catalog.ImagePixels(ctx, catalog.ImageRequest{
		AssetID:     e.cfg.HansenAsset,
		Band:        e.cfg.HansenBand,
		Region:      area.Bound(),
		ScaleMeters: e.cfg.HansenScale,
	})
	if err != nil {
		return nil, err
	}

	// Loss-year pixels encode years since 2000, so the window lower bound
	// becomes startYear-2000.
	offset := float64(startYear - 2000)
	masked := layer.MaskGTE(offset).Clip(area.Geometry).Rename(LayerName)

	e.logger.Info("hansen loss layer extracted",
		logging.String("aoi", area.AssetID),
		logging.Int("start_year", startYear),
		logging.Int("pixels_present", masked.PresentCount()))
	return masked, nil
}
