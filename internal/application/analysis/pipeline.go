// Package analysis orchestrates the deforestation pipeline: boundary
// loading, Hansen and RADD extraction, mask merging, area reduction and the
// lifecycle of the runs that record it all.
package analysis

import (
	"context"
	"time"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/alerting"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/hansen"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/radd"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/reporting"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/config"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/aoi"
	domainAnalysis "github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/raster"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/catalog"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/metrics"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// Result carries everything a single pipeline execution produced.
type Result struct {
	AOI *aoi.AreaOfInterest

	// HansenLoss is the clipped loss-year layer (years since 2000); the map
	// composer colors it by year.
	HansenLoss *raster.Layer

	// HansenMask and RADDMask are the binarized, clipped disturbance masks
	// at native resolution; Merged is their union on the finer grid.
	HansenMask *raster.Layer
	RADDMask   *raster.Layer
	Merged     *raster.Layer

	Estimates []domainAnalysis.AreaEstimate
	Elapsed   time.Duration
}

// Pipeline wires the extraction and merge stages into one execution path.
type Pipeline struct {
	catalog    catalog.Catalog
	boundaries aoi.Repository
	hansen     *hansen.Extractor
	radd       *radd.Extractor
	merger     *alerting.Merger
	cfg        config.PipelineConfig
	logger     logging.Logger
}

// NewPipeline constructs a pipeline over the catalog.
func NewPipeline(cat catalog.Catalog, cfg config.PipelineConfig, log logging.Logger) *Pipeline {
	return &Pipeline{
		catalog: cat,
		hansen:  hansen.NewExtractor(cat, cfg, log),
		radd:    radd.NewExtractor(cat, cfg, log),
		merger:  alerting.NewMerger(log),
		cfg:     cfg,
		logger:  log.Named("pipeline"),
	}
}

// WithBoundaryRepository keeps fetched boundaries in repo so repeated runs
// over the same AOI skip the catalog round-trip.
func (p *Pipeline) WithBoundaryRepository(repo aoi.Repository) *Pipeline {
	p.boundaries = repo
	return p
}

// loadBoundary serves the AOI from the repository when present, falling back
// to the catalog and storing the result.
func (p *Pipeline) loadBoundary(ctx context.Context, assetID string) (*aoi.AreaOfInterest, error) {
	if p.boundaries != nil {
		area, err := p.boundaries.FindByAssetID(ctx, assetID)
		if err == nil {
			return area, nil
		}
		if !errors.IsCode(err, errors.CodeAOINotFound) {
			p.logger.Warn("boundary lookup failed, falling back to catalog",
				logging.String("aoi", assetID), logging.Err(err))
		}
	}

	area, err := p.catalog.Boundary(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if p.boundaries != nil {
		if serr := p.boundaries.Save(ctx, area); serr != nil {
			p.logger.Warn("boundary not stored",
				logging.String("aoi", assetID), logging.Err(serr))
		}
	}
	return area, nil
}

// Boundary resolves the AOI for an asset ID through the same repository
// fallback Execute uses.
func (p *Pipeline) Boundary(ctx context.Context, assetID string) (*aoi.AreaOfInterest, error) {
	return p.loadBoundary(ctx, assetID)
}

// Execute runs the full pipeline for a validated request: load the boundary,
// extract both sources, binarize and merge them, then reduce each mask to
// hectares at its native scale.
func (p *Pipeline) Execute(ctx context.Context, req domainAnalysis.Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	area, err := p.loadBoundary(ctx, req.AOIAssetID)
	if err != nil {
		return nil, err
	}

	lossYears, err := p.hansen.Extract(ctx, area, req.StartYear)
	if err != nil {
		return nil, err
	}
	alerts, err := p.radd.Extract(ctx, area, req.StartYear, req.EndYear)
	if err != nil {
		return nil, err
	}

	hansenMask := alerting.Binarize(lossYears).Rename(lossYears.Name)
	raddMask := alerting.Binarize(alerts).Rename(alerts.Name)

	merged, err := p.merger.Merge(lossYears, alerts, area)
	if err != nil {
		return nil, err
	}

	estimates := make([]domainAnalysis.AreaEstimate, 0, 3)
	for _, m := range []struct {
		dataset string
		mask    *raster.Layer
		scale   float64
	}{
		{reporting.DatasetHansen, hansenMask, p.cfg.HansenScale},
		{reporting.DatasetRADD, raddMask, p.cfg.RADDScale},
		{reporting.DatasetMerged, merged, p.cfg.RADDScale},
	} {
		ha, err := raster.AreaHectares(m.mask, area.Geometry, m.scale, p.cfg.MaxPixels)
		if err != nil {
			return nil, err
		}
		estimates = append(estimates, domainAnalysis.AreaEstimate{
			Dataset:     m.dataset,
			Hectares:    ha,
			ScaleMeters: m.scale,
		})
		metrics.ObserveEstimate(m.dataset, ha)
	}

	elapsed := time.Since(started)
	metrics.ObservePipelineDuration(elapsed)

	p.logger.Info("pipeline executed",
		logging.String("aoi", req.AOIAssetID),
		logging.Int("start_year", req.StartYear),
		logging.Int("end_year", req.EndYear),
		logging.Duration("elapsed", elapsed))

	return &Result{
		AOI:        area,
		HansenLoss: lossYears,
		HansenMask: hansenMask,
		RADDMask:   raddMask,
		Merged:     merged,
		Estimates:  estimates,
		Elapsed:    elapsed,
	}, nil
}
