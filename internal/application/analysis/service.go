package analysis

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/reporting"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/config"
	domainAnalysis "github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/metrics"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/types/common"
)

// EstimateCache stores computed hectare estimates keyed by request shape so
// repeated analyses of an unchanged AOI and window skip the catalog.
type EstimateCache interface {
	Get(ctx context.Context, key string) ([]domainAnalysis.AreaEstimate, bool, error)
	Set(ctx context.Context, key string, estimates []domainAnalysis.AreaEstimate) error
}

// ArtifactStore persists rendered run outputs in object storage.
type ArtifactStore interface {
	// Put stores data under a run-scoped key and returns that key.
	Put(ctx context.Context, runID common.ID, name string, contentType string, data []byte) (string, error)
}

// EventPublisher emits run lifecycle events to the message bus.
type EventPublisher interface {
	RunCompleted(ctx context.Context, run *domainAnalysis.Run) error
	AlertIntegrated(ctx context.Context, run *domainAnalysis.Run, merged domainAnalysis.AreaEstimate) error
}

// ReportIndexer makes finished runs searchable.
type ReportIndexer interface {
	IndexRun(ctx context.Context, run *domainAnalysis.Run) error
}

// Service drives run lifecycles around the pipeline.  The cache, artifact
// store, publisher and indexer may be nil; missing side channels degrade to
// a log line rather than failing the run.
type Service struct {
	repo      domainAnalysis.Repository
	pipeline  *Pipeline
	cache     EstimateCache
	artifacts ArtifactStore
	events    EventPublisher
	indexer   ReportIndexer
	cfg       config.PipelineConfig
	logger    logging.Logger
}

// NewService wires a run service.
func NewService(
	repo domainAnalysis.Repository,
	pipeline *Pipeline,
	cache EstimateCache,
	artifacts ArtifactStore,
	events EventPublisher,
	indexer ReportIndexer,
	cfg config.PipelineConfig,
	log logging.Logger,
) *Service {
	return &Service{
		repo:      repo,
		pipeline:  pipeline,
		cache:     cache,
		artifacts: artifacts,
		events:    events,
		indexer:   indexer,
		cfg:       cfg,
		logger:    log.Named("analysis"),
	}
}

// Submit validates the request, fills defaulted years and persists a queued
// run for a worker to pick up.
func (s *Service) Submit(ctx context.Context, req domainAnalysis.Request) (*domainAnalysis.Run, error) {
	if req.StartYear == 0 {
		req.StartYear = s.cfg.DefaultStartYear
	}
	if req.EndYear == 0 {
		req.EndYear = s.cfg.DefaultEndYear
	}

	run, err := domainAnalysis.NewRun(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, run); err != nil {
		return nil, err
	}

	s.logger.Info("run submitted",
		logging.String("run_id", string(run.ID)),
		logging.String("aoi", req.AOIAssetID))
	return run, nil
}

// Execute runs the pipeline for a queued run and drives it to a terminal
// status.  A pipeline failure is recorded on the run and returned.
func (s *Service) Execute(ctx context.Context, runID common.ID) (*domainAnalysis.Run, error) {
	run, err := s.repo.FindByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := run.Start(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, run); err != nil {
		return nil, err
	}

	result, err := s.pipeline.Execute(ctx, run.Request)
	if err != nil {
		return s.fail(ctx, run, err)
	}
	run.AOIName = result.AOI.Name

	if s.artifacts != nil {
		if key, aerr := s.storeReport(ctx, run, result); aerr != nil {
			s.logger.Warn("report artifact not stored",
				logging.String("run_id", string(run.ID)), logging.Err(aerr))
		} else {
			run.ArtifactKeys = append(run.ArtifactKeys, key)
		}
		if key, aerr := s.storeMapDocument(ctx, run, result); aerr != nil {
			s.logger.Warn("map artifact not stored",
				logging.String("run_id", string(run.ID)), logging.Err(aerr))
		} else {
			run.ArtifactKeys = append(run.ArtifactKeys, key)
		}
		run.ArtifactKeys = append(run.ArtifactKeys, s.storeMaskImages(ctx, run, result)...)
	}

	if err := run.Complete(result.Estimates); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, run); err != nil {
		return nil, err
	}
	metrics.IncRun(string(run.Status))

	if s.cache != nil {
		if cerr := s.cache.Set(ctx, s.cacheKey(result.AOI.CellToken(), run.Request), run.Estimates); cerr != nil {
			s.logger.Warn("estimates not cached",
				logging.String("run_id", string(run.ID)), logging.Err(cerr))
		}
	}
	s.publish(ctx, run)
	if s.indexer != nil {
		if ierr := s.indexer.IndexRun(ctx, run); ierr != nil {
			s.logger.Warn("run not indexed",
				logging.String("run_id", string(run.ID)), logging.Err(ierr))
		}
	}

	s.logger.Info("run completed",
		logging.String("run_id", string(run.ID)),
		logging.String("aoi", run.Request.AOIAssetID),
		logging.Duration("elapsed", result.Elapsed))
	return run, nil
}

// Analyze is the synchronous path: submit and execute in one call.
func (s *Service) Analyze(ctx context.Context, req domainAnalysis.Request) (*domainAnalysis.Run, error) {
	run, err := s.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, run.ID)
}

// QuickEstimates returns the hectare figures for a request without creating
// a run, serving from cache when the same AOI and window were measured
// before.
func (s *Service) QuickEstimates(ctx context.Context, req domainAnalysis.Request) ([]domainAnalysis.AreaEstimate, error) {
	if req.StartYear == 0 {
		req.StartYear = s.cfg.DefaultStartYear
	}
	if req.EndYear == 0 {
		req.EndYear = s.cfg.DefaultEndYear
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	area, err := s.pipeline.Boundary(ctx, req.AOIAssetID)
	if err != nil {
		return nil, err
	}
	if ests, ok, cerr := s.CachedEstimates(ctx, area.CellToken(), req); cerr != nil {
		s.logger.Warn("estimate cache lookup failed", logging.Err(cerr))
	} else if ok {
		return ests, nil
	}

	result, err := s.pipeline.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		key := s.cacheKey(result.AOI.CellToken(), req)
		if cerr := s.cache.Set(ctx, key, result.Estimates); cerr != nil {
			s.logger.Warn("estimates not cached", logging.Err(cerr))
		}
	}
	return result.Estimates, nil
}

// CachedEstimates looks up previously computed estimates for a request.
// The boolean reports whether the cache held them.
func (s *Service) CachedEstimates(ctx context.Context, cellToken string, req domainAnalysis.Request) ([]domainAnalysis.AreaEstimate, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}
	ests, ok, err := s.cache.Get(ctx, s.cacheKey(cellToken, req))
	if err != nil {
		return nil, false, err
	}
	if ok {
		metrics.IncCacheHit()
	} else {
		metrics.IncCacheMiss()
	}
	return ests, ok, nil
}

// Get returns a run by ID.
func (s *Service) Get(ctx context.Context, runID common.ID) (*domainAnalysis.Run, error) {
	return s.repo.FindByID(ctx, runID)
}

// List returns runs matching the filter plus the total match count.
func (s *Service) List(ctx context.Context, filter domainAnalysis.ListFilter) ([]*domainAnalysis.Run, int64, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) fail(ctx context.Context, run *domainAnalysis.Run, cause error) (*domainAnalysis.Run, error) {
	if ferr := run.Fail(cause.Error()); ferr != nil {
		s.logger.Error("run could not be marked failed",
			logging.String("run_id", string(run.ID)), logging.Err(ferr))
		return nil, cause
	}
	if uerr := s.repo.Update(ctx, run); uerr != nil {
		s.logger.Error("failed run not persisted",
			logging.String("run_id", string(run.ID)), logging.Err(uerr))
	}
	metrics.IncRun(string(run.Status))
	return run, cause
}

func (s *Service) publish(ctx context.Context, run *domainAnalysis.Run) {
	if s.events == nil {
		return
	}
	if err := s.events.RunCompleted(ctx, run); err != nil {
		s.logger.Warn("run-completed event not published",
			logging.String("run_id", string(run.ID)), logging.Err(err))
	}
	if merged, ok := run.Estimate(reporting.DatasetMerged); ok && merged.Hectares > 0 {
		if err := s.events.AlertIntegrated(ctx, run, merged); err != nil {
			s.logger.Warn("alert-integrated event not published",
				logging.String("run_id", string(run.ID)), logging.Err(err))
		}
	}
}

func (s *Service) storeReport(ctx context.Context, run *domainAnalysis.Run, result *Result) (string, error) {
	// The report renders from a completed snapshot; the live run is still
	// running at this point.
	snapshot := *run
	snapshot.AOIName = result.AOI.Name
	snapshot.Status = domainAnalysis.StatusCompleted
	snapshot.Estimates = result.Estimates

	var buf bytes.Buffer
	if err := reporting.NewReporter(&buf).WriteSummary(&snapshot); err != nil {
		return "", err
	}
	return s.artifacts.Put(ctx, run.ID, "report.txt", "text/plain; charset=utf-8", buf.Bytes())
}

func (s *Service) storeMapDocument(ctx context.Context, run *domainAnalysis.Run, result *Result) (string, error) {
	registry := reporting.NewDocumentRegistry()
	err := reporting.ComposeMap(registry, reporting.MapInputs{
		AOI:    result.AOI,
		Hansen: result.HansenLoss,
		RADD:   result.RADDMask,
		Merged: result.Merged,
	}, s.cfg.MapZoom)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := registry.WriteTo(&buf); err != nil {
		return "", err
	}
	return s.artifacts.Put(ctx, run.ID, "map.json", "application/json", buf.Bytes())
}

// storeMaskImages renders each styled raster layer to a PNG artifact and
// returns the stored keys.  Render or upload failures skip that layer.
func (s *Service) storeMaskImages(ctx context.Context, run *domainAnalysis.Run, result *Result) []string {
	names := map[string]string{
		"Hansen forest loss": "hansen.png",
		"RADD radar alerts":  "radd.png",
		"Integrated alerts":  "merged.png",
	}

	var keys []string
	for _, layer := range reporting.StandardLayers(reporting.MapInputs{
		AOI:    result.AOI,
		Hansen: result.HansenLoss,
		RADD:   result.RADDMask,
		Merged: result.Merged,
	}) {
		if layer.Raster == nil {
			continue
		}
		data, err := reporting.RenderPNG(layer.Raster, layer.Vis)
		if err != nil {
			s.logger.Warn("mask image not rendered",
				logging.String("run_id", string(run.ID)),
				logging.String("layer", layer.Name), logging.Err(err))
			continue
		}
		key, err := s.artifacts.Put(ctx, run.ID, names[layer.Name], "image/png", data)
		if err != nil {
			s.logger.Warn("mask image not stored",
				logging.String("run_id", string(run.ID)),
				logging.String("layer", layer.Name), logging.Err(err))
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func (s *Service) cacheKey(cellToken string, req domainAnalysis.Request) string {
	return fmt.Sprintf("%s:%s:%d:%d", cellToken, req.AOIAssetID, req.StartYear, req.EndYear)
}
