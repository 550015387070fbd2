package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/analysis"
	domainAnalysis "github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/types/common"
)

// RunDispatcher hands a queued run to the background workers.
type RunDispatcher interface {
	RunSubmitted(ctx context.Context, run *domainAnalysis.Run) error
}

// ArtifactSigner issues short-lived download URLs for stored run artifacts.
type ArtifactSigner interface {
	PresignedURL(ctx context.Context, key string) (string, error)
}

// RunHandler serves the analysis-run resource.
type RunHandler struct {
	service    *analysis.Service
	dispatcher RunDispatcher
	signer     ArtifactSigner
	logger     logging.Logger
}

// NewRunHandler constructs a RunHandler.  dispatcher and signer may be nil;
// submission then falls back to synchronous execution and artifact links are
// omitted.
func NewRunHandler(svc *analysis.Service, dispatcher RunDispatcher, signer ArtifactSigner, log logging.Logger) *RunHandler {
	return &RunHandler{
		service:    svc,
		dispatcher: dispatcher,
		signer:     signer,
		logger:     log.Named("run_handler"),
	}
}

// submitRequest is the POST /runs body.
type submitRequest struct {
	AOIAssetID string `json:"aoi_asset_id" binding:"required"`
	StartYear  int    `json:"start_year"`
	EndYear    int    `json:"end_year"`
}

// Submit handles POST /api/v1/runs.  It queues the run for the workers and
// returns 202; with ?sync=true it executes inline and returns the finished
// run.
func (h *RunHandler) Submit(c *gin.Context) {
	var body submitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInvalidParam, "malformed request body"))
		return
	}
	req := domainAnalysis.Request{
		AOIAssetID: body.AOIAssetID,
		StartYear:  body.StartYear,
		EndYear:    body.EndYear,
	}

	if c.Query("sync") == "true" || h.dispatcher == nil {
		run, err := h.service.Analyze(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, run)
		return
	}

	run, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.dispatcher.RunSubmitted(c.Request.Context(), run); err != nil {
		// The run is persisted as queued; a later requeue can pick it up.
		h.logger.Error("run not dispatched",
			logging.String("run_id", string(run.ID)), logging.Err(err))
		respondError(c, err)
		return
	}
	respond(c, http.StatusAccepted, run)
}

// Get handles GET /api/v1/runs/:id.
func (h *RunHandler) Get(c *gin.Context) {
	run, err := h.service.Get(c.Request.Context(), common.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, run)
}

// List handles GET /api/v1/runs with optional status and aoi_asset_id
// filters.
func (h *RunHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)
	filter := domainAnalysis.ListFilter{
		AOIAssetID: c.Query("aoi_asset_id"),
		Page:       page,
		PageSize:   pageSize,
	}
	if v := c.Query("status"); v != "" {
		status := domainAnalysis.RunStatus(v)
		switch status {
		case domainAnalysis.StatusQueued, domainAnalysis.StatusRunning,
			domainAnalysis.StatusCompleted, domainAnalysis.StatusFailed:
			filter.Status = &status
		default:
			respondError(c, errors.Newf(errors.CodeInvalidParam, "unknown status %q", v))
			return
		}
	}

	runs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, runs, common.Pagination{Page: page, PageSize: pageSize, Total: total})
}

// artifactLink pairs a stored artifact key with its download URL.
type artifactLink struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Artifacts handles GET /api/v1/runs/:id/artifacts and returns presigned
// download links for the run's stored outputs.
func (h *RunHandler) Artifacts(c *gin.Context) {
	if h.signer == nil {
		respondError(c, errors.New(errors.CodeServiceUnavailable, "artifact storage is not configured"))
		return
	}
	run, err := h.service.Get(c.Request.Context(), common.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}

	links := make([]artifactLink, 0, len(run.ArtifactKeys))
	for _, key := range run.ArtifactKeys {
		url, err := h.signer.PresignedURL(c.Request.Context(), key)
		if err != nil {
			respondError(c, err)
			return
		}
		links = append(links, artifactLink{Key: key, URL: url})
	}
	respond(c, http.StatusOK, links)
}
