package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/analysis"
	domainAnalysis "github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// EstimateHandler serves ad-hoc hectare estimates without run bookkeeping.
type EstimateHandler struct {
	service *analysis.Service
}

// NewEstimateHandler constructs an EstimateHandler.
func NewEstimateHandler(svc *analysis.Service) *EstimateHandler {
	return &EstimateHandler{service: svc}
}

type estimateRequest struct {
	AOIAssetID string `json:"aoi_asset_id" binding:"required"`
	StartYear  int    `json:"start_year"`
	EndYear    int    `json:"end_year"`
}

// Compute handles POST /api/v1/estimates.  The pipeline runs inline; results
// feed the estimate cache for later lookups.
func (h *EstimateHandler) Compute(c *gin.Context) {
	var body estimateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInvalidParam, "malformed request body"))
		return
	}

	estimates, err := h.service.QuickEstimates(c.Request.Context(), domainAnalysis.Request{
		AOIAssetID: body.AOIAssetID,
		StartYear:  body.StartYear,
		EndYear:    body.EndYear,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, estimates)
}
