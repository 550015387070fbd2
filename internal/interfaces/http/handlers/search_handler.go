package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/search/opensearch"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// RunSearcher queries the run index.
type RunSearcher interface {
	Search(ctx context.Context, req opensearch.SearchRequest) (*opensearch.SearchResult, error)
}

// SearchHandler serves full-text and filtered run search.
type SearchHandler struct {
	searcher RunSearcher
}

// NewSearchHandler constructs a SearchHandler.
func NewSearchHandler(searcher RunSearcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// Search handles GET /api/v1/runs/search.  Supported query parameters:
// q (AOI name text), aoi_asset_id, status, min_merged_ha, from, size.
func (h *SearchHandler) Search(c *gin.Context) {
	req := opensearch.SearchRequest{
		Text:       c.Query("q"),
		AOIAssetID: c.Query("aoi_asset_id"),
		Status:     c.Query("status"),
	}
	if v := c.Query("min_merged_ha"); v != "" {
		ha, err := strconv.ParseFloat(v, 64)
		if err != nil || ha < 0 {
			respondError(c, errors.Newf(errors.CodeInvalidParam, "min_merged_ha %q is not a non-negative number", v))
			return
		}
		req.MinMergedHectares = ha
	}
	if v := c.Query("from"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			req.From = n
		}
	}
	if v := c.Query("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			req.Size = n
		}
	}

	result, err := h.searcher.Search(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}
